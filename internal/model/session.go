package model

import (
	"regexp"
	"strings"
)

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_]{5,32}$`)

// NormalizeHandle trims s, drops a single leading '@' and validates the result
// against Telegram's username rules.
func NormalizeHandle(s string) (string, error) {
	handle := strings.TrimSpace(s)
	handle = strings.TrimPrefix(handle, "@")

	if handle == "" {
		return "", ErrHandleRequired
	}

	if !handlePattern.MatchString(handle) {
		return "", ErrInvalidHandle
	}

	return handle, nil
}

// SessionRequest sets the buyer's Telegram username.
type SessionRequest struct {
	Username string `json:"username"`
}

// AccessCodeRequest carries the operator access code.
type AccessCodeRequest struct {
	AccessCode string `json:"accessCode"`
}

// SessionResponse describes the per-browser state of the caller.
type SessionResponse struct {
	Username                 string `json:"username,omitempty"`
	IsAdmin                  bool   `json:"isAdmin"`
	ShowAdminTab             bool   `json:"showAdminTab"`
	HasPurchased             bool   `json:"hasPurchased"`
	OnCooldown               bool   `json:"onCooldown"`
	CooldownRemainingSeconds int64  `json:"cooldownRemainingSeconds,omitempty"`
}
