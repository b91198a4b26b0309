// Package ratelimit implements the per-buyer purchase limit: a sliding window
// counter with a fixed cooldown once the window holds too many purchases.
//
// Everything here is pure. Callers own the History, load it from storage,
// and persist it after calling RecordPurchase or Sweep.
package ratelimit

import (
	"slices"
	"time"
)

// Policy configures the limiter.
type Policy struct {
	// MaxPurchases is the number of purchases allowed inside Window.
	// The purchase after that arms the cooldown.
	MaxPurchases int
	Window       time.Duration
	Cooldown     time.Duration
}

// DefaultPolicy allows six purchases per ten minutes with a thirty minute cooldown.
func DefaultPolicy() Policy {
	return Policy{
		MaxPurchases: 6,
		Window:       10 * time.Minute,
		Cooldown:     30 * time.Minute,
	}
}

// Purchase is one recorded purchase.
type Purchase struct {
	Timestamp time.Time `json:"timestamp"`
	CourseID  int       `json:"courseId"`
}

// Entry is the purchase history of one buyer.
type Entry struct {
	BuyerHandle   string     `json:"buyerHandle"`
	Purchases     []Purchase `json:"purchases"`
	CooldownUntil *time.Time `json:"cooldownUntil,omitempty"`
}

// History maps buyer handles to their entries.
type History map[string]Entry

// Limiter applies a Policy to a History.
type Limiter struct {
	policy Policy
}

// New creates a limiter for the given policy.
func New(policy Policy) *Limiter {
	return &Limiter{policy: policy}
}

// Policy returns the limiter's policy.
func (l *Limiter) Policy() Policy {
	return l.policy
}

// IsOnCooldown reports whether handle has a cooldown ending strictly after now.
func (l *Limiter) IsOnCooldown(h History, handle string, now time.Time) bool {
	entry, ok := h[handle]
	if !ok {
		return false
	}
	return entry.onCooldown(now)
}

// RemainingCooldown returns how long handle stays blocked, or zero.
func (l *Limiter) RemainingCooldown(h History, handle string, now time.Time) time.Duration {
	entry, ok := h[handle]
	if !ok || entry.CooldownUntil == nil {
		return 0
	}
	return max(0, entry.CooldownUntil.Sub(now))
}

// RecordPurchase appends a purchase for handle, prunes purchases outside the
// window and arms the cooldown when the pruned count exceeds MaxPurchases.
// An existing cooldown is never cleared here. It returns the entry's
// cooldown, which may be nil.
func (l *Limiter) RecordPurchase(h History, handle string, courseID int, now time.Time) *time.Time {
	entry, ok := h[handle]
	if !ok {
		entry = Entry{BuyerHandle: handle}
	}

	purchases := append(slices.Clone(entry.Purchases), Purchase{Timestamp: now, CourseID: courseID})

	cutoff := now.Add(-l.policy.Window)
	entry.Purchases = slices.DeleteFunc(purchases, func(p Purchase) bool {
		return !p.Timestamp.After(cutoff)
	})

	if len(entry.Purchases) > l.policy.MaxPurchases {
		until := now.Add(l.policy.Cooldown)
		entry.CooldownUntil = &until
	}

	h[handle] = entry
	return entry.CooldownUntil
}

// Sweep drops cooldowns that ended before now and returns the affected
// handles in sorted order. Purchases are left untouched.
func (l *Limiter) Sweep(h History, now time.Time) []string {
	var cleared []string
	for handle, entry := range h {
		if entry.CooldownUntil != nil && entry.CooldownUntil.Before(now) {
			entry.CooldownUntil = nil
			h[handle] = entry
			cleared = append(cleared, handle)
		}
	}
	slices.Sort(cleared)
	return cleared
}

func (e Entry) onCooldown(now time.Time) bool {
	return e.CooldownUntil != nil && e.CooldownUntil.After(now)
}
