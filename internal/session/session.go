// Package session keeps per-browser state in a signed cookie.
package session

import (
	"fmt"
	"net/http"

	"coursehunter/internal/config"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
)

const (
	keyBuyerHandle  = "buyer_handle"
	keyIsAdmin      = "is_admin"
	keyShowAdminTab = "show_admin_tab"
	keyHasPurchased = "has_purchased"
)

// State is the per-browser state carried by the session cookie.
type State struct {
	BuyerHandle  string
	IsAdmin      bool
	ShowAdminTab bool
	HasPurchased bool
}

// Store reads and writes State for a request.
type Store interface {
	// Get returns the state for r. Missing or undecodable cookies yield the zero State.
	Get(r *http.Request) (State, error)

	// Save writes state to the response cookie.
	Save(w http.ResponseWriter, r *http.Request, state State) error

	// Clear expires the session cookie.
	Clear(w http.ResponseWriter, r *http.Request) error
}

// cookieStore implements Store using a gorilla/sessions CookieStore.
type cookieStore struct {
	store  *sessions.CookieStore
	name   string
	logger zerolog.Logger
}

// NewCookieStore creates a cookie backed session store signed with cfg.Key.
func NewCookieStore(cfg config.SessionConfig, logger zerolog.Logger) Store {
	store := sessions.NewCookieStore([]byte(cfg.Key))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(cfg.MaxAge)

	return &cookieStore{
		store:  store,
		name:   cfg.Name,
		logger: logger.With().Str("component", "session").Logger(),
	}
}

// Get returns the state for r.
func (s *cookieStore) Get(r *http.Request) (State, error) {
	sess, err := s.store.Get(r, s.name)
	if err != nil {
		s.logger.Debug().Err(err).Msg("discarding undecodable session cookie")
		return State{}, nil
	}

	return State{
		BuyerHandle:  stringValue(sess.Values[keyBuyerHandle]),
		IsAdmin:      boolValue(sess.Values[keyIsAdmin]),
		ShowAdminTab: boolValue(sess.Values[keyShowAdminTab]),
		HasPurchased: boolValue(sess.Values[keyHasPurchased]),
	}, nil
}

// Save writes state to the response cookie.
func (s *cookieStore) Save(w http.ResponseWriter, r *http.Request, state State) error {
	// A decode error still returns a fresh session, which is overwritten here.
	sess, _ := s.store.Get(r, s.name)

	sess.Values[keyBuyerHandle] = state.BuyerHandle
	sess.Values[keyIsAdmin] = state.IsAdmin
	sess.Values[keyShowAdminTab] = state.ShowAdminTab
	sess.Values[keyHasPurchased] = state.HasPurchased

	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear expires the session cookie.
func (s *cookieStore) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, _ := s.store.Get(r, s.name)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1

	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func boolValue(v any) bool {
	b, _ := v.(bool)
	return b
}
