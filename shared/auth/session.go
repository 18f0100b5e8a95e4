// Package auth holds the current credential session. The session object is
// injected explicitly into every component that needs authorization instead
// of being read from ambient process-wide storage, which keeps tests and
// multi-session setups straightforward.
package auth

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the single current credential: written at login, cleared at
// logout, read by every authenticated call.
type Session struct {
	mu    sync.RWMutex
	token string
	store *Store
}

// NewSession builds a session backed by the given store, restoring any
// previously persisted token.
func NewSession(store *Store) (*Session, error) {
	token, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("restoring session: %w", err)
	}
	return &Session{token: token, store: store}, nil
}

// Token returns the current bearer credential, empty when logged out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Login stores a new credential and persists it.
func (s *Session) Login(token string) error {
	if token == "" {
		return fmt.Errorf("empty credential")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Save(token); err != nil {
		return err
	}
	s.token = token
	return nil
}

// Logout clears the credential from memory and durable storage.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Clear(); err != nil {
		return err
	}
	s.token = ""
	return nil
}

// Authenticated reports whether a usable credential is present. A token
// carrying an exp claim that has passed counts as absent, so protected
// routes redirect to re-authentication instead of issuing a doomed call.
func (s *Session) Authenticated() bool {
	token := s.Token()
	if token == "" {
		return false
	}
	return !expired(token)
}

// expired inspects the token's exp claim without verifying the signature;
// verification is the API server's job, we only need the deadline.
func expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		// Opaque non-JWT tokens carry no readable deadline; let the server
		// decide.
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
