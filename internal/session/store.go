// Package session holds the client-side authentication state: the
// bearer token and the identity snapshot it was issued for. The store
// is explicit, injected state rather than a process-global, so its
// lifecycle (init, verify, clear) is visible at the wiring site.
package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/valter-silva-au/taskdeck/pkg/models"
	"gopkg.in/yaml.v3"
)

// Verifier validates the current token against the backend. It is
// implemented by the API gateway client and attached during wiring to
// keep the dependency direction session <- api one-way at compile time.
type Verifier interface {
	VerifyToken(ctx context.Context) (*models.User, error)
}

// Store manages the current session. All methods are safe for
// concurrent use; mutations in flight may consult the token while a
// 401 handler clears it.
type Store struct {
	mu       sync.Mutex
	path     string
	session  models.Session
	verifier Verifier
}

// NewStore creates a Store persisting to session.yaml under basePath.
// A missing file is an empty (signed-out) session, not an error.
func NewStore(basePath string) (*Store, error) {
	s := &Store{path: filepath.Join(basePath, "session.yaml")}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.session); err != nil {
		return nil, fmt.Errorf("parsing session: %w", err)
	}
	return s, nil
}

// SetVerifier attaches the gateway used by Verify. Called once during
// app wiring, before any operation runs.
func (s *Store) SetVerifier(v Verifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifier = v
}

// Token returns the currently known bearer token without a network
// call. Empty string means no active session.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Token
}

// User returns the cached identity snapshot, or nil when signed out.
func (s *Store) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.User == nil {
		return nil
	}
	u := *s.session.User
	return &u
}

// SetSession stores and persists a fresh token and identity, as
// returned by sign-in or sign-up.
func (s *Store) SetSession(token string, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = models.Session{Token: token, User: user}
	return s.persistLocked()
}

// Verify makes exactly one network call to validate the token. On
// success the returned identity snapshot is cached. A 401 has already
// cleared the token by the time the error surfaces here.
func (s *Store) Verify(ctx context.Context) (*models.User, error) {
	s.mu.Lock()
	v := s.verifier
	token := s.session.Token
	s.mu.Unlock()

	if v == nil {
		return nil, fmt.Errorf("verifying session: no verifier attached")
	}
	if token == "" {
		return nil, fmt.Errorf("verifying session: no active session")
	}

	user, err := v.VerifyToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("verifying session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// The token may have been cleared by a concurrent 401; do not
	// resurrect a dead session with a stale verify result.
	if s.session.Token == token {
		s.session.User = user
		_ = s.persistLocked()
	}
	u := *user
	return &u, nil
}

// Clear discards the token locally and removes the persisted session.
// Server-side invalidation is the caller's fire-and-forget concern.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.Token == "" && s.session.User == nil {
		return
	}
	s.session = models.Session{}
	_ = os.Remove(s.path)
}

func (s *Store) persistLocked() error {
	data, err := yaml.Marshal(&s.session)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("saving session: creating directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}
