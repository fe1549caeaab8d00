package store

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrUnavailable wraps backend failures. An absent token is not an error:
// getters return the empty string for it.
var ErrUnavailable = errors.New("token store unavailable")

// TokenStore is the persistence contract the session manager depends on.
// All methods are safe for concurrent use.
type TokenStore interface {
	AccessToken(ctx context.Context) (string, error)
	SetAccessToken(ctx context.Context, tok string) error
	ClearAccessToken(ctx context.Context) error

	RefreshToken(ctx context.Context) (string, error)
	SetRefreshToken(ctx context.Context, tok string, expiry time.Time) error
	ClearRefreshToken(ctx context.Context) error

	// Clear removes both tokens. Used by logout; must be idempotent.
	Clear(ctx context.Context) error
}

// MemoryStore is a process-local TokenStore for tests and single-process
// embedding. The refresh expiry is enforced on read.
type MemoryStore struct {
	mu            sync.Mutex
	access        string
	refresh       string
	refreshExpiry time.Time
	now           func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// SetClock overrides the expiry clock. Test hook.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) AccessToken(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access, nil
}

func (s *MemoryStore) SetAccessToken(_ context.Context, tok string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = tok
	return nil
}

func (s *MemoryStore) ClearAccessToken(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = ""
	return nil
}

func (s *MemoryStore) RefreshToken(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refresh != "" && !s.refreshExpiry.IsZero() && !s.refreshExpiry.After(s.now()) {
		s.refresh = ""
		s.refreshExpiry = time.Time{}
	}
	return s.refresh, nil
}

func (s *MemoryStore) SetRefreshToken(_ context.Context, tok string, expiry time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = tok
	s.refreshExpiry = expiry
	return nil
}

func (s *MemoryStore) ClearRefreshToken(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = ""
	s.refreshExpiry = time.Time{}
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = ""
	s.refresh = ""
	s.refreshExpiry = time.Time{}
	return nil
}
