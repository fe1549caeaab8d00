package hospauth

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mediboard/hospauth/internal/flows"
	"github.com/mediboard/hospauth/store"
	"github.com/mediboard/hospauth/token"
)

// Manager is the single authority over session state. Every mutation of the
// user profile, the in-memory tokens, and the initialization/logged-out
// flags goes through it; the guard and the UI layer receive [Session]
// snapshots and never mutate.
//
// Manager is safe for concurrent use after [Builder.Build].
type Manager struct {
	config  Config
	codec   *token.Codec
	store   store.TokenStore
	api     API
	flows   flows.Service
	audit   *auditDispatcher
	metrics *Metrics
	log     *zap.Logger

	group singleflight.Group

	mu           sync.Mutex
	user         *UserProfile
	accessToken  string
	refreshToken string
	initializing bool
	initDone     bool
	loggedOut    bool
	started      bool
	refreshing   int
	// generation fences in-flight refreshes: Logout bumps it, and a refresh
	// result carrying a stale generation is discarded instead of committed.
	generation uint64
}

// Close flushes and stops the audit dispatcher.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	if m.audit != nil {
		m.audit.Close()
	}
}

// Snapshot returns a copy of the current session. The profile and its
// hospital list are deep-copied so holders of old snapshots never observe
// later mutations.
func (m *Manager) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Session {
	sess := Session{
		AccessToken:  m.accessToken,
		RefreshToken: m.refreshToken,
		Initializing: m.initializing,
		LoggedOut:    m.loggedOut,
		state:        m.stateLocked(),
	}
	if m.user != nil {
		u := *m.user
		u.Hospitals = append([]Hospital(nil), m.user.Hospitals...)
		sess.User = &u
	}
	return sess
}

func (m *Manager) stateLocked() SessionState {
	switch {
	case !m.started:
		return StateUninitialized
	case m.refreshing > 0:
		return StateRefreshing
	case m.user != nil && m.accessToken != "":
		return StateAuthenticated
	default:
		return StateUnauthenticated
	}
}

// State returns the coarse lifecycle state.
func (m *Manager) State() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

// IsSessionValid reports whether the session can be used as-is: a profile is
// present, an access token is present, and the token is not expired.
func (m *Manager) IsSessionValid() bool {
	m.mu.Lock()
	user, access := m.user, m.accessToken
	m.mu.Unlock()
	return user != nil && access != "" && !m.codec.IsExpired(access)
}

// ConsumeLoggedOut atomically reads and resets the logged-out flag. The
// guard uses it to emit its "logged out" notification exactly once.
func (m *Manager) ConsumeLoggedOut() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	was := m.loggedOut
	m.loggedOut = false
	return was
}

// UpdateProfile shallow-merges patch into the current profile without
// touching tokens. No-op when no profile is present.
func (m *Manager) UpdateProfile(patch ProfilePatch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return
	}
	if patch.FullName != nil {
		m.user.FullName = *patch.FullName
	}
	if patch.Email != nil {
		m.user.Email = *patch.Email
	}
	if patch.Phone != nil {
		m.user.Phone = *patch.Phone
	}
	if patch.Hospitals != nil {
		m.user.Hospitals = append([]Hospital(nil), patch.Hospitals...)
	}
}

// Logout is the terminal reset transition: it clears the in-memory session
// synchronously, bumps the refresh generation so any in-flight refresh
// result is discarded, clears durable token storage, and marks
// initialization complete. Safe to call when already logged out.
func (m *Manager) Logout(ctx context.Context) error {
	if m == nil {
		return ErrManagerNotReady
	}

	m.mu.Lock()
	m.generation++
	hadUser := m.user != nil
	m.user = nil
	m.accessToken = ""
	m.refreshToken = ""
	m.loggedOut = true
	m.started = true
	m.initializing = false
	m.initDone = true
	m.mu.Unlock()

	m.metrics.Inc(MetricLogout)
	m.emit(ctx, AuditEvent{
		EventType: "session.logout",
		State:     StateUnauthenticated.String(),
		Success:   true,
	})
	if hadUser {
		m.log.Info("session logged out")
	}

	if err := m.store.Clear(ctx); err != nil {
		m.log.Warn("durable token clear failed", zap.Error(err))
		return err
	}
	return nil
}

// finishInitialization flips Initializing to false. It fires at most once
// per app load regardless of which bootstrap branch ran.
func (m *Manager) finishInitialization() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initDone {
		return
	}
	m.initDone = true
	m.initializing = false
}

func (m *Manager) currentGeneration() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

func (m *Manager) emit(ctx context.Context, event AuditEvent) {
	if m.audit == nil {
		return
	}
	if event.UserID == "" {
		m.mu.Lock()
		if m.user != nil {
			event.UserID = m.user.ID
		}
		m.mu.Unlock()
	}
	m.audit.Emit(ctx, event)
}

// Routes exposes the configured redirect entry points to the guard layer.
func (m *Manager) Routes() RouteConfig {
	return m.config.Routes
}

// AuditDropped reports how many audit events were dropped on a full buffer.
func (m *Manager) AuditDropped() uint64 {
	if m == nil {
		return 0
	}
	return m.audit.Dropped()
}

// MetricsSnapshot deep-copies the manager's counters.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil || m.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return m.metrics.Snapshot()
}
