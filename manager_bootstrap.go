package hospauth

import (
	"context"

	"go.uber.org/zap"

	"github.com/mediboard/hospauth/internal/flows"
)

// Bootstrap recovers session state at application startup. A present,
// unexpired stored access token is reused without any network call to the
// refresh endpoint; an absent, expired, or undecodable one funnels through
// one silent refresh; a failed refresh degrades to the logged-out state.
//
// In every branch, success or failure, Initializing ends false exactly
// once. The caller must not render protected routes before Bootstrap
// returns.
func (m *Manager) Bootstrap(ctx context.Context) error {
	if m == nil || !m.flows.Initialized() {
		return ErrManagerNotReady
	}

	m.mu.Lock()
	m.started = true
	m.refreshing++
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.refreshing--
		m.mu.Unlock()
		m.finishInitialization()
	}()

	res := m.flows.Bootstrap(ctx)
	switch res.Outcome {
	case flows.BootstrapAuthenticated:
		profile, err := profileFromFlow(res.Profile)
		if err != nil {
			return m.bootstrapFailed(ctx, err)
		}
		refresh, readErr := m.store.RefreshToken(ctx)
		if readErr != nil {
			m.log.Warn("refresh token read during bootstrap failed", zap.Error(readErr))
		}

		m.mu.Lock()
		m.user = profile
		m.accessToken = res.AccessToken
		m.refreshToken = refresh
		m.loggedOut = false
		m.mu.Unlock()

		m.metrics.Inc(MetricBootstrapAuthenticated)
		m.emit(ctx, AuditEvent{
			EventType: "session.bootstrap",
			UserID:    profile.ID,
			State:     StateAuthenticated.String(),
			Success:   true,
		})
		m.log.Info("bootstrap reused stored access token", zap.String("user_id", profile.ID))
		return nil

	case flows.BootstrapRefreshed:
		// The coalesced refresh already committed (or was discarded by a
		// racing logout, leaving the session unauthenticated).
		m.metrics.Inc(MetricBootstrapAuthenticated)
		m.emit(ctx, AuditEvent{
			EventType: "session.bootstrap",
			State:     m.State().String(),
			Success:   true,
		})
		m.log.Info("bootstrap recovered session via refresh")
		return nil

	default:
		return m.bootstrapFailed(ctx, res.Err)
	}
}

// bootstrapFailed degrades to the logged-out state. The error is returned
// for observability; callers typically let the guard translate the
// resulting state into a login redirect instead of surfacing it.
func (m *Manager) bootstrapFailed(ctx context.Context, err error) error {
	if logoutErr := m.Logout(ctx); logoutErr != nil {
		m.log.Warn("logout during failed bootstrap failed", zap.Error(logoutErr))
	}
	m.metrics.Inc(MetricBootstrapUnauthenticated)
	m.emit(ctx, AuditEvent{
		EventType: "session.bootstrap",
		State:     StateUnauthenticated.String(),
		Success:   false,
		Error:     errString(err),
	})
	m.log.Info("bootstrap ended unauthenticated", zap.Error(err))
	return err
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
