package hospauth

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mediboard/hospauth/internal/flows"
)

// Login exchanges credentials for a session. It is fail-closed: a response
// missing any token field yields [ErrInvalidCredentialsResponse] with the
// store untouched, and an undecodable access token yields [ErrTokenDecode]
// without persisting anything. On success both tokens are durable, the
// profile is fetched by the token subject, and the logged-out flag is
// cleared.
func (m *Manager) Login(ctx context.Context, email, password string) (Session, error) {
	if m == nil || !m.flows.Initialized() {
		return Session{}, ErrManagerNotReady
	}

	res := m.flows.Login(ctx, email, password)
	if res.Failure != flows.LoginFailureNone {
		m.metrics.Inc(MetricLoginFailure)
		err := m.mapLoginFailure(ctx, res)
		m.emit(ctx, AuditEvent{
			EventType: "session.login",
			Success:   false,
			Error:     err.Error(),
		})
		m.log.Warn("login failed", zap.Error(err))
		return m.Snapshot(), err
	}

	profile, err := profileFromFlow(res.Profile)
	if err != nil {
		m.metrics.Inc(MetricLoginFailure)
		return m.Snapshot(), err
	}

	m.mu.Lock()
	m.user = profile
	m.accessToken = res.AccessToken
	m.refreshToken = res.RefreshToken
	m.loggedOut = false
	m.started = true
	m.mu.Unlock()

	m.metrics.Inc(MetricLoginSuccess)
	m.emit(ctx, AuditEvent{
		EventType: "session.login",
		UserID:    profile.ID,
		State:     StateAuthenticated.String(),
		Success:   true,
	})
	m.log.Info("login succeeded",
		zap.String("user_id", profile.ID),
		zap.String("role", profile.Role.String()),
	)

	return m.Snapshot(), nil
}

func (m *Manager) mapLoginFailure(ctx context.Context, res flows.LoginResult) error {
	switch res.Failure {
	case flows.LoginFailureIncompleteResponse:
		return ErrInvalidCredentialsResponse
	case flows.LoginFailureDecode:
		m.metrics.Inc(MetricTokenDecodeFailure)
		return fmt.Errorf("%w: %v", ErrTokenDecode, res.Err)
	case flows.LoginFailureProfile:
		// Tokens were already durable; roll them back so a failed login
		// leaves no credentials behind.
		if err := m.store.Clear(ctx); err != nil {
			m.log.Warn("login rollback failed", zap.Error(err))
		}
		m.metrics.Inc(MetricProfileFetchFailure)
		return fmt.Errorf("%w: %v", ErrProfileUnavailable, res.Err)
	case flows.LoginFailurePersist:
		return res.Err
	default:
		return res.Err
	}
}

// profileFromFlow recovers the typed profile the flow carried opaquely.
func profileFromFlow(v any) (*UserProfile, error) {
	profile, ok := v.(*UserProfile)
	if !ok || profile == nil {
		return nil, ErrProfileUnavailable
	}
	return profile, nil
}

func (m *Manager) persistTokens(ctx context.Context, access, refresh string, expiry time.Time) error {
	if err := m.store.SetRefreshToken(ctx, refresh, expiry); err != nil {
		return err
	}
	return m.store.SetAccessToken(ctx, access)
}
