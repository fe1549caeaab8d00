package hospauth

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mediboard/hospauth/internal/flows"
)

// Refresh rotates the token pair using the stored refresh token. Concurrent
// callers are coalesced: while one rotation is in flight, later callers
// await its result instead of issuing a duplicate collaborator call, since
// two racing rotations would invalidate a refresh token the other assumed
// current.
//
// An absent stored refresh token, or an unauthorized answer from the
// refresh endpoint, forces a logout before the error is surfaced: an
// invalid refresh token never leaves the session half-authenticated. A
// result arriving after a logout is discarded, not committed.
func (m *Manager) Refresh(ctx context.Context) error {
	if m == nil || !m.flows.Initialized() {
		return ErrManagerNotReady
	}

	_, err, shared := m.group.Do("refresh", func() (any, error) {
		return nil, m.doRefresh(ctx)
	})
	if shared {
		m.metrics.Inc(MetricRefreshCoalesced)
	}
	return err
}

func (m *Manager) doRefresh(ctx context.Context) error {
	m.mu.Lock()
	gen := m.generation
	m.refreshing++
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.refreshing--
		m.mu.Unlock()
	}()

	res := m.flows.Refresh(ctx)
	if res.Failure != flows.RefreshFailureNone {
		m.metrics.Inc(MetricRefreshFailure)
		return m.mapRefreshFailure(ctx, res)
	}

	profile, err := profileFromFlow(res.Profile)
	if err != nil {
		m.metrics.Inc(MetricRefreshFailure)
		return err
	}

	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		// A logout won the race. The rotation already touched the store, so
		// clear it again rather than resurrect the session.
		m.metrics.Inc(MetricRefreshDiscarded)
		if clearErr := m.store.Clear(ctx); clearErr != nil {
			m.log.Warn("discarding stale refresh: token clear failed", zap.Error(clearErr))
		}
		m.log.Info("refresh result discarded after logout")
		return ErrNoRefreshToken
	}
	m.user = profile
	m.accessToken = res.AccessToken
	m.refreshToken = res.RefreshToken
	m.started = true
	m.mu.Unlock()

	m.metrics.Inc(MetricRefreshSuccess)
	m.emit(ctx, AuditEvent{
		EventType: "session.refresh",
		UserID:    profile.ID,
		State:     StateAuthenticated.String(),
		Success:   true,
	})
	return nil
}

func (m *Manager) mapRefreshFailure(ctx context.Context, res flows.RefreshResult) error {
	var err error
	switch res.Failure {
	case flows.RefreshFailureMissingTokens:
		err = ErrNoRefreshToken
		if logoutErr := m.Logout(ctx); logoutErr != nil {
			m.log.Warn("logout after missing refresh token failed", zap.Error(logoutErr))
		}
	case flows.RefreshFailureUnauthorized:
		err = fmt.Errorf("%w: %v", ErrRefreshUnauthorized, res.Err)
		if logoutErr := m.Logout(ctx); logoutErr != nil {
			m.log.Warn("logout after rejected refresh failed", zap.Error(logoutErr))
		}
	case flows.RefreshFailureDecode:
		m.metrics.Inc(MetricTokenDecodeFailure)
		err = fmt.Errorf("%w: %v", ErrTokenDecode, res.Err)
	case flows.RefreshFailureIncompleteResponse:
		err = ErrInvalidCredentialsResponse
	case flows.RefreshFailureProfile:
		m.metrics.Inc(MetricProfileFetchFailure)
		err = fmt.Errorf("%w: %v", ErrProfileUnavailable, res.Err)
	default:
		err = res.Err
	}

	m.emit(ctx, AuditEvent{
		EventType: "session.refresh",
		Success:   false,
		Error:     err.Error(),
	})
	m.log.Warn("refresh failed", zap.Error(err))
	return err
}
