package hospauth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mediboard/hospauth/internal/flows"
	"github.com/mediboard/hospauth/store"
	"github.com/mediboard/hospauth/token"
)

// Builder assembles a [Manager]. Construction is allocation-only; no I/O
// happens until the manager's lifecycle methods run.
type Builder struct {
	config Config

	api        API
	tokenStore store.TokenStore

	redisClient    *redis.Client
	redisPrefix    string
	redisPrincipal string
	redisAccessTTL time.Duration

	logger    *zap.Logger
	auditSink AuditSink

	built bool
}

// New returns a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithAPI sets the external authentication collaborators.
func (b *Builder) WithAPI(api API) *Builder {
	b.api = api
	return b
}

// WithStore sets an explicit token store. Takes precedence over WithRedis.
func (b *Builder) WithStore(ts store.TokenStore) *Builder {
	b.tokenStore = ts
	return b
}

// WithRedis builds a durable [store.RedisStore] at Build time, namespaced by
// prefix and principal. accessTTL bounds the mirrored access token's life in
// redis; zero applies the store default.
func (b *Builder) WithRedis(client *redis.Client, prefix, principal string, accessTTL time.Duration) *Builder {
	b.redisClient = client
	b.redisPrefix = prefix
	b.redisPrincipal = principal
	b.redisAccessTTL = accessTTL
	return b
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the audit sink; events flow only when Config.Audit is
// enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires the flow runner, and returns a
// ready Manager. A builder can be used once.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.api == nil {
		return nil, errors.New("api collaborators required")
	}

	ts := b.tokenStore
	if ts == nil {
		if b.redisClient == nil {
			return nil, errors.New("token store or redis client required")
		}
		rs, err := store.NewRedisStore(b.redisClient, b.redisPrefix, b.redisPrincipal, b.redisAccessTTL)
		if err != nil {
			return nil, err
		}
		ts = rs
	}

	codec, err := token.NewCodec(token.Config{
		Issuer:   cfg.Token.Issuer,
		Audience: cfg.Token.Audience,
		Leeway:   cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{
		config:       cfg,
		codec:        codec,
		store:        ts,
		api:          b.api,
		audit:        newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:      NewMetrics(cfg.Metrics),
		log:          logger,
		initializing: true,
	}
	m.flows = flows.New(m.flowDeps())

	b.built = true

	return m, nil
}

// flowDeps wires the manager's collaborators into the flow dependency sets.
func (m *Manager) flowDeps() flows.Deps {
	decodeSubject := func(access string) (string, error) {
		claims, err := m.codec.Decode(access)
		if err != nil {
			return "", err
		}
		return claims.SubjectID(), nil
	}
	fetchProfile := func(ctx context.Context, subjectID, access string) (any, error) {
		if timeout := m.config.Bootstrap.ProfileTimeout; timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		// The freshly issued token is not committed to the session yet;
		// carry it to the profile endpoint through the context.
		profile, err := m.api.GetUserByID(WithBearerToken(ctx, access), subjectID)
		if err != nil {
			return nil, err
		}
		if profile.Role == RoleUnknown && profile.RoleName != "" {
			profile.Role = ParseRole(profile.RoleName)
		}
		return profile, nil
	}

	return flows.Deps{
		Login: flows.LoginDeps{
			Authenticate: func(ctx context.Context, email, password string) (string, string, time.Time, error) {
				resp, err := m.api.Login(ctx, email, password)
				if err != nil {
					return "", "", time.Time{}, err
				}
				return resp.Token, resp.RefreshToken, resp.RefreshTokenExpiryTime, nil
			},
			DecodeSubject: decodeSubject,
			PersistTokens: m.persistTokens,
			FetchProfile:  fetchProfile,
		},
		Refresh: flows.RefreshDeps{
			ReadTokens: func(ctx context.Context) (string, string, error) {
				access, err := m.store.AccessToken(ctx)
				if err != nil {
					return "", "", err
				}
				refresh, err := m.store.RefreshToken(ctx)
				if err != nil {
					return "", "", err
				}
				return access, refresh, nil
			},
			CallRefresh: func(ctx context.Context, access, refresh string) (string, string, time.Time, error) {
				resp, err := m.api.Refresh(ctx, access, refresh)
				if err != nil {
					return "", "", time.Time{}, err
				}
				return resp.Token, resp.RefreshToken, resp.RefreshTokenExpiryTime, nil
			},
			IsUnauthorized: func(err error) bool {
				return errors.Is(err, ErrRefreshUnauthorized)
			},
			DecodeSubject: decodeSubject,
			PersistTokens: m.persistTokens,
			FetchProfile:  fetchProfile,
		},
		Bootstrap: flows.BootstrapDeps{
			ReadAccess:    m.store.AccessToken,
			IsExpired:     m.codec.IsExpired,
			DecodeSubject: decodeSubject,
			FetchProfile:  fetchProfile,
			Refresh: func(ctx context.Context) error {
				if timeout := m.config.Bootstrap.RefreshTimeout; timeout > 0 {
					var cancel context.CancelFunc
					ctx, cancel = context.WithTimeout(ctx, timeout)
					defer cancel()
				}
				return m.Refresh(ctx)
			},
		},
	}
}
