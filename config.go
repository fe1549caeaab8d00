package hospauth

import (
	"errors"
	"strings"
	"time"
)

// Config defines the knobs of the session manager. Configure once, pass to
// [Builder.WithConfig], then treat as immutable.
type Config struct {
	Token     TokenConfig
	Bootstrap BootstrapConfig
	Routes    RouteConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig constrains access-token decoding. Issuer and Audience are
// matched against the token payload when non-empty; Leeway shifts the expiry
// comparison to absorb clock skew between the console host and the issuer.
type TokenConfig struct {
	Issuer   string
	Audience string
	Leeway   time.Duration
}

/*
====================================
BOOTSTRAP CONFIG
====================================
*/

// BootstrapConfig bounds the startup sequence. ProfileTimeout caps the
// user-profile fetch; RefreshTimeout caps the silent refresh. Zero means the
// caller's context is the only bound.
type BootstrapConfig struct {
	ProfileTimeout time.Duration
	RefreshTimeout time.Duration
}

/*
====================================
ROUTE CONFIG
====================================
*/

// RouteConfig names the redirect entry points used by the guard middleware.
type RouteConfig struct {
	LoginPath        string
	UnauthorizedPath string
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the configuration [New] starts from: zero decode
// leeway, 10 second bootstrap timeouts, /login and /unauthorized redirect
// entry points, audit disabled, metrics enabled.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{},
		Bootstrap: BootstrapConfig{
			ProfileTimeout: 10 * time.Second,
			RefreshTimeout: 10 * time.Second,
		},
		Routes: RouteConfig{
			LoginPath:        "/login",
			UnauthorizedPath: "/unauthorized",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate rejects configurations the manager cannot run with.
func (c *Config) Validate() error {
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("invalid token leeway configuration")
	}
	if c.Bootstrap.ProfileTimeout < 0 || c.Bootstrap.RefreshTimeout < 0 {
		return errors.New("invalid bootstrap timeout configuration")
	}
	if !strings.HasPrefix(c.Routes.LoginPath, "/") {
		return errors.New("login path must be absolute")
	}
	if !strings.HasPrefix(c.Routes.UnauthorizedPath, "/") {
		return errors.New("unauthorized path must be absolute")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("audit buffer size must be positive when audit is enabled")
	}
	return nil
}
