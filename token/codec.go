package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is returned by Decode for any token whose payload cannot be
// parsed, whose subject is missing, or whose issuer/audience does not match
// the codec configuration.
var ErrMalformed = errors.New("malformed access token")

// Config constrains decoding. Issuer and Audience are enforced when
// non-empty. Leeway shifts the expiry comparison toward "still valid" to
// absorb clock skew. Now is the clock, defaulting to time.Now.
type Config struct {
	Issuer   string
	Audience string
	Leeway   time.Duration
	Now      func() time.Time
}

// Claims is the decoded access-token payload. Derived from the raw token
// string on demand, never stored, never mutated.
type Claims struct {
	UID      string `json:"uid,omitempty"`
	RoleName string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// SubjectID returns the token subject, preferring the registered sub claim
// and falling back to the uid claim some issuers use instead.
func (c *Claims) SubjectID() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.UID
}

// Codec decodes access-token payloads. Safe for concurrent use.
type Codec struct {
	config Config
}

// NewCodec validates cfg and returns a Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Codec{config: cfg}, nil
}

// Decode parses the payload segment of raw. It returns a nil Claims and an
// error wrapping [ErrMalformed] on any input that cannot be decoded or whose
// issuer/audience/subject does not satisfy the configuration. It never
// panics across the package boundary.
func (c *Codec) Decode(raw string) (*Claims, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMalformed)
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if claims.SubjectID() == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrMalformed)
	}
	if c.config.Issuer != "" && claims.Issuer != c.config.Issuer {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrMalformed, claims.Issuer)
	}
	if c.config.Audience != "" && !hasAudience(claims.Audience, c.config.Audience) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrMalformed)
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing expiry", ErrMalformed)
	}

	return claims, nil
}

// IsExpired reports whether raw is unusable as a credential: true when
// decoding fails or when the expiry is at or before now minus leeway.
func (c *Codec) IsExpired(raw string) bool {
	claims, err := c.Decode(raw)
	if err != nil {
		return true
	}
	return c.Expired(claims)
}

// Expired applies the expiry rule to already-decoded claims.
func (c *Codec) Expired(claims *Claims) bool {
	if claims == nil || claims.ExpiresAt == nil {
		return true
	}
	return !claims.ExpiresAt.Time.After(c.config.Now().Add(-c.config.Leeway))
}

func hasAudience(aud jwt.ClaimStrings, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}
