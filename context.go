package hospauth

import "context"

type bearerContextKey struct{}

// WithBearerToken attaches an access token to ctx. The session manager uses
// it to hand the freshly issued token to the profile fetch before the token
// is committed to the session; the apiclient reads it for the
// Authorization header.
func WithBearerToken(ctx context.Context, tok string) context.Context {
	return context.WithValue(ctx, bearerContextKey{}, tok)
}

// BearerTokenFromContext returns the access token attached to ctx, or the
// empty string.
func BearerTokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	tok, _ := ctx.Value(bearerContextKey{}).(string)
	return tok
}
