package hospauth

import "errors"

var (
	// ErrInvalidCredentialsResponse is returned by Login when the authentication
	// endpoint answered at the transport level but the response is missing the
	// access token, the refresh token, or the refresh-token expiry. No session
	// is created from such a response.
	ErrInvalidCredentialsResponse = errors.New("login response missing required token fields")
	// ErrTokenDecode is returned when a received access token cannot be decoded.
	// No session state is created or updated from the offending response.
	ErrTokenDecode = errors.New("access token decode failed")
	// ErrNoRefreshToken is returned by Refresh when no refresh token is present
	// in the store. The session is logged out before the error is surfaced.
	ErrNoRefreshToken = errors.New("no stored refresh token")
	// ErrRefreshUnauthorized is returned when the refresh endpoint rejected the
	// refresh token. The session is logged out before the error is surfaced.
	ErrRefreshUnauthorized = errors.New("refresh token rejected")
	// ErrNetwork wraps transport-level failures from collaborator calls. The
	// manager never retries on its own; retry policy belongs to the caller or
	// the transport.
	ErrNetwork = errors.New("collaborator call failed")
	// ErrManagerNotReady is returned when a Manager method is called before
	// Builder.Build completed.
	ErrManagerNotReady = errors.New("manager not initialized")
	// ErrProfileUnavailable is returned when the user-profile endpoint did not
	// yield a profile for the token's subject.
	ErrProfileUnavailable = errors.New("user profile unavailable")
)
