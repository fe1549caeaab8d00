package flows

import (
	"context"
	"time"
)

// LoginFailureKind classifies login flow failures for root-level error
// mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureAuth
	LoginFailureIncompleteResponse
	LoginFailureDecode
	LoginFailurePersist
	LoginFailureProfile
)

// LoginResult carries either the established token pair and profile or
// failure metadata. Nothing is committed to session state on failure.
type LoginResult struct {
	Failure LoginFailureKind
	Err     error

	AccessToken   string
	RefreshToken  string
	RefreshExpiry time.Time
	SubjectID     string
	Profile       any
}

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	Authenticate  func(ctx context.Context, email, password string) (access, refresh string, expiry time.Time, err error)
	DecodeSubject func(access string) (string, error)
	PersistTokens func(ctx context.Context, access, refresh string, expiry time.Time) error
	FetchProfile  func(ctx context.Context, subjectID, access string) (any, error)
}

// RunLogin executes the credential exchange. Fail-closed: a response missing
// any of the three token fields, or an undecodable access token, aborts
// before anything is persisted.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) LoginResult {
	access, refresh, expiry, err := deps.Authenticate(ctx, email, password)
	if err != nil {
		return LoginResult{Failure: LoginFailureAuth, Err: err}
	}
	if access == "" || refresh == "" || expiry.IsZero() {
		return LoginResult{Failure: LoginFailureIncompleteResponse}
	}

	subject, err := deps.DecodeSubject(access)
	if err != nil {
		return LoginResult{Failure: LoginFailureDecode, Err: err}
	}

	if err := deps.PersistTokens(ctx, access, refresh, expiry); err != nil {
		return LoginResult{
			Failure:   LoginFailurePersist,
			Err:       err,
			SubjectID: subject,
		}
	}

	profile, err := deps.FetchProfile(ctx, subject, access)
	if err != nil {
		return LoginResult{
			Failure:   LoginFailureProfile,
			Err:       err,
			SubjectID: subject,
		}
	}

	return LoginResult{
		Failure:       LoginFailureNone,
		AccessToken:   access,
		RefreshToken:  refresh,
		RefreshExpiry: expiry,
		SubjectID:     subject,
		Profile:       profile,
	}
}
