package flows

import (
	"context"
	"time"
)

// RefreshFailureKind classifies refresh flow failures for root-level
// mapping. MissingTokens and Unauthorized are terminal: the manager maps
// them to a forced logout.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureMissingTokens
	RefreshFailureUnauthorized
	RefreshFailureNetwork
	RefreshFailureIncompleteResponse
	RefreshFailureDecode
	RefreshFailurePersist
	RefreshFailureProfile
)

// RefreshResult carries either the rotated token pair or failure metadata.
type RefreshResult struct {
	Failure RefreshFailureKind
	Err     error

	AccessToken   string
	RefreshToken  string
	RefreshExpiry time.Time
	SubjectID     string
	Profile       any
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	ReadTokens     func(ctx context.Context) (access, refresh string, err error)
	CallRefresh    func(ctx context.Context, access, refresh string) (newAccess, newRefresh string, expiry time.Time, err error)
	IsUnauthorized func(err error) bool
	DecodeSubject  func(access string) (string, error)
	PersistTokens  func(ctx context.Context, access, refresh string, expiry time.Time) error
	FetchProfile   func(ctx context.Context, subjectID, access string) (any, error)
}

// RunRefresh executes one refresh rotation. Decode failures commit nothing;
// an unauthorized answer from the collaborator is reported as terminal so
// the caller never stays half-authenticated on a dead refresh token.
func RunRefresh(ctx context.Context, deps RefreshDeps) RefreshResult {
	access, refresh, err := deps.ReadTokens(ctx)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureNetwork, Err: err}
	}
	// Only the refresh token is load-bearing here; the access token rides
	// along for the endpoint's replay check and may be empty after a
	// partial wipe.
	if refresh == "" {
		return RefreshResult{Failure: RefreshFailureMissingTokens}
	}

	newAccess, newRefresh, expiry, err := deps.CallRefresh(ctx, access, refresh)
	if err != nil {
		if deps.IsUnauthorized != nil && deps.IsUnauthorized(err) {
			return RefreshResult{Failure: RefreshFailureUnauthorized, Err: err}
		}
		return RefreshResult{Failure: RefreshFailureNetwork, Err: err}
	}
	if newAccess == "" || newRefresh == "" || expiry.IsZero() {
		return RefreshResult{Failure: RefreshFailureIncompleteResponse}
	}

	subject, err := deps.DecodeSubject(newAccess)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureDecode, Err: err}
	}

	if err := deps.PersistTokens(ctx, newAccess, newRefresh, expiry); err != nil {
		return RefreshResult{
			Failure:   RefreshFailurePersist,
			Err:       err,
			SubjectID: subject,
		}
	}

	profile, err := deps.FetchProfile(ctx, subject, newAccess)
	if err != nil {
		return RefreshResult{
			Failure:   RefreshFailureProfile,
			Err:       err,
			SubjectID: subject,
		}
	}

	return RefreshResult{
		Failure:       RefreshFailureNone,
		AccessToken:   newAccess,
		RefreshToken:  newRefresh,
		RefreshExpiry: expiry,
		SubjectID:     subject,
		Profile:       profile,
	}
}
