package flows

import "context"

// BootstrapOutcome is the terminal state of the startup sequence.
type BootstrapOutcome int

const (
	// BootstrapAuthenticated means the stored access token was usable as-is.
	BootstrapAuthenticated BootstrapOutcome = iota
	// BootstrapRefreshed means a silent refresh produced a usable session.
	BootstrapRefreshed
	// BootstrapUnauthenticated means no session could be recovered.
	BootstrapUnauthenticated
)

// BootstrapResult reports how startup ended. AccessToken is set only for
// the BootstrapAuthenticated outcome, where the stored token was reused.
type BootstrapResult struct {
	Outcome     BootstrapOutcome
	Err         error
	AccessToken string
	SubjectID   string
	Profile     any
}

// BootstrapDeps captures bootstrap flow dependencies. Refresh is the
// manager's own coalesced refresh; it commits session state itself when it
// succeeds.
type BootstrapDeps struct {
	ReadAccess    func(ctx context.Context) (string, error)
	IsExpired     func(access string) bool
	DecodeSubject func(access string) (string, error)
	FetchProfile  func(ctx context.Context, subjectID, access string) (any, error)
	Refresh       func(ctx context.Context) error
}

// RunBootstrap recovers session state at startup. A present, unexpired
// access token is used without any refresh call; anything else funnels
// through one silent refresh. An undecodable token follows the same rule as
// an expired one.
func RunBootstrap(ctx context.Context, deps BootstrapDeps) BootstrapResult {
	access, err := deps.ReadAccess(ctx)
	if err != nil || access == "" || deps.IsExpired(access) {
		if refreshErr := deps.Refresh(ctx); refreshErr != nil {
			return BootstrapResult{Outcome: BootstrapUnauthenticated, Err: refreshErr}
		}
		return BootstrapResult{Outcome: BootstrapRefreshed}
	}

	subject, err := deps.DecodeSubject(access)
	if err != nil {
		// Decodable enough to pass IsExpired but not to yield a subject:
		// same rule as expired, one refresh attempt.
		if refreshErr := deps.Refresh(ctx); refreshErr != nil {
			return BootstrapResult{Outcome: BootstrapUnauthenticated, Err: refreshErr}
		}
		return BootstrapResult{Outcome: BootstrapRefreshed}
	}

	profile, err := deps.FetchProfile(ctx, subject, access)
	if err != nil {
		return BootstrapResult{Outcome: BootstrapUnauthenticated, Err: err}
	}

	return BootstrapResult{
		Outcome:     BootstrapAuthenticated,
		AccessToken: access,
		SubjectID:   subject,
		Profile:     profile,
	}
}
