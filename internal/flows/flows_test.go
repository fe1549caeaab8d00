package flows

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func staticLoginDeps(t *testing.T) (LoginDeps, *int) {
	t.Helper()
	persisted := 0
	return LoginDeps{
		Authenticate: func(ctx context.Context, email, password string) (string, string, time.Time, error) {
			return "acc", "ref", time.Now().Add(time.Hour), nil
		},
		DecodeSubject: func(access string) (string, error) { return "u-1", nil },
		PersistTokens: func(ctx context.Context, access, refresh string, expiry time.Time) error {
			persisted++
			return nil
		},
		FetchProfile: func(ctx context.Context, subjectID, access string) (any, error) { return "profile", nil },
	}, &persisted
}

func TestRunLoginSuccess(t *testing.T) {
	deps, persisted := staticLoginDeps(t)
	res := RunLogin(context.Background(), "a@b.com", "pw", deps)
	if res.Failure != LoginFailureNone {
		t.Fatalf("unexpected failure %d: %v", res.Failure, res.Err)
	}
	if res.SubjectID != "u-1" || res.Profile != "profile" {
		t.Fatalf("unexpected result %+v", res)
	}
	if *persisted != 1 {
		t.Fatalf("expected one persist, got %d", *persisted)
	}
}

func TestRunLoginIncompleteResponsePersistsNothing(t *testing.T) {
	cases := []struct {
		name    string
		access  string
		refresh string
		expiry  time.Time
	}{
		{"missing access token", "", "ref", time.Now().Add(time.Hour)},
		{"missing refresh token", "acc", "", time.Now().Add(time.Hour)},
		{"missing expiry", "acc", "ref", time.Time{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deps, persisted := staticLoginDeps(t)
			deps.Authenticate = func(ctx context.Context, email, password string) (string, string, time.Time, error) {
				return tc.access, tc.refresh, tc.expiry, nil
			}
			res := RunLogin(context.Background(), "a@b.com", "pw", deps)
			if res.Failure != LoginFailureIncompleteResponse {
				t.Fatalf("expected incomplete-response failure, got %d", res.Failure)
			}
			if *persisted != 0 {
				t.Fatalf("partial response reached the store (%d writes)", *persisted)
			}
		})
	}
}

func TestRunLoginDecodeFailurePersistsNothing(t *testing.T) {
	deps, persisted := staticLoginDeps(t)
	deps.DecodeSubject = func(string) (string, error) { return "", errBoom }
	res := RunLogin(context.Background(), "a@b.com", "pw", deps)
	if res.Failure != LoginFailureDecode {
		t.Fatalf("expected decode failure, got %d", res.Failure)
	}
	if *persisted != 0 {
		t.Fatalf("undecodable token reached the store (%d writes)", *persisted)
	}
}

func staticRefreshDeps(t *testing.T) (RefreshDeps, *int) {
	t.Helper()
	calls := 0
	return RefreshDeps{
		ReadTokens: func(ctx context.Context) (string, string, error) { return "acc", "ref", nil },
		CallRefresh: func(ctx context.Context, access, refresh string) (string, string, time.Time, error) {
			calls++
			return "acc2", "ref2", time.Now().Add(time.Hour), nil
		},
		IsUnauthorized: func(err error) bool { return errors.Is(err, errUnauthorizedTest) },
		DecodeSubject:  func(access string) (string, error) { return "u-1", nil },
		PersistTokens:  func(ctx context.Context, access, refresh string, expiry time.Time) error { return nil },
		FetchProfile:   func(ctx context.Context, subjectID, access string) (any, error) { return "profile", nil },
	}, &calls
}

var errUnauthorizedTest = errors.New("unauthorized")

func TestRunRefreshRotates(t *testing.T) {
	deps, calls := staticRefreshDeps(t)
	res := RunRefresh(context.Background(), deps)
	if res.Failure != RefreshFailureNone {
		t.Fatalf("unexpected failure %d: %v", res.Failure, res.Err)
	}
	if res.AccessToken != "acc2" || res.RefreshToken != "ref2" {
		t.Fatalf("token pair not rotated: %+v", res)
	}
	if *calls != 1 {
		t.Fatalf("expected one refresh call, got %d", *calls)
	}
}

func TestRunRefreshMissingRefreshTokenIsTerminal(t *testing.T) {
	deps, calls := staticRefreshDeps(t)
	deps.ReadTokens = func(ctx context.Context) (string, string, error) { return "acc", "", nil }
	if res := RunRefresh(context.Background(), deps); res.Failure != RefreshFailureMissingTokens {
		t.Fatalf("expected missing-tokens failure, got %d", res.Failure)
	}
	if *calls != 0 {
		t.Fatalf("refresh endpoint called without a refresh token (%d calls)", *calls)
	}
}

func TestRunRefreshProceedsWithoutAccessToken(t *testing.T) {
	deps, calls := staticRefreshDeps(t)
	deps.ReadTokens = func(ctx context.Context) (string, string, error) { return "", "ref", nil }
	res := RunRefresh(context.Background(), deps)
	if res.Failure != RefreshFailureNone {
		t.Fatalf("unexpected failure %d: %v", res.Failure, res.Err)
	}
	if *calls != 1 {
		t.Fatalf("expected one refresh call, got %d", *calls)
	}
}

func TestRunRefreshClassifiesUnauthorized(t *testing.T) {
	deps, _ := staticRefreshDeps(t)
	deps.CallRefresh = func(ctx context.Context, access, refresh string) (string, string, time.Time, error) {
		return "", "", time.Time{}, errUnauthorizedTest
	}
	res := RunRefresh(context.Background(), deps)
	if res.Failure != RefreshFailureUnauthorized {
		t.Fatalf("expected unauthorized failure, got %d", res.Failure)
	}

	deps.CallRefresh = func(ctx context.Context, access, refresh string) (string, string, time.Time, error) {
		return "", "", time.Time{}, errBoom
	}
	res = RunRefresh(context.Background(), deps)
	if res.Failure != RefreshFailureNetwork {
		t.Fatalf("expected network failure, got %d", res.Failure)
	}
}

func TestRunBootstrapValidTokenSkipsRefresh(t *testing.T) {
	refreshCalls := 0
	deps := BootstrapDeps{
		ReadAccess:    func(ctx context.Context) (string, error) { return "acc", nil },
		IsExpired:     func(string) bool { return false },
		DecodeSubject: func(string) (string, error) { return "u-1", nil },
		FetchProfile:  func(ctx context.Context, subjectID, access string) (any, error) { return "profile", nil },
		Refresh: func(ctx context.Context) error {
			refreshCalls++
			return nil
		},
	}

	res := RunBootstrap(context.Background(), deps)
	if res.Outcome != BootstrapAuthenticated {
		t.Fatalf("expected authenticated outcome, got %d (%v)", res.Outcome, res.Err)
	}
	if refreshCalls != 0 {
		t.Fatalf("valid token still triggered %d refresh calls", refreshCalls)
	}
}

func TestRunBootstrapExpiredTokenFallsBackToRefresh(t *testing.T) {
	for _, access := range []string{"", "expired-token"} {
		refreshCalls := 0
		deps := BootstrapDeps{
			ReadAccess:    func(ctx context.Context) (string, error) { return access, nil },
			IsExpired:     func(string) bool { return true },
			DecodeSubject: func(string) (string, error) { return "u-1", nil },
			FetchProfile:  func(ctx context.Context, subjectID, access string) (any, error) { return "profile", nil },
			Refresh: func(ctx context.Context) error {
				refreshCalls++
				return nil
			},
		}

		res := RunBootstrap(context.Background(), deps)
		if res.Outcome != BootstrapRefreshed {
			t.Fatalf("expected refreshed outcome, got %d", res.Outcome)
		}
		if refreshCalls != 1 {
			t.Fatalf("expected exactly one refresh call, got %d", refreshCalls)
		}
	}
}

func TestRunBootstrapRefreshFailureEndsUnauthenticated(t *testing.T) {
	deps := BootstrapDeps{
		ReadAccess: func(ctx context.Context) (string, error) { return "", nil },
		IsExpired:  func(string) bool { return true },
		Refresh:    func(ctx context.Context) error { return errBoom },
	}
	res := RunBootstrap(context.Background(), deps)
	if res.Outcome != BootstrapUnauthenticated {
		t.Fatalf("expected unauthenticated outcome, got %d", res.Outcome)
	}
	if !errors.Is(res.Err, errBoom) {
		t.Fatalf("expected wrapped refresh error, got %v", res.Err)
	}
}
