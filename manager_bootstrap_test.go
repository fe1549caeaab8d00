package hospauth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBootstrapReusesValidStoredToken(t *testing.T) {
	api := &fakeAPI{
		profiles: map[string]*UserProfile{"u1": doctorProfile("u1")},
	}
	m, _ := newTestManager(t, api)
	stored := signAccessToken(t, "u1", time.Now().Add(time.Hour))
	seedStoredTokens(t, m, stored, "r1")

	if err := m.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	sess := m.Snapshot()
	if sess.State() != StateAuthenticated {
		t.Fatalf("state = %v, want authenticated", sess.State())
	}
	if sess.AccessToken != stored || sess.RefreshToken != "r1" {
		t.Fatal("bootstrap did not adopt the stored token pair")
	}
	if sess.User == nil || sess.User.ID != "u1" {
		t.Fatalf("session user = %+v, want profile of token subject", sess.User)
	}
	if sess.Initializing {
		t.Fatal("initializing still raised after bootstrap")
	}
	if _, refreshCalls, profileCalls := api.calls(); refreshCalls != 0 || profileCalls != 1 {
		t.Fatalf("calls = (refresh %d, profile %d), want (0, 1): a valid token needs no rotation", refreshCalls, profileCalls)
	}
	if got := m.MetricsSnapshot().Counters[MetricBootstrapAuthenticated]; got != 1 {
		t.Fatalf("bootstrap authenticated counter = %d, want 1", got)
	}
	checkInvariant(t, m)
}

func TestBootstrapRefreshesExpiredStoredToken(t *testing.T) {
	api := &fakeAPI{
		refreshResp: tokenPair(t, "u1", "r2"),
		profiles:    map[string]*UserProfile{"u1": doctorProfile("u1")},
	}
	m, ts := newTestManager(t, api)
	seedStoredTokens(t, m, signAccessToken(t, "u1", time.Now().Add(-time.Minute)), "r1")

	if err := m.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	sess := m.Snapshot()
	if sess.State() != StateAuthenticated {
		t.Fatalf("state = %v, want authenticated after silent refresh", sess.State())
	}
	if sess.Initializing {
		t.Fatal("initializing still raised after bootstrap")
	}
	if _, refreshCalls, _ := api.calls(); refreshCalls != 1 {
		t.Fatalf("refresh endpoint called %d times, want exactly 1", refreshCalls)
	}
	if access, refresh := storeTokens(t, ts); access != api.refreshResp.Token || refresh != "r2" {
		t.Fatalf("store = (%q, %q), want rotated pair", access, refresh)
	}
	checkInvariant(t, m)
}

func TestBootstrapRefreshesWhenAccessTokenAbsent(t *testing.T) {
	api := &fakeAPI{
		refreshResp: tokenPair(t, "u1", "r2"),
		profiles:    map[string]*UserProfile{"u1": doctorProfile("u1")},
	}
	m, _ := newTestManager(t, api)
	seedStoredTokens(t, m, "", "r1")

	if err := m.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if got := m.State(); got != StateAuthenticated {
		t.Fatalf("state = %v, want authenticated", got)
	}
	if _, refreshCalls, profileCalls := api.calls(); refreshCalls != 1 || profileCalls != 1 {
		t.Fatalf("calls = (refresh %d, profile %d), want (1, 1)", refreshCalls, profileCalls)
	}
}

func TestBootstrapUndecodableStoredTokenFallsBackToRefresh(t *testing.T) {
	api := &fakeAPI{
		refreshResp: tokenPair(t, "u1", "r2"),
		profiles:    map[string]*UserProfile{"u1": doctorProfile("u1")},
	}
	m, _ := newTestManager(t, api)
	seedStoredTokens(t, m, "stale-bytes-from-an-old-build", "r1")

	if err := m.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if got := m.State(); got != StateAuthenticated {
		t.Fatalf("state = %v, want authenticated after fallback refresh", got)
	}
	if _, refreshCalls, _ := api.calls(); refreshCalls != 1 {
		t.Fatalf("refresh endpoint called %d times, want exactly 1", refreshCalls)
	}
}

func TestBootstrapWithEmptyStoreEndsUnauthenticated(t *testing.T) {
	m, _ := newTestManager(t, &fakeAPI{})

	err := m.Bootstrap(context.Background())
	if !errors.Is(err, ErrNoRefreshToken) {
		t.Fatalf("err = %v, want ErrNoRefreshToken", err)
	}

	sess := m.Snapshot()
	if sess.State() != StateUnauthenticated {
		t.Fatalf("state = %v, want unauthenticated", sess.State())
	}
	if sess.Initializing {
		t.Fatal("initializing still raised after failed bootstrap")
	}
	if got := m.MetricsSnapshot().Counters[MetricBootstrapUnauthenticated]; got != 1 {
		t.Fatalf("bootstrap unauthenticated counter = %d, want 1", got)
	}
}

func TestBootstrapProfileFailureEndsUnauthenticated(t *testing.T) {
	api := &fakeAPI{
		profileErr: errors.New("profile endpoint down"),
	}
	m, _ := newTestManager(t, api)
	seedStoredTokens(t, m, signAccessToken(t, "u1", time.Now().Add(time.Hour)), "r1")

	if err := m.Bootstrap(context.Background()); err == nil {
		t.Fatal("bootstrap succeeded despite profile failure")
	}
	if got := m.State(); got != StateUnauthenticated {
		t.Fatalf("state = %v, want unauthenticated", got)
	}
	if m.Snapshot().Initializing {
		t.Fatal("initializing still raised after failed bootstrap")
	}
	checkInvariant(t, m)
}

func TestBootstrapEndsInitializingInEveryBranch(t *testing.T) {
	cases := []struct {
		name string
		api  *fakeAPI
		seed func(t *testing.T, m *Manager)
	}{
		{
			name: "valid stored token",
			api:  &fakeAPI{profiles: map[string]*UserProfile{"u1": doctorProfile("u1")}},
			seed: func(t *testing.T, m *Manager) {
				seedStoredTokens(t, m, signAccessToken(t, "u1", time.Now().Add(time.Hour)), "r1")
			},
		},
		{
			name: "silent refresh",
			api: &fakeAPI{
				refreshResp: tokenPair(t, "u1", "r2"),
				profiles:    map[string]*UserProfile{"u1": doctorProfile("u1")},
			},
			seed: func(t *testing.T, m *Manager) { seedStoredTokens(t, m, "", "r1") },
		},
		{
			name: "no recoverable session",
			api:  &fakeAPI{},
			seed: func(*testing.T, *Manager) {},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, _ := newTestManager(t, tc.api)
			tc.seed(t, m)
			if !m.Snapshot().Initializing {
				t.Fatal("manager not initializing before bootstrap")
			}
			_ = m.Bootstrap(context.Background())
			if m.Snapshot().Initializing {
				t.Fatal("initializing still raised after bootstrap")
			}
		})
	}
}
