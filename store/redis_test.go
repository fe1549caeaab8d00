package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStoreTest(t *testing.T) (*RedisStore, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	st, err := NewRedisStore(rdb, "ha", "console-1", time.Hour)
	if err != nil {
		t.Fatalf("new redis store: %v", err)
	}
	return st, mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	st, _, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	got, err := st.AccessToken(ctx)
	if err != nil {
		t.Fatalf("read empty access token: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty access token, got %q", got)
	}

	if err := st.SetAccessToken(ctx, "acc-1"); err != nil {
		t.Fatalf("set access token: %v", err)
	}
	if err := st.SetRefreshToken(ctx, "ref-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("set refresh token: %v", err)
	}

	if got, _ = st.AccessToken(ctx); got != "acc-1" {
		t.Fatalf("access token = %q, want acc-1", got)
	}
	if got, _ = st.RefreshToken(ctx); got != "ref-1" {
		t.Fatalf("refresh token = %q, want ref-1", got)
	}
}

func TestRedisStoreRefreshExpiryEnforced(t *testing.T) {
	st, mr, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := st.SetRefreshToken(ctx, "ref-1", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("set refresh token: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	got, err := st.RefreshToken(ctx)
	if err != nil {
		t.Fatalf("read refresh token: %v", err)
	}
	if got != "" {
		t.Fatalf("expected expired refresh token to vanish, got %q", got)
	}
}

func TestRedisStoreSetRefreshWithPastExpiry(t *testing.T) {
	st, _, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := st.SetRefreshToken(ctx, "stale", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("set with past expiry: %v", err)
	}
	got, _ := st.RefreshToken(ctx)
	if got != "" {
		t.Fatalf("dead refresh token persisted: %q", got)
	}
}

func TestRedisStoreClearIdempotent(t *testing.T) {
	st, _, done := newRedisStoreTest(t)
	defer done()
	ctx := context.Background()

	if err := st.SetAccessToken(ctx, "acc-1"); err != nil {
		t.Fatalf("set access token: %v", err)
	}
	if err := st.SetRefreshToken(ctx, "ref-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("set refresh token: %v", err)
	}

	if err := st.Clear(ctx); err != nil {
		t.Fatalf("first clear: %v", err)
	}
	if err := st.Clear(ctx); err != nil {
		t.Fatalf("second clear: %v", err)
	}

	if got, _ := st.AccessToken(ctx); got != "" {
		t.Fatalf("access token survived clear: %q", got)
	}
	if got, _ := st.RefreshToken(ctx); got != "" {
		t.Fatalf("refresh token survived clear: %q", got)
	}
}

func TestRedisStorePrincipalIsolation(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	a, _ := NewRedisStore(rdb, "ha", "console-a", time.Hour)
	b, _ := NewRedisStore(rdb, "ha", "console-b", time.Hour)

	if err := a.SetAccessToken(ctx, "acc-a"); err != nil {
		t.Fatalf("set access token: %v", err)
	}
	if got, _ := b.AccessToken(ctx); got != "" {
		t.Fatalf("principal b sees principal a's token: %q", got)
	}
}
