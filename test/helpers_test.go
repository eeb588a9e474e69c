//go:build integration
// +build integration

package test

import (
	"context"
	"testing"
	"time"

	goSessionSync "github.com/MrEthical07/goSessionSync"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisBackend(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	return mr, rdb
}

func newContext(t *testing.T, rdb redis.UniversalClient, contextID string, debounce time.Duration) *goSessionSync.Provider {
	t.Helper()

	cfg := goSessionSync.DefaultConfig()
	cfg.Sync.DebounceWindow = debounce

	p, err := goSessionSync.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithContextID(contextID).
		Build()
	if err != nil {
		t.Fatalf("build %s: %v", contextID, err)
	}
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("start %s: %v", contextID, err)
	}
	t.Cleanup(p.Close)

	return p
}

func makeRecord(userID, role string) *goSessionSync.SessionRecord {
	return &goSessionSync.SessionRecord{
		UserID:      userID,
		Email:       userID + "@example.com",
		DisplayName: "User " + userID,
		Role:        role,
	}
}

func await(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}
