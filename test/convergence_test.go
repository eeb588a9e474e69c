//go:build integration
// +build integration

package test

import (
	"context"
	"testing"
	"time"

	goSessionSync "github.com/MrEthical07/goSessionSync"
	"github.com/MrEthical07/goSessionSync/bus"
)

func TestTwoContextsConvergeOverRedis(t *testing.T) {
	_, rdb := newRedisBackend(t)
	writer := newContext(t, rdb, "ctx-writer", 10*time.Millisecond)
	reader := newContext(t, rdb, "ctx-reader", 10*time.Millisecond)

	rec := makeRecord("u-1", "gerente")
	if err := writer.Establish(context.Background(), rec); err != nil {
		t.Fatalf("establish: %v", err)
	}

	// Writer converges synchronously through the paired local publish.
	if !writer.IsAuthenticated() {
		t.Fatal("writer must converge immediately")
	}

	await(t, 3*time.Second, func() bool {
		got := reader.Current()
		return got != nil && got.Equal(rec)
	})

	if !reader.HasRole(goSessionSync.RoleSetOf(goSessionSync.RoleManager)) {
		t.Fatal("reader must observe the legacy manager spelling")
	}
	if got := reader.MetricsSnapshot().Counters[goSessionSync.MetricSignalRemote]; got == 0 {
		t.Fatal("reader convergence must ride a remote signal")
	}
}

func TestLogoutPropagatesOverRedis(t *testing.T) {
	_, rdb := newRedisBackend(t)
	writer := newContext(t, rdb, "ctx-writer", 10*time.Millisecond)
	reader := newContext(t, rdb, "ctx-reader", 10*time.Millisecond)

	if err := writer.Establish(context.Background(), makeRecord("u-1", "manager")); err != nil {
		t.Fatalf("establish: %v", err)
	}
	await(t, 3*time.Second, func() bool { return reader.IsAuthenticated() })

	if err := writer.Terminate(context.Background()); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	await(t, 3*time.Second, func() bool { return reader.State() == goSessionSync.StateAnonymous })
}

func TestWriterIgnoresOwnAnnounceOverRedis(t *testing.T) {
	_, rdb := newRedisBackend(t)
	writer := newContext(t, rdb, "ctx-writer", 10*time.Millisecond)
	reader := newContext(t, rdb, "ctx-reader", 10*time.Millisecond)

	if err := writer.Establish(context.Background(), makeRecord("u-1", "customer")); err != nil {
		t.Fatalf("establish: %v", err)
	}
	await(t, 3*time.Second, func() bool { return reader.IsAuthenticated() })

	// The writer's announce came back over pub/sub and was filtered; its
	// stamp reflects only the initial load plus its own write.
	await(t, 3*time.Second, func() bool {
		return writer.MetricsSnapshot().Counters[goSessionSync.MetricSignalFilteredSelf] == 1
	})
	if writer.VersionStamp() != 2 {
		t.Fatalf("writer stamp = %d, want 2", writer.VersionStamp())
	}
}

func TestLateContextLoadsExistingSession(t *testing.T) {
	_, rdb := newRedisBackend(t)
	writer := newContext(t, rdb, "ctx-writer", 10*time.Millisecond)

	rec := makeRecord("u-1", "system_admin")
	if err := writer.Establish(context.Background(), rec); err != nil {
		t.Fatalf("establish: %v", err)
	}

	// A context started after the write converges on its initial load, with
	// no signal needed.
	late := newContext(t, rdb, "ctx-late", 10*time.Millisecond)
	got := late.Current()
	if got == nil || !got.Equal(rec) {
		t.Fatalf("late context loaded %+v, want the established record", got)
	}
	if late.VersionStamp() != 1 {
		t.Fatalf("late context stamp = %d, want 1", late.VersionStamp())
	}
}

func TestCorruptEntryConvergesToAnonymousOverRedis(t *testing.T) {
	mr, rdb := newRedisBackend(t)
	writer := newContext(t, rdb, "ctx-writer", 10*time.Millisecond)
	reader := newContext(t, rdb, "ctx-reader", 10*time.Millisecond)

	if err := writer.Establish(context.Background(), makeRecord("u-1", "manager")); err != nil {
		t.Fatalf("establish: %v", err)
	}
	await(t, 3*time.Second, func() bool { return reader.IsAuthenticated() })

	// An out-of-band corruption of the stored entry reads as logged out on
	// the next reconciliation.
	if err := mr.Set(writer.Store().RecordKey(), "{nope"); err != nil {
		t.Fatalf("plant corrupt entry: %v", err)
	}
	writer.Bus().PublishLocal(bus.Signal{Key: writer.Store().RecordKey(), Origin: writer.Origin()})

	await(t, 3*time.Second, func() bool { return writer.State() == goSessionSync.StateAnonymous })
	await(t, 3*time.Second, func() bool {
		return writer.MetricsSnapshot().Counters[goSessionSync.MetricCorruptRecordDiscarded] >= 1
	})
}
