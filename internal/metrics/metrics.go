package metrics

import "sync/atomic"

// MetricID identifies one counter in the in-process metrics system.
type MetricID uint8

const (
	// MetricSignalLocal counts locally published session-changed signals.
	MetricSignalLocal MetricID = iota
	// MetricSignalRemote counts signals delivered from other contexts.
	MetricSignalRemote
	// MetricSignalFilteredSelf counts announces dropped because they
	// carried the receiving context's own ID.
	MetricSignalFilteredSelf
	// MetricSignalCoalesced counts signals absorbed into an already
	// pending debounce window.
	MetricSignalCoalesced
	// MetricReconcile counts reconciliation runs.
	MetricReconcile
	// MetricReconcileChanged counts reconciliations that observed an
	// actual record difference.
	MetricReconcileChanged
	// MetricReconcileFailed counts reconciliations aborted by a store error.
	MetricReconcileFailed
	// MetricCorruptRecordDiscarded counts corrupt entries read as absent.
	MetricCorruptRecordDiscarded
	// MetricSessionEstablished counts Establish calls that persisted.
	MetricSessionEstablished
	// MetricSessionTerminated counts Terminate calls that persisted.
	MetricSessionTerminated
	// MetricNoticeShown counts role-change notices shown.
	MetricNoticeShown
	// MetricNoticeDismissed counts explicit notice dismissals.
	MetricNoticeDismissed
	// MetricNoticeSuperseded counts notices replaced by a newer role change
	// before their timer fired.
	MetricNoticeSuperseded
	// MetricNoticeExpired counts notices closed by the auto-dismiss timer.
	MetricNoticeExpired
	// MetricSubscriberPanic counts recovered subscriber panics.
	MetricSubscriberPanic

	// MetricIDCount is the number of defined metric IDs.
	MetricIDCount
)

// Config controls metrics collection.
type Config struct {
	Enabled bool
}

// Metrics holds atomic counters. A disabled Metrics is all no-ops; a nil
// Metrics is also valid.
type Metrics struct {
	enabled  bool
	counters [MetricIDCount]atomic.Uint64
}

// New creates a Metrics instance per cfg.
func New(cfg Config) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc increments one counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Get returns one counter's current value.
func (m *Metrics) Get(id MetricID) uint64 {
	if m == nil || !m.enabled || id >= MetricIDCount {
		return 0
	}
	return m.counters[id].Load()
}

// Snapshot is a point-in-time deep copy of all counters.
type Snapshot struct {
	Counters map[MetricID]uint64
}

// Snapshot returns the current counter values. Disabled metrics yield an
// empty snapshot.
func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{Counters: make(map[MetricID]uint64, MetricIDCount)}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < MetricIDCount; id++ {
		snap.Counters[id] = m.counters[id].Load()
	}
	return snap
}
