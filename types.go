package goSessionSync

import (
	"io"

	internalaudit "github.com/MrEthical07/goSessionSync/internal/audit"
	internalmetrics "github.com/MrEthical07/goSessionSync/internal/metrics"
	"github.com/MrEthical07/goSessionSync/session"
)

// SessionRecord is the authoritative identity snapshot; see
// [session.Record].
type SessionRecord = session.Record

// State is the provider lifecycle state.
type State uint8

const (
	// StateUninitialized is the state before Start.
	StateUninitialized State = iota
	// StateLoading is the state during the initial synchronous load.
	StateLoading
	// StateAnonymous means no session record exists.
	StateAnonymous
	// StateAuthenticated means a session record is cached.
	StateAuthenticated
)

// String describes the state for logs and audit metadata.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "invalid"
	}
}

// Snapshot is a point-in-time view of the provider. Subscribers receive a
// Snapshot per reconciled change; the Version field is the referentially
// distinct value to key re-evaluation on, since the record itself offers
// no structural identity.
type Snapshot struct {
	State   State
	Record  *SessionRecord
	Version uint64
}

// IsAuthenticated reports whether a session record is present.
func (s Snapshot) IsAuthenticated() bool {
	return s.State == StateAuthenticated && s.Record != nil
}

// Role parses the record's role. It fails closed: an absent session or an
// unrecognized role string yields (RoleUnknown, false).
func (s Snapshot) Role() (Role, bool) {
	if s.Record == nil {
		return RoleUnknown, false
	}
	return ParseRole(s.Record.Role)
}

// AuditEvent is a structured audit record emitted by the provider and
// notifier.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the async dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// MetricID identifies a specific counter in the in-process metrics system.
type MetricID = internalmetrics.MetricID

const (
	// MetricSignalLocal is an exported counter ID of the synchronization core.
	MetricSignalLocal = internalmetrics.MetricSignalLocal
	// MetricSignalRemote is an exported counter ID of the synchronization core.
	MetricSignalRemote = internalmetrics.MetricSignalRemote
	// MetricSignalFilteredSelf is an exported counter ID of the synchronization core.
	MetricSignalFilteredSelf = internalmetrics.MetricSignalFilteredSelf
	// MetricSignalCoalesced is an exported counter ID of the synchronization core.
	MetricSignalCoalesced = internalmetrics.MetricSignalCoalesced
	// MetricReconcile is an exported counter ID of the synchronization core.
	MetricReconcile = internalmetrics.MetricReconcile
	// MetricReconcileChanged is an exported counter ID of the synchronization core.
	MetricReconcileChanged = internalmetrics.MetricReconcileChanged
	// MetricReconcileFailed is an exported counter ID of the synchronization core.
	MetricReconcileFailed = internalmetrics.MetricReconcileFailed
	// MetricCorruptRecordDiscarded is an exported counter ID of the synchronization core.
	MetricCorruptRecordDiscarded = internalmetrics.MetricCorruptRecordDiscarded
	// MetricSessionEstablished is an exported counter ID of the synchronization core.
	MetricSessionEstablished = internalmetrics.MetricSessionEstablished
	// MetricSessionTerminated is an exported counter ID of the synchronization core.
	MetricSessionTerminated = internalmetrics.MetricSessionTerminated
	// MetricNoticeShown is an exported counter ID of the synchronization core.
	MetricNoticeShown = internalmetrics.MetricNoticeShown
	// MetricNoticeDismissed is an exported counter ID of the synchronization core.
	MetricNoticeDismissed = internalmetrics.MetricNoticeDismissed
	// MetricNoticeSuperseded is an exported counter ID of the synchronization core.
	MetricNoticeSuperseded = internalmetrics.MetricNoticeSuperseded
	// MetricNoticeExpired is an exported counter ID of the synchronization core.
	MetricNoticeExpired = internalmetrics.MetricNoticeExpired
	// MetricSubscriberPanic is an exported counter ID of the synchronization core.
	MetricSubscriberPanic = internalmetrics.MetricSubscriberPanic

	metricIDCount = internalmetrics.MetricIDCount
)

// Metrics holds atomic counters.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all counters.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled: cfg.Enabled,
	})
}
