package goSessionSync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goSessionSync/bus"
	internalaudit "github.com/MrEthical07/goSessionSync/internal/audit"
	internalmetrics "github.com/MrEthical07/goSessionSync/internal/metrics"
	"github.com/MrEthical07/goSessionSync/session"
)

// Provider is the only component that reads and writes the session store
// outside of the login/logout call sites. It caches the current record,
// subscribes to the context event bus, debounces bursts of change signals,
// and republishes a monotonic version stamp to its own subscribers.
//
// One Provider per execution context; construct through [Builder.Build],
// call [Provider.Start] once, and [Provider.Close] on teardown. After
// Start, all methods are safe for concurrent use.
type Provider struct {
	cfg       Config
	store     session.Store
	bus       *bus.Bus
	transport bus.Transport
	audit     *internalaudit.Dispatcher
	metrics   *internalmetrics.Metrics
	origin    string
	contextID string

	version atomic.Uint64

	mu            sync.Mutex
	state         State
	record        *session.Record
	writeSeq      uint64
	debounce      *time.Timer
	subs          map[int]func(Snapshot)
	nextSub       int
	unsubBus      func()
	stopTransport func()
	runCtx        context.Context
	started       bool
	closed        bool
}

// Start performs the initial synchronous load and wires the provider into
// the local bus and, when configured, the cross-context transport.
//
// If the initial load fails on infrastructure, Start returns the error and
// the provider stays in StateLoading: the guard keeps answering Pending
// rather than optimistically allowing or denying, and Start may be retried.
func (p *Provider) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrProviderClosed
	}
	if p.started {
		p.mu.Unlock()
		return errors.New("provider already started")
	}
	p.state = StateLoading
	p.mu.Unlock()

	rec, err := p.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("initial session load: %w", err)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrProviderClosed
	}
	p.record = rec
	if rec != nil {
		p.state = StateAuthenticated
	} else {
		p.state = StateAnonymous
	}
	p.version.Store(1)
	p.runCtx = context.WithoutCancel(ctx)
	p.unsubBus = p.bus.Subscribe(p.onSignal)
	p.started = true
	p.mu.Unlock()

	if p.transport != nil {
		stop, err := p.transport.Subscribe(ctx, p.onRemote)
		if err != nil {
			p.mu.Lock()
			unsub := p.unsubBus
			p.unsubBus = nil
			p.started = false
			p.mu.Unlock()
			if unsub != nil {
				unsub()
			}
			return fmt.Errorf("transport subscribe: %w", err)
		}
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			stop()
			return ErrProviderClosed
		}
		p.stopTransport = stop
		p.mu.Unlock()
	}

	return nil
}

// Close cancels the pending debounce timer, releases the bus and transport
// subscriptions, and drains the audit dispatcher. Close is idempotent.
func (p *Provider) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.debounce != nil {
		p.debounce.Stop()
		p.debounce = nil
	}
	unsub := p.unsubBus
	stop := p.stopTransport
	p.unsubBus = nil
	p.stopTransport = nil
	p.subs = nil
	p.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if stop != nil {
		stop()
	}
	p.audit.Close()
}

// Establish persists the record, publishes the paired local signal, and
// applies the record to this context immediately. It is the one write path
// login and registration flows go through after the remote auth API
// returns an identity payload.
//
// When the returned error is [session.ErrAnnounceFailed] the record IS
// persisted and this context HAS converged; only the propagation to other
// contexts failed.
func (p *Provider) Establish(ctx context.Context, rec *SessionRecord) error {
	if rec == nil {
		return ErrNilRecord
	}
	if err := p.writable(); err != nil {
		return err
	}

	var announceErr error
	if err := p.store.Save(ctx, rec); err != nil {
		if !errors.Is(err, session.ErrAnnounceFailed) {
			p.auditSession(AuditSessionEstablished, rec, false, err.Error())
			return err
		}
		announceErr = err
	}

	p.metrics.Inc(internalmetrics.MetricSessionEstablished)
	p.auditSession(AuditSessionEstablished, rec, true, "")

	p.applyWrite(rec.Clone())
	p.bus.PublishLocal(bus.Signal{Key: p.store.RecordKey(), Origin: p.origin})

	return announceErr
}

// Terminate clears the store (record and credential) and converges this
// context to anonymous. Logout's write path.
func (p *Provider) Terminate(ctx context.Context) error {
	if err := p.writable(); err != nil {
		return err
	}

	prev := p.Current()

	var announceErr error
	if err := p.store.Clear(ctx); err != nil {
		if !errors.Is(err, session.ErrAnnounceFailed) {
			p.auditSession(AuditSessionTerminated, prev, false, err.Error())
			return err
		}
		announceErr = err
	}

	p.metrics.Inc(internalmetrics.MetricSessionTerminated)
	p.auditSession(AuditSessionTerminated, prev, true, "")

	p.applyWrite(nil)
	p.bus.PublishLocal(bus.Signal{Key: p.store.RecordKey(), Origin: p.origin})

	return announceErr
}

// Snapshot returns the current state, record, and version stamp.
func (p *Provider) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{State: p.state, Record: p.record, Version: p.version.Load()}
}

// Current returns the cached session record, or nil when anonymous. Treat
// the record as immutable.
func (p *Provider) Current() *SessionRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.record
}

// IsAuthenticated reports whether a session record is cached.
func (p *Provider) IsAuthenticated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == StateAuthenticated && p.record != nil
}

// HasRole reports whether the current session's role is a member of the
// required set. It is false whenever the session is absent, the stored
// role string is unrecognized, or the required set is empty; every
// ambiguous case fails closed. There is no role hierarchy; callers
// enumerate every role they accept.
func (p *Provider) HasRole(required RoleSet) bool {
	p.mu.Lock()
	rec := p.record
	p.mu.Unlock()

	if rec == nil || required.Empty() {
		return false
	}
	role, ok := ParseRole(rec.Role)
	return ok && required.Has(role)
}

// VersionStamp returns the per-context monotonic reconciliation counter.
// It is not persisted and not comparable across contexts.
func (p *Provider) VersionStamp() uint64 {
	return p.version.Load()
}

// State returns the provider lifecycle state.
func (p *Provider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// ContextID returns this execution context's identifier.
func (p *Provider) ContextID() string {
	return p.contextID
}

// Origin returns the storage namespace this provider converges within.
func (p *Provider) Origin() string {
	return p.origin
}

// Bus returns the context event bus, for callers that write the store
// directly and must publish the paired local signal themselves.
func (p *Provider) Bus() *bus.Bus {
	return p.bus
}

// Store returns the session store bound to this context.
func (p *Provider) Store() session.Store {
	return p.store
}

// Subscribe registers a callback invoked with a fresh [Snapshot] after
// every reconciled change. The callback runs on the reconciling goroutine
// and must not block; a panic is recovered and counted. The returned
// function releases the subscription and must be called on teardown.
func (p *Provider) Subscribe(fn func(Snapshot)) func() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return func() {}
	}
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			if p.subs != nil {
				delete(p.subs, id)
			}
			p.mu.Unlock()
		})
	}
}

// MetricsSnapshot returns a deep copy of the provider's counters.
func (p *Provider) MetricsSnapshot() MetricsSnapshot {
	return p.metrics.Snapshot()
}

// AuditDropped reports audit events discarded under backpressure.
func (p *Provider) AuditDropped() uint64 {
	return p.audit.Dropped()
}

func (p *Provider) writable() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrProviderClosed
	}
	if !p.started {
		return ErrProviderNotStarted
	}
	return nil
}

// onRemote feeds transport deliveries through the bus's own-signal filter.
func (p *Provider) onRemote(sig bus.Signal) {
	if !p.bus.DispatchRemote(sig) {
		p.metrics.Inc(internalmetrics.MetricSignalFilteredSelf)
	}
}

// onSignal schedules a reconciliation after the debounce window. Signals
// arriving while a window is pending coalesce into the single scheduled
// reload, bounding the reload rate under write bursts.
func (p *Provider) onSignal(sig bus.Signal) {
	if sig.Origin != "" && sig.Origin != p.origin {
		return
	}
	if sig.Remote {
		p.metrics.Inc(internalmetrics.MetricSignalRemote)
	} else {
		p.metrics.Inc(internalmetrics.MetricSignalLocal)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || !p.started {
		return
	}
	if p.debounce != nil {
		p.metrics.Inc(internalmetrics.MetricSignalCoalesced)
		return
	}
	p.debounce = time.AfterFunc(p.cfg.Sync.DebounceWindow, p.reconcile)
}

// reconcile reloads the store and applies the result. A load failure
// leaves the cache untouched; the next signal re-arms the window.
func (p *Provider) reconcile() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.debounce = nil
	ctx := p.runCtx
	seq := p.writeSeq
	p.mu.Unlock()

	p.metrics.Inc(internalmetrics.MetricReconcile)

	rec, err := p.store.Load(ctx)
	if err != nil {
		p.metrics.Inc(internalmetrics.MetricReconcileFailed)
		p.emitAudit(AuditEvent{EventType: AuditReconcileFailed, Error: err.Error()})
		return
	}

	p.applyLoaded(rec, seq)
}

// applyWrite installs the result of a direct write in this context. The
// sequence bump invalidates any reconciliation load still in flight, so a
// load that read the store before the write cannot revert the cache.
func (p *Provider) applyWrite(rec *session.Record) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.writeSeq++
	p.applyLocked(rec, "")
}

// applyLoaded installs a reconciliation result unless a direct write landed
// after the load was captured. A discarded load is not a lost update: the
// write's paired local publish has already scheduled a fresh reload.
func (p *Provider) applyLoaded(rec *session.Record, seq uint64) {
	p.mu.Lock()
	if p.closed || p.writeSeq != seq {
		p.mu.Unlock()
		return
	}
	p.applyLocked(rec, AuditReconcileApplied)
}

// applyLocked replaces the cached record when it actually differs, bumps
// the version stamp, and notifies subscribers. An identical reload changes
// nothing downstream: the stamp only moves on a real difference, and the
// one edge that always counts is Anonymous<->Authenticated, which Equal
// reports as different by construction.
//
// Called with p.mu held; releases it.
func (p *Provider) applyLocked(rec *session.Record, auditType string) {
	if p.record.Equal(rec) {
		p.mu.Unlock()
		return
	}

	from := p.record
	p.record = rec
	if rec != nil {
		p.state = StateAuthenticated
	} else {
		p.state = StateAnonymous
	}
	v := p.version.Add(1)
	snap := Snapshot{State: p.state, Record: rec, Version: v}

	targets := make([]func(Snapshot), 0, len(p.subs))
	for _, fn := range p.subs {
		targets = append(targets, fn)
	}
	p.mu.Unlock()

	if auditType != "" {
		p.metrics.Inc(internalmetrics.MetricReconcileChanged)
		e := AuditEvent{EventType: auditType, Success: true}
		if from != nil {
			e.UserID = from.UserID
			e.FromRole = from.Role
		}
		if rec != nil {
			e.UserID = rec.UserID
			e.ToRole = rec.Role
		}
		p.emitAudit(e)
	}

	for _, fn := range targets {
		p.notify(fn, snap)
	}
}

// notify isolates one subscriber so a failing consumer cannot starve the
// others or the reconciliation path.
func (p *Provider) notify(fn func(Snapshot), snap Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			p.metrics.Inc(internalmetrics.MetricSubscriberPanic)
			p.emitAudit(AuditEvent{
				EventType: AuditSubscriberPanic,
				Error:     fmt.Sprint(r),
			})
		}
	}()
	fn(snap)
}
