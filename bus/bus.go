package bus

import (
	"sync"
	"sync/atomic"
	"time"
)

// Signal is one notification on the session-changed topic.
type Signal struct {
	// Key is the storage key of the mutated entry.
	Key string
	// Origin is the storage namespace the mutation happened in.
	Origin string
	// ContextID identifies the execution context that performed the write.
	ContextID string
	// At is the time the writer produced the signal.
	At time.Time
	// Remote is true when the signal arrived over a transport from another
	// execution context, false when it was published locally.
	Remote bool
}

// Handler consumes signals. Handlers run on the publishing goroutine (local
// publishes) or the transport's delivery goroutine (remote signals) and
// must not block.
type Handler func(Signal)

// Bus is the per-execution-context signal fan-out point.
type Bus struct {
	contextID string

	mu       sync.Mutex
	handlers map[int]Handler
	nextID   int

	panics  atomic.Uint64
	onPanic func(recovered any)
}

// New creates a bus for the execution context identified by contextID.
func New(contextID string) *Bus {
	return &Bus{
		contextID: contextID,
		handlers:  make(map[int]Handler),
	}
}

// ContextID returns the owning execution context's identifier.
func (b *Bus) ContextID() string {
	return b.contextID
}

// SetPanicHook installs a callback invoked after a handler panic is
// recovered. Must be set before the first publish.
func (b *Bus) SetPanicHook(fn func(recovered any)) {
	b.onPanic = fn
}

// Subscribe registers a handler and returns its unsubscribe function.
// Callers must release the subscription on teardown; an unreleased handler
// leaks across remounts. Unsubscribe is idempotent.
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// PublishLocal notifies this context's subscribers synchronously. The
// signal is stamped with the bus's own context ID; Remote is forced false.
func (b *Bus) PublishLocal(sig Signal) {
	sig.Remote = false
	if sig.ContextID == "" {
		sig.ContextID = b.contextID
	}
	if sig.At.IsZero() {
		sig.At = time.Now()
	}
	b.deliver(sig)
}

// DispatchRemote feeds a transport-delivered signal into this context.
// Signals carrying the bus's own context ID are dropped: the writer's
// convergence path is the paired local publish, never its own announce.
// It reports whether the signal was delivered.
func (b *Bus) DispatchRemote(sig Signal) bool {
	if sig.ContextID == b.contextID {
		return false
	}
	sig.Remote = true
	b.deliver(sig)
	return true
}

// HandlerPanics returns the number of recovered subscriber panics.
func (b *Bus) HandlerPanics() uint64 {
	return b.panics.Load()
}

func (b *Bus) deliver(sig Signal) {
	b.mu.Lock()
	hs := make([]Handler, 0, len(b.handlers))
	for _, h := range b.handlers {
		hs = append(hs, h)
	}
	b.mu.Unlock()

	for _, h := range hs {
		b.call(h, sig)
	}
}

// call isolates one handler invocation so a failing subscriber cannot
// prevent others, or the store's write path, from completing.
func (b *Bus) call(h Handler, sig Signal) {
	defer func() {
		if r := recover(); r != nil {
			b.panics.Add(1)
			if b.onPanic != nil {
				b.onPanic(r)
			}
		}
	}()
	h(sig)
}
