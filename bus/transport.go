package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTransportUnavailable wraps infrastructure failures of a transport.
var ErrTransportUnavailable = errors.New("transport unavailable")

// Transport moves signals between execution contexts of one origin. It is
// the analogue of the runtime's native storage-mutation notification:
// Announce broadcasts to every subscribed context, and the per-context
// filtering of the writer's own signals happens in [Bus.DispatchRemote].
type Transport interface {
	// Announce broadcasts a signal to all subscribed contexts.
	Announce(ctx context.Context, sig Signal) error

	// Subscribe starts delivering announced signals to deliver until the
	// returned stop function is called or ctx is canceled. Delivery runs
	// on a transport-owned goroutine.
	Subscribe(ctx context.Context, deliver func(Signal)) (stop func(), err error)
}

// wireSignal is the pub/sub payload. Field names are part of the
// cross-context protocol.
type wireSignal struct {
	Key       string    `json:"key"`
	Origin    string    `json:"origin"`
	ContextID string    `json:"ctx"`
	At        time.Time `json:"at"`
}

// RedisTransport carries signals over a Redis pub/sub channel, one channel
// per origin.
type RedisTransport struct {
	redis   redis.UniversalClient
	channel string
}

// NewRedisTransport creates a transport on the change channel for the
// given prefix and origin. All contexts of one origin must use the same
// prefix and origin to see each other.
func NewRedisTransport(client redis.UniversalClient, prefix, origin string) *RedisTransport {
	if origin == "" {
		origin = "0"
	}
	return &RedisTransport{
		redis:   client,
		channel: prefix + ":changed:" + origin,
	}
}

// Channel returns the pub/sub channel name.
func (t *RedisTransport) Channel() string {
	return t.channel
}

// Announce implements [Transport].
//
//	Performance: 1 Redis PUBLISH.
func (t *RedisTransport) Announce(ctx context.Context, sig Signal) error {
	payload, err := json.Marshal(wireSignal{
		Key:       sig.Key,
		Origin:    sig.Origin,
		ContextID: sig.ContextID,
		At:        sig.At,
	})
	if err != nil {
		return err
	}

	if err := t.redis.Publish(ctx, t.channel, payload).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrTransportUnavailable, err)
	}
	return nil
}

// Subscribe implements [Transport]. Malformed payloads are dropped; the
// channel carries only session-changed signals.
func (t *RedisTransport) Subscribe(ctx context.Context, deliver func(Signal)) (func(), error) {
	ps := t.redis.Subscribe(ctx, t.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("%w: %v", ErrTransportUnavailable, err)
	}

	done := make(chan struct{})
	go func() {
		ch := ps.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var w wireSignal
				if err := json.Unmarshal([]byte(msg.Payload), &w); err != nil {
					continue
				}
				deliver(Signal{
					Key:       w.Key,
					Origin:    w.Origin,
					ContextID: w.ContextID,
					At:        w.At,
					Remote:    true,
				})
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			_ = ps.Close()
		})
	}, nil
}

// MemoryHub is an in-process [Transport] shared by every execution context
// of an embedded deployment. Announce fans out to all subscribers,
// including the writer's own; the writer's bus filters its own signals, so
// the observable behavior matches the Redis transport exactly.
type MemoryHub struct {
	mu     sync.Mutex
	subs   map[int]func(Signal)
	nextID int
}

// NewMemoryHub creates an empty hub.
func NewMemoryHub() *MemoryHub {
	return &MemoryHub{subs: make(map[int]func(Signal))}
}

// Announce implements [Transport]. Delivery is synchronous on the caller's
// goroutine.
func (h *MemoryHub) Announce(ctx context.Context, sig Signal) error {
	sig.Remote = true

	h.mu.Lock()
	targets := make([]func(Signal), 0, len(h.subs))
	for _, fn := range h.subs {
		targets = append(targets, fn)
	}
	h.mu.Unlock()

	for _, fn := range targets {
		fn(sig)
	}
	return nil
}

// Subscribe implements [Transport].
func (h *MemoryHub) Subscribe(ctx context.Context, deliver func(Signal)) (func(), error) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = deliver
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}, nil
}
