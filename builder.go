package goSessionSync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goSessionSync/bus"
	internalaudit "github.com/MrEthical07/goSessionSync/internal/audit"
	internalmetrics "github.com/MrEthical07/goSessionSync/internal/metrics"
	"github.com/MrEthical07/goSessionSync/session"
)

// Builder defines a public type used by goSessionSync APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config    Config
	redis     redis.UniversalClient
	store     session.Store
	transport bus.Transport
	auditSink AuditSink
	contextID string

	built bool
}

// New creates a builder with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing both the store and, unless
// overridden by WithTransport, the cross-context transport.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithStore overrides the session store. The caller is responsible for
// wiring the store's announcer to the same transport this provider
// subscribes to; [NewAnnouncer] builds one.
func (b *Builder) WithStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithTransport overrides the cross-context transport.
func (b *Builder) WithTransport(t bus.Transport) *Builder {
	b.transport = t
	return b
}

// WithAuditSink sets the audit sink; audit must also be enabled in config.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithContextID fixes the execution context's identifier instead of
// generating one. Intended for tests and for processes that persist their
// context identity.
func (b *Builder) WithContextID(id string) *Builder {
	b.contextID = id
	return b
}

// WithMetricsEnabled toggles the in-process counter system.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and assembles an un-started
// [Provider]. Builders are single-use.
func (b *Builder) Build() (*Provider, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	contextID := b.contextID
	if contextID == "" {
		contextID = uuid.NewString()
	}
	origin := session.NormalizeOrigin(cfg.Store.Origin)

	metrics := internalmetrics.New(internalmetrics.Config{Enabled: cfg.Metrics.Enabled})
	dispatcher := internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	transport := b.transport
	if transport == nil && b.redis != nil {
		transport = bus.NewRedisTransport(b.redis, cfg.Store.RedisPrefix, origin)
	}

	store := b.store
	if store == nil {
		if b.redis == nil {
			dispatcher.Close()
			return nil, ErrStoreRequired
		}

		var announcer session.Announcer
		if transport != nil {
			announcer = NewAnnouncer(transport, origin, contextID)
		}
		store = session.NewRedisStore(
			b.redis,
			cfg.Store.RedisPrefix,
			origin,
			announcer,
			corruptHook(metrics, dispatcher, origin, contextID),
		)
	}

	contextBus := bus.New(contextID)
	contextBus.SetPanicHook(func(recovered any) {
		metrics.Inc(internalmetrics.MetricSubscriberPanic)
	})

	provider := &Provider{
		cfg:       cfg,
		store:     store,
		bus:       contextBus,
		transport: transport,
		audit:     dispatcher,
		metrics:   metrics,
		origin:    origin,
		contextID: contextID,
		state:     StateUninitialized,
		subs:      make(map[int]func(Snapshot)),
	}

	b.built = true

	return provider, nil
}

// NewAnnouncer adapts a transport into the [session.Announcer] a store
// needs, stamping every announce with the writing context's identity.
func NewAnnouncer(t bus.Transport, origin, contextID string) session.Announcer {
	return &transportAnnouncer{transport: t, origin: origin, contextID: contextID}
}

type transportAnnouncer struct {
	transport bus.Transport
	origin    string
	contextID string
}

func (a *transportAnnouncer) Announce(ctx context.Context, key string) error {
	return a.transport.Announce(ctx, bus.Signal{
		Key:       key,
		Origin:    a.origin,
		ContextID: a.contextID,
		At:        time.Now(),
	})
}

func corruptHook(
	metrics *internalmetrics.Metrics,
	dispatcher *internalaudit.Dispatcher,
	origin, contextID string,
) func() {
	return func() {
		metrics.Inc(internalmetrics.MetricCorruptRecordDiscarded)
		dispatcher.Emit(context.Background(), internalaudit.Event{
			Timestamp: time.Now(),
			EventType: AuditCorruptRecordDiscarded,
			Origin:    origin,
			ContextID: contextID,
			Success:   true,
		})
	}
}
