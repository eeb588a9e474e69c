package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable wraps infrastructure failures of the backing store.
// It is never returned for a missing or corrupt entry.
var ErrStoreUnavailable = errors.New("session store unavailable")

// ErrAnnounceFailed is returned by Save/Clear when the write itself
// succeeded but the cross-context announce could not be published. Other
// contexts will not learn of the write until the next successful announce;
// the writer's own context is unaffected because it converges through the
// paired local publish.
var ErrAnnounceFailed = errors.New("cross-context announce failed")

// Announcer broadcasts a storage mutation to every other execution context
// of the same origin. Implementations tag the announce with the writing
// context's ID so that the writer's own bus can filter it out; the announce
// therefore never takes effect in the writer's context, mirroring the
// native storage-mutation notification this protocol models.
type Announcer interface {
	Announce(ctx context.Context, key string) error
}

// Store is durable, origin-scoped persistence for the current session
// record plus the opaque bearer credential the (out-of-scope) API client
// uses.
//
// No transactional guarantees: two contexts racing on Save resolve
// last-write-wins with no merge.
type Store interface {
	// Load reads and decodes the record entry. A missing or corrupt entry
	// returns (nil, nil); the safe failure mode for "is someone logged
	// in" is "no". Only infrastructure failure is an error.
	Load(ctx context.Context) (*Record, error)

	// Save serializes the record and fully replaces the prior entry, then
	// announces the mutation to other contexts. The caller must follow a
	// successful Save with a local publish; the store never notifies the
	// writer's own context.
	Save(ctx context.Context, r *Record) error

	// Clear removes the record and the credential entry, then announces.
	Clear(ctx context.Context) error

	// SaveCredential stores the opaque bearer credential. The core never
	// interprets it.
	SaveCredential(ctx context.Context, token string) error

	// LoadCredential returns the stored credential, or "" when absent.
	LoadCredential(ctx context.Context) (string, error)

	// RecordKey is the storage key of the record entry; it doubles as the
	// cross-context change-notification key.
	RecordKey() string
}

// RedisStore is the Redis-backed [Store]. Keys are namespaced by prefix and
// origin so that independent origins never observe each other's sessions.
type RedisStore struct {
	redis     redis.UniversalClient
	prefix    string
	origin    string
	announcer Announcer
	onCorrupt func()
}

// NewRedisStore creates a [RedisStore]. announcer may be nil for a
// single-context deployment; onCorrupt, when non-nil, is invoked each time
// a corrupt entry is discarded on load.
func NewRedisStore(
	client redis.UniversalClient,
	prefix string,
	origin string,
	announcer Announcer,
	onCorrupt func(),
) *RedisStore {
	return &RedisStore{
		redis:     client,
		prefix:    prefix,
		origin:    NormalizeOrigin(origin),
		announcer: announcer,
		onCorrupt: onCorrupt,
	}
}

// NormalizeOrigin maps the empty origin to the default namespace.
func NormalizeOrigin(origin string) string {
	if origin == "" {
		return "0"
	}
	return origin
}

// RecordKey returns the record entry's storage key.
func (s *RedisStore) RecordKey() string {
	return s.prefix + ":" + s.origin + ":record"
}

func (s *RedisStore) credentialKey() string {
	return s.prefix + ":" + s.origin + ":credential"
}

// Load implements [Store].
//
//	Performance: 1 Redis GET.
func (s *RedisStore) Load(ctx context.Context) (*Record, error) {
	data, err := s.redis.Get(ctx, s.RecordKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	rec, err := Decode(data)
	if err != nil {
		if s.onCorrupt != nil {
			s.onCorrupt()
		}
		return nil, nil
	}
	return rec, nil
}

// Save implements [Store].
//
//	Performance: 1 Redis SET + 1 PUBLISH.
func (s *RedisStore) Save(ctx context.Context, r *Record) error {
	data, err := Encode(r)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.RecordKey(), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return s.announce(ctx)
}

// Clear implements [Store]. Removing an absent entry is not an error.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.RecordKey(), s.credentialKey()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return s.announce(ctx)
}

// SaveCredential implements [Store].
func (s *RedisStore) SaveCredential(ctx context.Context, token string) error {
	if err := s.redis.Set(ctx, s.credentialKey(), token, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// LoadCredential implements [Store].
func (s *RedisStore) LoadCredential(ctx context.Context) (string, error) {
	token, err := s.redis.Get(ctx, s.credentialKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return token, nil
}

func (s *RedisStore) announce(ctx context.Context) error {
	if s.announcer == nil {
		return nil
	}
	if err := s.announcer.Announce(ctx, s.RecordKey()); err != nil {
		return fmt.Errorf("%w: %v", ErrAnnounceFailed, err)
	}
	return nil
}
