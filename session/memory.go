package session

import (
	"context"
	"sync"
)

// memoryData is the shared durable state behind every view of one
// in-memory store. It stands in for the origin-scoped storage area that
// all execution contexts of an origin share.
type memoryData struct {
	mu         sync.Mutex
	record     []byte
	hasRecord  bool
	credential string
	hasCred    bool
}

// MemoryStore is an in-process [Store] for embedded deployments and tests.
// One MemoryStore holds the durable state; each execution context obtains
// its own [MemoryStore.View] carrying that context's announcer, the same
// way each context constructs its own RedisStore over one Redis.
type MemoryStore struct {
	data      *memoryData
	key       string
	announcer Announcer
	onCorrupt func()
}

// NewMemoryStore creates an empty in-memory store with no announcer.
func NewMemoryStore(prefix, origin string) *MemoryStore {
	origin = NormalizeOrigin(origin)
	return &MemoryStore{
		data: &memoryData{},
		key:  prefix + ":" + origin + ":record",
	}
}

// View returns a store sharing this store's durable state but carrying the
// given context-scoped announcer and corrupt-entry hook.
func (s *MemoryStore) View(announcer Announcer, onCorrupt func()) *MemoryStore {
	return &MemoryStore{
		data:      s.data,
		key:       s.key,
		announcer: announcer,
		onCorrupt: onCorrupt,
	}
}

// SetRawRecord overwrites the stored record bytes without encoding or
// announcing. Intended for tests that need to plant corrupt entries.
func (s *MemoryStore) SetRawRecord(data []byte) {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	s.data.record = append([]byte(nil), data...)
	s.data.hasRecord = true
}

// RecordKey implements [Store].
func (s *MemoryStore) RecordKey() string {
	return s.key
}

// Load implements [Store].
func (s *MemoryStore) Load(ctx context.Context) (*Record, error) {
	s.data.mu.Lock()
	data, ok := s.data.record, s.data.hasRecord
	s.data.mu.Unlock()

	if !ok {
		return nil, nil
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
func (s *MemoryStore) Save(ctx context.Context, r *Record) error {
	data, err := Encode(r)
	if err != nil {
		return err
	}

	s.data.mu.Lock()
	s.data.record = data
	s.data.hasRecord = true
	s.data.mu.Unlock()

	return s.announce(ctx)
}

// Clear implements [Store].
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.data.mu.Lock()
	s.data.record = nil
	s.data.hasRecord = false
	s.data.credential = ""
	s.data.hasCred = false
	s.data.mu.Unlock()

	return s.announce(ctx)
}

// SaveCredential implements [Store].
func (s *MemoryStore) SaveCredential(ctx context.Context, token string) error {
	s.data.mu.Lock()
	s.data.credential = token
	s.data.hasCred = true
	s.data.mu.Unlock()
	return nil
}

// LoadCredential implements [Store].
func (s *MemoryStore) LoadCredential(ctx context.Context) (string, error) {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	if !s.data.hasCred {
		return "", nil
	}
	return s.data.credential, nil
}

func (s *MemoryStore) announce(ctx context.Context) error {
	if s.announcer == nil {
		return nil
	}
	if err := s.announcer.Announce(ctx, s.key); err != nil {
		return ErrAnnounceFailed
	}
	return nil
}
