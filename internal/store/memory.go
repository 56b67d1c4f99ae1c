package store

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/i474232898/weather-tracker/internal/user"
)

// MemoryStore is a concurrency-safe in-memory implementation of user.ConditionalStore.
// Records live for the lifetime of the process.
type MemoryStore struct {
	mu sync.RWMutex

	// key: user id
	data map[string]user.Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]user.Record),
	}
}

// Name identifies the backend in health output.
func (s *MemoryStore) Name() string { return BackendMemory }

// Get returns a copy of the stored record.
func (s *MemoryStore) Get(_ context.Context, id string) (user.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[id]
	if !ok {
		return user.Record{}, user.ErrNotFound
	}
	return clone(rec), nil
}

// Put replaces the record.
func (s *MemoryStore) Put(_ context.Context, rec user.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[rec.ID] = clone(rec)
	return nil
}

// PutIfUnchanged replaces the record only if its last_push still equals prev.
func (s *MemoryStore) PutIfUnchanged(_ context.Context, rec user.Record, prev *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current *time.Time
	if cur, ok := s.data[rec.ID]; ok {
		current = cur.LastPush
	}
	if !user.SameInstant(current, prev) {
		return user.ErrConflict
	}

	s.data[rec.ID] = clone(rec)
	return nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func clone(rec user.Record) user.Record {
	out := user.Record{
		ID:    rec.ID,
		Extra: maps.Clone(rec.Extra),
	}
	if rec.LastPush != nil {
		ts := *rec.LastPush
		out.LastPush = &ts
	}
	return out
}
