package faultlog

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxRecords bounds a MemoryStore created with a non-positive size.
const DefaultMaxRecords = 1000

// MemoryStore keeps the most recent records in memory.
// Once full, the oldest record is dropped for each new one.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
	max     int
	dropped int64
	closed  bool
}

// NewMemoryStore creates a store holding at most maxRecords records.
func NewMemoryStore(maxRecords int) *MemoryStore {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	return &MemoryStore{max: maxRecords}
}

// Record implements Recorder.
func (s *MemoryStore) Record(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now()
	}

	if len(s.records) >= s.max {
		copy(s.records, s.records[1:])
		s.records = s.records[:len(s.records)-1]
		s.dropped++
	}
	s.records = append(s.records, rec)
	return nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context, limit int) ([]Record, error) {
	return s.collect(ctx, limit, func(Record) bool { return true })
}

// ListByEventType implements Store.
func (s *MemoryStore) ListByEventType(ctx context.Context, eventType string, limit int) ([]Record, error) {
	return s.collect(ctx, limit, func(r Record) bool { return r.EventType == eventType })
}

func (s *MemoryStore) collect(ctx context.Context, limit int, keep func(Record) bool) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	var out []Record
	for i := len(s.records) - 1; i >= 0; i-- {
		if !keep(s.records[i]) {
			continue
		}
		out = append(out, s.records[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Count implements Store.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}
	return len(s.records), nil
}

// CountByEventType implements Store.
func (s *MemoryStore) CountByEventType(ctx context.Context) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	counts := make(map[string]int)
	for _, r := range s.records {
		counts[r.EventType]++
	}
	return counts, nil
}

// Dropped returns how many records were evicted to make room.
func (s *MemoryStore) Dropped() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dropped
}

// Clear implements Store.
func (s *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	s.records = nil
	return nil
}

// Close implements Store. Closing twice is a no-op.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.records = nil
	return nil
}
