package faultlog

import (
	"context"
	"errors"
	"time"
)

// ErrStoreClosed is returned when operating on a closed store.
var ErrStoreClosed = errors.New("fault store closed")

// Record describes one failed handler invocation.
type Record struct {
	ID         string    `json:"id"`
	EventType  string    `json:"event_type"`
	Listener   string    `json:"listener"`
	Method     string    `json:"method"`
	Priority   string    `json:"priority"`
	Message    string    `json:"message"`
	Panicked   bool      `json:"panicked"`
	Stack      string    `json:"stack,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Recorder accepts fault records. The dispatcher only needs this half.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// Store is a queryable fault journal.
//
// List methods return newest records first. A limit of zero or less means
// no limit.
type Store interface {
	Recorder

	List(ctx context.Context, limit int) ([]Record, error)
	ListByEventType(ctx context.Context, eventType string, limit int) ([]Record, error)
	Count(ctx context.Context) (int, error)
	CountByEventType(ctx context.Context) (map[string]int, error)
	Clear(ctx context.Context) error
	Close() error
}
