// Package history records tool invocations for later inspection. The server
// appends one record per accepted tools call; coordination state itself is
// never persisted.
package history

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record is one dispatched tool invocation.
type Record struct {
	ID           string         `json:"id"`
	Method       string         `json:"method"`
	Tool         string         `json:"tool,omitempty"`
	Params       map[string]any `json:"params,omitempty"`
	Success      bool           `json:"success"`
	ErrorCode    int            `json:"error_code,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	DurationMS   int64          `json:"duration_ms"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Store persists invocation records.
type Store interface {
	Append(ctx context.Context, rec Record) error
	List(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

const defaultListLimit = 100

// normalize fills generated fields on a record before storage.
func normalize(rec Record) Record {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return rec
}

// MemoryStore keeps records in memory, newest last. It backs tests and
// servers running without a database path.
type MemoryStore struct {
	mu      sync.Mutex
	records []Record
	cap     int
}

// NewMemoryStore creates an in-memory store retaining at most cap records
// (1000 when cap <= 0).
func NewMemoryStore(cap int) *MemoryStore {
	if cap <= 0 {
		cap = 1000
	}
	return &MemoryStore{cap: cap}
}

func (s *MemoryStore) Append(ctx context.Context, rec Record) error {
	rec = normalize(rec)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	if len(s.records) > s.cap {
		s.records = s.records[len(s.records)-s.cap:]
	}
	return nil
}

// List returns the most recent records, newest first.
func (s *MemoryStore) List(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.records)
	if limit > n {
		limit = n
	}
	out := make([]Record, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
