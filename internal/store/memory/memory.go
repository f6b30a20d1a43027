// Package memory keeps a record collection in process memory.
package memory

import (
	"context"
	"sync"

	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/store"
	"bilancio/internal/store/csvfile"
)

type Store struct {
	mu      sync.Mutex
	records []core.Record
}

var _ store.RecordStore = (*Store)(nil)

func New(seed ...core.Record) *Store {
	return &Store{records: append([]core.Record(nil), seed...)}
}

// NewFromFile seeds the store from a CSV record file, if present.
func NewFromFile(ctx context.Context, path string, logger *log.Logger) (*Store, error) {
	seed, err := csvfile.New(path, logger).Load(ctx)
	if err != nil {
		return nil, err
	}
	return New(seed...), nil
}

// Load returns a copy of the records.
func (s *Store) Load(_ context.Context) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Save replaces the records with a copy of the given ones.
func (s *Store) Save(_ context.Context, records []core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]core.Record(nil), records...)
	return nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
