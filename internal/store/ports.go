// Package store defines the record store port and the tabular encoding
// shared by its file and spreadsheet implementations.
package store

import (
	"context"
	"fmt"

	"bilancio/internal/core"
)

// RecordStore loads and saves the whole of one record collection.
//
// Load returns an empty collection, not an error, when the backing table is
// absent or malformed. Save replaces the table; the last writer wins.
type RecordStore interface {
	Load(ctx context.Context) ([]core.Record, error)
	Save(ctx context.Context, records []core.Record) error
}

// Appender is implemented by stores that can add a single record without
// rewriting the collection.
type Appender interface {
	AppendRecord(ctx context.Context, r core.Record) error
}

// Append adds r at the end of the collection held by s, natively when s is
// an Appender and by read-modify-write otherwise.
func Append(ctx context.Context, s RecordStore, r core.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if a, ok := s.(Appender); ok {
		return a.AppendRecord(ctx, r)
	}
	records, err := s.Load(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}
	records = append(records, r)
	if err := s.Save(ctx, records); err != nil {
		return fmt.Errorf("save records: %w", err)
	}
	return nil
}
