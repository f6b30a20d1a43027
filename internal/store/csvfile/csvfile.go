// Package csvfile keeps a record collection in a CSV file with a
// Date,Category,Amount,Description header.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/store"
)

type Store struct {
	path   string
	logger *log.Logger
}

var _ store.RecordStore = (*Store)(nil)

// New returns a store backed by the file at path. The file and its
// directory are created on the first Save.
func New(path string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Store{path: path, logger: logger.WithComponent(log.ComponentStorage)}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load reads every record. A missing file or a malformed table yields an
// empty collection; other read failures are returned.
func (s *Store) Load(ctx context.Context) ([]core.Record, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []core.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		s.logger.WarnContext(ctx, "Ignoring unreadable record file", "path", s.path, "error", err)
		return []core.Record{}, nil
	}

	records, err := store.DecodeRows(rows)
	if err != nil {
		s.logger.WarnContext(ctx, "Ignoring malformed record file", "path", s.path, "error", err)
		return []core.Record{}, nil
	}
	return records, nil
}

// Save overwrites the file with the header and the given records.
func (s *Store) Save(ctx context.Context, records []core.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
	}

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", s.path, err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(store.EncodeRows(records)); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", s.path, err)
	}

	s.logger.DebugContext(ctx, "Records saved", "path", s.path, log.FieldRecordCount, len(records))
	return nil
}
