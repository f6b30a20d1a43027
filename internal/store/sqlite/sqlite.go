// Package sqlite stores the record collections in a SQLite database, one
// table per collection, rows ordered by their position in the collection.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/store"

	_ "modernc.org/sqlite"
)

// DB is an open ledger database.
type DB struct {
	db     *sql.DB
	logger *log.Logger
}

// Open creates the database directory, opens the file and migrates it.
func Open(dbPath string, logger *log.Logger) (*DB, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; the whole-collection replace relies on it.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &DB{db: db, logger: logger.WithComponent(log.ComponentStorage)}, nil
}

func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// Ping checks the connection, used by readiness probes.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Collection returns the store of one record kind.
func (d *DB) Collection(kind core.Kind) (*Collection, error) {
	switch kind {
	case core.KindIncome:
		return &Collection{db: d, table: "income"}, nil
	case core.KindExpense:
		return &Collection{db: d, table: "expense"}, nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownKind, kind)
	}
}

// Collection is the table of one record kind.
type Collection struct {
	db    *DB
	table string
}

var _ store.RecordStore = (*Collection)(nil)

// Load returns the rows in position order. A missing table or a row that
// no longer parses yields an empty collection; any other query failure is
// returned.
func (c *Collection) Load(ctx context.Context) ([]core.Record, error) {
	rows, err := c.db.db.QueryContext(ctx,
		"SELECT date, category, amount, description FROM "+c.table+" ORDER BY position")
	if err != nil {
		if isMissingTable(err) {
			c.db.logger.WarnContext(ctx, "Record table missing", "table", c.table, "error", err)
			return []core.Record{}, nil
		}
		return nil, fmt.Errorf("query %s: %w", c.table, err)
	}
	defer rows.Close()

	table := [][]string{store.Header()}
	for rows.Next() {
		var date, category, amount, description string
		if err := rows.Scan(&date, &category, &amount, &description); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.table, err)
		}
		table = append(table, []string{date, category, amount, description})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", c.table, err)
	}

	records, err := store.DecodeRows(table)
	if err != nil {
		c.db.logger.WarnContext(ctx, "Ignoring malformed record table", "table", c.table, "error", err)
		return []core.Record{}, nil
	}
	return records, nil
}

// Save replaces the table contents in a single transaction.
func (c *Collection) Save(ctx context.Context, records []core.Record) error {
	tx, err := c.db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+c.table); err != nil {
		return fmt.Errorf("clear %s: %w", c.table, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO "+c.table+" (position, date, category, amount, description) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, i, r.Date.String(), r.Category, r.Amount.String(), r.Description); err != nil {
			return fmt.Errorf("insert %s row %d: %w", c.table, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", c.table, err)
	}
	c.db.logger.DebugContext(ctx, "Records saved", "table", c.table, log.FieldRecordCount, len(records))
	return nil
}

func isMissingTable(err error) bool {
	return strings.Contains(err.Error(), "no such table")
}
