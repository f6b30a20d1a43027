package backend

import (
	"context"
	"fmt"

	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/store/csvfile"
	gstore "bilancio/internal/store/google"
	"bilancio/internal/store/memory"
	"bilancio/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case CSVBackend:
		return f.createCSVBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createCSVBackend(config Config) (*BackendResult, error) {
	f.logger.Info("Initialized csv backend", "income_file", config.IncomePath, "expense_file", config.ExpensePath)
	return &BackendResult{
		Stores: Stores{
			core.KindIncome:  csvfile.New(config.IncomePath, f.logger),
			core.KindExpense: csvfile.New(config.ExpensePath, f.logger),
		},
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	stores := Stores{}
	seeds := map[core.Kind]string{core.KindIncome: config.IncomePath, core.KindExpense: config.ExpensePath}
	for kind, path := range seeds {
		if path == "" {
			stores[kind] = memory.New()
			continue
		}
		s, err := memory.NewFromFile(ctx, path, f.logger)
		if err != nil {
			return nil, fmt.Errorf("seed %s memory store: %w", kind, err)
		}
		stores[kind] = s
	}
	f.logger.Info("Initialized memory backend")
	return &BackendResult{Stores: stores}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	db, err := sqlite.Open(config.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite database: %w", err)
	}

	stores := Stores{}
	for _, kind := range core.Kinds() {
		c, err := db.Collection(kind)
		if err != nil {
			db.Close()
			return nil, err
		}
		stores[kind] = c
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{
		Stores:  stores,
		Cleanup: db.Close,
		Ready:   db.Ping,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	client, err := gstore.NewClient(ctx, config.GoogleSpreadsheetID, gstore.Credentials{
		JSON: config.GoogleServiceAccountJSON,
		File: config.GoogleServiceAccountFile,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend",
		"income_sheet", config.GoogleIncomeSheet,
		"expense_sheet", config.GoogleExpenseSheet)
	return &BackendResult{
		Stores: Stores{
			core.KindIncome:  client.Sheet(config.GoogleIncomeSheet),
			core.KindExpense: client.Sheet(config.GoogleExpenseSheet),
		},
		Ready: client.Ping,
	}, nil
}
