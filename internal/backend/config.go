package backend

import (
	"errors"
	"fmt"

	"bilancio/internal/config"
)

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// csv, and the seed files of memory
	IncomePath  string
	ExpensePath string

	// sqlite
	SQLiteDBPath string

	// sheets
	GoogleSpreadsheetID      string
	GoogleIncomeSheet        string
	GoogleExpenseSheet       string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	cfg := fromApp(appConfig, BackendType(appConfig.DataBackend))
	cfg.IncomePath = appConfig.IncomePath()
	cfg.ExpensePath = appConfig.ExpensePath()
	return cfg, cfg.Validate()
}

// MirrorFromAppConfig returns the backend the mirror worker writes to.
// A csv mirror keeps its files under MIRROR_DIR.
func MirrorFromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	mirror := *appConfig
	mirror.DataDir = appConfig.MirrorDir
	cfg := fromApp(&mirror, BackendType(appConfig.MirrorBackend))
	cfg.IncomePath = mirror.IncomePath()
	cfg.ExpensePath = mirror.ExpensePath()
	if cfg.Type != CSVBackend && cfg.Type != SheetsBackend {
		return Config{}, fmt.Errorf("invalid mirror backend type: %s", cfg.Type)
	}
	return cfg, cfg.Validate()
}

func fromApp(appConfig *config.Config, t BackendType) Config {
	return Config{
		Type:                     t,
		SQLiteDBPath:             appConfig.SQLiteDBPath,
		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleIncomeSheet:        appConfig.GoogleIncomeSheet,
		GoogleExpenseSheet:       appConfig.GoogleExpenseSheet,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
	}
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case CSVBackend:
		if c.IncomePath == "" || c.ExpensePath == "" {
			return errors.New("income and expense file paths are required for csv backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return errors.New("Google Spreadsheet ID is required for sheets backend")
		}
		if c.GoogleIncomeSheet == "" || c.GoogleExpenseSheet == "" {
			return errors.New("Google income and expense sheet names are required for sheets backend")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			return errors.New("service account credentials are required for sheets backend")
		}
	case MemoryBackend:
		// Seed files are optional.
	}
	return nil
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := []BackendType{CSVBackend, MemoryBackend, SQLiteBackend, SheetsBackend}
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
