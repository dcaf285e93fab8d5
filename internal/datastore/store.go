package datastore

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/aleister1102/docpipe/internal/common"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Store wraps the SQL database connection holding file processing history and
// run history. It is process-wide shared state; the one-active-run invariant
// means it never sees concurrent writers.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewStore initializes the database connection and ensures the schema is set up.
func NewStore(dataSourceName string, logger zerolog.Logger) (*Store, error) {
	moduleLogger := logger.With().Str("module", "Store").Logger()
	moduleLogger.Info().Str("db_path", dataSourceName).Msg("Initializing tracker database connection")

	dbDir := filepath.Dir(dataSourceName)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, common.WrapErrorf(err, "failed to create database directory '%s'", dbDir)
	}

	dbInstance, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, common.WrapErrorf(err, "sql.Open failed for '%s'", dataSourceName)
	}

	// A single connection keeps every statement in its own implicit
	// transaction without SQLITE_BUSY contention.
	dbInstance.SetMaxOpenConns(1)

	s := &Store{
		db:     dbInstance,
		logger: moduleLogger,
	}

	if err := s.InitSchema(); err != nil {
		s.Close()
		return nil, common.WrapError(err, "failed to initialize schema")
	}
	moduleLogger.Info().Str("path", dataSourceName).Msg("Database initialized and schema verified")
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitSchema creates the tables if they don't already exist.
func (s *Store) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS file_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_folder TEXT NOT NULL,
		filename TEXT NOT NULL,
		last_modified DATETIME NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		processed_at DATETIME NOT NULL,
		UNIQUE(source_folder, filename)
	);
	CREATE INDEX IF NOT EXISTS idx_file_history_identity
		ON file_history(source_folder, filename);
	CREATE INDEX IF NOT EXISTS idx_file_history_processed_at
		ON file_history(processed_at);

	CREATE TABLE IF NOT EXISTS run_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		processing_date TEXT NOT NULL,
		start_time DATETIME NOT NULL,
		end_time DATETIME,
		status TEXT NOT NULL,
		workspace_path TEXT,
		files_found INTEGER DEFAULT 0,
		files_downloaded INTEGER DEFAULT 0,
		files_failed INTEGER DEFAULT 0,
		records_extracted INTEGER DEFAULT 0,
		records_failed INTEGER DEFAULT 0,
		error_summary TEXT
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		s.logger.Error().Err(err).Msg("Failed to initialize schema")
		return err
	}
	return nil
}
