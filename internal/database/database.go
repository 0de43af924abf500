package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// DB wraps sql.DB for the service history store.
type DB struct {
	*sql.DB
	logger *zerolog.Logger
}

// NewDB opens the database at path and runs the schema lifecycle.
// Safe to call against a database that is already in the target shape.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	db := &DB{DB: sqlDB, logger: logger}

	if err := db.createTables(); err != nil {
		return nil, fmt.Errorf("create tables: %w", err)
	}
	if err := db.migrateSchema(); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	logger.Info().Str("path", path).Msg("database initialized")
	return db, nil
}

func (db *DB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS service_records (
            id TEXT PRIMARY KEY,
            owner_name TEXT,
            owner_phone_number TEXT,
            vehicle_model TEXT,
            vehicle_id TEXT,
            service_date TEXT,
            service_type TEXT,
            description TEXT,
            mileage INTEGER,
            cost REAL,
            next_service_date TEXT,
            mechanic_id TEXT
        )`,

		`CREATE TABLE IF NOT EXISTS mechanics (
            id TEXT PRIMARY KEY,
            name TEXT,
            specialization TEXT,
            contact_number TEXT,
            experience_years INTEGER
        )`,

		`CREATE INDEX IF NOT EXISTS idx_service_records_vehicle_id ON service_records(vehicle_id)`,
		`CREATE INDEX IF NOT EXISTS idx_service_records_mechanic_id ON service_records(mechanic_id)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

// migrateSchema brings an older table forward:
//
//  1. rename legacy vehicle_type -> vehicle_model
//  2. add owner_phone_number if missing
//
// Each probe is a SELECT that is expected to fail when the column is absent;
// the failure is the detection signal, not an error. Re-running the sequence
// is a no-op. Concurrent process starts can race on the ALTERs; the loser
// sees a "duplicate column" error which is swallowed as success.
func (db *DB) migrateSchema() error {
	if !db.columnExists("service_records", "vehicle_model") {
		if db.columnExists("service_records", "vehicle_type") {
			_, err := db.Exec(`ALTER TABLE service_records RENAME COLUMN vehicle_type TO vehicle_model`)
			if err != nil && !isColumnMigrationNoop(err) {
				return fmt.Errorf("rename vehicle_type: %w", err)
			}
			db.logger.Info().Msg("schema migrated: vehicle_type renamed to vehicle_model")
		}
		// Neither column exists on a fresh table: nothing to do.
	}

	if !db.columnExists("service_records", "owner_phone_number") {
		_, err := db.Exec(`ALTER TABLE service_records ADD COLUMN owner_phone_number TEXT`)
		if err != nil && !isColumnMigrationNoop(err) {
			return fmt.Errorf("add owner_phone_number: %w", err)
		}
		db.logger.Info().Msg("schema migrated: added owner_phone_number column")
	}

	return nil
}

// columnExists probes the column with a throwaway SELECT.
func (db *DB) columnExists(table, column string) bool {
	query := fmt.Sprintf("SELECT %s FROM %s LIMIT 1", column, table)
	rows, err := db.Query(query)
	if err != nil {
		return false
	}
	defer rows.Close()
	return true
}

func isColumnMigrationNoop(err error) bool {
	if err == nil {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate column name") ||
		strings.Contains(msg, "no such column")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
