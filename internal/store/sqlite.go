package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"loom/internal/logging"

	_ "github.com/mattn/go-sqlite3" // registers "sqlite3" (cgo)
	_ "modernc.org/sqlite"          // registers "sqlite" (pure Go)
)

// CurrentSchemaVersion is recorded in PRAGMA user_version.
// v1: blobs(name, data, updated_at)
const CurrentSchemaVersion = 1

// SQLiteStore keeps blobs in a single SQLite table.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	driver string
}

// NewSQLiteStore opens (or creates) the database at path using driver
// "sqlite3" (mattn/go-sqlite3) or "sqlite" (modernc.org/sqlite).
func NewSQLiteStore(driver, path string) (*SQLiteStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewSQLiteStore")
	defer timer.Stop()

	if driver != "sqlite3" && driver != "sqlite" {
		return nil, fmt.Errorf("unsupported sqlite driver: %s", driver)
	}

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			logging.StoreError("Failed to create directory %s: %v", dir, err)
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open(driver, path)
	if err != nil {
		logging.StoreError("Failed to open database at %s: %v", path, err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: serializes writers and keeps :memory: databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
	}

	s := &SQLiteStore{db: db, dbPath: path, driver: driver}
	if err := s.initialize(); err != nil {
		logging.StoreError("Failed to initialize schema: %v", err)
		db.Close()
		return nil, err
	}

	logging.Store("SQLiteStore ready at %s (driver=%s)", path, driver)
	return s, nil
}

// initialize creates the schema and records its version.
func (s *SQLiteStore) initialize() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version > CurrentSchemaVersion {
		return fmt.Errorf("database schema v%d is newer than supported v%d", version, CurrentSchemaVersion)
	}

	blobsTable := `
	CREATE TABLE IF NOT EXISTS blobs (
		name TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(blobsTable); err != nil {
		return fmt.Errorf("failed to create blobs table: %w", err)
	}

	if version < CurrentSchemaVersion {
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", CurrentSchemaVersion)); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
		logging.Store("Schema migrated v%d -> v%d", version, CurrentSchemaVersion)
	}
	return nil
}

// Read returns the blob, or nil if no row exists.
func (s *SQLiteStore) Read(name string) ([]byte, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.QueryRow("SELECT data FROM blobs WHERE name = ?", name).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", name, err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// Write upserts the blob.
func (s *SQLiteStore) Write(name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}
	_, err := s.db.Exec(`
		INSERT INTO blobs (name, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		name, data, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to write blob %s: %w", name, err)
	}
	logging.StoreDebug("SQLiteStore: wrote %s (%d bytes)", name, len(data))
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
