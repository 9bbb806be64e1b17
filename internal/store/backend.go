// Package store provides the durable blob storage that backs the tree snapshot.
// A blob is an opaque byte slice stored under a fixed name; backends are a JSON
// file directory, a SQLite database, or process memory.
package store

import (
	"fmt"
	"strings"

	"loom/internal/config"
	"loom/internal/logging"
)

// Backend stores named blobs. Read returns (nil, nil) when the name has never
// been written, and a non-nil slice otherwise, even for an empty blob.
type Backend interface {
	Read(name string) ([]byte, error)
	Write(name string, data []byte) error
	Close() error
}

// Open creates the backend selected by cfg rooted at path.
func Open(cfg config.StoreConfig, path string) (Backend, error) {
	logging.Store("Opening %s store at %s", cfg.Backend, path)

	switch cfg.Backend {
	case "file":
		return NewFileStore(path)
	case "sqlite":
		return NewSQLiteStore(cfg.Driver, path)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Backend)
	}
}

// validateName rejects names that could escape a directory or are empty.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("blob name must not be empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid blob name: %q", name)
	}
	return nil
}
