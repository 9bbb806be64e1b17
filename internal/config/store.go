package config

import "fmt"

// StoreConfig selects the durable storage backend for the tree snapshot.
type StoreConfig struct {
	Backend string `yaml:"backend"` // file, sqlite, memory
	Driver  string `yaml:"driver"`  // sqlite3 (mattn, cgo) or sqlite (modernc, pure Go)
	Path    string `yaml:"path"`    // Directory for file, database file for sqlite
	Name    string `yaml:"name"`    // Blob name the snapshot is stored under
}

// Validate checks backend and driver names.
func (s *StoreConfig) Validate() error {
	switch s.Backend {
	case "file", "memory":
	case "sqlite":
		if s.Driver != "sqlite3" && s.Driver != "sqlite" {
			return fmt.Errorf("invalid sqlite driver: %s (valid: sqlite3, sqlite)", s.Driver)
		}
	default:
		return fmt.Errorf("invalid store backend: %s (valid: file, sqlite, memory)", s.Backend)
	}
	if s.Name == "" {
		return fmt.Errorf("store name must not be empty")
	}
	return nil
}
