package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"loom/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// FileStore keeps each blob in <dir>/<name>.json and replaces it atomically.
type FileStore struct {
	dir      string
	debounce time.Duration
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		logging.StoreError("Failed to create directory %s: %v", dir, err)
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{dir: dir, debounce: 100 * time.Millisecond}, nil
}

// Path returns the file a blob name maps to.
func (s *FileStore) Path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Read returns the blob contents, or nil if the file does not exist.
func (s *FileStore) Read(name string) ([]byte, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			logging.StoreDebug("FileStore: no blob %s yet", name)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read blob %s: %w", name, err)
	}
	logging.StoreDebug("FileStore: read %s (%d bytes)", name, len(data))
	return data, nil
}

// Write replaces the blob via a temp file and rename so readers never observe
// a partially written snapshot.
func (s *FileStore) Write(name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write blob %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync blob %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close blob %s: %w", name, err)
	}
	if err := os.Rename(tmpName, s.Path(name)); err != nil {
		return fmt.Errorf("failed to replace blob %s: %w", name, err)
	}

	logging.StoreDebug("FileStore: wrote %s (%d bytes)", name, len(data))
	return nil
}

// Close is a no-op; FileStore holds no open handles.
func (s *FileStore) Close() error { return nil }

// Watch calls fn whenever the blob file changes on disk, coalescing bursts of
// events within the debounce window. It blocks until ctx is done.
func (s *FileStore) Watch(ctx context.Context, name string, fn func()) error {
	if err := validateName(name); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: atomic renames replace the file's inode.
	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}
	target := filepath.Clean(s.Path(name))
	logging.Store("FileStore: watching %s", target)

	ticker := time.NewTicker(s.debounce)
	defer ticker.Stop()

	var pending bool
	var lastEvent time.Time

	for {
		select {
		case <-ctx.Done():
			logging.StoreDebug("FileStore: watch on %s stopped", target)
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			pending = true
			lastEvent = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.StoreWarn("FileStore: watcher error: %v", err)

		case <-ticker.C:
			if pending && time.Since(lastEvent) >= s.debounce {
				pending = false
				fn()
			}
		}
	}
}
