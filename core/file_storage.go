package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStorage persists each key as a JSON document in its own file
// under a state directory. This is the durable local storage used by
// default so the cart and session token survive restarts, the same
// role browser local storage plays for the web client.
//
// There is no versioning or migration scheme for the stored
// documents; stores fall back to empty state on unreadable data.
type FileStorage struct {
	mu     sync.Mutex
	dir    string
	logger Logger
}

// NewFileStorage creates a FileStorage rooted at dir, creating the
// directory if needed.
func NewFileStorage(dir string) (*FileStorage, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: storage directory", ErrMissingConfiguration)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStorage{
		dir:    dir,
		logger: &NoOpLogger{},
	}, nil
}

// SetLogger configures the logger for this storage
func (f *FileStorage) SetLogger(logger Logger) {
	if logger != nil {
		f.logger = logger
	}
}

func (f *FileStorage) path(key string) string {
	// Keys are fixed identifiers like "cart" or "token"; sanitize
	// anyway so a hostile key cannot escape the state directory.
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, key)
	return filepath.Join(f.dir, safe+".json")
}

// Load reads the document for key; a missing file is an empty value
func (f *FileStorage) Load(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read state for %q: %w", key, err)
	}
	return string(data), nil
}

// Save writes the document for key atomically (write then rename)
func (f *FileStorage) Save(ctx context.Context, key string, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	target := f.path(key)
	tmp := target + ".tmp"

	if err := os.WriteFile(tmp, []byte(value), 0o600); err != nil {
		return fmt.Errorf("failed to write state for %q: %w", key, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("failed to persist state for %q: %w", key, err)
	}

	f.logger.Debug("Storage save", map[string]interface{}{
		"operation":  "storage_save",
		"key":        key,
		"path":       target,
		"value_size": len(value),
	})
	return nil
}

// Delete removes the document for key; missing files are not an error
func (f *FileStorage) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete state for %q: %w", key, err)
	}
	return nil
}
