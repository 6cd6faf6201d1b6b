// Package csvstore persists the maintenance table as a CSV file that is
// authoritative for reads. Writes go through a temp file, fsync and rename
// so a reader never sees a half-written file.
package csvstore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mesh-intelligence/maintlog/pkg/types"
)

// Store reads and writes one CSV file.
type Store struct {
	path   string
	logger *slog.Logger

	mu sync.Mutex
	// unreadable is set when the last Load could not parse an existing file.
	// The next Save moves that file aside before replacing it.
	unreadable bool
	now        func() time.Time
}

// New creates a Store for the file at path. The file does not need to exist.
func New(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger, now: time.Now}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored table. A missing, empty or unreadable file yields
// an empty table; Load never fails.
func (s *Store) Load() *types.Table {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.unreadable = false
			return types.NewTable()
		}
		s.markUnreadable(err)
		return types.NewTable()
	}

	t, err := Parse(data)
	if err != nil {
		s.markUnreadable(err)
		return types.NewTable()
	}
	s.unreadable = false
	return t
}

func (s *Store) markUnreadable(err error) {
	s.unreadable = true
	s.logger.Warn("local store unreadable, using empty table",
		"path", s.path,
		"error", fmt.Errorf("%w: %w", types.ErrStorageUnreadable, err))
}

// Save replaces the file with t. Errors wrap types.ErrStorageWriteFailed and
// leave the previous file untouched.
func (s *Store) Save(t *types.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := Encode(t)
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrStorageWriteFailed, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %w", types.ErrStorageWriteFailed, dir, err)
	}

	if s.unreadable {
		if err := s.quarantine(); err != nil {
			return fmt.Errorf("%w: %w", types.ErrStorageWriteFailed, err)
		}
	}

	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("%w: %w", types.ErrStorageWriteFailed, err)
	}
	s.logger.Debug("local store saved", "path", s.path, "rows", t.Len(), "bytes", len(data))
	return nil
}

// quarantine renames an unreadable file to <path>.corrupt-<unix>.
func (s *Store) quarantine() error {
	backup := fmt.Sprintf("%s.corrupt-%d", s.path, s.now().Unix())
	if err := os.Rename(s.path, backup); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.unreadable = false
			return nil
		}
		return fmt.Errorf("preserving unreadable file: %w", err)
	}
	s.unreadable = false
	s.logger.Warn("unreadable local store preserved", "path", s.path, "backup", backup)
	return nil
}

// writeFileAtomic writes data to path using the temp-file, fsync, rename
// pattern.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".maintlog-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("setting temp file mode: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
