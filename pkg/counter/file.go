// Package counter persists the number of consecutive reboot attempts.
//
// The count lives in a single text file holding its decimal representation.
// A missing file means zero. Writes replace the file atomically so that a
// reboot racing the write leaves either the old or the new value, never a
// truncated one. There is no locking: one writer per run is assumed.
package counter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/supporttools/displaywatcher/pkg/types"
)

// ErrInvalidCount is returned by Write for negative counts. It signals a
// caller bug and is deliberately not a storage-kind error.
var ErrInvalidCount = errors.New("attempt count must be non-negative")

// FileCounter is a file-backed types.AttemptCounter.
type FileCounter struct {
	path string
}

// NewFileCounter returns a counter stored at path.
func NewFileCounter(path string) (*FileCounter, error) {
	if path == "" {
		return nil, fmt.Errorf("counter path cannot be empty")
	}
	return &FileCounter{path: filepath.Clean(path)}, nil
}

// Path returns the backing file location.
func (c *FileCounter) Path() string {
	return c.path
}

// Read returns the stored count. A missing file reads as 0.
func (c *FileCounter) Read() (int, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, types.NewError(types.ErrorKindStorage, "read counter",
			fmt.Errorf("failed to read %s: %w", c.path, err))
	}

	text := strings.TrimSpace(string(data))
	n, err := strconv.ParseUint(text, 10, 31)
	if err != nil {
		return 0, types.NewError(types.ErrorKindStorage, "read counter",
			fmt.Errorf("invalid content %q in %s: %w", text, c.path, err))
	}

	return int(n), nil
}

// Write atomically replaces the stored count.
func (c *FileCounter) Write(count int) error {
	if count < 0 {
		return fmt.Errorf("%w, got %d", ErrInvalidCount, count)
	}

	if err := c.writeAtomic([]byte(strconv.Itoa(count))); err != nil {
		return types.NewError(types.ErrorKindStorage, "write counter", err)
	}
	return nil
}

// writeAtomic writes to a temp file in the same directory, syncs it and
// renames it over the target, then syncs the directory entry.
func (c *FileCounter) writeAtomic(data []byte) error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync %s: %w", tmpPath, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		cleanup()
		return fmt.Errorf("failed to chmod %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, c.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", c.path, err)
	}

	return syncDir(dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("failed to open directory %s: %w", dir, err)
	}
	defer d.Close()

	if err := d.Sync(); err != nil {
		return fmt.Errorf("failed to sync directory %s: %w", dir, err)
	}
	return nil
}
