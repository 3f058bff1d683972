package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"rupeetrack/internal/core"
)

// Saver writes uploaded files into a single directory.
type Saver struct {
	dir string
}

// NewSaver creates dir if needed.
func NewSaver(dir string) (*Saver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory %q: %w", dir, err)
	}
	return &Saver{dir: dir}, nil
}

// Dir returns the uploads directory.
func (s *Saver) Dir() string {
	return s.dir
}

// Save writes body under the sanitized form of name, replacing any file with the same
// name, and returns the name used on disk.
func (s *Saver) Save(ctx context.Context, name string, body io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	safe := SafeName(name)
	path := filepath.Join(s.dir, safe)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("%w: create %q: %v", core.ErrStorageIO, path, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return "", fmt.Errorf("%w: write %q: %v", core.ErrStorageIO, path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: close %q: %v", core.ErrStorageIO, path, err)
	}
	return safe, nil
}
