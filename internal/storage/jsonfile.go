package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"rupeetrack/internal/core"
	applog "rupeetrack/internal/log"
)

// JSONFile mirrors the transaction list to a single JSON array on disk.
type JSONFile struct {
	path string
}

func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Path returns the mirror file location.
func (f *JSONFile) Path() string {
	return f.path
}

// Load reads the mirror. A missing file or content that is not a JSON array of objects
// yields an empty list; only read errors are returned.
func (f *JSONFile) Load(ctx context.Context) ([]core.Transaction, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		applog.FromContext(ctx).WithComponent(applog.ComponentStorage).InfoContext(ctx, "No transactions file, starting empty", "path", f.path)
		return []core.Transaction{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %q: %v", core.ErrStorageIO, f.path, err)
	}

	var txs []core.Transaction
	if err := json.Unmarshal(data, &txs); err != nil || txs == nil {
		applog.FromContext(ctx).WithComponent(applog.ComponentStorage).WarnContext(ctx, "Transactions file is not valid JSON, starting empty",
			"path", f.path,
			"error", err)
		return []core.Transaction{}, nil
	}
	return txs, nil
}

// Save replaces the mirror with txs. The file is written to a temp sibling first and
// renamed into place.
func (f *JSONFile) Save(_ context.Context, txs []core.Transaction) error {
	if txs == nil {
		txs = []core.Transaction{}
	}
	payload, err := json.Marshal(txs)
	if err != nil {
		return fmt.Errorf("encode transactions: %w", err)
	}

	if dir := filepath.Dir(f.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: create %q: %v", core.ErrStorageIO, dir, err)
		}
	}

	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, payload, 0o644); err != nil {
		return fmt.Errorf("%w: write temp file: %v", core.ErrStorageIO, err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("%w: replace %q: %v", core.ErrStorageIO, f.path, err)
	}
	return nil
}

// Close is a no-op; it lets JSONFile satisfy the same lifecycle as SQLite.
func (f *JSONFile) Close() error {
	return nil
}
