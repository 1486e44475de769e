package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// Dataset owns the canonical store file of one dataset and the handle open
// on it. The handle is swapped when the file is replaced, so callers fetch
// it through DB() at the start of each operation instead of caching it.
type Dataset struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// OpenDataset opens (creating if needed) the canonical store at path.
func OpenDataset(path string) (*Dataset, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving dataset path: %w", err)
	}
	handle, err := OpenDB(abs)
	if err != nil {
		return nil, err
	}
	return &Dataset{path: abs, db: handle}, nil
}

// Path returns the absolute path of the canonical store file.
func (d *Dataset) Path() string { return d.path }

// Dir returns the directory holding the store and its sibling artifacts.
func (d *Dataset) Dir() string { return filepath.Dir(d.path) }

// Stem and Ext split the file name, e.g. "effort" and ".db".
func (d *Dataset) Stem() string {
	base := filepath.Base(d.path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (d *Dataset) Ext() string { return filepath.Ext(d.path) }

// Sibling returns a path in the dataset directory.
func (d *Dataset) Sibling(name string) string {
	return filepath.Join(d.Dir(), name)
}

// DB returns the current canonical handle.
func (d *Dataset) DB() *sql.DB {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.db
}

// Replace closes the canonical handle, runs fn (which may rename files over
// the canonical path) and reopens the store. The store is reopened even if
// fn fails so the dataset stays usable.
func (d *Dataset) Replace(ctx context.Context, fn func(ctx context.Context) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db != nil {
		if err := d.db.Close(); err != nil {
			return fmt.Errorf("closing dataset: %w", err)
		}
		d.db = nil
	}

	fnErr := fn(ctx)

	handle, err := OpenDB(d.path)
	if err != nil {
		return errors.Join(fnErr, fmt.Errorf("reopening dataset: %w", err))
	}
	d.db = handle
	return fnErr
}

// Close releases the canonical handle.
func (d *Dataset) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}
