// Package archive copies merge artifacts (change logs and backups) to
// longer-term storage: a local directory or an S3-compatible bucket.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/alexanderramin/effort/internal/config"
)

type Driver string

const (
	DriverNone Driver = "none"
	DriverFS   Driver = "fs"
	DriverS3   Driver = "s3"
)

// Info describes one archived object.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size_bytes"`
	LastModified time.Time `json:"last_modified"`
}

// ErrExists is returned when an object is already archived under a key.
var ErrExists = errors.New("archive: object already exists")

// Store is a create-only object store.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader) (Info, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

// New builds the store selected by cfg.
func New(ctx context.Context, cfg config.ArchiveConfig) (Store, error) {
	switch Driver(cfg.Driver) {
	case "", DriverNone:
		return Nop{}, nil
	case DriverFS:
		return NewFS(cfg.Dir)
	case DriverS3:
		return NewS3(ctx, S3Options{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			Prefix:    cfg.S3.Prefix,
			PathStyle: cfg.S3.PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown archive driver %q", cfg.Driver)
	}
}

// Key returns where a dataset artifact is archived: <dataset>/<file name>.
func Key(dataset, file string) string {
	return path.Join(dataset, filepath.Base(file))
}

// PutFile archives the file at p under key.
func PutFile(ctx context.Context, s Store, key, p string) (Info, error) {
	f, err := os.Open(p)
	if err != nil {
		return Info{}, fmt.Errorf("opening artifact: %w", err)
	}
	defer f.Close()
	info, err := s.Put(ctx, key, f)
	if err != nil {
		return Info{}, fmt.Errorf("archiving %s: %w", filepath.Base(p), err)
	}
	return info, nil
}

// Nop discards everything.
type Nop struct{}

func (Nop) Put(_ context.Context, key string, _ io.Reader) (Info, error) {
	return Info{Key: key}, nil
}

func (Nop) List(context.Context, string) ([]Info, error) { return nil, nil }

func (Nop) Driver() Driver { return DriverNone }
