// Package isolation keeps in-progress edits apart from the canonical store
// until they are merged or discarded. Two designs are provided: a change set
// journaled inside the canonical store, and a branch copy of the store file.
package isolation

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/effort/internal/db"
	"github.com/alexanderramin/effort/internal/domain"
	"github.com/alexanderramin/effort/internal/repository"
)

type Mode string

const (
	ModeChangeSet Mode = "changeset"
	ModeBranch    Mode = "branch"
)

// ParseMode accepts the configured mode name; empty means change set.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeChangeSet:
		return ModeChangeSet, nil
	case ModeBranch:
		return ModeBranch, nil
	default:
		return "", domain.NewValidationError("isolation.mode", "unknown isolation mode %q (want changeset or branch)", s)
	}
}

// Isolator is the editing-session capability shared by both designs.
type Isolator interface {
	Mode() Mode
	// Open starts a session. An empty name picks a timestamped default.
	Open(ctx context.Context, name string) (*domain.Session, error)
	IsOpen(ctx context.Context) (bool, error)
	// Info describes the open session, or returns nil when there is none.
	Info(ctx context.Context) (*domain.Session, error)
	// Run executes fn in one transaction against the session workspace. It
	// returns ErrForbidden when no session is open.
	Run(ctx context.Context, fn func(ctx context.Context, s *repository.Store) error) error
	// Reader returns the workspace handle while a session is open and the
	// canonical handle otherwise.
	Reader(ctx context.Context) (*sql.DB, error)
	Merge(ctx context.Context) (*domain.MergeResult, error)
	Discard(ctx context.Context) (*domain.DiscardResult, error)
	Close() error
}

type Option func(*options)

type options struct {
	now func() time.Time
	uow func(*sql.DB) db.UnitOfWork
}

// WithClock overrides the time source used for names and timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithUnitOfWork overrides how session transactions are opened.
func WithUnitOfWork(f func(*sql.DB) db.UnitOfWork) Option {
	return func(o *options) { o.uow = f }
}

func buildOptions(opts []Option) options {
	o := options{
		now: time.Now,
		uow: func(d *sql.DB) db.UnitOfWork { return db.NewSQLiteUnitOfWork(d) },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New returns the isolator for mode over ds.
func New(mode Mode, ds *db.Dataset, opts ...Option) (Isolator, error) {
	switch mode {
	case ModeChangeSet, "":
		return NewChangeSet(ds, opts...), nil
	case ModeBranch:
		return NewBranch(ds, opts...), nil
	default:
		return nil, fmt.Errorf("unknown isolation mode %q", mode)
	}
}

// DefaultName is the session name used when none is given.
func DefaultName(t time.Time) string {
	return "edit-" + t.UTC().Format("20060102-150405")
}

func errNoSession() error {
	return domain.Conflictf("no editing session is open")
}

func errWriteWithoutSession() error {
	return fmt.Errorf("%w: open an editing session before making changes", domain.ErrForbidden)
}
