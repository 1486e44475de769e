package isolation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/alexanderramin/effort/internal/changelog"
	"github.com/alexanderramin/effort/internal/db"
	"github.com/alexanderramin/effort/internal/domain"
	"github.com/alexanderramin/effort/internal/repository"
)

// ChangeSet isolates edits by journaling them in the canonical store. Edits
// are visible to canonical readers as soon as they commit; discarding
// replays the journal backwards.
type ChangeSet struct {
	ds   *db.Dataset
	opts options
}

func NewChangeSet(ds *db.Dataset, opts ...Option) *ChangeSet {
	return &ChangeSet{ds: ds, opts: buildOptions(opts)}
}

func (c *ChangeSet) Mode() Mode { return ModeChangeSet }

func (c *ChangeSet) Open(ctx context.Context, name string) (*domain.Session, error) {
	now := c.opts.now().UTC()
	if name == "" {
		name = DefaultName(now)
	}

	var session *domain.Session
	err := c.opts.uow(c.ds.DB()).WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		session, err = repository.NewSQLiteChangeSetRepo(tx).Create(ctx, name, now)
		if err != nil {
			return err
		}
		_, err = repository.NewSQLiteAuditRepo(tx).Append(ctx, domain.AuditSessionOpen, map[string]any{
			"change_set_id": session.ID,
			"name":          name,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return c.describe(session), nil
}

func (c *ChangeSet) IsOpen(ctx context.Context) (bool, error) {
	s, err := c.Info(ctx)
	return s != nil, err
}

func (c *ChangeSet) Info(ctx context.Context) (*domain.Session, error) {
	s, err := repository.NewSQLiteChangeSetRepo(c.ds.DB()).GetOpen(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c.describe(s), nil
}

func (c *ChangeSet) describe(s *domain.Session) *domain.Session {
	s.Mode = string(ModeChangeSet)
	s.Path = c.ds.Path()
	return s
}

// Run checks for the open change set inside the same transaction as the
// writes, so a concurrent discard cannot slip between check and write.
func (c *ChangeSet) Run(ctx context.Context, fn func(ctx context.Context, s *repository.Store) error) error {
	return c.opts.uow(c.ds.DB()).WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if _, err := repository.NewSQLiteChangeSetRepo(tx).GetOpen(ctx); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return errWriteWithoutSession()
			}
			return err
		}
		return fn(ctx, repository.NewStore(tx, repository.NewSQLiteJournalRepo(tx)))
	})
}

func (c *ChangeSet) Reader(context.Context) (*sql.DB, error) {
	return c.ds.DB(), nil
}

// Merge accepts the journaled edits. The journal is kept; the change log is
// derived by undoing the session inside a transaction that is rolled back.
func (c *ChangeSet) Merge(ctx context.Context) (*domain.MergeResult, error) {
	database := c.ds.DB()
	session, err := c.open(ctx, database)
	if err != nil {
		return nil, err
	}

	journal := repository.NewSQLiteJournalRepo(database)
	muts, err := journal.ListForUndo(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	var records []domain.ChangeRecord
	if len(muts) > 0 {
		err = db.WithoutForeignKeys(ctx, database, false, func(ctx context.Context, tx db.DBTX) error {
			after, err := changelog.Load(ctx, tx)
			if err != nil {
				return err
			}
			if err := undoAll(ctx, tx, muts); err != nil {
				return err
			}
			before, err := changelog.Load(ctx, tx)
			if err != nil {
				return err
			}
			records = changelog.Diff(before, after)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("building change log: %w", err)
		}
	}

	now := c.opts.now().UTC()
	logPath := ""
	if len(records) > 0 {
		logPath = c.ds.Sibling(changelog.FileName(session.Name, now))
		if _, err := changelog.WriteFile(logPath, records); err != nil {
			return nil, err
		}
	}

	err = c.opts.uow(database).WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := repository.NewSQLiteChangeSetRepo(tx).Close(ctx, session.ID, domain.SessionMerged, now); err != nil {
			return err
		}
		_, err := repository.NewSQLiteAuditRepo(tx).Append(ctx, domain.AuditMerge, map[string]any{
			"change_set_id":      session.ID,
			"name":               session.Name,
			"changes_count":      len(muts),
			"change_log_entries": len(records),
			"tsv_path":           logPath,
		})
		return err
	})
	if err != nil {
		if logPath != "" {
			_ = os.Remove(logPath)
		}
		return nil, err
	}

	session.Status = domain.SessionMerged
	session.ClosedAt = &now
	return &domain.MergeResult{
		Session:          *session,
		Changes:          len(muts),
		ChangeLogEntries: len(records),
		ChangeLogPath:    logPath,
	}, nil
}

// Discard restores every touched row to its pre-session image in one
// transaction and closes the change set.
func (c *ChangeSet) Discard(ctx context.Context) (*domain.DiscardResult, error) {
	database := c.ds.DB()
	now := c.opts.now().UTC()

	var session *domain.Session
	var undone int
	err := db.WithoutForeignKeys(ctx, database, true, func(ctx context.Context, tx db.DBTX) error {
		var err error
		if session, err = c.open(ctx, tx); err != nil {
			return err
		}
		muts, err := repository.NewSQLiteJournalRepo(tx).ListForUndo(ctx, session.ID)
		if err != nil {
			return err
		}
		if err := undoAll(ctx, tx, muts); err != nil {
			return err
		}
		undone = len(muts)
		if err := repository.NewSQLiteChangeSetRepo(tx).Close(ctx, session.ID, domain.SessionDiscarded, now); err != nil {
			return err
		}
		_, err = repository.NewSQLiteAuditRepo(tx).Append(ctx, domain.AuditDiscard, map[string]any{
			"change_set_id":  session.ID,
			"name":           session.Name,
			"changes_undone": undone,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	session.Status = domain.SessionDiscarded
	session.ClosedAt = &now
	return &domain.DiscardResult{Session: *session, Undone: undone}, nil
}

func (c *ChangeSet) Close() error { return nil }

func (c *ChangeSet) open(ctx context.Context, q db.DBTX) (*domain.Session, error) {
	s, err := repository.NewSQLiteChangeSetRepo(q).GetOpen(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, errNoSession()
	}
	if err != nil {
		return nil, err
	}
	return c.describe(s), nil
}

var _ Isolator = (*ChangeSet)(nil)
