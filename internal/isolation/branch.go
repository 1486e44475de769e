package isolation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alexanderramin/effort/internal/changelog"
	"github.com/alexanderramin/effort/internal/db"
	"github.com/alexanderramin/effort/internal/domain"
	"github.com/alexanderramin/effort/internal/repository"
)

var branchNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Branch isolates edits in a full copy of the canonical store. Canonical
// readers see nothing until merge swaps the branch file into place.
type Branch struct {
	ds   *db.Dataset
	opts options

	mu     sync.RWMutex
	path   string
	handle *sql.DB
}

func NewBranch(ds *db.Dataset, opts ...Option) *Branch {
	return &Branch{ds: ds, opts: buildOptions(opts)}
}

func (b *Branch) Mode() Mode { return ModeBranch }

// BranchPath returns where the branch file for name lives.
func (b *Branch) BranchPath(name string) string {
	return b.ds.Sibling(fmt.Sprintf("%s_branch_%s%s", b.ds.Stem(), name, b.ds.Ext()))
}

func (b *Branch) nameOf(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, b.ds.Ext())
	return strings.TrimPrefix(base, b.ds.Stem()+"_branch_")
}

// locate attaches to an existing branch file left by an earlier process.
// The caller must hold the write lock.
func (b *Branch) locate() error {
	if b.handle != nil {
		return nil
	}
	matches, err := filepath.Glob(b.BranchPath("*"))
	if err != nil {
		return fmt.Errorf("looking for branch files: %w", err)
	}
	var found []string
	for _, m := range matches {
		if branchNameRe.MatchString(b.nameOf(m)) {
			found = append(found, m)
		}
	}
	switch len(found) {
	case 0:
		return nil
	case 1:
		handle, err := db.OpenDB(found[0])
		if err != nil {
			return fmt.Errorf("opening branch: %w", err)
		}
		b.path, b.handle = found[0], handle
		return nil
	default:
		return domain.Conflictf("several branch files found for %s: %s", b.ds.Path(), strings.Join(found, ", "))
	}
}

func (b *Branch) current() (string, *sql.DB, error) {
	b.mu.RLock()
	if b.handle != nil {
		defer b.mu.RUnlock()
		return b.path, b.handle, nil
	}
	b.mu.RUnlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.locate(); err != nil {
		return "", nil, err
	}
	return b.path, b.handle, nil
}

func (b *Branch) Open(ctx context.Context, name string) (*domain.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.locate(); err != nil {
		return nil, err
	}
	if b.handle != nil {
		return nil, domain.Conflictf("an editing session is already open: %s", b.nameOf(b.path))
	}

	now := b.opts.now().UTC()
	if name == "" {
		name = DefaultName(now)
	}
	if !branchNameRe.MatchString(name) {
		return nil, domain.NewValidationError("name", "session name %q may only contain letters, digits, '-' and '_'", name)
	}

	path := b.BranchPath(name)
	main := b.ds.DB()
	if err := db.CopyTo(ctx, main, path); err != nil {
		return nil, err
	}
	handle, err := db.OpenDB(path)
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("opening branch: %w", err)
	}

	err = b.opts.uow(handle).WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		meta := repository.NewSQLiteMetaRepo(tx)
		for k, v := range map[string]string{
			repository.MetaRole:       "branch",
			repository.MetaBranchName: name,
			repository.MetaSourceDB:   b.ds.Path(),
			repository.MetaCreatedAt:  now.Format(time.RFC3339),
		} {
			if err := meta.Set(ctx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		handle.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("tagging branch: %w", err)
	}

	if _, err := repository.NewSQLiteAuditRepo(main).Append(ctx, domain.AuditBranchCreate, map[string]any{
		"branch_name": name,
		"branch_path": path,
	}); err != nil {
		handle.Close()
		_ = os.Remove(path)
		return nil, err
	}

	b.path, b.handle = path, handle
	return b.describe(ctx, name, path, handle), nil
}

func (b *Branch) IsOpen(ctx context.Context) (bool, error) {
	_, handle, err := b.current()
	return handle != nil, err
}

func (b *Branch) Info(ctx context.Context) (*domain.Session, error) {
	path, handle, err := b.current()
	if err != nil || handle == nil {
		return nil, err
	}
	return b.describe(ctx, b.nameOf(path), path, handle), nil
}

func (b *Branch) describe(ctx context.Context, name, path string, handle *sql.DB) *domain.Session {
	s := &domain.Session{
		Name:       name,
		Mode:       string(ModeBranch),
		Status:     domain.SessionOpen,
		Path:       path,
		SourcePath: b.ds.Path(),
	}
	if v, ok, err := repository.NewSQLiteMetaRepo(handle).Get(ctx, repository.MetaCreatedAt); err == nil && ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			s.CreatedAt = t
		}
	}
	return s
}

// Run holds a read lock for the duration of fn so merge and discard wait
// for in-flight writes.
func (b *Branch) Run(ctx context.Context, fn func(ctx context.Context, s *repository.Store) error) error {
	if _, _, err := b.current(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.handle == nil {
		return errWriteWithoutSession()
	}
	return b.opts.uow(b.handle).WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, repository.NewStore(tx, nil))
	})
}

func (b *Branch) Reader(context.Context) (*sql.DB, error) {
	_, handle, err := b.current()
	if err != nil {
		return nil, err
	}
	if handle != nil {
		return handle, nil
	}
	return b.ds.DB(), nil
}

// Merge replaces the canonical store with the branch. The previous
// canonical file is kept as a timestamped backup and main's audit trail is
// carried into the branch before the swap.
func (b *Branch) Merge(ctx context.Context) (*domain.MergeResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.locate(); err != nil {
		return nil, err
	}
	if b.handle == nil {
		return nil, errNoSession()
	}
	path, handle := b.path, b.handle
	name := b.nameOf(path)
	session := b.describe(ctx, name, path, handle)
	main := b.ds.DB()

	var before, after *changelog.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		before, err = changelog.Load(gctx, main)
		return err
	})
	g.Go(func() error {
		var err error
		after, err = changelog.Load(gctx, handle)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("diffing branch: %w", err)
	}
	records := changelog.Diff(before, after)

	now := b.opts.now().UTC()
	logPath := ""
	if len(records) > 0 {
		logPath = b.ds.Sibling(changelog.FileName(name, now))
		if _, err := changelog.WriteFile(logPath, records); err != nil {
			return nil, err
		}
	}

	backupPath := b.ds.Sibling(fmt.Sprintf("%s_backup_%s%s", b.ds.Stem(), changelog.Timestamp(now), b.ds.Ext()))
	if err := db.CopyTo(ctx, main, backupPath); err != nil {
		return nil, fmt.Errorf("backing up main: %w", err)
	}

	trail, err := repository.NewSQLiteAuditRepo(main).List(ctx, 0)
	if err != nil {
		return nil, err
	}
	err = b.opts.uow(handle).WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := repository.NewSQLiteAuditRepo(tx).ReplaceAll(ctx, trail); err != nil {
			return err
		}
		meta := repository.NewSQLiteMetaRepo(tx)
		if err := meta.Set(ctx, repository.MetaRole, "main"); err != nil {
			return err
		}
		for _, k := range []string{repository.MetaBranchName, repository.MetaSourceDB, repository.MetaCreatedAt} {
			if err := meta.Delete(ctx, k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("preparing branch for merge: %w", err)
	}

	if err := handle.Close(); err != nil {
		return nil, fmt.Errorf("closing branch: %w", err)
	}
	b.path, b.handle = "", nil

	if err := b.ds.Replace(ctx, func(context.Context) error {
		return db.ReplaceFile(path, b.ds.Path())
	}); err != nil {
		return nil, err
	}

	if _, err := repository.NewSQLiteAuditRepo(b.ds.DB()).Append(ctx, domain.AuditMerge, map[string]any{
		"branch_name":        name,
		"changes_count":      len(records),
		"change_log_entries": len(records),
		"tsv_path":           logPath,
		"backup_path":        backupPath,
	}); err != nil {
		return nil, err
	}

	session.Status = domain.SessionMerged
	session.ClosedAt = &now
	return &domain.MergeResult{
		Session:          *session,
		Changes:          len(records),
		ChangeLogEntries: len(records),
		ChangeLogPath:    logPath,
		BackupPath:       backupPath,
	}, nil
}

// Discard deletes the branch file. The canonical store is untouched.
func (b *Branch) Discard(ctx context.Context) (*domain.DiscardResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.locate(); err != nil {
		return nil, err
	}
	if b.handle == nil {
		return nil, errNoSession()
	}
	path := b.path
	name := b.nameOf(path)
	session := b.describe(ctx, name, path, b.handle)

	if err := b.handle.Close(); err != nil {
		return nil, fmt.Errorf("closing branch: %w", err)
	}
	b.path, b.handle = "", nil
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("removing branch: %w", err)
	}
	_ = os.Remove(path + "-journal")

	if _, err := repository.NewSQLiteAuditRepo(b.ds.DB()).Append(ctx, domain.AuditBranchDelete, map[string]any{
		"branch_name": name,
		"branch_path": path,
	}); err != nil {
		return nil, err
	}

	now := b.opts.now().UTC()
	session.Status = domain.SessionDiscarded
	session.ClosedAt = &now
	return &domain.DiscardResult{Session: *session}, nil
}

// Close releases the branch handle without touching the branch file.
func (b *Branch) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handle == nil {
		return nil
	}
	err := b.handle.Close()
	b.path, b.handle = "", nil
	return err
}

var _ Isolator = (*Branch)(nil)
