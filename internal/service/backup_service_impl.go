package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/alexanderramin/effort/internal/changelog"
	"github.com/alexanderramin/effort/internal/contract"
	"github.com/alexanderramin/effort/internal/db"
	"github.com/alexanderramin/effort/internal/domain"
	"github.com/alexanderramin/effort/internal/isolation"
	"github.com/alexanderramin/effort/internal/repository"
)

type backupService struct {
	ds       *db.Dataset
	iso      isolation.Isolator
	keep     int
	observer UseCaseObserver
}

// NewBackupService manages the backups branch merges leave beside the
// canonical store. keep is the default retention for Prune.
func NewBackupService(ds *db.Dataset, iso isolation.Isolator, keep int, observers ...UseCaseObserver) BackupService {
	return &backupService{ds: ds, iso: iso, keep: keep, observer: useCaseObserverOrNoop(observers)}
}

func (s *backupService) prefix() string { return s.ds.Stem() + "_backup_" }

// List returns backups newest first. Timestamps in the names sort
// chronologically.
func (s *backupService) List(ctx context.Context) ([]contract.Backup, error) {
	matches, err := filepath.Glob(s.ds.Sibling(s.prefix() + "*" + s.ds.Ext()))
	if err != nil {
		return nil, fmt.Errorf("listing backups: %w", err)
	}
	out := make([]contract.Backup, 0, len(matches))
	for _, p := range matches {
		st, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("inspecting backup: %w", err)
		}
		name := filepath.Base(p)
		out = append(out, contract.Backup{
			Name:      name,
			Path:      p,
			CreatedAt: s.createdAt(name, st.ModTime()),
			SizeBytes: st.Size(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}

// createdAt reads the merge timestamp embedded in a backup name.
func (s *backupService) createdAt(name string, fallback time.Time) time.Time {
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, s.prefix()), s.ds.Ext())
	if i := strings.LastIndex(stamp, "_"); i > 0 {
		stamp = stamp[:i] + "." + stamp[i+1:]
	}
	t, err := time.Parse(changelog.TimestampLayout, stamp)
	if err != nil {
		return fallback.UTC()
	}
	return t
}

func (s *backupService) find(ctx context.Context, name string) (*contract.Backup, error) {
	backups, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(backups) == 0 {
		return nil, domain.NotFoundf("no backups for %s", filepath.Base(s.ds.Path()))
	}
	if name == "" {
		return &backups[0], nil
	}
	for i := range backups {
		if backups[i].Name == name {
			return &backups[i], nil
		}
	}
	return nil, domain.NotFoundf("backup %q", name)
}

// Revert replaces the canonical store with a copy of a backup. The backup
// file itself is left in place and the current audit trail is kept.
func (s *backupService) Revert(ctx context.Context, name string) (b *contract.Backup, err error) {
	fields := map[string]any{"backup": name}
	done := track(ctx, s.observer, "backup.revert", fields)
	defer func() { done(err) }()

	open, err := s.iso.IsOpen(ctx)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, domain.Conflictf("close the editing session before reverting")
	}
	if b, err = s.find(ctx, name); err != nil {
		return nil, err
	}
	fields["backup"] = b.Name

	tmp := s.ds.Sibling(fmt.Sprintf(".%s.revert.tmp", b.Name))
	if err = copyFile(b.Path, tmp); err != nil {
		return nil, err
	}
	defer os.Remove(tmp)

	main := s.ds.DB()
	trail, err := repository.NewSQLiteAuditRepo(main).List(ctx, 0)
	if err != nil {
		return nil, err
	}
	if err = s.prepare(ctx, tmp, trail); err != nil {
		return nil, fmt.Errorf("preparing backup: %w", err)
	}

	if err = s.ds.Replace(ctx, func(context.Context) error {
		return db.ReplaceFile(tmp, s.ds.Path())
	}); err != nil {
		return nil, err
	}
	if _, err = repository.NewSQLiteAuditRepo(s.ds.DB()).Append(ctx, domain.AuditRevert, map[string]any{
		"backup_path": b.Path,
	}); err != nil {
		return nil, err
	}
	return b, nil
}

// prepare carries trail into the copy at path and marks it as main.
func (s *backupService) prepare(ctx context.Context, path string, trail []*domain.AuditEntry) error {
	handle, err := db.OpenDB(path)
	if err != nil {
		return err
	}
	defer handle.Close()
	return db.NewSQLiteUnitOfWork(handle).WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
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
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening backup: %w", err)
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("creating working copy: %w", err)
	}
	_, err = io.Copy(out, in)
	if err == nil {
		err = out.Sync()
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return fmt.Errorf("copying backup: %w", err)
	}
	return nil
}

// Prune deletes all but the newest keep backups. keep <= 0 uses the
// configured retention.
func (s *backupService) Prune(ctx context.Context, keep int) (resp *contract.PruneResponse, err error) {
	if keep <= 0 {
		keep = s.keep
	}
	fields := map[string]any{"keep": keep}
	done := track(ctx, s.observer, "backup.prune", fields)
	defer func() { done(err) }()

	if keep <= 0 {
		return nil, domain.NewValidationError("keep", "must keep at least one backup")
	}
	backups, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	resp = &contract.PruneResponse{Removed: []string{}}
	for i, b := range backups {
		if i < keep {
			resp.Kept++
			continue
		}
		if err = os.Remove(b.Path); err != nil {
			return nil, fmt.Errorf("removing %s: %w", b.Name, err)
		}
		resp.Removed = append(resp.Removed, b.Name)
	}
	fields["removed"] = len(resp.Removed)
	return resp, nil
}
