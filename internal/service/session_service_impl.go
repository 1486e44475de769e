package service

import (
	"context"

	"github.com/alexanderramin/effort/internal/archive"
	"github.com/alexanderramin/effort/internal/contract"
	"github.com/alexanderramin/effort/internal/db"
	"github.com/alexanderramin/effort/internal/domain"
	"github.com/alexanderramin/effort/internal/isolation"
)

type sessionService struct {
	ds       *db.Dataset
	iso      isolation.Isolator
	archive  archive.Store
	observer UseCaseObserver
}

// NewSessionService manages the editing session of ds. Merge artifacts are
// copied to store; a nil store archives nothing.
func NewSessionService(ds *db.Dataset, iso isolation.Isolator, store archive.Store, observers ...UseCaseObserver) SessionService {
	if store == nil {
		store = archive.Nop{}
	}
	return &sessionService{ds: ds, iso: iso, archive: store, observer: useCaseObserverOrNoop(observers)}
}

func (s *sessionService) Open(ctx context.Context, req contract.OpenSessionRequest) (sess *domain.Session, err error) {
	fields := map[string]any{"mode": string(s.iso.Mode())}
	done := track(ctx, s.observer, "session.open", fields)
	defer func() { done(err) }()

	if err = contract.Validate(req); err != nil {
		return nil, err
	}
	sess, err = s.iso.Open(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	fields["session"] = sess.Name
	return sess, nil
}

func (s *sessionService) Status(ctx context.Context) (*contract.SessionStatus, error) {
	info, err := s.iso.Info(ctx)
	if err != nil {
		return nil, err
	}
	return &contract.SessionStatus{
		Open:    info != nil,
		Mode:    string(s.iso.Mode()),
		Dataset: s.ds.Path(),
		Session: info,
	}, nil
}

func (s *sessionService) Merge(ctx context.Context) (res *domain.MergeResult, err error) {
	fields := map[string]any{"mode": string(s.iso.Mode())}
	done := track(ctx, s.observer, "session.merge", fields)
	defer func() { done(err) }()

	res, err = s.iso.Merge(ctx)
	if err != nil {
		return nil, err
	}
	fields["session"] = res.Session.Name
	fields["changes"] = res.Changes
	fields["change_log_entries"] = res.ChangeLogEntries

	for _, p := range []string{res.ChangeLogPath, res.BackupPath} {
		if p != "" {
			s.archiveArtifact(ctx, p)
		}
	}
	return res, nil
}

// archiveArtifact copies one merge artifact. The merge has already
// committed, so a failure is reported to observers and otherwise ignored.
func (s *sessionService) archiveArtifact(ctx context.Context, path string) {
	if s.archive.Driver() == archive.DriverNone {
		return
	}
	key := archive.Key(s.ds.Stem(), path)
	fields := map[string]any{"driver": string(s.archive.Driver()), "key": key}
	done := track(ctx, s.observer, "session.archive", fields)
	info, err := archive.PutFile(ctx, s.archive, key, path)
	if err == nil {
		fields["size_bytes"] = info.Size
	}
	done(err)
}

func (s *sessionService) Discard(ctx context.Context) (res *domain.DiscardResult, err error) {
	fields := map[string]any{"mode": string(s.iso.Mode())}
	done := track(ctx, s.observer, "session.discard", fields)
	defer func() { done(err) }()

	res, err = s.iso.Discard(ctx)
	if err != nil {
		return nil, err
	}
	fields["session"] = res.Session.Name
	fields["undone"] = res.Undone
	return res, nil
}
