package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/alexanderramin/effort/internal/contract"
	"github.com/alexanderramin/effort/internal/db"
	"github.com/alexanderramin/effort/internal/domain"
	"github.com/alexanderramin/effort/internal/isolation"
	"github.com/alexanderramin/effort/internal/reconcile"
	"github.com/alexanderramin/effort/internal/repository"
)

type reconcileService struct {
	ds       *db.Dataset
	iso      isolation.Isolator
	policy   reconcile.Policy
	observer UseCaseObserver
}

func NewReconcileService(ds *db.Dataset, iso isolation.Isolator, policy reconcile.Policy, observers ...UseCaseObserver) ReconcileService {
	return &reconcileService{ds: ds, iso: iso, policy: policy, observer: useCaseObserverOrNoop(observers)}
}

// FixTotals runs reconciliation inside the open session and records the run
// in the canonical audit trail.
func (s *reconcileService) FixTotals(ctx context.Context) (resp *contract.FixTotalsResponse, err error) {
	runID := uuid.NewString()
	fields := map[string]any{"run_id": runID}
	done := track(ctx, s.observer, "reconcile.fix_totals", fields)
	defer func() { done(err) }()

	var res *reconcile.Result
	err = s.iso.Run(ctx, func(ctx context.Context, st *repository.Store) error {
		var rerr error
		res, rerr = reconcile.Run(ctx, st, s.policy)
		return rerr
	})
	if err != nil {
		return nil, err
	}
	fields["changes_count"] = len(res.Changes)
	fields["lines_created"] = res.LinesCreated

	if _, err = repository.NewSQLiteAuditRepo(s.ds.DB()).Append(ctx, domain.AuditFixTotals, map[string]any{
		"run_id":        runID,
		"changes_count": len(res.Changes),
		"lines_created": res.LinesCreated,
	}); err != nil {
		return nil, err
	}
	return &contract.FixTotalsResponse{RunID: runID, Changes: res.Changes, LinesCreated: res.LinesCreated}, nil
}
