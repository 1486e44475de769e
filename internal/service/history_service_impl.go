package service

import (
	"context"

	"github.com/alexanderramin/effort/internal/db"
	"github.com/alexanderramin/effort/internal/domain"
	"github.com/alexanderramin/effort/internal/repository"
)

type historyService struct {
	ds *db.Dataset
}

func NewHistoryService(ds *db.Dataset) HistoryService {
	return &historyService{ds: ds}
}

// List returns the newest limit audit entries; limit <= 0 returns all.
func (s *historyService) List(ctx context.Context, limit int) ([]*domain.AuditEntry, error) {
	return repository.NewSQLiteAuditRepo(s.ds.DB()).List(ctx, limit)
}
