package analytics

import (
	"context"

	"github.com/nulzo/unillm/internal/store"
	"github.com/nulzo/unillm/internal/store/model"
)

const (
	defaultDays   = 7
	maxDays       = 365
	defaultRecent = 50
	maxRecent     = 1000
)

type Service interface {
	GetUsageOverview(ctx context.Context, days int) ([]model.DailyStats, error)
	GetRecent(ctx context.Context, modelName string, limit int) ([]model.CostRecord, error)
}

type service struct {
	repo store.Repository
}

func NewService(repo store.Repository) Service {
	return &service{
		repo: repo,
	}
}

func (s *service) GetUsageOverview(ctx context.Context, days int) ([]model.DailyStats, error) {
	if days <= 0 {
		days = defaultDays
	}
	days = min(days, maxDays)
	return s.repo.Costs().GetDailyStats(ctx, days)
}

func (s *service) GetRecent(ctx context.Context, modelName string, limit int) ([]model.CostRecord, error) {
	if limit <= 0 {
		limit = defaultRecent
	}
	limit = min(limit, maxRecent)
	return s.repo.Costs().GetRecent(ctx, modelName, limit)
}
