package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/internal/data/repos/analytics"
	"github.com/agritrace/agritrace-backend/internal/domain"
	"github.com/agritrace/agritrace-backend/internal/platform/logger"
)

// Registry is the cross-cutting analytics index the lifecycle services
// notify on milestones. It is advisory: failures here should roll back
// the enclosing transaction like any other write, but no business rule
// reads it.
type Registry interface {
	RecordBatchCreated(ctx context.Context, tx *gorm.DB, b *domain.Batch) error
	RecordTrade(ctx context.Context, tx *gorm.DB, b *domain.Batch, price int64) error
	RecordShipment(ctx context.Context, tx *gorm.DB, s *domain.Shipment) error
	RecordVerification(ctx context.Context, tx *gorm.DB) error
	GetStats(ctx context.Context) (*domain.RegistryStats, error)
}

type registry struct {
	repo analytics.RegistryRepo
	log  *logger.Logger
	now  func() time.Time
}

func NewRegistry(baseLog *logger.Logger, repo analytics.RegistryRepo) Registry {
	return &registry{
		repo: repo,
		log:  baseLog.With("service", "Registry"),
		now:  time.Now,
	}
}

func (r *registry) bump(ctx context.Context, tx *gorm.DB, apply func(*domain.RegistryStats)) error {
	now := r.now().UTC()
	stats, err := r.repo.GetOrCreate(ctx, tx, now)
	if err != nil {
		return err
	}
	apply(stats)
	stats.UpdatedAt = now
	return r.repo.Update(ctx, tx, stats)
}

func (r *registry) RecordBatchCreated(ctx context.Context, tx *gorm.DB, b *domain.Batch) error {
	return r.bump(ctx, tx, func(s *domain.RegistryStats) { s.TotalBatches++ })
}

func (r *registry) RecordTrade(ctx context.Context, tx *gorm.DB, b *domain.Batch, price int64) error {
	return r.bump(ctx, tx, func(s *domain.RegistryStats) { s.TotalTrades++ })
}

func (r *registry) RecordShipment(ctx context.Context, tx *gorm.DB, s *domain.Shipment) error {
	return r.bump(ctx, tx, func(st *domain.RegistryStats) { st.TotalShipments++ })
}

func (r *registry) RecordVerification(ctx context.Context, tx *gorm.DB) error {
	return r.bump(ctx, tx, func(s *domain.RegistryStats) { s.TotalVerifications++ })
}

func (r *registry) GetStats(ctx context.Context) (*domain.RegistryStats, error) {
	return r.repo.GetOrCreate(ctx, nil, r.now().UTC())
}

// NopRegistry satisfies Registry without persisting anything. Used when
// the analytics index is disabled by configuration.
type NopRegistry struct{}

func (NopRegistry) RecordBatchCreated(context.Context, *gorm.DB, *domain.Batch) error { return nil }
func (NopRegistry) RecordTrade(context.Context, *gorm.DB, *domain.Batch, int64) error { return nil }
func (NopRegistry) RecordShipment(context.Context, *gorm.DB, *domain.Shipment) error  { return nil }
func (NopRegistry) RecordVerification(context.Context, *gorm.DB) error                { return nil }
func (NopRegistry) GetStats(context.Context) (*domain.RegistryStats, error) {
	return &domain.RegistryStats{}, nil
}
