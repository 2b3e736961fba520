package analytics

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/internal/domain"
	"github.com/agritrace/agritrace-backend/internal/platform/logger"
)

const registryRowID = 1

type RegistryRepo interface {
	GetOrCreate(ctx context.Context, tx *gorm.DB, now time.Time) (*domain.RegistryStats, error)
	Update(ctx context.Context, tx *gorm.DB, stats *domain.RegistryStats) error
}

type registryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRegistryRepo(db *gorm.DB, baseLog *logger.Logger) RegistryRepo {
	return &registryRepo{db: db, log: baseLog.With("repo", "RegistryRepo")}
}

func (r *registryRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *registryRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, now time.Time) (*domain.RegistryStats, error) {
	var stats domain.RegistryStats
	err := r.handle(tx).WithContext(ctx).Where("id = ?", registryRowID).First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		stats = domain.RegistryStats{ID: registryRowID, UpdatedAt: now}
		if err := r.handle(tx).WithContext(ctx).Create(&stats).Error; err != nil {
			return nil, err
		}
		return &stats, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *registryRepo) Update(ctx context.Context, tx *gorm.DB, stats *domain.RegistryStats) error {
	return r.handle(tx).WithContext(ctx).Save(stats).Error
}
