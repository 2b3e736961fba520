package verification

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/internal/domain"
	"github.com/agritrace/agritrace-backend/internal/platform/logger"
)

const statsRowID = 1

type StatsRepo interface {
	GetOrCreate(ctx context.Context, tx *gorm.DB, now time.Time) (*domain.VerificationStats, error)
	Update(ctx context.Context, tx *gorm.DB, stats *domain.VerificationStats) error
}

type statsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStatsRepo(db *gorm.DB, baseLog *logger.Logger) StatsRepo {
	return &statsRepo{db: db, log: baseLog.With("repo", "StatsRepo")}
}

func (r *statsRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *statsRepo) GetOrCreate(ctx context.Context, tx *gorm.DB, now time.Time) (*domain.VerificationStats, error) {
	var stats domain.VerificationStats
	err := r.handle(tx).WithContext(ctx).Where("id = ?", statsRowID).First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		stats = domain.VerificationStats{
			ID:        statsRowID,
			DayIndex:  now.Unix() / 86400,
			UpdatedAt: now,
		}
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

func (r *statsRepo) Update(ctx context.Context, tx *gorm.DB, stats *domain.VerificationStats) error {
	return r.handle(tx).WithContext(ctx).Save(stats).Error
}
