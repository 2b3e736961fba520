package batches

import (
	"context"

	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/internal/domain"
	"github.com/agritrace/agritrace-backend/internal/platform/logger"
)

// Processing and quality snapshots are write-once: no update methods.

type ProcessingRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rec *domain.ProcessingRecord) (*domain.ProcessingRecord, error)
	GetByBatch(ctx context.Context, tx *gorm.DB, batchID uint64) ([]*domain.ProcessingRecord, error)
}

type QualityRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rec *domain.QualityRecord) (*domain.QualityRecord, error)
	GetByBatch(ctx context.Context, tx *gorm.DB, batchID uint64) ([]*domain.QualityRecord, error)
}

type processingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProcessingRepo(db *gorm.DB, baseLog *logger.Logger) ProcessingRepo {
	return &processingRepo{db: db, log: baseLog.With("repo", "ProcessingRepo")}
}

func (r *processingRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *processingRepo) Create(ctx context.Context, tx *gorm.DB, rec *domain.ProcessingRecord) (*domain.ProcessingRecord, error) {
	if err := r.handle(tx).WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *processingRepo) GetByBatch(ctx context.Context, tx *gorm.DB, batchID uint64) ([]*domain.ProcessingRecord, error) {
	var out []*domain.ProcessingRecord
	if err := r.handle(tx).WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("id").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type qualityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQualityRepo(db *gorm.DB, baseLog *logger.Logger) QualityRepo {
	return &qualityRepo{db: db, log: baseLog.With("repo", "QualityRepo")}
}

func (r *qualityRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *qualityRepo) Create(ctx context.Context, tx *gorm.DB, rec *domain.QualityRecord) (*domain.QualityRecord, error) {
	if err := r.handle(tx).WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *qualityRepo) GetByBatch(ctx context.Context, tx *gorm.DB, batchID uint64) ([]*domain.QualityRecord, error) {
	var out []*domain.QualityRecord
	if err := r.handle(tx).WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("id").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
