package provenance

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/internal/domain"
	"github.com/agritrace/agritrace-backend/internal/platform/logger"
)

type ProvenanceRepo interface {
	GetChain(ctx context.Context, tx *gorm.DB, batchID uint64) (*domain.ProvenanceChain, error)
	CreateChain(ctx context.Context, tx *gorm.DB, chain *domain.ProvenanceChain) error
	UpdateChain(ctx context.Context, tx *gorm.DB, chain *domain.ProvenanceChain) error
	CreateRecord(ctx context.Context, tx *gorm.DB, rec *domain.ProvenanceRecord) error
	GetRecords(ctx context.Context, tx *gorm.DB, batchID uint64) ([]*domain.ProvenanceRecord, error)
	GetLastRecord(ctx context.Context, tx *gorm.DB, batchID uint64) (*domain.ProvenanceRecord, error)
	// RecordHashExists backs the cross-batch dedup set.
	RecordHashExists(ctx context.Context, tx *gorm.DB, recordHash string) (bool, error)
}

type provenanceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProvenanceRepo(db *gorm.DB, baseLog *logger.Logger) ProvenanceRepo {
	return &provenanceRepo{db: db, log: baseLog.With("repo", "ProvenanceRepo")}
}

func (r *provenanceRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *provenanceRepo) GetChain(ctx context.Context, tx *gorm.DB, batchID uint64) (*domain.ProvenanceChain, error) {
	var chain domain.ProvenanceChain
	err := r.handle(tx).WithContext(ctx).Where("batch_id = ?", batchID).First(&chain).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &chain, nil
}

func (r *provenanceRepo) CreateChain(ctx context.Context, tx *gorm.DB, chain *domain.ProvenanceChain) error {
	return r.handle(tx).WithContext(ctx).Create(chain).Error
}

func (r *provenanceRepo) UpdateChain(ctx context.Context, tx *gorm.DB, chain *domain.ProvenanceChain) error {
	return r.handle(tx).WithContext(ctx).Save(chain).Error
}

func (r *provenanceRepo) CreateRecord(ctx context.Context, tx *gorm.DB, rec *domain.ProvenanceRecord) error {
	return r.handle(tx).WithContext(ctx).Create(rec).Error
}

func (r *provenanceRepo) GetRecords(ctx context.Context, tx *gorm.DB, batchID uint64) ([]*domain.ProvenanceRecord, error) {
	var out []*domain.ProvenanceRecord
	if err := r.handle(tx).WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("seq").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *provenanceRepo) GetLastRecord(ctx context.Context, tx *gorm.DB, batchID uint64) (*domain.ProvenanceRecord, error) {
	var rec domain.ProvenanceRecord
	err := r.handle(tx).WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("seq DESC").
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *provenanceRepo) RecordHashExists(ctx context.Context, tx *gorm.DB, recordHash string) (bool, error) {
	var count int64
	if err := r.handle(tx).WithContext(ctx).
		Model(&domain.ProvenanceRecord{}).
		Where("record_hash = ?", recordHash).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
