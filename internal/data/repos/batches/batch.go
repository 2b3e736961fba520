package batches

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/internal/domain"
	"github.com/agritrace/agritrace-backend/internal/platform/logger"
)

type BatchRepo interface {
	Create(ctx context.Context, tx *gorm.DB, b *domain.Batch) (*domain.Batch, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uint64) (*domain.Batch, error)
	Update(ctx context.Context, tx *gorm.DB, b *domain.Batch) error
	GetByOwner(ctx context.Context, tx *gorm.DB, owner string) ([]*domain.Batch, error)
	GetByStatus(ctx context.Context, tx *gorm.DB, status domain.BatchStatus) ([]*domain.Batch, error)
	GetAvailableByMode(ctx context.Context, tx *gorm.DB, mode domain.TradingMode) ([]*domain.Batch, error)
}

type batchRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBatchRepo(db *gorm.DB, baseLog *logger.Logger) BatchRepo {
	return &batchRepo{db: db, log: baseLog.With("repo", "BatchRepo")}
}

func (r *batchRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *batchRepo) Create(ctx context.Context, tx *gorm.DB, b *domain.Batch) (*domain.Batch, error) {
	if err := r.handle(tx).WithContext(ctx).Create(b).Error; err != nil {
		return nil, err
	}
	return b, nil
}

func (r *batchRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint64) (*domain.Batch, error) {
	if id == 0 {
		// 0 is the "does not exist" sentinel, never a stored id
		return nil, nil
	}
	var b domain.Batch
	err := r.handle(tx).WithContext(ctx).Where("id = ?", id).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *batchRepo) Update(ctx context.Context, tx *gorm.DB, b *domain.Batch) error {
	return r.handle(tx).WithContext(ctx).Save(b).Error
}

func (r *batchRepo) GetByOwner(ctx context.Context, tx *gorm.DB, owner string) ([]*domain.Batch, error) {
	var out []*domain.Batch
	if err := r.handle(tx).WithContext(ctx).
		Where("current_owner = ?", domain.NormalizeAddress(owner)).
		Order("id").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *batchRepo) GetByStatus(ctx context.Context, tx *gorm.DB, status domain.BatchStatus) ([]*domain.Batch, error) {
	var out []*domain.Batch
	if err := r.handle(tx).WithContext(ctx).
		Where("status = ?", status).
		Order("created_at").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetAvailableByMode preserves index insertion order (creation order
// within the trading-mode index), not batch id order.
func (r *batchRepo) GetAvailableByMode(ctx context.Context, tx *gorm.DB, mode domain.TradingMode) ([]*domain.Batch, error) {
	var out []*domain.Batch
	if err := r.handle(tx).WithContext(ctx).
		Where("trading_mode = ? AND available = ?", mode, true).
		Order("created_at").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
