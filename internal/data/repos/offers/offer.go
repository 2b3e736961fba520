package offers

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/internal/domain"
	"github.com/agritrace/agritrace-backend/internal/platform/logger"
)

type OfferRepo interface {
	Create(ctx context.Context, tx *gorm.DB, o *domain.Offer) (*domain.Offer, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uint64) (*domain.Offer, error)
	Update(ctx context.Context, tx *gorm.DB, o *domain.Offer) error
	// GetOpen returns stored-open, unexpired offers in creation order.
	// Expiry is evaluated here at read time; rows are never mutated to
	// an expired state.
	GetOpen(ctx context.Context, tx *gorm.DB, now time.Time) ([]*domain.Offer, error)
	GetOpenByType(ctx context.Context, tx *gorm.DB, typ domain.OfferType, now time.Time) ([]*domain.Offer, error)
	GetByCreator(ctx context.Context, tx *gorm.DB, creator string) ([]*domain.Offer, error)
	GetByBatch(ctx context.Context, tx *gorm.DB, batchID uint64) ([]*domain.Offer, error)
}

type offerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOfferRepo(db *gorm.DB, baseLog *logger.Logger) OfferRepo {
	return &offerRepo{db: db, log: baseLog.With("repo", "OfferRepo")}
}

func (r *offerRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *offerRepo) Create(ctx context.Context, tx *gorm.DB, o *domain.Offer) (*domain.Offer, error) {
	if err := r.handle(tx).WithContext(ctx).Create(o).Error; err != nil {
		return nil, err
	}
	return o, nil
}

func (r *offerRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint64) (*domain.Offer, error) {
	var o domain.Offer
	err := r.handle(tx).WithContext(ctx).Where("id = ?", id).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *offerRepo) Update(ctx context.Context, tx *gorm.DB, o *domain.Offer) error {
	return r.handle(tx).WithContext(ctx).Save(o).Error
}

func (r *offerRepo) GetOpen(ctx context.Context, tx *gorm.DB, now time.Time) ([]*domain.Offer, error) {
	var out []*domain.Offer
	if err := r.handle(tx).WithContext(ctx).
		Where("status = ? AND expires_at > ?", domain.OfferOpen, now).
		Order("created_at").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *offerRepo) GetOpenByType(ctx context.Context, tx *gorm.DB, typ domain.OfferType, now time.Time) ([]*domain.Offer, error) {
	var out []*domain.Offer
	if err := r.handle(tx).WithContext(ctx).
		Where("status = ? AND type = ? AND expires_at > ?", domain.OfferOpen, typ, now).
		Order("created_at").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *offerRepo) GetByCreator(ctx context.Context, tx *gorm.DB, creator string) ([]*domain.Offer, error) {
	var out []*domain.Offer
	if err := r.handle(tx).WithContext(ctx).
		Where("creator = ?", domain.NormalizeAddress(creator)).
		Order("created_at").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *offerRepo) GetByBatch(ctx context.Context, tx *gorm.DB, batchID uint64) ([]*domain.Offer, error) {
	var out []*domain.Offer
	if err := r.handle(tx).WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
