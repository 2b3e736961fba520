package verification

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/internal/domain"
	"github.com/agritrace/agritrace-backend/internal/platform/logger"
)

type QRCodeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, qr *domain.QRCode) (*domain.QRCode, error)
	GetByCode(ctx context.Context, tx *gorm.DB, code string) (*domain.QRCode, error)
	Update(ctx context.Context, tx *gorm.DB, qr *domain.QRCode) error
	// GetCanonicalByBatch returns the newest active code for the batch
	// (the batch->QR index is last-write-wins).
	GetCanonicalByBatch(ctx context.Context, tx *gorm.DB, batchID uint64) (*domain.QRCode, error)
}

type qrCodeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQRCodeRepo(db *gorm.DB, baseLog *logger.Logger) QRCodeRepo {
	return &qrCodeRepo{db: db, log: baseLog.With("repo", "QRCodeRepo")}
}

func (r *qrCodeRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *qrCodeRepo) Create(ctx context.Context, tx *gorm.DB, qr *domain.QRCode) (*domain.QRCode, error) {
	if err := r.handle(tx).WithContext(ctx).Create(qr).Error; err != nil {
		return nil, err
	}
	return qr, nil
}

func (r *qrCodeRepo) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*domain.QRCode, error) {
	var qr domain.QRCode
	err := r.handle(tx).WithContext(ctx).Where("code = ?", code).First(&qr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &qr, nil
}

func (r *qrCodeRepo) Update(ctx context.Context, tx *gorm.DB, qr *domain.QRCode) error {
	return r.handle(tx).WithContext(ctx).Save(qr).Error
}

func (r *qrCodeRepo) GetCanonicalByBatch(ctx context.Context, tx *gorm.DB, batchID uint64) (*domain.QRCode, error) {
	var qr domain.QRCode
	err := r.handle(tx).WithContext(ctx).
		Where("batch_id = ? AND active = ?", batchID, true).
		Order("created_at DESC").
		First(&qr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &qr, nil
}
