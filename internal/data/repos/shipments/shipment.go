package shipments

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/internal/domain"
	"github.com/agritrace/agritrace-backend/internal/platform/logger"
)

type ShipmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, s *domain.Shipment) (*domain.Shipment, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uint64) (*domain.Shipment, error)
	GetByTrackingID(ctx context.Context, tx *gorm.DB, trackingID string) (*domain.Shipment, error)
	Update(ctx context.Context, tx *gorm.DB, s *domain.Shipment) error
	TrackingIDExists(ctx context.Context, tx *gorm.DB, trackingID string) (bool, error)
	AppendCheckpoint(ctx context.Context, tx *gorm.DB, cp *domain.ShipmentCheckpoint) error
	GetCheckpoints(ctx context.Context, tx *gorm.DB, shipmentID uint64) ([]*domain.ShipmentCheckpoint, error)
	GetByPartyAndStatus(ctx context.Context, tx *gorm.DB, party string, status domain.ShipmentStatus) ([]*domain.Shipment, error)
	GetByBatch(ctx context.Context, tx *gorm.DB, batchID uint64) ([]*domain.Shipment, error)
}

type shipmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewShipmentRepo(db *gorm.DB, baseLog *logger.Logger) ShipmentRepo {
	return &shipmentRepo{db: db, log: baseLog.With("repo", "ShipmentRepo")}
}

func (r *shipmentRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *shipmentRepo) Create(ctx context.Context, tx *gorm.DB, s *domain.Shipment) (*domain.Shipment, error) {
	if err := r.handle(tx).WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

func (r *shipmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint64) (*domain.Shipment, error) {
	var s domain.Shipment
	err := r.handle(tx).WithContext(ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *shipmentRepo) GetByTrackingID(ctx context.Context, tx *gorm.DB, trackingID string) (*domain.Shipment, error) {
	var s domain.Shipment
	err := r.handle(tx).WithContext(ctx).Where("tracking_id = ?", trackingID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *shipmentRepo) Update(ctx context.Context, tx *gorm.DB, s *domain.Shipment) error {
	return r.handle(tx).WithContext(ctx).Save(s).Error
}

func (r *shipmentRepo) TrackingIDExists(ctx context.Context, tx *gorm.DB, trackingID string) (bool, error) {
	var count int64
	if err := r.handle(tx).WithContext(ctx).
		Model(&domain.Shipment{}).
		Where("tracking_id = ?", trackingID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *shipmentRepo) AppendCheckpoint(ctx context.Context, tx *gorm.DB, cp *domain.ShipmentCheckpoint) error {
	return r.handle(tx).WithContext(ctx).Create(cp).Error
}

func (r *shipmentRepo) GetCheckpoints(ctx context.Context, tx *gorm.DB, shipmentID uint64) ([]*domain.ShipmentCheckpoint, error) {
	var out []*domain.ShipmentCheckpoint
	if err := r.handle(tx).WithContext(ctx).
		Where("shipment_id = ?", shipmentID).
		Order("id").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *shipmentRepo) GetByBatch(ctx context.Context, tx *gorm.DB, batchID uint64) ([]*domain.Shipment, error) {
	var out []*domain.Shipment
	if err := r.handle(tx).WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *shipmentRepo) GetByPartyAndStatus(ctx context.Context, tx *gorm.DB, party string, status domain.ShipmentStatus) ([]*domain.Shipment, error) {
	addr := domain.NormalizeAddress(party)
	var out []*domain.Shipment
	if err := r.handle(tx).WithContext(ctx).
		Where("(sender = ? OR receiver = ? OR shipper = ?) AND status = ?", addr, addr, addr, status).
		Order("created_at").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
