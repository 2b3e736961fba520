package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/internal/data/repos/shipments"
	"github.com/agritrace/agritrace-backend/internal/domain"
	"github.com/agritrace/agritrace-backend/internal/pkg/apperr"
	"github.com/agritrace/agritrace-backend/internal/platform/logger"
)

// ShipmentService is logistics custody tracking. It is the only holder
// of the ShipmentRecorder capability, so a batch can flip to SHIPPED
// only through an actual shipment row.
type ShipmentService interface {
	CreateShipment(ctx context.Context, caller string, in CreateShipmentInput) (*domain.Shipment, error)
	ConfirmPickup(ctx context.Context, caller string, shipmentID uint64, location string) (*domain.Shipment, error)
	UpdateLocation(ctx context.Context, caller string, shipmentID uint64, location, note string) (*domain.Shipment, error)
	MarkDelivered(ctx context.Context, caller string, shipmentID uint64, location string) (*domain.Shipment, error)
	ConfirmDelivery(ctx context.Context, caller string, shipmentID uint64) (*domain.Shipment, error)

	GetShipment(ctx context.Context, shipmentID uint64) (*domain.Shipment, error)
	GetShipmentByTrackingID(ctx context.Context, trackingID string) (*domain.Shipment, error)
	GetCheckpoints(ctx context.Context, shipmentID uint64) ([]*domain.ShipmentCheckpoint, error)
	GetUserShipmentsByStatus(ctx context.Context, party string, status domain.ShipmentStatus) ([]*domain.Shipment, error)
}

type CreateShipmentInput struct {
	BatchID uint64 `json:"batch_id"`
	OfferID uint64 `json:"offer_id"`
	// Shipper is optional; the sender carries the shipment themselves
	// when no dedicated shipper is named.
	Shipper      string `json:"shipper"`
	TrackingID   string `json:"tracking_id"`
	FromLocation string `json:"from_location"`
	ToLocation   string `json:"to_location"`
}

type shipmentService struct {
	db       *gorm.DB
	log      *logger.Logger
	repo     shipments.ShipmentRepo
	batches  BatchService
	gate     AccessControlService
	recorder ShipmentRecorder
	registry Registry
	now      func() time.Time
}

func NewShipmentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	repo shipments.ShipmentRepo,
	batchSvc BatchService,
	gate AccessControlService,
	recorder ShipmentRecorder,
	registry Registry,
) ShipmentService {
	return &shipmentService{
		db:       db,
		log:      baseLog.With("service", "ShipmentService"),
		repo:     repo,
		batches:  batchSvc,
		gate:     gate,
		recorder: recorder,
		registry: registry,
		now:      time.Now,
	}
}

// CreateShipment also flips the batch to SHIPPED through the recorder
// capability, all in one transaction.
func (s *shipmentService) CreateShipment(ctx context.Context, caller string, in CreateShipmentInput) (*domain.Shipment, error) {
	if strings.TrimSpace(in.TrackingID) == "" {
		return nil, apperr.Validationf("tracking id must not be empty")
	}
	if strings.TrimSpace(in.FromLocation) == "" || strings.TrimSpace(in.ToLocation) == "" {
		return nil, apperr.Validationf("shipment locations must not be empty")
	}

	var created *domain.Shipment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sender, err := s.gate.RequireActive(ctx, tx, caller)
		if err != nil {
			return err
		}
		// ownership is checked against the live batch, not the offer
		b, err := s.batches.GetBatch(ctx, in.BatchID)
		if err != nil {
			return err
		}
		if b.CurrentOwner != sender.Address {
			return apperr.Unauthorizedf("stakeholder %s does not own batch %d", sender.Address, in.BatchID)
		}

		shipperAddr := sender.Address
		if domain.NormalizeAddress(in.Shipper) != "" {
			shipper, err := s.gate.RequireActive(ctx, tx, in.Shipper)
			if err != nil {
				return err
			}
			shipperAddr = shipper.Address
		}

		exists, err := s.repo.TrackingIDExists(ctx, tx, in.TrackingID)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Validationf("tracking id %s already in use", in.TrackingID)
		}

		now := s.now().UTC()
		sh := &domain.Shipment{
			BatchID:      b.ID,
			OfferID:      in.OfferID,
			Sender:       sender.Address,
			Receiver:     b.CurrentOwner,
			Shipper:      shipperAddr,
			TrackingID:   in.TrackingID,
			FromLocation: in.FromLocation,
			ToLocation:   in.ToLocation,
			Status:       domain.ShipmentCreated,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if _, err := s.repo.Create(ctx, tx, sh); err != nil {
			return err
		}
		if err := s.repo.AppendCheckpoint(ctx, tx, &domain.ShipmentCheckpoint{
			ShipmentID: sh.ID,
			Location:   in.FromLocation,
			Note:       "shipment created",
			Timestamp:  now,
		}); err != nil {
			return err
		}
		if err := s.recorder.AddShipmentRef(ctx, tx, b.ID, shipperAddr, in.FromLocation); err != nil {
			return err
		}
		if err := s.registry.RecordShipment(ctx, tx, sh); err != nil {
			return err
		}
		created = sh
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Shipment created",
		"shipment_id", created.ID, "batch_id", created.BatchID, "tracking_id", created.TrackingID)
	return created, nil
}

func (s *shipmentService) requireShipper(ctx context.Context, tx *gorm.DB, caller string, shipmentID uint64) (*domain.Shipment, error) {
	sh, err := s.gate.RequireActive(ctx, tx, caller)
	if err != nil {
		return nil, err
	}
	ship, err := s.repo.GetByID(ctx, tx, shipmentID)
	if err != nil {
		return nil, err
	}
	if ship == nil {
		return nil, apperr.NotFoundf("shipment %d", shipmentID)
	}
	if ship.Shipper != sh.Address {
		return nil, apperr.Unauthorizedf("stakeholder %s is not the shipper of shipment %d", sh.Address, shipmentID)
	}
	return ship, nil
}

func (s *shipmentService) transition(ctx context.Context, tx *gorm.DB, ship *domain.Shipment, to domain.ShipmentStatus, location, note string) error {
	now := s.now().UTC()
	ship.Status = to
	ship.UpdatedAt = now
	if err := s.repo.Update(ctx, tx, ship); err != nil {
		return err
	}
	return s.repo.AppendCheckpoint(ctx, tx, &domain.ShipmentCheckpoint{
		ShipmentID: ship.ID,
		Location:   location,
		Note:       note,
		Timestamp:  now,
	})
}

func (s *shipmentService) ConfirmPickup(ctx context.Context, caller string, shipmentID uint64, location string) (*domain.Shipment, error) {
	var out *domain.Shipment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ship, err := s.requireShipper(ctx, tx, caller, shipmentID)
		if err != nil {
			return err
		}
		if ship.Status != domain.ShipmentCreated {
			return apperr.InvalidStatef("shipment %d cannot be picked up from status %s", shipmentID, ship.Status)
		}
		if err := s.transition(ctx, tx, ship, domain.ShipmentPickedUp, location, "picked up"); err != nil {
			return err
		}
		out = ship
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *shipmentService) UpdateLocation(ctx context.Context, caller string, shipmentID uint64, location, note string) (*domain.Shipment, error) {
	if strings.TrimSpace(location) == "" {
		return nil, apperr.Validationf("checkpoint location must not be empty")
	}
	var out *domain.Shipment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ship, err := s.requireShipper(ctx, tx, caller, shipmentID)
		if err != nil {
			return err
		}
		if ship.Status != domain.ShipmentPickedUp && ship.Status != domain.ShipmentInTransit {
			return apperr.InvalidStatef("shipment %d cannot report location from status %s", shipmentID, ship.Status)
		}
		if err := s.transition(ctx, tx, ship, domain.ShipmentInTransit, location, note); err != nil {
			return err
		}
		out = ship
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkDelivered accepts PICKED_UP as well as IN_TRANSIT: a short hop may
// never report an intermediate location.
func (s *shipmentService) MarkDelivered(ctx context.Context, caller string, shipmentID uint64, location string) (*domain.Shipment, error) {
	var out *domain.Shipment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ship, err := s.requireShipper(ctx, tx, caller, shipmentID)
		if err != nil {
			return err
		}
		if ship.Status != domain.ShipmentPickedUp && ship.Status != domain.ShipmentInTransit {
			return apperr.InvalidStatef("shipment %d cannot be delivered from status %s", shipmentID, ship.Status)
		}
		if location == "" {
			location = ship.ToLocation
		}
		if err := s.transition(ctx, tx, ship, domain.ShipmentDelivered, location, "delivered"); err != nil {
			return err
		}
		out = ship
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ConfirmDelivery is the receiver's acknowledgment, closing the custody
// loop from their side.
func (s *shipmentService) ConfirmDelivery(ctx context.Context, caller string, shipmentID uint64) (*domain.Shipment, error) {
	var out *domain.Shipment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		receiver, err := s.gate.RequireActive(ctx, tx, caller)
		if err != nil {
			return err
		}
		ship, err := s.repo.GetByID(ctx, tx, shipmentID)
		if err != nil {
			return err
		}
		if ship == nil {
			return apperr.NotFoundf("shipment %d", shipmentID)
		}
		if ship.Receiver != receiver.Address {
			return apperr.Unauthorizedf("stakeholder %s is not the receiver of shipment %d", receiver.Address, shipmentID)
		}
		if ship.Status != domain.ShipmentDelivered {
			return apperr.InvalidStatef("shipment %d cannot be confirmed from status %s", shipmentID, ship.Status)
		}
		if err := s.transition(ctx, tx, ship, domain.ShipmentConfirmed, ship.ToLocation, "delivery confirmed"); err != nil {
			return err
		}
		out = ship
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *shipmentService) GetShipment(ctx context.Context, shipmentID uint64) (*domain.Shipment, error) {
	ship, err := s.repo.GetByID(ctx, nil, shipmentID)
	if err != nil {
		return nil, err
	}
	if ship == nil {
		return nil, apperr.NotFoundf("shipment %d", shipmentID)
	}
	return ship, nil
}

func (s *shipmentService) GetShipmentByTrackingID(ctx context.Context, trackingID string) (*domain.Shipment, error) {
	ship, err := s.repo.GetByTrackingID(ctx, nil, trackingID)
	if err != nil {
		return nil, err
	}
	if ship == nil {
		return nil, apperr.NotFoundf("shipment with tracking id %s", trackingID)
	}
	return ship, nil
}

func (s *shipmentService) GetCheckpoints(ctx context.Context, shipmentID uint64) ([]*domain.ShipmentCheckpoint, error) {
	return s.repo.GetCheckpoints(ctx, nil, shipmentID)
}

func (s *shipmentService) GetUserShipmentsByStatus(ctx context.Context, party string, status domain.ShipmentStatus) ([]*domain.Shipment, error) {
	return s.repo.GetByPartyAndStatus(ctx, nil, party, status)
}
