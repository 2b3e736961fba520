package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/internal/data/repos/batches"
	"github.com/agritrace/agritrace-backend/internal/data/repos/offers"
	"github.com/agritrace/agritrace-backend/internal/domain"
	"github.com/agritrace/agritrace-backend/internal/pkg/apperr"
	"github.com/agritrace/agritrace-backend/internal/platform/logger"
)

// OfferService is the marketplace. It is the only holder of the
// SaleRecorder capability, so recording a sale cannot happen outside an
// accepted offer.
type OfferService interface {
	CreateSellOffer(ctx context.Context, caller string, in CreateOfferInput) (*domain.Offer, error)
	CreateBuyOffer(ctx context.Context, caller string, in CreateOfferInput) (*domain.Offer, error)
	CreateContractOffer(ctx context.Context, caller string, in CreateOfferInput) (*domain.Offer, error)
	AcceptOffer(ctx context.Context, caller string, offerID uint64) (*domain.Offer, error)
	CancelOffer(ctx context.Context, caller string, offerID uint64) error

	GetOffer(ctx context.Context, offerID uint64) (*domain.Offer, error)
	GetAvailableOffers(ctx context.Context, user string) ([]*domain.Offer, error)
	GetOffersByType(ctx context.Context, typ domain.OfferType) ([]*domain.Offer, error)
	GetOffersByBatch(ctx context.Context, batchID uint64) ([]*domain.Offer, error)
	GetOffersByCreator(ctx context.Context, creator string) ([]*domain.Offer, error)
}

type CreateOfferInput struct {
	BatchID      uint64 `json:"batch_id"`
	Price        int64  `json:"price"`
	Quantity     int64  `json:"quantity"`
	Counterparty string `json:"counterparty"`
	TermsRef     string `json:"terms_ref"`
	TTLSeconds   int64  `json:"ttl_seconds"`
}

const defaultOfferTTL = 7 * 24 * time.Hour

type offerService struct {
	db      *gorm.DB
	log     *logger.Logger
	offers  offers.OfferRepo
	batches batches.BatchRepo
	gate    AccessControlService
	sales   SaleRecorder
	now     func() time.Time
}

func NewOfferService(
	db *gorm.DB,
	baseLog *logger.Logger,
	offerRepo offers.OfferRepo,
	batchRepo batches.BatchRepo,
	gate AccessControlService,
	sales SaleRecorder,
) OfferService {
	return &offerService{
		db:      db,
		log:     baseLog.With("service", "OfferService"),
		offers:  offerRepo,
		batches: batchRepo,
		gate:    gate,
		sales:   sales,
		now:     time.Now,
	}
}

func (s *offerService) ttl(in CreateOfferInput) (time.Duration, error) {
	if in.TTLSeconds < 0 {
		return 0, apperr.Validationf("offer ttl must not be negative")
	}
	if in.TTLSeconds == 0 {
		return defaultOfferTTL, nil
	}
	return time.Duration(in.TTLSeconds) * time.Second, nil
}

// create is the single construction path behind the three typed entry
// points; eligibility was already asserted by the caller. A nil batch
// means a speculative forward contract, stored with batch id 0.
func (s *offerService) create(ctx context.Context, tx *gorm.DB, creator *domain.Stakeholder, b *domain.Batch, typ domain.OfferType, in CreateOfferInput) (*domain.Offer, error) {
	if in.Price <= 0 {
		return nil, apperr.Validationf("offer price must be positive")
	}
	if in.Quantity <= 0 {
		return nil, apperr.Validationf("offer quantity must be positive")
	}
	if b != nil && in.Quantity > b.Quantity {
		return nil, apperr.Validationf("offer quantity %d outside batch quantity %d", in.Quantity, b.Quantity)
	}
	ttl, err := s.ttl(in)
	if err != nil {
		return nil, err
	}

	var batchID uint64
	if b != nil {
		batchID = b.ID
	}
	now := s.now().UTC()
	o := &domain.Offer{
		Creator:      creator.Address,
		Counterparty: domain.NormalizeAddress(in.Counterparty),
		BatchID:      batchID,
		Price:        in.Price,
		Quantity:     in.Quantity,
		Type:         typ,
		Status:       domain.OfferOpen,
		TermsRef:     in.TermsRef,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}
	if _, err := s.offers.Create(ctx, tx, o); err != nil {
		return nil, err
	}

	if b != nil {
		b.AppendOfferID(o.ID)
		if b.Status == domain.BatchListed {
			b.Status = domain.BatchOffered
		}
		b.UpdatedAt = now
		if err := s.batches.Update(ctx, tx, b); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (s *offerService) CreateSellOffer(ctx context.Context, caller string, in CreateOfferInput) (*domain.Offer, error) {
	var created *domain.Offer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owner, err := s.gate.RequireActive(ctx, tx, caller)
		if err != nil {
			return err
		}
		b, err := s.batches.GetByID(ctx, tx, in.BatchID)
		if err != nil {
			return err
		}
		if b == nil {
			return apperr.NotFoundf("batch %d", in.BatchID)
		}
		if b.CurrentOwner != owner.Address {
			return apperr.Unauthorizedf("stakeholder %s does not own batch %d", owner.Address, in.BatchID)
		}
		if b.Status != domain.BatchListed && b.Status != domain.BatchOffered {
			return apperr.InvalidStatef("batch %d is not listed for sale", in.BatchID)
		}
		created, err = s.create(ctx, tx, owner, b, domain.OfferSell, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Sell offer created", "offer_id", created.ID, "batch_id", created.BatchID)
	return created, nil
}

func (s *offerService) CreateBuyOffer(ctx context.Context, caller string, in CreateOfferInput) (*domain.Offer, error) {
	var created *domain.Offer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		buyer, err := s.gate.RequireActive(ctx, tx, caller)
		if err != nil {
			return err
		}
		if !domain.IsBuyerRole(buyer.Role) {
			return apperr.Unauthorizedf("role %s cannot place buy offers", buyer.Role)
		}
		b, err := s.batches.GetByID(ctx, tx, in.BatchID)
		if err != nil {
			return err
		}
		if b == nil {
			return apperr.NotFoundf("batch %d", in.BatchID)
		}
		if b.CurrentOwner == buyer.Address {
			return apperr.Validationf("cannot place a buy offer on an owned batch")
		}
		if !b.Available {
			return apperr.InvalidStatef("batch %d is not available", in.BatchID)
		}
		if err := s.requireAuthorizedBuyer(b, buyer.Address); err != nil {
			return err
		}
		created, err = s.create(ctx, tx, buyer, b, domain.OfferBuy, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Buy offer created", "offer_id", created.ID, "batch_id", created.BatchID)
	return created, nil
}

// CreateContractOffer is a processor contracting a farmer's harvest. A
// batch id of 0 means the crop does not exist yet (a forward contract);
// only the named farmer can accept.
func (s *offerService) CreateContractOffer(ctx context.Context, caller string, in CreateOfferInput) (*domain.Offer, error) {
	if domain.NormalizeAddress(in.Counterparty) == "" {
		return nil, apperr.Validationf("contract offer requires a counterparty")
	}
	var created *domain.Offer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		processor, err := s.gate.RequireActiveRole(ctx, tx, caller, domain.RoleProcessor)
		if err != nil {
			return err
		}
		counterparty, err := s.gate.RequireActive(ctx, tx, in.Counterparty)
		if err != nil {
			return err
		}
		if counterparty.Role != domain.RoleFarmer {
			return apperr.Validationf("contract counterparty %s is not a farmer", counterparty.Address)
		}
		var b *domain.Batch
		if in.BatchID != 0 {
			b, err = s.batches.GetByID(ctx, tx, in.BatchID)
			if err != nil {
				return err
			}
			if b == nil {
				return apperr.NotFoundf("batch %d", in.BatchID)
			}
		}
		created, err = s.create(ctx, tx, processor, b, domain.OfferContract, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Contract offer created",
		"offer_id", created.ID, "batch_id", created.BatchID, "counterparty", created.Counterparty)
	return created, nil
}

func (s *offerService) requireAuthorizedBuyer(b *domain.Batch, buyer string) error {
	allowed := b.AuthorizedBuyerList()
	if len(allowed) == 0 {
		return nil
	}
	for _, addr := range allowed {
		if addr == buyer {
			return nil
		}
	}
	return apperr.Unauthorizedf("buyer %s is not authorized for batch %d", buyer, b.ID)
}

// AcceptOffer settles the trade: the offer flips to accepted exactly
// once and the sale is recorded in the same transaction, so a crash
// between the two is impossible.
func (s *offerService) AcceptOffer(ctx context.Context, caller string, offerID uint64) (*domain.Offer, error) {
	var accepted *domain.Offer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		acceptor, err := s.gate.RequireActive(ctx, tx, caller)
		if err != nil {
			return err
		}
		o, err := s.offers.GetByID(ctx, tx, offerID)
		if err != nil {
			return err
		}
		if o == nil {
			return apperr.NotFoundf("offer %d", offerID)
		}
		if o.Status != domain.OfferOpen {
			return apperr.InvalidStatef("offer %d is %s", offerID, o.Status)
		}
		now := s.now().UTC()
		if o.ExpiredAt(now) {
			return apperr.InvalidStatef("offer %d has expired", offerID)
		}
		if o.Creator == acceptor.Address {
			return apperr.Validationf("cannot accept an own offer")
		}

		// a bound counterparty wins over any type-specific eligibility
		if o.Counterparty != "" && o.Counterparty != acceptor.Address {
			return apperr.Unauthorizedf("offer %d is reserved for %s", offerID, o.Counterparty)
		}

		var b *domain.Batch
		if o.BatchID != 0 {
			b, err = s.batches.GetByID(ctx, tx, o.BatchID)
			if err != nil {
				return err
			}
			if b == nil {
				return apperr.NotFoundf("batch %d", o.BatchID)
			}
		}

		var buyer string
		switch o.Type {
		case domain.OfferSell:
			if !domain.IsBuyerRole(acceptor.Role) {
				return apperr.Unauthorizedf("role %s cannot accept sell offers", acceptor.Role)
			}
			if err := s.requireAuthorizedBuyer(b, acceptor.Address); err != nil {
				return err
			}
			buyer = acceptor.Address
		case domain.OfferBuy:
			if b == nil || b.CurrentOwner != acceptor.Address {
				return apperr.Unauthorizedf("only the batch owner can accept a buy offer")
			}
			buyer = o.Creator
		case domain.OfferContract:
			if acceptor.Role != domain.RoleFarmer {
				return apperr.Unauthorizedf("role %s cannot accept contract offers", acceptor.Role)
			}
			buyer = o.Creator
		default:
			return apperr.Validationf("unknown offer type %q", o.Type)
		}

		o.Status = domain.OfferAccepted
		o.Acceptor = acceptor.Address
		o.AcceptedAt = &now
		if err := s.offers.Update(ctx, tx, o); err != nil {
			return err
		}
		// a speculative forward contract has no batch to settle yet
		if o.BatchID != 0 {
			if err := s.sales.MarkAsSold(ctx, tx, o.BatchID, buyer, o.Price); err != nil {
				return err
			}
		}
		accepted = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Offer accepted", "offer_id", accepted.ID, "batch_id", accepted.BatchID, "acceptor", accepted.Acceptor)
	return accepted, nil
}

func (s *offerService) CancelOffer(ctx context.Context, caller string, offerID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		creator, err := s.gate.RequireActive(ctx, tx, caller)
		if err != nil {
			return err
		}
		o, err := s.offers.GetByID(ctx, tx, offerID)
		if err != nil {
			return err
		}
		if o == nil {
			return apperr.NotFoundf("offer %d", offerID)
		}
		if o.Creator != creator.Address {
			return apperr.Unauthorizedf("only the creator can cancel offer %d", offerID)
		}
		if o.Status != domain.OfferOpen {
			return apperr.InvalidStatef("offer %d is %s", offerID, o.Status)
		}
		o.Status = domain.OfferCancelled
		return s.offers.Update(ctx, tx, o)
	})
}

func (s *offerService) GetOffer(ctx context.Context, offerID uint64) (*domain.Offer, error) {
	o, err := s.offers.GetByID(ctx, nil, offerID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.NotFoundf("offer %d", offerID)
	}
	return o, nil
}

// GetAvailableOffers is the marketplace as one user sees it: open and
// unexpired, excluding their own offers, including offers reserved for
// them and excluding ones reserved for somebody else.
func (s *offerService) GetAvailableOffers(ctx context.Context, user string) ([]*domain.Offer, error) {
	addr := domain.NormalizeAddress(user)
	all, err := s.offers.GetOpen(ctx, nil, s.now().UTC())
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Offer, 0, len(all))
	for _, o := range all {
		if o.Creator == addr {
			continue
		}
		if o.Counterparty != "" && o.Counterparty != addr {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (s *offerService) GetOffersByType(ctx context.Context, typ domain.OfferType) ([]*domain.Offer, error) {
	if !typ.Valid() {
		return nil, apperr.Validationf("unknown offer type %q", typ)
	}
	return s.offers.GetOpenByType(ctx, nil, typ, s.now().UTC())
}

func (s *offerService) GetOffersByBatch(ctx context.Context, batchID uint64) ([]*domain.Offer, error) {
	return s.offers.GetByBatch(ctx, nil, batchID)
}

func (s *offerService) GetOffersByCreator(ctx context.Context, creator string) ([]*domain.Offer, error) {
	return s.offers.GetByCreator(ctx, nil, creator)
}
