package services_test

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/internal/data/repos/analytics"
	"github.com/agritrace/agritrace-backend/internal/data/repos/batches"
	"github.com/agritrace/agritrace-backend/internal/data/repos/offers"
	"github.com/agritrace/agritrace-backend/internal/data/repos/provenance"
	"github.com/agritrace/agritrace-backend/internal/data/repos/shipments"
	"github.com/agritrace/agritrace-backend/internal/data/repos/stakeholders"
	"github.com/agritrace/agritrace-backend/internal/data/repos/testutil"
	"github.com/agritrace/agritrace-backend/internal/data/repos/verification"
	"github.com/agritrace/agritrace-backend/internal/domain"
	"github.com/agritrace/agritrace-backend/internal/oracle"
	"github.com/agritrace/agritrace-backend/internal/services"
)

const (
	adminAddr       = "0xadmin"
	farmerAddr      = "0xfarmer"
	processorAddr   = "0xprocessor"
	distributorAddr = "0xdistributor"
	shipperAddr     = "0xshipper"
	retailerAddr    = "0xretailer"
)

// env wires the full service graph against a private in-memory database,
// the identity price feed and no weather feed.
type env struct {
	db *gorm.DB

	access     services.AccessControlService
	batches    services.BatchService
	offers     services.OfferService
	shipments  services.ShipmentService
	provenance services.ProvenanceService
	verifier   services.QRVerifierService
	public     services.PublicVerificationService
	registry   services.Registry

	batchRepo batches.BatchRepo
	statsRepo verification.StatsRepo
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	stakeRepo := stakeholders.NewStakeholderRepo(db, log)
	batchRepo := batches.NewBatchRepo(db, log)
	procRepo := batches.NewProcessingRepo(db, log)
	qualRepo := batches.NewQualityRepo(db, log)
	offerRepo := offers.NewOfferRepo(db, log)
	shipRepo := shipments.NewShipmentRepo(db, log)
	provRepo := provenance.NewProvenanceRepo(db, log)
	qrRepo := verification.NewQRCodeRepo(db, log)
	statsRepo := verification.NewStatsRepo(db, log)
	registryRepo := analytics.NewRegistryRepo(db, log)

	access := services.NewAccessControlService(db, log, stakeRepo)
	registry := services.NewRegistry(log, registryRepo)
	provSvc, appender := services.NewProvenanceService(db, log, provRepo, access)
	batchSvc, sales, shipRecorder := services.NewBatchService(
		db, log, batchRepo, procRepo, qualRepo, access, appender, registry,
		oracle.NewIdentityPriceFeed(), oracle.NewUnconfiguredWeatherFeed(),
		services.BatchConfig{},
	)
	offerSvc := services.NewOfferService(db, log, offerRepo, batchRepo, access, sales)
	shipSvc := services.NewShipmentService(db, log, shipRepo, batchSvc, access, shipRecorder, registry)
	verifier := services.NewQRVerifierService(db, log, qrRepo, shipRepo, statsRepo, batchSvc, provSvc, access, registry)
	public := services.NewPublicVerificationService(log, verifier, provSvc, statsRepo, nil)

	e := &env{
		db:         db,
		access:     access,
		batches:    batchSvc,
		offers:     offerSvc,
		shipments:  shipSvc,
		provenance: provSvc,
		verifier:   verifier,
		public:     public,
		registry:   registry,
		batchRepo:  batchRepo,
		statsRepo:  statsRepo,
	}
	e.seedStakeholders(t)
	return e
}

func (e *env) seedStakeholders(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	if err := e.access.EnsureBootstrapAdmin(ctx, adminAddr, "Admin"); err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	for addr, role := range map[string]domain.Role{
		farmerAddr:      domain.RoleFarmer,
		processorAddr:   domain.RoleProcessor,
		distributorAddr: domain.RoleDistributor,
		shipperAddr:     domain.RoleShipper,
		retailerAddr:    domain.RoleRetailer,
	} {
		_, err := e.access.RegisterStakeholder(ctx, adminAddr, services.RegisterStakeholderInput{
			Address: addr,
			Role:    role,
			Name:    string(role),
		})
		if err != nil {
			t.Fatalf("seed %s: %v", addr, err)
		}
	}
}

func (e *env) createBatch(t *testing.T) *domain.Batch {
	t.Helper()
	b, err := e.batches.CreateBatch(context.Background(), farmerAddr, services.CreateBatchInput{
		Name:           "Maize",
		Quantity:       1000,
		BasePrice:      500,
		OriginLocation: "Narok",
	})
	if err != nil {
		t.Fatalf("create batch: %v", err)
	}
	return b
}

// soldBatch walks a batch through listing, a sell offer and acceptance
// by the distributor.
func (e *env) soldBatch(t *testing.T) (*domain.Batch, *domain.Offer) {
	t.Helper()
	ctx := context.Background()
	b := e.createBatch(t)
	if _, err := e.batches.ListForSale(ctx, farmerAddr, b.ID, 600, domain.TradeSpot); err != nil {
		t.Fatalf("list for sale: %v", err)
	}
	o, err := e.offers.CreateSellOffer(ctx, farmerAddr, services.CreateOfferInput{
		BatchID:  b.ID,
		Price:    600,
		Quantity: 1000,
	})
	if err != nil {
		t.Fatalf("create sell offer: %v", err)
	}
	if _, err := e.offers.AcceptOffer(ctx, distributorAddr, o.ID); err != nil {
		t.Fatalf("accept offer: %v", err)
	}
	sold, err := e.batches.GetBatch(ctx, b.ID)
	if err != nil {
		t.Fatalf("reload batch: %v", err)
	}
	return sold, o
}

// shippedBatch continues from soldBatch through shipment creation by
// the new owner, with a dedicated shipper assigned.
func (e *env) shippedBatch(t *testing.T) (*domain.Batch, *domain.Shipment) {
	t.Helper()
	ctx := context.Background()
	sold, o := e.soldBatch(t)
	ship, err := e.shipments.CreateShipment(ctx, distributorAddr, services.CreateShipmentInput{
		BatchID:      sold.ID,
		OfferID:      o.ID,
		Shipper:      shipperAddr,
		TrackingID:   "TRK-" + time.Now().UTC().Format("150405.000000000"),
		FromLocation: "Narok",
		ToLocation:   "Nairobi",
	})
	if err != nil {
		t.Fatalf("create shipment: %v", err)
	}
	b, err := e.batches.GetBatch(ctx, sold.ID)
	if err != nil {
		t.Fatalf("reload batch: %v", err)
	}
	return b, ship
}
