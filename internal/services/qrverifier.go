package services

import (
	"context"
	"crypto/rand"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/internal/data/repos/shipments"
	"github.com/agritrace/agritrace-backend/internal/data/repos/verification"
	"github.com/agritrace/agritrace-backend/internal/domain"
	"github.com/agritrace/agritrace-backend/internal/pkg/apperr"
	"github.com/agritrace/agritrace-backend/internal/pkg/hashing"
	"github.com/agritrace/agritrace-backend/internal/platform/logger"
)

// QRVerifierService mints scannable codes and answers scans. Each data
// section of a scan is fetched independently and a failing section
// degrades to a warning instead of failing the scan.
type QRVerifierService interface {
	GenerateQRCode(ctx context.Context, caller string, batchID uint64) (*domain.QRCode, error)
	DeactivateQRCode(ctx context.Context, caller string, code string) error
	GetQRCode(ctx context.Context, code string) (*domain.QRCode, error)
	GetCanonicalQRCode(ctx context.Context, batchID uint64) (*domain.QRCode, error)
	// VerifyProduct counts the scan; InspectProduct is the same payload
	// as a pure read.
	VerifyProduct(ctx context.Context, code string) (*VerificationResult, error)
	InspectProduct(ctx context.Context, code string) (*VerificationResult, error)
}

// VerificationResult is the full scan payload. Nil sections plus their
// warning entries signal partial data, Valid stays meaningful throughout.
type VerificationResult struct {
	Code        string `json:"code"`
	Valid       bool   `json:"valid"`
	Reason      string `json:"reason,omitempty"`
	BatchID     uint64 `json:"batch_id,omitempty"`
	ProductName string `json:"product_name,omitempty"`
	FarmerName  string `json:"farmer_name,omitempty"`

	Batch      *domain.Batch           `json:"batch,omitempty"`
	Provenance *ChainSummary           `json:"provenance,omitempty"`
	Quality    []*domain.QualityRecord `json:"quality,omitempty"`
	Shipments  []*domain.Shipment      `json:"shipments,omitempty"`

	Warnings []string `json:"warnings,omitempty"`
	Degraded bool     `json:"degraded"`
	ScanTime int64    `json:"scan_time"`
}

type qrVerifierService struct {
	db         *gorm.DB
	log        *logger.Logger
	codes      verification.QRCodeRepo
	shipments  shipments.ShipmentRepo
	stats      verification.StatsRepo
	batches    BatchService
	provenance ProvenanceService
	gate       AccessControlService
	registry   Registry
	now        func() time.Time
}

func NewQRVerifierService(
	db *gorm.DB,
	baseLog *logger.Logger,
	codeRepo verification.QRCodeRepo,
	shipmentRepo shipments.ShipmentRepo,
	statsRepo verification.StatsRepo,
	batchSvc BatchService,
	provSvc ProvenanceService,
	gate AccessControlService,
	registry Registry,
) QRVerifierService {
	return &qrVerifierService{
		db:         db,
		log:        baseLog.With("service", "QRVerifierService"),
		codes:      codeRepo,
		shipments:  shipmentRepo,
		stats:      statsRepo,
		batches:    batchSvc,
		provenance: provSvc,
		gate:       gate,
		registry:   registry,
		now:        time.Now,
	}
}

// GenerateQRCode derives the code from batch id, clock, caller and a
// random salt. Uniqueness is probabilistic; the primary key rejects the
// astronomically unlikely collision.
func (s *qrVerifierService) GenerateQRCode(ctx context.Context, caller string, batchID uint64) (*domain.QRCode, error) {
	var created *domain.QRCode
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owner, err := s.gate.RequireActive(ctx, tx, caller)
		if err != nil {
			return err
		}
		b, err := s.batches.GetBatch(ctx, batchID)
		if err != nil {
			return err
		}
		if b.CurrentOwner != owner.Address && b.Farmer != owner.Address {
			return apperr.Unauthorizedf("stakeholder %s cannot mint codes for batch %d", owner.Address, batchID)
		}

		now := s.now().UTC()
		salt := make([]byte, 16)
		if _, err := rand.Read(salt); err != nil {
			return err
		}
		code := hashing.Keccak(
			hashing.Uint64Bytes(batchID),
			hashing.Int64Bytes(now.UnixNano()),
			salt,
			[]byte(owner.Address),
		).Hex()

		farmerName := ""
		if farmer, err := s.gate.GetStakeholder(ctx, b.Farmer); err == nil {
			farmerName = farmer.Name
		}

		created = &domain.QRCode{
			Code:             code,
			BatchID:          batchID,
			VerificationHash: hashing.Keccak([]byte(code), hashing.Uint64Bytes(batchID)).Hex(),
			ProductName:      b.Name,
			FarmerName:       farmerName,
			Origin:           b.OriginLocation,
			Active:           true,
			CreatedAt:        now,
		}
		_, err = s.codes.Create(ctx, tx, created)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("QR code minted", "batch_id", created.BatchID, "code", created.Code)
	return created, nil
}

func (s *qrVerifierService) DeactivateQRCode(ctx context.Context, caller string, code string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owner, err := s.gate.RequireActive(ctx, tx, caller)
		if err != nil {
			return err
		}
		qr, err := s.codes.GetByCode(ctx, tx, code)
		if err != nil {
			return err
		}
		if qr == nil {
			return apperr.NotFoundf("qr code %s", code)
		}
		b, err := s.batches.GetBatch(ctx, qr.BatchID)
		if err != nil {
			return err
		}
		if b.CurrentOwner != owner.Address && b.Farmer != owner.Address {
			return apperr.Unauthorizedf("stakeholder %s cannot deactivate codes for batch %d", owner.Address, qr.BatchID)
		}
		if !qr.Active {
			return nil
		}
		qr.Active = false
		return s.codes.Update(ctx, tx, qr)
	})
}

func (s *qrVerifierService) GetQRCode(ctx context.Context, code string) (*domain.QRCode, error) {
	qr, err := s.codes.GetByCode(ctx, nil, code)
	if err != nil {
		return nil, err
	}
	if qr == nil {
		return nil, apperr.NotFoundf("qr code %s", code)
	}
	return qr, nil
}

func (s *qrVerifierService) GetCanonicalQRCode(ctx context.Context, batchID uint64) (*domain.QRCode, error) {
	qr, err := s.codes.GetCanonicalByBatch(ctx, nil, batchID)
	if err != nil {
		return nil, err
	}
	if qr == nil {
		return nil, apperr.NotFoundf("no active qr code for batch %d", batchID)
	}
	return qr, nil
}

// InspectProduct assembles the scan payload without counting anything.
// It never fails once the code resolves: the four data sections are
// fetched concurrently and each one degrades on its own.
func (s *qrVerifierService) InspectProduct(ctx context.Context, code string) (*VerificationResult, error) {
	qr, err := s.codes.GetByCode(ctx, nil, code)
	if err != nil {
		return nil, err
	}
	if qr == nil {
		return nil, apperr.NotFoundf("qr code %s", code)
	}

	now := s.now().UTC()
	res := &VerificationResult{
		Code:        qr.Code,
		BatchID:     qr.BatchID,
		ProductName: qr.ProductName,
		FarmerName:  qr.FarmerName,
		ScanTime:    now.Unix(),
	}
	if !qr.Active {
		res.Valid = false
		res.Reason = "code has been deactivated"
		return res, nil
	}

	expected := hashing.Keccak([]byte(qr.Code), hashing.Uint64Bytes(qr.BatchID)).Hex()
	if qr.VerificationHash != expected {
		res.Valid = false
		res.Reason = "verification hash mismatch"
		return res, nil
	}
	res.Valid = true

	var (
		warnBatch, warnProv, warnQuality, warnShip string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := s.batches.GetBatch(gctx, qr.BatchID)
		if err != nil {
			warnBatch = "batch details unavailable"
			return nil
		}
		res.Batch = b
		return nil
	})
	g.Go(func() error {
		summary, err := s.provenance.GetChainSummary(gctx, qr.BatchID)
		if err != nil {
			warnProv = "provenance chain unavailable"
			return nil
		}
		res.Provenance = summary
		return nil
	})
	g.Go(func() error {
		quality, err := s.batches.GetQualityHistory(gctx, qr.BatchID)
		if err != nil {
			warnQuality = "quality records unavailable"
			return nil
		}
		res.Quality = quality
		return nil
	})
	g.Go(func() error {
		ships, err := s.shipments.GetByBatch(gctx, nil, qr.BatchID)
		if err != nil {
			warnShip = "shipment history unavailable"
			return nil
		}
		res.Shipments = ships
		return nil
	})
	_ = g.Wait()

	for _, w := range []string{warnBatch, warnProv, warnQuality, warnShip} {
		if w != "" {
			res.Warnings = append(res.Warnings, w)
		}
	}
	res.Degraded = len(res.Warnings) > 0

	// side sections degrade, the batch itself does not: a code pointing
	// at an unreadable batch is not a verified product
	if warnBatch != "" {
		res.Valid = false
		res.Reason = warnBatch
	}
	return res, nil
}

// VerifyProduct is a counted scan: InspectProduct plus the per-code scan
// count and the day-bucketed verification counters.
func (s *qrVerifierService) VerifyProduct(ctx context.Context, code string) (*VerificationResult, error) {
	res, err := s.InspectProduct(ctx, code)
	if err != nil {
		return nil, err
	}

	// scan bookkeeping is best effort, a failure never spoils the scan
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fresh, err := s.codes.GetByCode(ctx, tx, res.Code)
		if err != nil || fresh == nil {
			return err
		}
		fresh.ScanCount++
		if err := s.codes.Update(ctx, tx, fresh); err != nil {
			return err
		}
		now := s.now().UTC()
		st, err := s.stats.GetOrCreate(ctx, tx, now)
		if err != nil {
			return err
		}
		day := now.Unix() / 86400
		if st.DayIndex != day {
			st.DayIndex = day
			st.DayCount = 0
		}
		st.DayCount++
		st.TotalVerifications++
		st.UpdatedAt = now
		if err := s.stats.Update(ctx, tx, st); err != nil {
			return err
		}
		return s.registry.RecordVerification(ctx, tx)
	}); err != nil {
		s.log.Warn("Scan bookkeeping failed", "code", res.Code, "error", err)
	}

	return res, nil
}
