package services

import (
	"context"
	"encoding/json"
	"time"

	rediscache "github.com/agritrace/agritrace-backend/internal/clients/redis"
	"github.com/agritrace/agritrace-backend/internal/data/repos/verification"
	"github.com/agritrace/agritrace-backend/internal/domain"
	"github.com/agritrace/agritrace-backend/internal/platform/logger"
)

// PublicVerificationService is the unauthenticated consumer surface.
// Every call here is a pure read; only a counted scan through the QR
// verifier moves the verification counters.
type PublicVerificationService interface {
	GetConsumerSummary(ctx context.Context, code string) (*ConsumerSummary, error)
	QuickVerify(ctx context.Context, code string) (*QuickVerifyResult, error)
	GetSupplyChainHistory(ctx context.Context, code string) ([]*domain.ProvenanceRecord, error)
	GetVerificationStats(ctx context.Context) (*domain.VerificationStats, error)
}

// ConsumerSummary is the small, cacheable payload behind a scan page.
type ConsumerSummary struct {
	Code         string             `json:"code"`
	Valid        bool               `json:"valid"`
	ProductName  string             `json:"product_name,omitempty"`
	FarmerName   string             `json:"farmer_name,omitempty"`
	Origin       string             `json:"origin,omitempty"`
	Status       domain.BatchStatus `json:"status,omitempty"`
	RecordCount  int64              `json:"record_count"`
	MerkleRoot   string             `json:"merkle_root,omitempty"`
	LastAction   string             `json:"last_action,omitempty"`
	LastLocation string             `json:"last_location,omitempty"`
	QualityKnown bool               `json:"quality_known"`
	QualityPass  bool               `json:"quality_pass"`
	Degraded     bool               `json:"degraded"`
	Warnings     []string           `json:"warnings,omitempty"`
}

type QuickVerifyResult struct {
	Code        string `json:"code"`
	Valid       bool   `json:"valid"`
	BatchID     uint64 `json:"batch_id,omitempty"`
	ProductName string `json:"product_name,omitempty"`
	Origin      string `json:"origin,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

type publicVerificationService struct {
	log      *logger.Logger
	verifier QRVerifierService
	prov     ProvenanceService
	stats    verification.StatsRepo
	cache    rediscache.SummaryCache
	now      func() time.Time
}

// NewPublicVerificationService accepts a nil cache; the service then
// recomputes every summary from the ledger.
func NewPublicVerificationService(
	baseLog *logger.Logger,
	verifier QRVerifierService,
	prov ProvenanceService,
	statsRepo verification.StatsRepo,
	cache rediscache.SummaryCache,
) PublicVerificationService {
	return &publicVerificationService{
		log:      baseLog.With("service", "PublicVerificationService"),
		verifier: verifier,
		prov:     prov,
		stats:    statsRepo,
		cache:    cache,
		now:      time.Now,
	}
}

func (s *publicVerificationService) GetConsumerSummary(ctx context.Context, code string) (*ConsumerSummary, error) {
	if s.cache != nil {
		if payload, ok := s.cache.Get(ctx, code); ok {
			var cached ConsumerSummary
			if err := json.Unmarshal([]byte(payload), &cached); err == nil {
				return &cached, nil
			}
		}
	}

	res, err := s.verifier.InspectProduct(ctx, code)
	if err != nil {
		return nil, err
	}

	summary := &ConsumerSummary{
		Code:        res.Code,
		Valid:       res.Valid,
		ProductName: res.ProductName,
		FarmerName:  res.FarmerName,
		Degraded:    res.Degraded,
		Warnings:    res.Warnings,
	}
	if res.Batch != nil {
		summary.Origin = res.Batch.OriginLocation
		summary.Status = res.Batch.Status
	}
	if res.Provenance != nil {
		summary.RecordCount = res.Provenance.RecordCount
		summary.MerkleRoot = res.Provenance.MerkleRoot
		summary.LastAction = res.Provenance.LastAction
		summary.LastLocation = res.Provenance.LastLocation
	} else if res.Batch != nil {
		// no chain yet: the product has not moved past its origin
		summary.LastLocation = res.Batch.OriginLocation
	}
	if len(res.Quality) > 0 {
		summary.QualityKnown = true
		summary.QualityPass = res.Quality[len(res.Quality)-1].Passed
	}

	// only complete summaries are cached, so a degraded read heals on
	// the next scan instead of being pinned for the TTL
	if s.cache != nil && res.Valid && !res.Degraded {
		if raw, err := json.Marshal(summary); err == nil {
			s.cache.Set(ctx, code, string(raw))
		}
	}
	return summary, nil
}

func (s *publicVerificationService) QuickVerify(ctx context.Context, code string) (*QuickVerifyResult, error) {
	qr, err := s.verifier.GetQRCode(ctx, code)
	if err != nil {
		return nil, err
	}
	out := &QuickVerifyResult{
		Code:        qr.Code,
		BatchID:     qr.BatchID,
		ProductName: qr.ProductName,
		Origin:      qr.Origin,
		Valid:       qr.Active,
	}
	if !qr.Active {
		out.Reason = "code has been deactivated"
	}
	return out, nil
}

func (s *publicVerificationService) GetSupplyChainHistory(ctx context.Context, code string) ([]*domain.ProvenanceRecord, error) {
	qr, err := s.verifier.GetQRCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.prov.GetRecords(ctx, qr.BatchID)
}

func (s *publicVerificationService) GetVerificationStats(ctx context.Context) (*domain.VerificationStats, error) {
	return s.stats.GetOrCreate(ctx, nil, s.now().UTC())
}
