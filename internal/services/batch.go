package services

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/internal/data/repos/batches"
	"github.com/agritrace/agritrace-backend/internal/domain"
	"github.com/agritrace/agritrace-backend/internal/oracle"
	"github.com/agritrace/agritrace-backend/internal/pkg/apperr"
	"github.com/agritrace/agritrace-backend/internal/platform/logger"
)

// BatchService owns the batch lifecycle. Transitions are not driven by a
// single shared table: each operation asserts its own precondition on
// current status and ownership.
type BatchService interface {
	CreateBatch(ctx context.Context, caller string, in CreateBatchInput) (*domain.Batch, error)
	ListForSale(ctx context.Context, caller string, batchID uint64, askingPrice int64, mode domain.TradingMode) (*domain.Batch, error)
	ProcessBatch(ctx context.Context, caller string, in ProcessBatchInput) (*domain.Batch, error)
	CheckQuality(ctx context.Context, caller string, in CheckQualityInput) (*domain.QualityRecord, error)
	ReceiveBatch(ctx context.Context, caller string, batchID uint64, location string) (*domain.Batch, error)
	FinalizeBatch(ctx context.Context, caller string, batchID uint64) (*domain.Batch, error)
	AuthorizeBuyer(ctx context.Context, caller string, batchID uint64, buyer string) error
	UpdateMetadata(ctx context.Context, caller string, batchID uint64, metadataRef string) error

	GetBatch(ctx context.Context, batchID uint64) (*domain.Batch, error)
	GetBatchMarketInfo(ctx context.Context, batchID uint64) (*BatchMarketInfo, error)
	GetAvailableBatches(ctx context.Context, mode domain.TradingMode) ([]*domain.Batch, error)
	GetBatchesByOwner(ctx context.Context, owner string) ([]*domain.Batch, error)
	GetProcessingHistory(ctx context.Context, batchID uint64) ([]*domain.ProcessingRecord, error)
	GetQualityHistory(ctx context.Context, batchID uint64) ([]*domain.QualityRecord, error)
}

// SaleRecorder and ShipmentRecorder are the capability boundary replacing
// the original sibling-contract trust: only the marketplace holds a
// SaleRecorder, only logistics holds a ShipmentRecorder, and neither
// entry point re-derives authorization from the caller.
type SaleRecorder interface {
	MarkAsSold(ctx context.Context, tx *gorm.DB, batchID uint64, buyer string, price int64) error
}

type ShipmentRecorder interface {
	AddShipmentRef(ctx context.Context, tx *gorm.DB, batchID uint64, shipper, location string) error
}

type CreateBatchInput struct {
	Name            string             `json:"name"`
	Description     string             `json:"description"`
	Quantity        int64              `json:"quantity"`
	BasePrice       int64              `json:"base_price"`
	OriginLocation  string             `json:"origin_location"`
	MetadataRef     string             `json:"metadata_ref"`
	TradingMode     domain.TradingMode `json:"trading_mode"`
	RequiresWeather bool               `json:"requires_weather"`
	PriceFeedRef    string             `json:"price_feed_ref"`
}

type ProcessBatchInput struct {
	BatchID        uint64 `json:"batch_id"`
	Method         string `json:"method"`
	OutputQuantity int64  `json:"output_quantity"`
	Notes          string `json:"notes"`
	Location       string `json:"location"`
}

type CheckQualityInput struct {
	BatchID  uint64 `json:"batch_id"`
	Purity   int64  `json:"purity"`
	Moisture int64  `json:"moisture"`
	Notes    string `json:"notes"`
	Location string `json:"location"`
}

type BatchMarketInfo struct {
	BatchID     uint64             `json:"batch_id"`
	BasePrice   int64              `json:"base_price"`
	MarketPrice int64              `json:"market_price"`
	TradingMode domain.TradingMode `json:"trading_mode"`
	Available   bool               `json:"available"`
	Quantity    int64              `json:"quantity"`
}

// WeatherTolerance is the per-crop listing window. Readings are x100
// scaled, so MaxTempDelta 500 means five degrees.
type WeatherTolerance struct {
	MaxTempDelta        int64 `yaml:"max_temp_delta"`
	MaxHumidityDeltaPct int64 `yaml:"max_humidity_delta_pct"`
	MaxRainfallRise     int64 `yaml:"max_rainfall_rise"`
}

var DefaultWeatherTolerance = WeatherTolerance{
	MaxTempDelta:        500,
	MaxHumidityDeltaPct: 10,
	MaxRainfallRise:     5000,
}

type BatchConfig struct {
	// CropTolerances is keyed by lowercased crop name; crops without an
	// entry use DefaultWeatherTolerance.
	CropTolerances map[string]WeatherTolerance
}

type batchService struct {
	db         *gorm.DB
	log        *logger.Logger
	batches    batches.BatchRepo
	processing batches.ProcessingRepo
	quality    batches.QualityRepo
	gate       AccessControlService
	provenance ProvenanceAppender
	registry   Registry
	priceFeed  oracle.PriceFeed
	weather    oracle.WeatherFeed
	cfg        BatchConfig
	now        func() time.Time
}

// NewBatchService returns the public service plus the two mutation
// capabilities, which the wiring hands to exactly one holder each.
func NewBatchService(
	db *gorm.DB,
	baseLog *logger.Logger,
	batchRepo batches.BatchRepo,
	processingRepo batches.ProcessingRepo,
	qualityRepo batches.QualityRepo,
	gate AccessControlService,
	prov ProvenanceAppender,
	registry Registry,
	priceFeed oracle.PriceFeed,
	weather oracle.WeatherFeed,
	cfg BatchConfig,
) (BatchService, SaleRecorder, ShipmentRecorder) {
	s := &batchService{
		db:         db,
		log:        baseLog.With("service", "BatchService"),
		batches:    batchRepo,
		processing: processingRepo,
		quality:    qualityRepo,
		gate:       gate,
		provenance: prov,
		registry:   registry,
		priceFeed:  priceFeed,
		weather:    weather,
		cfg:        cfg,
		now:        time.Now,
	}
	return s, s, s
}

func (s *batchService) tolerance(cropName string) WeatherTolerance {
	if tol, ok := s.cfg.CropTolerances[strings.ToLower(cropName)]; ok {
		return tol
	}
	return DefaultWeatherTolerance
}

func (s *batchService) CreateBatch(ctx context.Context, caller string, in CreateBatchInput) (*domain.Batch, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.Validationf("batch name must not be empty")
	}
	if in.Quantity <= 0 {
		return nil, apperr.Validationf("batch quantity must be positive")
	}
	mode := in.TradingMode
	if mode == "" {
		mode = domain.TradeSpot
	}
	if !mode.Valid() {
		return nil, apperr.Validationf("unknown trading mode %q", mode)
	}

	var created *domain.Batch
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		farmer, err := s.gate.RequireActiveRole(ctx, tx, caller, domain.RoleFarmer)
		if err != nil {
			return err
		}
		now := s.now().UTC()

		marketPrice, err := s.priceFeed.Convert(ctx, in.BasePrice, in.PriceFeedRef)
		if err != nil {
			return apperr.Wrap(apperr.ErrValidation, "price conversion failed", err)
		}

		b := &domain.Batch{
			Farmer:          farmer.Address,
			CurrentOwner:    farmer.Address,
			Name:            in.Name,
			Description:     in.Description,
			Quantity:        in.Quantity,
			BasePrice:       in.BasePrice,
			MarketPrice:     marketPrice,
			PriceFeedRef:    in.PriceFeedRef,
			OriginLocation:  in.OriginLocation,
			MetadataRef:     in.MetadataRef,
			Status:          domain.BatchCreated,
			TradingMode:     mode,
			Available:       true,
			RequiresWeather: in.RequiresWeather,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		if in.RequiresWeather && s.weather.Configured() {
			snap, err := s.weather.Current(ctx, in.OriginLocation)
			if err != nil {
				// oracle downtime must not block batch creation
				s.log.Warn("Weather snapshot unavailable at creation", "error", err)
			} else {
				b.Weather = snap
				b.WeatherCaptured = true
			}
		}

		if _, err := s.batches.Create(ctx, tx, b); err != nil {
			return err
		}
		if _, err := s.provenance.Append(ctx, tx, AppendRecordInput{
			BatchID:     b.ID,
			Actor:       farmer.Address,
			Action:      "CREATED",
			Location:    in.OriginLocation,
			MetadataRef: in.MetadataRef,
		}); err != nil {
			return err
		}
		if err := s.registry.RecordBatchCreated(ctx, tx, b); err != nil {
			return err
		}
		created = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Batch created", "batch_id", created.ID, "farmer", created.Farmer)
	return created, nil
}

func (s *batchService) requireOwnedBatch(ctx context.Context, tx *gorm.DB, caller string, batchID uint64) (*domain.Batch, *domain.Stakeholder, error) {
	sh, err := s.gate.RequireActive(ctx, tx, caller)
	if err != nil {
		return nil, nil, err
	}
	b, err := s.batches.GetByID(ctx, tx, batchID)
	if err != nil {
		return nil, nil, err
	}
	if b == nil {
		return nil, nil, apperr.NotFoundf("batch %d", batchID)
	}
	if b.CurrentOwner != sh.Address {
		return nil, nil, apperr.Unauthorizedf("stakeholder %s does not own batch %d", sh.Address, batchID)
	}
	return b, sh, nil
}

func (s *batchService) ListForSale(ctx context.Context, caller string, batchID uint64, askingPrice int64, mode domain.TradingMode) (*domain.Batch, error) {
	if askingPrice <= 0 {
		return nil, apperr.Validationf("asking price must be positive")
	}
	if mode != "" && !mode.Valid() {
		return nil, apperr.Validationf("unknown trading mode %q", mode)
	}

	var listed *domain.Batch
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, owner, err := s.requireOwnedBatch(ctx, tx, caller, batchID)
		if err != nil {
			return err
		}
		if b.Status == domain.BatchListed {
			return apperr.InvalidStatef("batch %d is already listed", batchID)
		}
		if b.Status != domain.BatchCreated {
			return apperr.InvalidStatef("batch %d cannot be listed from status %s", batchID, b.Status)
		}

		if b.RequiresWeather && b.WeatherCaptured && s.weather.Configured() {
			current, err := s.weather.Current(ctx, b.OriginLocation)
			if err != nil {
				return apperr.Wrap(apperr.ErrValidation, "weather re-check failed", err)
			}
			if !weatherSuitable(b.Weather, current, s.tolerance(b.Name)) {
				return apperr.Validationf("current weather outside tolerance window for %s", b.Name)
			}
		}

		marketPrice, err := s.priceFeed.Convert(ctx, askingPrice, b.PriceFeedRef)
		if err != nil {
			return apperr.Wrap(apperr.ErrValidation, "price conversion failed", err)
		}

		b.BasePrice = askingPrice
		b.MarketPrice = marketPrice
		if mode != "" {
			b.TradingMode = mode
		}
		b.Status = domain.BatchListed
		b.Available = true
		b.UpdatedAt = s.now().UTC()
		if err := s.batches.Update(ctx, tx, b); err != nil {
			return err
		}
		if _, err := s.provenance.Append(ctx, tx, AppendRecordInput{
			BatchID:  b.ID,
			Actor:    owner.Address,
			Action:   "LISTED",
			Location: b.OriginLocation,
		}); err != nil {
			return err
		}
		listed = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return listed, nil
}

func weatherSuitable(snapshot, current domain.WeatherSnapshot, tol WeatherTolerance) bool {
	tempDelta := current.Temperature - snapshot.Temperature
	if tempDelta < 0 {
		tempDelta = -tempDelta
	}
	if tempDelta > tol.MaxTempDelta {
		return false
	}
	humidityDelta := current.Humidity - snapshot.Humidity
	if humidityDelta < 0 {
		humidityDelta = -humidityDelta
	}
	if humidityDelta > snapshot.Humidity*tol.MaxHumidityDeltaPct/100 {
		return false
	}
	if current.Rainfall > snapshot.Rainfall+tol.MaxRainfallRise {
		return false
	}
	return true
}

// MarkAsSold is reachable only through the SaleRecorder capability; the
// marketplace validated the trade, so no caller-role check happens here.
func (s *batchService) MarkAsSold(ctx context.Context, tx *gorm.DB, batchID uint64, buyer string, price int64) error {
	b, err := s.batches.GetByID(ctx, tx, batchID)
	if err != nil {
		return err
	}
	if b == nil {
		return apperr.NotFoundf("batch %d", batchID)
	}
	if b.Status == domain.BatchSold {
		return apperr.InvalidStatef("batch %d already sold", batchID)
	}

	buyerAddr := domain.NormalizeAddress(buyer)
	b.CurrentOwner = buyerAddr
	b.BasePrice = price
	marketPrice, err := s.priceFeed.Convert(ctx, price, b.PriceFeedRef)
	if err != nil {
		return apperr.Wrap(apperr.ErrValidation, "price conversion failed", err)
	}
	b.MarketPrice = marketPrice
	b.Status = domain.BatchSold
	b.Available = false
	b.UpdatedAt = s.now().UTC()
	if err := s.batches.Update(ctx, tx, b); err != nil {
		return err
	}
	if _, err := s.provenance.Append(ctx, tx, AppendRecordInput{
		BatchID:  b.ID,
		Actor:    buyerAddr,
		Action:   "SOLD",
		Location: b.OriginLocation,
	}); err != nil {
		return err
	}
	return s.registry.RecordTrade(ctx, tx, b, price)
}

// AddShipmentRef is reachable only through the ShipmentRecorder
// capability held by logistics.
func (s *batchService) AddShipmentRef(ctx context.Context, tx *gorm.DB, batchID uint64, shipper, location string) error {
	b, err := s.batches.GetByID(ctx, tx, batchID)
	if err != nil {
		return err
	}
	if b == nil {
		return apperr.NotFoundf("batch %d", batchID)
	}
	if b.Status != domain.BatchSold {
		return apperr.InvalidStatef("batch %d cannot ship from status %s", batchID, b.Status)
	}
	b.Status = domain.BatchShipped
	b.UpdatedAt = s.now().UTC()
	if err := s.batches.Update(ctx, tx, b); err != nil {
		return err
	}
	_, err = s.provenance.Append(ctx, tx, AppendRecordInput{
		BatchID:  b.ID,
		Actor:    domain.NormalizeAddress(shipper),
		Action:   "SHIPPED",
		Location: location,
	})
	return err
}

func (s *batchService) ReceiveBatch(ctx context.Context, caller string, batchID uint64, location string) (*domain.Batch, error) {
	var received *domain.Batch
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, owner, err := s.requireOwnedBatch(ctx, tx, caller, batchID)
		if err != nil {
			return err
		}
		if b.Status != domain.BatchShipped {
			return apperr.InvalidStatef("batch %d cannot be received from status %s", batchID, b.Status)
		}
		b.Status = domain.BatchReceived
		b.UpdatedAt = s.now().UTC()
		if err := s.batches.Update(ctx, tx, b); err != nil {
			return err
		}
		if _, err := s.provenance.Append(ctx, tx, AppendRecordInput{
			BatchID:  b.ID,
			Actor:    owner.Address,
			Action:   "RECEIVED",
			Location: location,
		}); err != nil {
			return err
		}
		received = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return received, nil
}

// ProcessBatch replaces the batch quantity with the declared output; the
// processing snapshot is the only trace of the yield loss.
func (s *batchService) ProcessBatch(ctx context.Context, caller string, in ProcessBatchInput) (*domain.Batch, error) {
	if in.OutputQuantity <= 0 {
		return nil, apperr.Validationf("output quantity must be positive")
	}
	if strings.TrimSpace(in.Method) == "" {
		return nil, apperr.Validationf("processing method must not be empty")
	}

	var processed *domain.Batch
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, owner, err := s.requireOwnedBatch(ctx, tx, caller, in.BatchID)
		if err != nil {
			return err
		}
		if owner.Role != domain.RoleProcessor {
			return apperr.Unauthorizedf("stakeholder %s is not a processor", owner.Address)
		}
		if b.Status != domain.BatchReceived {
			return apperr.InvalidStatef("batch %d cannot be processed from status %s", in.BatchID, b.Status)
		}

		now := s.now().UTC()
		rec := &domain.ProcessingRecord{
			BatchID:        b.ID,
			Processor:      owner.Address,
			Method:         in.Method,
			InputQuantity:  b.Quantity,
			OutputQuantity: in.OutputQuantity,
			Notes:          in.Notes,
			CreatedAt:      now,
		}
		if s.weather.Configured() {
			if snap, err := s.weather.Current(ctx, in.Location); err == nil {
				rec.Weather = snap
			}
		}
		if _, err := s.processing.Create(ctx, tx, rec); err != nil {
			return err
		}

		b.Quantity = in.OutputQuantity
		b.Status = domain.BatchProcessed
		b.UpdatedAt = now
		if err := s.batches.Update(ctx, tx, b); err != nil {
			return err
		}
		if _, err := s.provenance.Append(ctx, tx, AppendRecordInput{
			BatchID:  b.ID,
			Actor:    owner.Address,
			Action:   "PROCESSED",
			Location: in.Location,
		}); err != nil {
			return err
		}
		processed = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return processed, nil
}

// CheckQuality records the pass/fail heuristic but always advances the
// batch to QUALITY_CHECKED, pass or fail. The asymmetry is inherited
// behavior and is pinned by tests.
func (s *batchService) CheckQuality(ctx context.Context, caller string, in CheckQualityInput) (*domain.QualityRecord, error) {
	var rec *domain.QualityRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inspector, err := s.gate.RequireActiveRole(ctx, tx, caller, domain.RoleProcessor)
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
		if b.Status != domain.BatchProcessed {
			return apperr.InvalidStatef("batch %d cannot be quality checked from status %s", in.BatchID, b.Status)
		}

		now := s.now().UTC()
		passed := in.Purity >= 80 && in.Moisture <= 15
		rec = &domain.QualityRecord{
			BatchID:   b.ID,
			Inspector: inspector.Address,
			Purity:    in.Purity,
			Moisture:  in.Moisture,
			Passed:    passed,
			Notes:     in.Notes,
			CreatedAt: now,
		}
		if s.weather.Configured() {
			if snap, err := s.weather.Current(ctx, in.Location); err == nil {
				rec.Weather = snap
			}
		}
		if _, err := s.quality.Create(ctx, tx, rec); err != nil {
			return err
		}

		b.Status = domain.BatchQualityChecked
		b.UpdatedAt = now
		if err := s.batches.Update(ctx, tx, b); err != nil {
			return err
		}
		_, err = s.provenance.Append(ctx, tx, AppendRecordInput{
			BatchID:  b.ID,
			Actor:    inspector.Address,
			Action:   "QUALITY_CHECKED",
			Location: in.Location,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if !rec.Passed {
		s.log.Warn("Quality check failed but status advanced",
			"batch_id", rec.BatchID, "purity", rec.Purity, "moisture", rec.Moisture)
	}
	return rec, nil
}

func (s *batchService) FinalizeBatch(ctx context.Context, caller string, batchID uint64) (*domain.Batch, error) {
	var finalized *domain.Batch
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, owner, err := s.requireOwnedBatch(ctx, tx, caller, batchID)
		if err != nil {
			return err
		}
		if b.Status != domain.BatchQualityChecked {
			return apperr.InvalidStatef("batch %d cannot be finalized from status %s", batchID, b.Status)
		}
		b.Status = domain.BatchFinalized
		b.Available = false
		b.UpdatedAt = s.now().UTC()
		if err := s.batches.Update(ctx, tx, b); err != nil {
			return err
		}
		if _, err := s.provenance.Append(ctx, tx, AppendRecordInput{
			BatchID:  b.ID,
			Actor:    owner.Address,
			Action:   "FINALIZED",
			Location: b.OriginLocation,
		}); err != nil {
			return err
		}
		finalized = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return finalized, nil
}

func (s *batchService) AuthorizeBuyer(ctx context.Context, caller string, batchID uint64, buyer string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, _, err := s.requireOwnedBatch(ctx, tx, caller, batchID)
		if err != nil {
			return err
		}
		buyerAddr := domain.NormalizeAddress(buyer)
		if buyerAddr == "" {
			return apperr.Validationf("buyer address must not be empty")
		}
		for _, existing := range b.AuthorizedBuyerList() {
			if existing == buyerAddr {
				return nil
			}
		}
		b.SetAuthorizedBuyers(append(b.AuthorizedBuyerList(), buyerAddr))
		b.UpdatedAt = s.now().UTC()
		return s.batches.Update(ctx, tx, b)
	})
}

func (s *batchService) UpdateMetadata(ctx context.Context, caller string, batchID uint64, metadataRef string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, _, err := s.requireOwnedBatch(ctx, tx, caller, batchID)
		if err != nil {
			return err
		}
		b.MetadataRef = metadataRef
		b.UpdatedAt = s.now().UTC()
		return s.batches.Update(ctx, tx, b)
	})
}

func (s *batchService) GetBatch(ctx context.Context, batchID uint64) (*domain.Batch, error) {
	b, err := s.batches.GetByID(ctx, nil, batchID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperr.NotFoundf("batch %d", batchID)
	}
	return b, nil
}

func (s *batchService) GetBatchMarketInfo(ctx context.Context, batchID uint64) (*BatchMarketInfo, error) {
	b, err := s.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	return &BatchMarketInfo{
		BatchID:     b.ID,
		BasePrice:   b.BasePrice,
		MarketPrice: b.MarketPrice,
		TradingMode: b.TradingMode,
		Available:   b.Available,
		Quantity:    b.Quantity,
	}, nil
}

func (s *batchService) GetAvailableBatches(ctx context.Context, mode domain.TradingMode) ([]*domain.Batch, error) {
	if !mode.Valid() {
		return nil, apperr.Validationf("unknown trading mode %q", mode)
	}
	return s.batches.GetAvailableByMode(ctx, nil, mode)
}

func (s *batchService) GetBatchesByOwner(ctx context.Context, owner string) ([]*domain.Batch, error) {
	return s.batches.GetByOwner(ctx, nil, owner)
}

func (s *batchService) GetProcessingHistory(ctx context.Context, batchID uint64) ([]*domain.ProcessingRecord, error) {
	return s.processing.GetByBatch(ctx, nil, batchID)
}

func (s *batchService) GetQualityHistory(ctx context.Context, batchID uint64) ([]*domain.QualityRecord, error) {
	return s.quality.GetByBatch(ctx, nil, batchID)
}
