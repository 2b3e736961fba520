package app

import (
	"gorm.io/gorm"

	rediscache "github.com/agritrace/agritrace-backend/internal/clients/redis"
	"github.com/agritrace/agritrace-backend/internal/oracle"
	"github.com/agritrace/agritrace-backend/internal/platform/logger"
	"github.com/agritrace/agritrace-backend/internal/services"
)

type Services struct {
	AccessControl services.AccessControlService
	Provenance    services.ProvenanceService
	Batch         services.BatchService
	Offer         services.OfferService
	Shipment      services.ShipmentService
	QRVerifier    services.QRVerifierService
	Public        services.PublicVerificationService
	Registry      services.Registry
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos) Services {
	log.Info("Wiring services...")

	priceFeed := oracle.NewIdentityPriceFeed()
	if len(cfg.PriceRates) > 0 {
		priceFeed = oracle.NewFixedRatePriceFeed(cfg.PriceRates, log)
	}

	var weatherFeed oracle.WeatherFeed
	switch cfg.WeatherFeed {
	case "http":
		weatherFeed = oracle.NewHTTPWeatherFeed(cfg.WeatherAPIURL, cfg.WeatherAPIKey, log)
	case "synthetic":
		weatherFeed = oracle.NewSyntheticWeatherFeed(log)
	default:
		weatherFeed = oracle.NewUnconfiguredWeatherFeed()
	}

	var cache rediscache.SummaryCache
	if cfg.RedisEnabled {
		c, err := rediscache.NewSummaryCache(log)
		if err != nil {
			log.Warn("Summary cache disabled", "error", err)
		} else {
			cache = c
		}
	}

	access := services.NewAccessControlService(db, log, r.Stakeholder)
	registry := services.NewRegistry(log, r.Registry)
	provSvc, appender := services.NewProvenanceService(db, log, r.Provenance, access)
	batchSvc, sales, shipRecorder := services.NewBatchService(
		db, log, r.Batch, r.Processing, r.Quality,
		access, appender, registry, priceFeed, weatherFeed,
		services.BatchConfig{CropTolerances: cfg.CropTolerances},
	)
	offerSvc := services.NewOfferService(db, log, r.Offer, r.Batch, access, sales)
	shipSvc := services.NewShipmentService(db, log, r.Shipment, batchSvc, access, shipRecorder, registry)
	verifier := services.NewQRVerifierService(db, log, r.QRCode, r.Shipment, r.Stats, batchSvc, provSvc, access, registry)
	public := services.NewPublicVerificationService(log, verifier, provSvc, r.Stats, cache)

	return Services{
		AccessControl: access,
		Provenance:    provSvc,
		Batch:         batchSvc,
		Offer:         offerSvc,
		Shipment:      shipSvc,
		QRVerifier:    verifier,
		Public:        public,
		Registry:      registry,
	}
}
