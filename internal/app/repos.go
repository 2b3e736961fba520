package app

import (
	"gorm.io/gorm"

	"github.com/agritrace/agritrace-backend/internal/data/repos/analytics"
	"github.com/agritrace/agritrace-backend/internal/data/repos/batches"
	"github.com/agritrace/agritrace-backend/internal/data/repos/offers"
	"github.com/agritrace/agritrace-backend/internal/data/repos/provenance"
	"github.com/agritrace/agritrace-backend/internal/data/repos/shipments"
	"github.com/agritrace/agritrace-backend/internal/data/repos/stakeholders"
	"github.com/agritrace/agritrace-backend/internal/data/repos/verification"
	"github.com/agritrace/agritrace-backend/internal/platform/logger"
)

type Repos struct {
	Stakeholder stakeholders.StakeholderRepo
	Batch       batches.BatchRepo
	Processing  batches.ProcessingRepo
	Quality     batches.QualityRepo
	Offer       offers.OfferRepo
	Shipment    shipments.ShipmentRepo
	Provenance  provenance.ProvenanceRepo
	QRCode      verification.QRCodeRepo
	Stats       verification.StatsRepo
	Registry    analytics.RegistryRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Stakeholder: stakeholders.NewStakeholderRepo(db, log),
		Batch:       batches.NewBatchRepo(db, log),
		Processing:  batches.NewProcessingRepo(db, log),
		Quality:     batches.NewQualityRepo(db, log),
		Offer:       offers.NewOfferRepo(db, log),
		Shipment:    shipments.NewShipmentRepo(db, log),
		Provenance:  provenance.NewProvenanceRepo(db, log),
		QRCode:      verification.NewQRCodeRepo(db, log),
		Stats:       verification.NewStatsRepo(db, log),
		Registry:    analytics.NewRegistryRepo(db, log),
	}
}
