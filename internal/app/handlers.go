package app

import (
	"github.com/agritrace/agritrace-backend/internal/handlers"
	"github.com/agritrace/agritrace-backend/internal/platform/logger"
)

type Handlers struct {
	Stakeholder  *handlers.StakeholderHandler
	Batch        *handlers.BatchHandler
	Offer        *handlers.OfferHandler
	Shipment     *handlers.ShipmentHandler
	Provenance   *handlers.ProvenanceHandler
	Verification *handlers.VerificationHandler
}

func wireHandlers(log *logger.Logger, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Stakeholder:  handlers.NewStakeholderHandler(s.AccessControl),
		Batch:        handlers.NewBatchHandler(s.Batch),
		Offer:        handlers.NewOfferHandler(s.Offer),
		Shipment:     handlers.NewShipmentHandler(s.Shipment),
		Provenance:   handlers.NewProvenanceHandler(s.Provenance),
		Verification: handlers.NewVerificationHandler(s.QRVerifier, s.Public, s.Registry),
	}
}
