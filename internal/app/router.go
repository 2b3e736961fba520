package app

import (
	"github.com/gin-gonic/gin"

	"github.com/agritrace/agritrace-backend/internal/server"
)

func wireRouter(cfg Config, h Handlers, m Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AuthMiddleware:      m.Auth,
		StakeholderHandler:  h.Stakeholder,
		BatchHandler:        h.Batch,
		OfferHandler:        h.Offer,
		ShipmentHandler:     h.Shipment,
		ProvenanceHandler:   h.Provenance,
		VerificationHandler: h.Verification,
		AllowOrigins:        cfg.AllowOrigins,
	})
}
