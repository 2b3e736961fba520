package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/agritrace/agritrace-backend/internal/handlers"
	"github.com/agritrace/agritrace-backend/internal/middleware"
)

type RouterConfig struct {
	AuthMiddleware      *middleware.AuthMiddleware
	StakeholderHandler  *handlers.StakeholderHandler
	BatchHandler        *handlers.BatchHandler
	OfferHandler        *handlers.OfferHandler
	ShipmentHandler     *handlers.ShipmentHandler
	ProvenanceHandler   *handlers.ProvenanceHandler
	VerificationHandler *handlers.VerificationHandler
	AllowOrigins        []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5174"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	public := router.Group("/public")
	{
		public.GET("/verify/:code", cfg.VerificationHandler.Verify)
		public.GET("/verify/:code/summary", cfg.VerificationHandler.Summary)
		public.GET("/verify/:code/quick", cfg.VerificationHandler.Quick)
		public.GET("/verify/:code/history", cfg.VerificationHandler.History)
		public.GET("/stats", cfg.VerificationHandler.Stats)
		public.POST("/provenance/verify", cfg.ProvenanceHandler.Verify)
		public.GET("/track/:tracking_id", cfg.ShipmentHandler.Track)
	}

	// ===============
	// || Protected ||
	// ===============
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())

	// Stakeholders
	api.GET("/me", cfg.StakeholderHandler.GetMe)
	api.PUT("/me", cfg.StakeholderHandler.UpdateProfile)
	api.POST("/stakeholders", cfg.StakeholderHandler.Register)
	api.GET("/stakeholders", cfg.StakeholderHandler.List)
	api.GET("/stakeholders/:address", cfg.StakeholderHandler.Get)
	api.PUT("/stakeholders/:address/role", cfg.StakeholderHandler.ReassignRole)
	api.PUT("/stakeholders/:address/active", cfg.StakeholderHandler.SetActive)

	// Batches
	api.POST("/batches", cfg.BatchHandler.Create)
	api.GET("/batches", cfg.BatchHandler.Available)
	api.GET("/batches/mine", cfg.BatchHandler.Mine)
	api.GET("/batches/:id", cfg.BatchHandler.Get)
	api.GET("/batches/:id/market", cfg.BatchHandler.MarketInfo)
	api.POST("/batches/:id/list", cfg.BatchHandler.ListForSale)
	api.POST("/batches/:id/process", cfg.BatchHandler.Process)
	api.POST("/batches/:id/quality", cfg.BatchHandler.CheckQuality)
	api.POST("/batches/:id/receive", cfg.BatchHandler.Receive)
	api.POST("/batches/:id/finalize", cfg.BatchHandler.Finalize)
	api.POST("/batches/:id/authorize-buyer", cfg.BatchHandler.AuthorizeBuyer)
	api.PUT("/batches/:id/metadata", cfg.BatchHandler.UpdateMetadata)
	api.GET("/batches/:id/processing", cfg.BatchHandler.ProcessingHistory)
	api.GET("/batches/:id/quality", cfg.BatchHandler.QualityHistory)

	// Marketplace
	api.POST("/offers/sell", cfg.OfferHandler.CreateSell)
	api.POST("/offers/buy", cfg.OfferHandler.CreateBuy)
	api.POST("/offers/contract", cfg.OfferHandler.CreateContract)
	api.GET("/offers", cfg.OfferHandler.Available)
	api.GET("/offers/mine", cfg.OfferHandler.Mine)
	api.GET("/offers/:id", cfg.OfferHandler.Get)
	api.POST("/offers/:id/accept", cfg.OfferHandler.Accept)
	api.POST("/offers/:id/cancel", cfg.OfferHandler.Cancel)
	api.GET("/batches/:id/offers", cfg.OfferHandler.ByBatch)

	// Logistics
	api.POST("/shipments", cfg.ShipmentHandler.Create)
	api.GET("/shipments/mine", cfg.ShipmentHandler.Mine)
	api.GET("/shipments/:id", cfg.ShipmentHandler.Get)
	api.GET("/shipments/:id/checkpoints", cfg.ShipmentHandler.Checkpoints)
	api.POST("/shipments/:id/pickup", cfg.ShipmentHandler.ConfirmPickup)
	api.POST("/shipments/:id/location", cfg.ShipmentHandler.UpdateLocation)
	api.POST("/shipments/:id/delivered", cfg.ShipmentHandler.MarkDelivered)
	api.POST("/shipments/:id/confirm", cfg.ShipmentHandler.ConfirmDelivery)

	// Provenance
	api.POST("/batches/:id/provenance", cfg.ProvenanceHandler.AddRecord)
	api.POST("/batches/:id/provenance/finalize", cfg.ProvenanceHandler.Finalize)
	api.GET("/batches/:id/provenance", cfg.ProvenanceHandler.Records)
	api.GET("/batches/:id/provenance/summary", cfg.ProvenanceHandler.Summary)
	api.GET("/batches/:id/provenance/proof/:index", cfg.ProvenanceHandler.Proof)

	// QR codes
	api.POST("/batches/:id/qr", cfg.VerificationHandler.Generate)
	api.GET("/batches/:id/qr", cfg.VerificationHandler.Canonical)
	api.POST("/qr/:code/deactivate", cfg.VerificationHandler.Deactivate)

	return router
}
