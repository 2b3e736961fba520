package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/agritrace/agritrace-backend/internal/domain"
	"github.com/agritrace/agritrace-backend/internal/services"
)

type ShipmentHandler struct {
	shipments services.ShipmentService
}

func NewShipmentHandler(shipments services.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{shipments: shipments}
}

func (h *ShipmentHandler) Create(c *gin.Context) {
	var in services.CreateShipmentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondErr(c, badBody(err))
		return
	}
	ship, err := h.shipments.CreateShipment(c.Request.Context(), caller(c), in)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondCreated(c, gin.H{"shipment": ship})
}

func (h *ShipmentHandler) ConfirmPickup(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var in struct {
		Location string `json:"location"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondErr(c, badBody(err))
		return
	}
	ship, err := h.shipments.ConfirmPickup(c.Request.Context(), caller(c), id, in.Location)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"shipment": ship})
}

func (h *ShipmentHandler) UpdateLocation(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var in struct {
		Location string `json:"location"`
		Note     string `json:"note"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondErr(c, badBody(err))
		return
	}
	ship, err := h.shipments.UpdateLocation(c.Request.Context(), caller(c), id, in.Location, in.Note)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"shipment": ship})
}

func (h *ShipmentHandler) MarkDelivered(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var in struct {
		Location string `json:"location"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondErr(c, badBody(err))
		return
	}
	ship, err := h.shipments.MarkDelivered(c.Request.Context(), caller(c), id, in.Location)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"shipment": ship})
}

func (h *ShipmentHandler) ConfirmDelivery(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	ship, err := h.shipments.ConfirmDelivery(c.Request.Context(), caller(c), id)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"shipment": ship})
}

func (h *ShipmentHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	ship, err := h.shipments.GetShipment(c.Request.Context(), id)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"shipment": ship})
}

func (h *ShipmentHandler) Checkpoints(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	cps, err := h.shipments.GetCheckpoints(c.Request.Context(), id)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"checkpoints": cps})
}

func (h *ShipmentHandler) Track(c *gin.Context) {
	ship, err := h.shipments.GetShipmentByTrackingID(c.Request.Context(), c.Param("tracking_id"))
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"shipment": ship})
}

func (h *ShipmentHandler) Mine(c *gin.Context) {
	status := domain.ShipmentStatus(c.DefaultQuery("status", string(domain.ShipmentCreated)))
	list, err := h.shipments.GetUserShipmentsByStatus(c.Request.Context(), caller(c), status)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"shipments": list})
}
