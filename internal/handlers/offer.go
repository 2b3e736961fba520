package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/agritrace/agritrace-backend/internal/domain"
	"github.com/agritrace/agritrace-backend/internal/services"
)

type OfferHandler struct {
	offers services.OfferService
}

func NewOfferHandler(offers services.OfferService) *OfferHandler {
	return &OfferHandler{offers: offers}
}

func (h *OfferHandler) CreateSell(c *gin.Context) {
	h.create(c, h.offers.CreateSellOffer)
}

func (h *OfferHandler) CreateBuy(c *gin.Context) {
	h.create(c, h.offers.CreateBuyOffer)
}

func (h *OfferHandler) CreateContract(c *gin.Context) {
	h.create(c, h.offers.CreateContractOffer)
}

func (h *OfferHandler) create(c *gin.Context, fn func(ctx context.Context, caller string, in services.CreateOfferInput) (*domain.Offer, error)) {
	var in services.CreateOfferInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondErr(c, badBody(err))
		return
	}
	o, err := fn(c.Request.Context(), caller(c), in)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondCreated(c, gin.H{"offer": o})
}

func (h *OfferHandler) Accept(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	o, err := h.offers.AcceptOffer(c.Request.Context(), caller(c), id)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"offer": o})
}

func (h *OfferHandler) Cancel(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.offers.CancelOffer(c.Request.Context(), caller(c), id); err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "ok"})
}

func (h *OfferHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	o, err := h.offers.GetOffer(c.Request.Context(), id)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"offer": o})
}

func (h *OfferHandler) Available(c *gin.Context) {
	if typ := c.Query("type"); typ != "" {
		list, err := h.offers.GetOffersByType(c.Request.Context(), domain.OfferType(typ))
		if err != nil {
			RespondErr(c, err)
			return
		}
		RespondOK(c, gin.H{"offers": list})
		return
	}
	list, err := h.offers.GetAvailableOffers(c.Request.Context(), caller(c))
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"offers": list})
}

func (h *OfferHandler) ByBatch(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	list, err := h.offers.GetOffersByBatch(c.Request.Context(), id)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"offers": list})
}

func (h *OfferHandler) Mine(c *gin.Context) {
	list, err := h.offers.GetOffersByCreator(c.Request.Context(), caller(c))
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"offers": list})
}
