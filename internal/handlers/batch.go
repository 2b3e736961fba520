package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/agritrace/agritrace-backend/internal/domain"
	"github.com/agritrace/agritrace-backend/internal/services"
)

type BatchHandler struct {
	batches services.BatchService
}

func NewBatchHandler(batches services.BatchService) *BatchHandler {
	return &BatchHandler{batches: batches}
}

func (h *BatchHandler) Create(c *gin.Context) {
	var in services.CreateBatchInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondErr(c, badBody(err))
		return
	}
	b, err := h.batches.CreateBatch(c.Request.Context(), caller(c), in)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondCreated(c, gin.H{"batch": b})
}

func (h *BatchHandler) ListForSale(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var in struct {
		AskingPrice int64              `json:"asking_price"`
		TradingMode domain.TradingMode `json:"trading_mode"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondErr(c, badBody(err))
		return
	}
	b, err := h.batches.ListForSale(c.Request.Context(), caller(c), id, in.AskingPrice, in.TradingMode)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"batch": b})
}

func (h *BatchHandler) Process(c *gin.Context) {
	var in services.ProcessBatchInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondErr(c, badBody(err))
		return
	}
	if id, ok := uintParam(c, "id"); ok {
		in.BatchID = id
	} else {
		return
	}
	b, err := h.batches.ProcessBatch(c.Request.Context(), caller(c), in)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"batch": b})
}

func (h *BatchHandler) CheckQuality(c *gin.Context) {
	var in services.CheckQualityInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondErr(c, badBody(err))
		return
	}
	if id, ok := uintParam(c, "id"); ok {
		in.BatchID = id
	} else {
		return
	}
	rec, err := h.batches.CheckQuality(c.Request.Context(), caller(c), in)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"quality": rec})
}

func (h *BatchHandler) Receive(c *gin.Context) {
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
	b, err := h.batches.ReceiveBatch(c.Request.Context(), caller(c), id, in.Location)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"batch": b})
}

func (h *BatchHandler) Finalize(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	b, err := h.batches.FinalizeBatch(c.Request.Context(), caller(c), id)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"batch": b})
}

func (h *BatchHandler) AuthorizeBuyer(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var in struct {
		Buyer string `json:"buyer"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondErr(c, badBody(err))
		return
	}
	if err := h.batches.AuthorizeBuyer(c.Request.Context(), caller(c), id, in.Buyer); err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "ok"})
}

func (h *BatchHandler) UpdateMetadata(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var in struct {
		MetadataRef string `json:"metadata_ref"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondErr(c, badBody(err))
		return
	}
	if err := h.batches.UpdateMetadata(c.Request.Context(), caller(c), id, in.MetadataRef); err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "ok"})
}

func (h *BatchHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	b, err := h.batches.GetBatch(c.Request.Context(), id)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"batch": b})
}

func (h *BatchHandler) MarketInfo(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	info, err := h.batches.GetBatchMarketInfo(c.Request.Context(), id)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"market": info})
}

func (h *BatchHandler) Available(c *gin.Context) {
	mode := domain.TradingMode(c.DefaultQuery("mode", string(domain.TradeSpot)))
	list, err := h.batches.GetAvailableBatches(c.Request.Context(), mode)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"batches": list})
}

func (h *BatchHandler) Mine(c *gin.Context) {
	list, err := h.batches.GetBatchesByOwner(c.Request.Context(), caller(c))
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"batches": list})
}

func (h *BatchHandler) ProcessingHistory(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	list, err := h.batches.GetProcessingHistory(c.Request.Context(), id)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"processing": list})
}

func (h *BatchHandler) QualityHistory(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	list, err := h.batches.GetQualityHistory(c.Request.Context(), id)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"quality": list})
}
