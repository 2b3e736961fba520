package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agritrace/agritrace-backend/internal/pkg/apperr"
	"github.com/agritrace/agritrace-backend/internal/services"
)

type ProvenanceHandler struct {
	provenance services.ProvenanceService
}

func NewProvenanceHandler(provenance services.ProvenanceService) *ProvenanceHandler {
	return &ProvenanceHandler{provenance: provenance}
}

func (h *ProvenanceHandler) AddRecord(c *gin.Context) {
	var in services.AppendRecordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondErr(c, badBody(err))
		return
	}
	if id, ok := uintParam(c, "id"); ok {
		in.BatchID = id
	} else {
		return
	}
	rec, err := h.provenance.AddRecord(c.Request.Context(), caller(c), in)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondCreated(c, gin.H{"record": rec})
}

func (h *ProvenanceHandler) Finalize(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := h.provenance.FinalizeChain(c.Request.Context(), caller(c), id); err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "ok"})
}

func (h *ProvenanceHandler) Summary(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	summary, err := h.provenance.GetChainSummary(c.Request.Context(), id)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"chain": summary})
}

func (h *ProvenanceHandler) Records(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	records, err := h.provenance.GetRecords(c.Request.Context(), id)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"records": records})
}

func (h *ProvenanceHandler) Proof(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		RespondErr(c, apperr.Validationf("bad index parameter"))
		return
	}
	proof, err := h.provenance.GenerateProof(c.Request.Context(), id, index)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"proof": proof})
}

// Verify is stateless: it checks a caller-supplied proof against a
// caller-supplied root, so it works even against an exported chain.
func (h *ProvenanceHandler) Verify(c *gin.Context) {
	var in struct {
		Leaf     string   `json:"leaf"`
		Siblings []string `json:"siblings"`
		Root     string   `json:"root"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondErr(c, badBody(err))
		return
	}
	ok, err := h.provenance.VerifyProof(in.Leaf, in.Siblings, in.Root)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"valid": ok})
}
