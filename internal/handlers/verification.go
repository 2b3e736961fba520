package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/agritrace/agritrace-backend/internal/services"
)

// VerificationHandler serves both the stakeholder-facing QR management
// endpoints and the unauthenticated consumer scan endpoints.
type VerificationHandler struct {
	verifier services.QRVerifierService
	public   services.PublicVerificationService
	registry services.Registry
}

func NewVerificationHandler(verifier services.QRVerifierService, public services.PublicVerificationService, registry services.Registry) *VerificationHandler {
	return &VerificationHandler{verifier: verifier, public: public, registry: registry}
}

func (h *VerificationHandler) Generate(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	qr, err := h.verifier.GenerateQRCode(c.Request.Context(), caller(c), id)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondCreated(c, gin.H{"qr_code": qr})
}

func (h *VerificationHandler) Deactivate(c *gin.Context) {
	if err := h.verifier.DeactivateQRCode(c.Request.Context(), caller(c), c.Param("code")); err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "ok"})
}

func (h *VerificationHandler) Canonical(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	qr, err := h.verifier.GetCanonicalQRCode(c.Request.Context(), id)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"qr_code": qr})
}

// Verify returns the full scan payload. The route is public: anyone
// holding the physical product can check it.
func (h *VerificationHandler) Verify(c *gin.Context) {
	res, err := h.verifier.VerifyProduct(c.Request.Context(), c.Param("code"))
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"verification": res})
}

func (h *VerificationHandler) Summary(c *gin.Context) {
	summary, err := h.public.GetConsumerSummary(c.Request.Context(), c.Param("code"))
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"summary": summary})
}

func (h *VerificationHandler) Quick(c *gin.Context) {
	res, err := h.public.QuickVerify(c.Request.Context(), c.Param("code"))
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"result": res})
}

func (h *VerificationHandler) History(c *gin.Context) {
	records, err := h.public.GetSupplyChainHistory(c.Request.Context(), c.Param("code"))
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"history": records})
}

func (h *VerificationHandler) Stats(c *gin.Context) {
	verif, err := h.public.GetVerificationStats(c.Request.Context())
	if err != nil {
		RespondErr(c, err)
		return
	}
	reg, err := h.registry.GetStats(c.Request.Context())
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"verification": verif, "registry": reg})
}
