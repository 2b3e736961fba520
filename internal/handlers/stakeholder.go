package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/agritrace/agritrace-backend/internal/domain"
	"github.com/agritrace/agritrace-backend/internal/services"
)

type StakeholderHandler struct {
	access services.AccessControlService
}

func NewStakeholderHandler(access services.AccessControlService) *StakeholderHandler {
	return &StakeholderHandler{access: access}
}

func (h *StakeholderHandler) Register(c *gin.Context) {
	var in services.RegisterStakeholderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondErr(c, badBody(err))
		return
	}
	sh, err := h.access.RegisterStakeholder(c.Request.Context(), caller(c), in)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondCreated(c, gin.H{"stakeholder": sh})
}

func (h *StakeholderHandler) GetMe(c *gin.Context) {
	sh, err := h.access.GetStakeholder(c.Request.Context(), caller(c))
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"me": sh})
}

func (h *StakeholderHandler) UpdateProfile(c *gin.Context) {
	var in services.ProfileUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondErr(c, badBody(err))
		return
	}
	sh, err := h.access.UpdateProfile(c.Request.Context(), caller(c), in)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"stakeholder": sh})
}

func (h *StakeholderHandler) Get(c *gin.Context) {
	sh, err := h.access.GetStakeholder(c.Request.Context(), c.Param("address"))
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"stakeholder": sh})
}

func (h *StakeholderHandler) List(c *gin.Context) {
	role := domain.Role(c.Query("role"))
	list, err := h.access.ListStakeholders(c.Request.Context(), role)
	if err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"stakeholders": list})
}

func (h *StakeholderHandler) ReassignRole(c *gin.Context) {
	var in struct {
		Role domain.Role `json:"role"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondErr(c, badBody(err))
		return
	}
	if err := h.access.ReassignRole(c.Request.Context(), caller(c), c.Param("address"), in.Role); err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "ok"})
}

func (h *StakeholderHandler) SetActive(c *gin.Context) {
	var in struct {
		Active bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondErr(c, badBody(err))
		return
	}
	if err := h.access.SetActive(c.Request.Context(), caller(c), c.Param("address"), in.Active); err != nil {
		RespondErr(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "ok"})
}
