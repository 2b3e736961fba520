package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agritrace/agritrace-backend/internal/pkg/apperr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// RespondErr maps the service error taxonomy onto HTTP statuses; anything
// outside the taxonomy is a 500 with the message masked.
func RespondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrUnauthorized):
		respond(c, http.StatusForbidden, "unauthorized", err)
	case errors.Is(err, apperr.ErrNotFound):
		respond(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, apperr.ErrInvalidState):
		respond(c, http.StatusConflict, "invalid_state", err)
	case errors.Is(err, apperr.ErrValidation):
		respond(c, http.StatusBadRequest, "validation", err)
	default:
		c.JSON(http.StatusInternalServerError, ErrorEnvelope{
			Error: APIError{Message: "internal error", Code: "internal"},
		})
	}
}

func respond(c *gin.Context, status int, code string, err error) {
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: err.Error(), Code: code}})
}

// caller returns the authenticated stakeholder address set by the auth
// middleware.
func caller(c *gin.Context) string {
	return c.GetString("caller")
}

func uintParam(c *gin.Context, name string) (uint64, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		respond(c, http.StatusBadRequest, "validation", errors.New("bad "+name+" parameter"))
		return 0, false
	}
	return v, true
}

func badBody(err error) error {
	return apperr.Validationf("bad request body: %v", err)
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
