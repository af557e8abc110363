package handler

import (
	"errors"
	"net/http"

	"taskapi/internal/model"
	"taskapi/internal/service"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error      string            `json:"error" example:"invalid input"`
	Detail     string            `json:"detail,omitempty"`
	Violations []model.Violation `json:"violations,omitempty"`
}

// respondError maps a service failure to its status code. Specific failures
// are matched before the generic 500.
func respondError(c *gin.Context, err error) {
	var verr *service.ValidationError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:      "validation failed",
			Detail:     verr.Messages(),
			Violations: verr.Violations,
		})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: service.ErrInvalidInput.Error(), Detail: err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: service.ErrNotFound.Error(), Detail: err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Detail: err.Error()})
	}
}
