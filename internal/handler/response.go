package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"paycore/internal/domain"
	"paycore/internal/provider"
	"paycore/internal/repository"
	"paycore/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code == http.StatusInternalServerError {
		// Unclassified failures stay generic toward callers; the detail is
		// in the server log.
		c.Error(err)
		c.JSON(code, ErrorResponse{Error: "internal error"})
		return
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps domain and service errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, service.ErrOrderNumberNotFound),
		errors.Is(err, service.ErrPaymentKeyNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, provider.ErrPaymentMethodNotFound),
		errors.Is(err, provider.ErrMissingPaymentKey),
		errors.Is(err, service.ErrInvalidOrderNumber),
		errors.Is(err, service.ErrInvalidCancelReason),
		errors.Is(err, domain.ErrInvalidCancelAmount),
		errors.Is(err, domain.ErrNegativeAmount):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, domain.ErrAlreadyCanceled),
		errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict

	// Business rule errors
	case errors.Is(err, domain.ErrExceedCancelAmount):
		return http.StatusUnprocessableEntity

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
