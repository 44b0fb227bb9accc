package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gymhub/internal/apperr"
	"gymhub/internal/logger"
)

// reasoner is implemented by errors that carry a machine-readable reason,
// such as an invalid discount code.
type reasoner interface {
	Reason() string
}

// RespondError writes the HTTP response for a domain error.
func RespondError(c *gin.Context, err error) {
	var capErr *apperr.CapacityError
	if errors.As(err, &capErr) {
		c.JSON(http.StatusConflict, gin.H{
			"error":              capErr.Error(),
			"code":               "capacity_exceeded",
			"waitlist_available": true,
			"next_position":      capErr.NextPosition,
		})
		return
	}

	var withReason reasoner
	if errors.As(err, &withReason) && errors.Is(err, apperr.ErrDiscountCodeInvalid) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  err.Error(),
			"code":   "discount_code_invalid",
			"reason": withReason.Reason(),
		})
		return
	}

	status, code := classify(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, ErrorResponse{Error: "internal server error", Code: code})
		return
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperr.ErrCapacityExceeded):
		return http.StatusConflict, "capacity_exceeded"
	case errors.Is(err, apperr.ErrInsufficientCredits):
		return http.StatusPaymentRequired, "insufficient_credits"
	case errors.Is(err, apperr.ErrDiscountCodeInvalid):
		return http.StatusBadRequest, "discount_code_invalid"
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, apperr.ErrStateTransition):
		return http.StatusUnprocessableEntity, "invalid_state_transition"
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
