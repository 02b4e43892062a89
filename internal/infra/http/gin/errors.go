package ginserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	bookingapp "staybook/internal/app/handlers/booking"
	pricingapp "staybook/internal/app/handlers/pricing"
	"staybook/internal/app/middleware"
	domainbooking "staybook/internal/domain/booking"
	domainpricing "staybook/internal/domain/pricing"
	"staybook/internal/domain/shared/validation"
	infrapricing "staybook/internal/infra/pricing"
)

type errorResponse struct {
	Error             string `json:"error"`
	Reason            string `json:"reason,omitempty"`
	Field             string `json:"field,omitempty"`
	MinimumStayNights int    `json:"minimum_stay_nights,omitempty"`
}

// respondWithError maps application errors onto HTTP status codes and reason codes.
// Unexpected errors are logged and reported without detail.
func respondWithError(c *gin.Context, logger *slog.Logger, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.ErrorContext(c.Request.Context(), "request failed", "status", status, "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, body)
}

func classify(err error) (int, errorResponse) {
	var minStay *validation.MinimumStayError
	var invalid *validation.ValidationError
	switch {
	case errors.As(err, &minStay):
		return http.StatusUnprocessableEntity, errorResponse{
			Error:             minStay.Error(),
			Reason:            string(validation.ReasonMinStayNotMet),
			Field:             "check_out",
			MinimumStayNights: minStay.Minimum,
		}
	case errors.As(err, &invalid):
		return http.StatusUnprocessableEntity, errorResponse{
			Error:  invalid.Message,
			Reason: string(invalid.Reason),
			Field:  invalid.Field,
		}
	case errors.Is(err, middleware.ErrIdempotencyKeyReused):
		return http.StatusUnprocessableEntity, errorResponse{Error: "idempotency key was already used with a different request", Reason: "idempotency_key_reused"}
	case errors.Is(err, domainbooking.ErrInvalidTransition):
		return http.StatusConflict, errorResponse{Error: err.Error(), Reason: "invalid_transition"}
	case errors.Is(err, domainbooking.ErrConcurrentUpdate):
		return http.StatusConflict, errorResponse{Error: "booking request was modified concurrently, retry", Reason: "concurrent_update"}
	case errors.Is(err, domainbooking.ErrBookingNotFound):
		return http.StatusNotFound, errorResponse{Error: "booking request not found", Reason: "not_found"}
	case errors.Is(err, middleware.ErrOperatorRequired):
		return http.StatusUnauthorized, errorResponse{Error: "operator authentication required", Reason: "unauthorized"}
	case errors.Is(err, bookingapp.ErrPricingUnavailable),
		errors.Is(err, pricingapp.ErrPricingPortMissing),
		errors.Is(err, domainpricing.ErrProviderMissing),
		errors.Is(err, infrapricing.ErrNotLoaded):
		return http.StatusServiceUnavailable, errorResponse{Error: "pricing is temporarily unavailable", Reason: "pricing_unavailable"}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, errorResponse{Error: "request timed out", Reason: "timeout"}
	default:
		return http.StatusInternalServerError, errorResponse{Error: "internal error"}
	}
}

func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Reason: "malformed_request"})
}
