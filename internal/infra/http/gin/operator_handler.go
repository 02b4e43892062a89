package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	bookingapp "staybook/internal/app/handlers/booking"
	"staybook/internal/app/queries"
	"staybook/internal/domain/shared/validation"
)

type OperatorHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h OperatorHandler) List(c *gin.Context) {
	query := bookingapp.ListBookingRequestsQuery{Status: c.Query("status")}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(c, h.Logger, validation.New(validation.ReasonInvalidField, "limit", "limit must be a number"))
			return
		}
		query.Limit = limit
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(c, h.Logger, validation.New(validation.ReasonInvalidField, "offset", "offset must be a number"))
			return
		}
		query.Offset = offset
	}
	result, err := queries.Ask[bookingapp.ListBookingRequestsQuery, dto.BookingRequestCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h OperatorHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if strings.TrimSpace(req.Status) == "" {
		badRequest(c, errors.New("status is required"))
		return
	}
	cmd := bookingapp.UpdateBookingStatusCommand{
		RequestID: strings.TrimSpace(c.Param("id")),
		Status:    strings.ToLower(strings.TrimSpace(req.Status)),
	}
	result, err := commands.Dispatch[bookingapp.UpdateBookingStatusCommand, *bookingapp.BookingStatusResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h OperatorHandler) Summary(c *gin.Context) {
	result, err := queries.Ask[bookingapp.BookingSummaryQuery, dto.OperatorSummary](c.Request.Context(), h.Queries, bookingapp.BookingSummaryQuery{})
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ OperatorHTTP = OperatorHandler{}
