package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/commands"
	bookingapp "staybook/internal/app/handlers/booking"
)

type BookingHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

type submitBookingRequest struct {
	CheckIn      string `json:"check_in"`
	CheckOut     string `json:"check_out"`
	Adults       int    `json:"adults"`
	Children     int    `json:"children"`
	DogsIncluded bool   `json:"dogs_included"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Message      string `json:"message"`
}

func (h BookingHandler) Submit(c *gin.Context) {
	var req submitBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	checkIn, checkOut, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	cmd := bookingapp.SubmitBookingRequestCommand{
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Adults:          req.Adults,
		Children:        req.Children,
		DogsIncluded:    req.DogsIncluded,
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Message:         req.Message,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.SubmitBookingRequestCommand, *bookingapp.SubmitBookingRequestResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.Header("Location", "/api/v1/booking-requests/"+result.ID)
	c.JSON(http.StatusCreated, result)
}

var _ BookingHTTP = BookingHandler{}
