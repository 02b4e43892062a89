package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/dto"
	availabilityapp "staybook/internal/app/handlers/availability"
	"staybook/internal/app/queries"
)

type AvailabilityHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h AvailabilityHandler) Calendar(c *gin.Context) {
	month, err := parseMonth(c.Query("month"))
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	from, err := parseDate("from", c.Query("from"))
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	to, err := parseDate("to", c.Query("to"))
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	query := availabilityapp.GetCalendarQuery{Month: month, From: from, To: to}
	result, err := queries.Ask[availabilityapp.GetCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
