package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/dto"
	pricingapp "staybook/internal/app/handlers/pricing"
	"staybook/internal/app/queries"
)

type PricingHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

type quoteRequest struct {
	CheckIn      string `json:"check_in"`
	CheckOut     string `json:"check_out"`
	Adults       int    `json:"adults"`
	Children     int    `json:"children"`
	DogsIncluded bool   `json:"dogs_included"`
}

func (h PricingHandler) Quote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	checkIn, checkOut, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	query := pricingapp.QuoteStayQuery{
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		Adults:       req.Adults,
		Children:     req.Children,
		DogsIncluded: req.DogsIncluded,
	}
	result, err := queries.Ask[pricingapp.QuoteStayQuery, dto.PriceBreakdown](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h PricingHandler) Configuration(c *gin.Context) {
	result, err := queries.Ask[pricingapp.GetPricingQuery, dto.PricingConfiguration](c.Request.Context(), h.Queries, pricingapp.GetPricingQuery{})
	if err != nil {
		respondWithError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ PricingHTTP = PricingHandler{}
