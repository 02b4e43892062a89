package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"staybook/internal/infra/config"
	"staybook/internal/infra/obs"
)

type BookingHTTP interface {
	Submit(c *gin.Context)
}

type OperatorHTTP interface {
	List(c *gin.Context)
	UpdateStatus(c *gin.Context)
	Summary(c *gin.Context)
}

type AvailabilityHTTP interface {
	Calendar(c *gin.Context)
}

type PricingHTTP interface {
	Quote(c *gin.Context)
	Configuration(c *gin.Context)
}

type Handlers struct {
	Booking      BookingHTTP
	Operator     OperatorHTTP
	Availability AvailabilityHTTP
	Pricing      PricingHTTP
	OperatorAuth gin.HandlerFunc
	SubmitLimit  gin.HandlerFunc
	Metrics      *obs.Metrics
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	if h.Metrics != nil {
		router.Use(h.Metrics.GinMiddleware())
	}
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)
	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	}

	api := router.Group("/api/v1")
	if h.Availability != nil {
		api.GET("/calendar", h.Availability.Calendar)
	}
	if h.Pricing != nil {
		api.POST("/quotes", h.Pricing.Quote)
		api.GET("/pricing", h.Pricing.Configuration)
	}
	if h.Booking != nil {
		submit := []gin.HandlerFunc{}
		if h.SubmitLimit != nil {
			submit = append(submit, h.SubmitLimit)
		}
		api.POST("/booking-requests", append(submit, h.Booking.Submit)...)
	}
	if h.Operator != nil {
		operator := api.Group("/operator")
		if h.OperatorAuth != nil {
			operator.Use(h.OperatorAuth)
		}
		operator.GET("/booking-requests", h.Operator.List)
		operator.GET("/booking-requests/summary", h.Operator.Summary)
		operator.POST("/booking-requests/:id/status", h.Operator.UpdateStatus)
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"Location",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
