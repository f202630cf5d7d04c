package api

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/paintpro/appointments/internal/logger"
	"github.com/paintpro/appointments/internal/service/booking"
	"github.com/paintpro/appointments/internal/service/slots"
)

//go:embed openapi.json
var openAPIDoc []byte

type RouterConfig struct {
	AdminToken string
	Bookings   booking.BookingUseCase
	Slots      slots.SlotUseCase
	Log        *logger.Logger
	// Gateway, when set, serves the gRPC API as JSON under /v1.
	Gateway http.Handler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(cfg.Log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/openapi.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", openAPIDoc)
	})
	router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/openapi.json"))))

	NewAppointmentHandler(cfg.Bookings).Register(router.Group("/appointments"))
	NewSlotHandler(cfg.Slots).Register(router.Group("/slots"))
	NewAdminHandler(cfg.Slots, cfg.Bookings).Register(router.Group("/admin", AdminAuth(cfg.AdminToken)))

	if cfg.Gateway != nil {
		router.Any("/v1/*path", gin.WrapH(cfg.Gateway))
	}

	return router
}
