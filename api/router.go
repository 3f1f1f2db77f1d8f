package api

import (
	"time"

	"github.com/Domenick1991/airassist/internal/chat"
	"github.com/Domenick1991/airassist/internal/logger"
	"github.com/Domenick1991/airassist/internal/service/booking"
	"github.com/Domenick1991/airassist/internal/service/flights"
	"github.com/gin-gonic/gin"
)

// NewRouter mounts every handler under /api.
func NewRouter(flightSvc flights.FlightUseCase, bookingSvc booking.BookingUseCase, chatSvc chat.ChatUseCase, log *logger.Logger) *gin.Engine {
	if log == nil {
		log = logger.Nop()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	group := router.Group("/api")
	NewFlightHandler(flightSvc).Register(group.Group("/flights"))
	NewBookingHandler(bookingSvc, flightSvc).Register(group.Group("/bookings"))
	NewChatHandler(chatSvc).Register(group.Group("/chat/sessions"))

	return router
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.InfoContext(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
