package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/airassist/internal/catalog"
	"github.com/Domenick1991/airassist/internal/domain"
	"github.com/Domenick1991/airassist/internal/service/flights"
	"github.com/gin-gonic/gin"
)

type FlightHandler struct {
	service flights.FlightUseCase
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/search", h.search)
	router.GET("/:id", h.get)
	router.GET("/:id/risk", h.risk)
}

func (h *FlightHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *FlightHandler) search(c *gin.Context) {
	var criteria catalog.Criteria
	if err := c.ShouldBindQuery(&criteria); err != nil {
		badRequest(c, err)
		return
	}

	criteria = criteria.Normalize()
	if err := validateStruct(criteria); err != nil {
		writeError(c, err)
		return
	}

	list, err := h.service.Search(c.Request.Context(), criteria)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *FlightHandler) get(c *gin.Context) {
	flight, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

// risk accepts an optional ?date=YYYY-MM-DD; without it the flight's own
// departure is scored.
func (h *FlightHandler) risk(c *gin.Context) {
	var date time.Time
	if raw := strings.TrimSpace(c.Query("date")); raw != "" {
		parsed, err := time.Parse(domain.DateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	prediction, err := h.service.Predict(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, riskResponse{
		FlightID: prediction.Flight.ID,
		Score:    prediction.Risk.Score,
		Percent:  prediction.Risk.Percent(),
		Label:    string(prediction.Risk.Label),
		Reason:   prediction.Risk.Reason,
	})
}

type riskResponse struct {
	FlightID string  `json:"flight_id"`
	Score    float64 `json:"score"`
	Percent  int     `json:"percent"`
	Label    string  `json:"label"`
	Reason   string  `json:"reason"`
}
