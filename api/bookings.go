package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/Domenick1991/airassist/internal/service/booking"
	"github.com/Domenick1991/airassist/internal/service/flights"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	bookings booking.BookingUseCase
	flights  flights.FlightUseCase
}

type createBookingRequest struct {
	FlightID string `json:"flight_id" validate:"required"`
	Date     string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type cancelBookingRequest struct {
	Reason string `json:"reason" validate:"max=200"`
}

func NewBookingHandler(bookings booking.BookingUseCase, flights flights.FlightUseCase) *BookingHandler {
	return &BookingHandler{bookings: bookings, flights: flights}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.POST("", h.create)
	router.GET("/:ref", h.get)
	router.DELETE("/:ref", h.cancel)
}

func (h *BookingHandler) list(c *gin.Context) {
	list, err := h.bookings.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.bookings.Get(c.Request.Context(), c.Param("ref"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.FlightID = strings.TrimSpace(req.FlightID)
	if err := validateStruct(req); err != nil {
		writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	flight, err := h.flights.GetByID(ctx, req.FlightID)
	if err != nil {
		writeError(c, err)
		return
	}

	confirmation, err := h.bookings.Book(ctx, *flight, req.Date)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, confirmation)
}

// cancel takes an optional JSON body with a reason.
func (h *BookingHandler) cancel(c *gin.Context) {
	var req cancelBookingRequest
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			badRequest(c, err)
			return
		}
	}
	if err := validateStruct(req); err != nil {
		writeError(c, err)
		return
	}

	b, err := h.bookings.Cancel(c.Request.Context(), c.Param("ref"), strings.TrimSpace(req.Reason))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
