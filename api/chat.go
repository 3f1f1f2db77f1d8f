package api

import (
	"net/http"

	"github.com/Domenick1991/airassist/internal/catalog"
	"github.com/Domenick1991/airassist/internal/chat"
	"github.com/gin-gonic/gin"
)

const (
	openModeSearch  = "search"
	openModeBooking = "booking"
)

type ChatHandler struct {
	service chat.ChatUseCase
}

type openSessionRequest struct {
	Mode       string `json:"mode" validate:"required,oneof=search booking"`
	From       string `json:"from" validate:"omitempty,alpha"`
	To         string `json:"to" validate:"omitempty,alpha"`
	Date       string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	SelectedID string `json:"selected_id"`
	BookingRef string `json:"booking_ref" validate:"required_if=Mode booking"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

func NewChatHandler(service chat.ChatUseCase) *ChatHandler {
	return &ChatHandler{service: service}
}

func (h *ChatHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.open)
	router.GET("/:id", h.get)
	router.POST("/:id/messages", h.send)
	router.DELETE("/:id", h.close)
}

func (h *ChatHandler) open(c *gin.Context) {
	var req openSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	criteria := catalog.Criteria{From: req.From, To: req.To, Date: req.Date}.Normalize()
	req.From, req.To, req.Date = criteria.From, criteria.To, criteria.Date
	if err := validateStruct(req); err != nil {
		writeError(c, err)
		return
	}

	ctx := c.Request.Context()
	var (
		sess *chat.Session
		err  error
	)
	if req.Mode == openModeBooking {
		sess, err = h.service.OpenForBooking(ctx, req.BookingRef)
	} else {
		sess, err = h.service.OpenForSearch(ctx, criteria, req.SelectedID)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h *ChatHandler) get(c *gin.Context) {
	sess, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *ChatHandler) send(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	reply, err := h.service.Send(c.Request.Context(), c.Param("id"), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

func (h *ChatHandler) close(c *gin.Context) {
	if err := h.service.Close(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
