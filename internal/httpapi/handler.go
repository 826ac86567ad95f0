// Package httpapi exposes the action pipeline over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/cassini/internal/dispatch"
	"github.com/abhisek/cassini/internal/logger"
	"github.com/abhisek/cassini/internal/present"
)

// Dispatcher runs actions and renders screens.
type Dispatcher interface {
	Handle(ctx context.Context, req dispatch.Request) (present.View, error)
	Current(ctx context.Context, userID int64, name string) (present.View, error)
}

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type ActionRequest struct {
	Data      string `json:"data" binding:"required,max=64"`
	Name      string `json:"name" binding:"max=64"`
	MessageID int64  `json:"message_id"`
}

type ActionHandler struct {
	log        *logger.Logger
	dispatcher Dispatcher
}

func NewActionHandler(log *logger.Logger, d Dispatcher) *ActionHandler {
	return &ActionHandler{
		log:        log.With("handler", "ActionHandler"),
		dispatcher: d,
	}
}

func userID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, http.StatusBadRequest, "bad_user_id", "user id must be a positive integer")
		return 0, false
	}
	return id, true
}

// POST /v1/users/:id/actions
// Apply one callback and return the resulting screen.
func (h *ActionHandler) PostAction(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", "body must be {\"data\": \"KIND|TARGET|PARAM\"}")
		return
	}

	view, err := h.dispatcher.Handle(c.Request.Context(), dispatch.Request{
		UserID:    id,
		Name:      req.Name,
		Data:      req.Data,
		MessageID: req.MessageID,
	})
	if err != nil {
		h.log.Error("action failed", "user_id", id, "error", err)
		RespondError(c, http.StatusInternalServerError, "internal", dispatch.NoticeRetry)
		return
	}
	RespondOK(c, view)
}

// GET /v1/users/:id/screen
// Render the current screen without applying anything.
func (h *ActionHandler) GetScreen(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	view, err := h.dispatcher.Current(c.Request.Context(), id, c.Query("name"))
	if err != nil {
		h.log.Error("render failed", "user_id", id, "error", err)
		RespondError(c, http.StatusInternalServerError, "internal", dispatch.NoticeRetry)
		return
	}
	RespondOK(c, view)
}

// HealthCheck returns a handler that reports "ok" while storage answers.
func HealthCheck(p Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p != nil {
			if err := p.Ping(c.Request.Context()); err != nil {
				RespondError(c, http.StatusServiceUnavailable, "unavailable", "storage unavailable")
				return
			}
		}
		c.String(http.StatusOK, "ok")
	}
}
