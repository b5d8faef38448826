package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-unix/internal/store"
)

const (
	defaultSessionLimit = 50
	maxSessionLimit     = 500
)

// AdminHandlers serves read-only views of the running server.
type AdminHandlers struct {
	inspector Inspector
	sessions  store.SessionStore
	log       *zerolog.Logger
}

// NewAdminHandlers creates a new admin handlers instance.
func NewAdminHandlers(inspector Inspector, sessions store.SessionStore, logger *zerolog.Logger) *AdminHandlers {
	if sessions == nil {
		sessions = store.Nop{}
	}
	return &AdminHandlers{
		inspector: inspector,
		sessions:  sessions,
		log:       logger,
	}
}

// ListClients returns every connected client in slot order.
// GET /clients
func (h *AdminHandlers) ListClients(c *gin.Context) {
	infos, err := h.inspector.Snapshot(c.Request.Context())
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to snapshot clients")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "server unavailable"})
		return
	}
	c.JSON(http.StatusOK, clientsToResponse(infos))
}

// ListRooms returns the rooms that currently have members.
// GET /rooms
func (h *AdminHandlers) ListRooms(c *gin.Context) {
	infos, err := h.inspector.Snapshot(c.Request.Context())
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to snapshot clients")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "server unavailable"})
		return
	}
	c.JSON(http.StatusOK, roomsFromClients(infos))
}

// ListSessions returns the most recent journaled sessions.
// GET /sessions?limit=N
func (h *AdminHandlers) ListSessions(c *gin.Context) {
	limit := defaultSessionLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = min(n, maxSessionLimit)
	}

	sessions, err := h.sessions.ListSessions(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list sessions")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, sessionsToResponse(sessions))
}
