package http

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-unix/internal/core"
	"github.com/vovakirdan/wirechat-unix/internal/store"
)

const readHeaderTimeout = 5 * time.Second

// Inspector returns a consistent copy of the connected clients.
type Inspector interface {
	Snapshot(ctx context.Context) ([]core.ClientInfo, error)
}

// NewServer builds the admin HTTP server listening on addr.
func NewServer(addr string, inspector Inspector, sessions store.SessionStore, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              addr,
		Handler:           NewRouter(inspector, sessions, logger),
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// NewRouter registers the admin routes on a gin engine.
func NewRouter(inspector Inspector, sessions store.SessionStore, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	handlers := NewAdminHandlers(inspector, sessions, logger)

	router.GET("/health", healthHandler)
	router.GET("/clients", handlers.ListClients)
	router.GET("/rooms", handlers.ListRooms)
	router.GET("/sessions", handlers.ListSessions)

	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
