// Package http provides the HTTP server of the chat service.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mdossett204/adaptive-health-project/internal/adapter/identity"
	"github.com/mdossett204/adaptive-health-project/internal/config"
	"github.com/mdossett204/adaptive-health-project/internal/service"
	v1 "github.com/mdossett204/adaptive-health-project/internal/transport/http/v1"
	"github.com/mdossett204/adaptive-health-project/internal/transport/ws"
)

// NewServer creates and configures the HTTP server. The WebSocket chat
// endpoint is mounted on the same listener.
func NewServer(cfg *config.Config, version string, svc *service.Service, verifier *identity.Verifier, wsServer *ws.Server) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())

	// Handlers
	v1Handler := v1.NewHandler(svc, verifier, version, cfg.ChatTimeout, cfg.AdminTimeout)

	// Register Routes
	v1Handler.RegisterRoutes(e)
	if wsServer != nil {
		wsServer.RegisterRoutes(e)
	}

	return e
}
