// Package v1 provides the HTTP handlers of the chat service.
package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mdossett204/adaptive-health-project/internal/adapter/identity"
	"github.com/mdossett204/adaptive-health-project/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service      *service.Service
	verifier     *identity.Verifier
	version      string
	chatTimeout  time.Duration
	adminTimeout time.Duration
}

// NewHandler creates a new handler. Zero timeouts disable the boundary
// deadline.
func NewHandler(service *service.Service, verifier *identity.Verifier, version string, chatTimeout, adminTimeout time.Duration) *Handler {
	return &Handler{
		service:      service,
		verifier:     verifier,
		version:      version,
		chatTimeout:  chatTimeout,
		adminTimeout: adminTimeout,
	}
}

// RegisterRoutes registers the routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	chat := []echo.MiddlewareFunc{h.RequireIdentity, timeout(h.chatTimeout)}
	admin := []echo.MiddlewareFunc{h.RequireIdentity, timeout(h.adminTimeout)}

	e.POST("/chat", h.Chat, chat...)

	e.GET("/history", h.GetHistory, admin...)
	e.DELETE("/history", h.ClearHistory, admin...)
	e.DELETE("/user_data", h.ClearUserData, admin...)

	e.POST("/items", h.CreateItem, admin...)
	e.GET("/items", h.ListItems, admin...)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": h.version,
	})
}

func timeout(d time.Duration) echo.MiddlewareFunc {
	if d <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{Timeout: d})
}
