package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mdossett204/adaptive-health-project/internal/domain"
)

// Chat runs one conversation turn.
// POST /chat
func (h *Handler) Chat(c echo.Context) error {
	var req domain.ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	userID, err := resolveUserID(c, req.UserID)
	if err != nil {
		return writeError(c, err)
	}
	req.UserID = userID

	resp, err := h.service.Chat(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}
