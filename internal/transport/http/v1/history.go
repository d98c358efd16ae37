package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mdossett204/adaptive-health-project/internal/domain"
)

// GetHistory returns the thread of a session.
// GET /history?session_id=
func (h *Handler) GetHistory(c echo.Context) error {
	resp, err := h.service.GetHistory(c.Request().Context(), c.QueryParam("session_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// ClearHistory deletes the thread of a session.
// DELETE /history
func (h *Handler) ClearHistory(c echo.Context) error {
	var req domain.ClearHistoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	userID, err := resolveUserID(c, req.UserID)
	if err != nil {
		return writeError(c, err)
	}
	req.UserID = userID

	if err := h.service.ClearHistory(c.Request().Context(), req); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message":    "history cleared",
		"session_id": req.SessionID,
	})
}

// ClearUserData deletes every remembered message of a user.
// DELETE /user_data
func (h *Handler) ClearUserData(c echo.Context) error {
	var req domain.ClearUserDataRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	userID, err := resolveUserID(c, req.UserID)
	if err != nil {
		return writeError(c, err)
	}
	req.UserID = userID

	resp, err := h.service.ClearUserData(c.Request().Context(), req.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}
