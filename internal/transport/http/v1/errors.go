package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mdossett204/adaptive-health-project/internal/domain"
	"github.com/mdossett204/adaptive-health-project/internal/service"
)

// writeError maps service errors onto status codes. Internal causes never
// reach the response body.
func writeError(c echo.Context, err error) error {
	if errors.Is(err, errForeignUserID) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": err.Error()})
	}
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": verr.Message})
	}

	var limited *service.RateLimitedError
	if errors.As(err, &limited) {
		return c.JSON(http.StatusTooManyRequests, domain.RateLimitedResponse{
			Error:              limited.Error(),
			RemainingHours:     limited.RemainingHours,
			RemainingMinutes:   limited.RemainingMinutes,
			ConversationLength: limited.ConversationLength,
			ExpiresAt:          limited.ExpiresAt,
		})
	}

	if errors.Is(err, service.ErrConfiguration) {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "service is not configured"})
	}
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": service.ErrInternal.Error()})
}
