package v1

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mdossett204/adaptive-health-project/internal/domain"
	"github.com/mdossett204/adaptive-health-project/internal/service"
)

const maxItemBody = 1 << 20

// CreateItem stores a JSON object.
// POST /items
func (h *Handler) CreateItem(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxItemBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, domain.ItemsResponse{Error: "invalid request body"})
	}

	item, err := h.service.CreateItem(c.Request().Context(), body)
	if err != nil {
		return itemsError(c, err)
	}
	return c.JSON(http.StatusOK, domain.ItemsResponse{Success: true, Data: item})
}

// ListItems lists stored items.
// GET /items
func (h *Handler) ListItems(c echo.Context) error {
	items, err := h.service.ListItems(c.Request().Context())
	if err != nil {
		return itemsError(c, err)
	}
	return c.JSON(http.StatusOK, domain.ItemsResponse{Success: true, Data: items})
}

func itemsError(c echo.Context, err error) error {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusBadRequest, domain.ItemsResponse{Error: verr.Message})
	}
	return c.JSON(http.StatusInternalServerError, domain.ItemsResponse{Error: "failed to process items"})
}
