package service

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/mdossett204/adaptive-health-project/internal/domain"
	"github.com/mdossett204/adaptive-health-project/internal/logger"
)

// CreateItem stores a free-form JSON object.
func (s *Service) CreateItem(ctx context.Context, data json.RawMessage) (*domain.Item, error) {
	data = bytes.TrimSpace(data)
	var fields map[string]interface{}
	if len(data) == 0 || json.Unmarshal(data, &fields) != nil || fields == nil {
		return nil, newValidationError("data", "item must be a JSON object")
	}
	if len(fields) == 0 {
		return nil, newValidationError("data", "item must not be empty")
	}

	h, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	item := &domain.Item{
		ItemID:    s.newKey(),
		Data:      data,
		CreatedAt: s.now().UTC(),
	}
	if err := h.CreateItem(ctx, item); err != nil {
		logger.Error("failed to create item", "error", err)
		return nil, ErrInternal
	}
	return item, nil
}

// ListItems returns every stored item, oldest first.
func (s *Service) ListItems(ctx context.Context) ([]domain.Item, error) {
	h, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	items, err := h.ListItems(ctx, 0)
	if err != nil {
		logger.Error("failed to list items", "error", err)
		return nil, ErrInternal
	}
	return items, nil
}
