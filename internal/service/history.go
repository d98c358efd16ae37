package service

import (
	"context"
	"strings"

	"github.com/mdossett204/adaptive-health-project/internal/domain"
	"github.com/mdossett204/adaptive-health-project/internal/logger"
)

const clearUserDataPageSize = 100

// GetHistory returns the persisted thread of a session. A session that does
// not exist yields an empty thread.
func (s *Service) GetHistory(ctx context.Context, sessionID string) (*domain.HistoryResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, newValidationError("session_id", "session_id is required")
	}

	h, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	latest, err := h.LatestCheckpoint(ctx, sessionID)
	if err != nil {
		logger.Error("failed to load history", "session_id", sessionID, "error", err)
		return nil, ErrInternal
	}

	messages := []domain.Message{}
	if latest != nil {
		messages = append(messages, latest.Messages...)
	}
	return &domain.HistoryResponse{SessionID: sessionID, Messages: messages}, nil
}

// ClearHistory deletes a session thread. It is refused while the user is rate
// limited so that resetting the thread cannot be used to escape the limit.
func (s *Service) ClearHistory(ctx context.Context, req domain.ClearHistoryRequest) error {
	if strings.TrimSpace(req.SessionID) == "" {
		return newValidationError("session_id", "session_id is required")
	}
	if err := validateUserID(req.UserID); err != nil {
		return err
	}

	h, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer h.Close()

	active, err := s.checkRateLimit(ctx, h, req.UserID)
	if err != nil {
		logger.Error("rate limit check failed", "user_id", req.UserID, "error", err)
		return ErrInternal
	}
	if active != nil {
		logger.Info("clear history rejected: rate limited", "user_id", req.UserID, "session_id", req.SessionID)
		return s.rateLimited(active)
	}

	if err := h.DeleteThread(ctx, req.SessionID); err != nil {
		logger.Error("failed to clear history", "session_id", req.SessionID, "error", err)
		return ErrInternal
	}
	logger.Info("history cleared", "user_id", req.UserID, "session_id", req.SessionID)
	return nil
}

// ClearUserData deletes every remembered message of a user and returns how
// many were removed. Rate-limit records and threads are left alone.
func (s *Service) ClearUserData(ctx context.Context, userID string) (*domain.ClearUserDataResponse, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	h, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	ns := domain.UserNamespace(userID)
	deleted := 0
	for {
		items, err := h.SearchItems(ctx, ns, domain.SearchOptions{Limit: clearUserDataPageSize})
		if err != nil {
			logger.Error("failed to list user data", "user_id", userID, "error", err)
			return nil, ErrInternal
		}
		if len(items) == 0 {
			break
		}
		for _, item := range items {
			if err := h.DeleteItem(ctx, ns, item.Key); err != nil {
				logger.Error("failed to delete user data", "user_id", userID, "key", item.Key, "error", err)
				return nil, ErrInternal
			}
			deleted++
		}
	}

	logger.Info("user data cleared", "user_id", userID, "deleted_count", deleted)
	return &domain.ClearUserDataResponse{UserID: userID, DeletedCount: deleted}, nil
}
