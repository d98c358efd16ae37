package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mdossett204/adaptive-health-project/internal/domain"
	"github.com/mdossett204/adaptive-health-project/internal/logger"
	store "github.com/mdossett204/adaptive-health-project/internal/repository"
	"github.com/mdossett204/adaptive-health-project/policy"
)

// rateLimitThreshold is used when no policy engine is configured.
const rateLimitThreshold = 10

// checkRateLimit returns the user's active rate-limit record, or nil. An
// expired record is deleted on the way; there is no other expiry mechanism.
func (s *Service) checkRateLimit(ctx context.Context, cs store.ContextStore, userID string) (*domain.RateLimitRecord, error) {
	item, err := cs.GetItem(ctx, domain.RateLimitNamespace, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read rate limit: %w", err)
	}
	if item == nil {
		return nil, nil
	}

	var rec domain.RateLimitRecord
	if err := item.Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode rate limit for %s: %w", userID, err)
	}
	if rec.Active(s.now()) {
		return &rec, nil
	}

	if err := cs.DeleteItem(ctx, domain.RateLimitNamespace, userID); err != nil {
		return nil, fmt.Errorf("failed to purge expired rate limit: %w", err)
	}
	logger.Debug("expired rate limit purged", "user_id", userID, "expires_at", rec.ExpiresAt)
	return nil, nil
}

// applyRateLimit writes a new record when the thread length trips the
// policy. Every over-threshold turn writes a fresh window, replacing the
// previous record.
func (s *Service) applyRateLimit(ctx context.Context, cs store.ContextStore, userID, sessionID string, conversationLength int) (*domain.RateLimitRecord, error) {
	limited, err := s.shouldLimit(ctx, userID, sessionID, conversationLength)
	if err != nil {
		return nil, err
	}
	if !limited {
		return nil, nil
	}

	now := s.now()
	rec := &domain.RateLimitRecord{
		UserID:             userID,
		ConversationLength: conversationLength,
		ExpiresAt:          now.Add(s.config.RateLimitWindow),
		SetAt:              now,
	}
	if err := cs.PutItem(ctx, domain.RateLimitNamespace, userID, rec); err != nil {
		return nil, fmt.Errorf("failed to write rate limit: %w", err)
	}
	logger.Info("rate limit applied", "user_id", userID, "session_id", sessionID,
		"conversation_length", conversationLength, "expires_at", rec.ExpiresAt)
	return rec, nil
}

func (s *Service) shouldLimit(ctx context.Context, userID, sessionID string, conversationLength int) (bool, error) {
	if s.policyEngine == nil {
		return conversationLength > rateLimitThreshold, nil
	}
	decision, err := s.policyEngine.Evaluate(ctx, policy.Input{
		UserID:             userID,
		SessionID:          sessionID,
		ConversationLength: conversationLength,
	})
	if err != nil {
		return false, err
	}
	return decision == policy.DecisionLimit, nil
}

// rateLimited builds the caller-facing error for an active record. The
// remaining time is truncated to whole minutes.
func (s *Service) rateLimited(rec *domain.RateLimitRecord) *RateLimitedError {
	remaining := rec.ExpiresAt.Sub(s.now())
	if remaining < 0 {
		remaining = 0
	}
	return &RateLimitedError{
		RemainingHours:     int(remaining / time.Hour),
		RemainingMinutes:   int((remaining % time.Hour) / time.Minute),
		ConversationLength: rec.ConversationLength,
		ExpiresAt:          rec.ExpiresAt,
	}
}
