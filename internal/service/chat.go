package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mdossett204/adaptive-health-project/internal/domain"
	"github.com/mdossett204/adaptive-health-project/internal/logger"
	store "github.com/mdossett204/adaptive-health-project/internal/repository"
)

// Chat runs one conversation turn: rate-limit check, context retrieval,
// prompt enrichment, model routing, persistence and rate-limit update. The
// checkpoint, the context item and the rate-limit record are written in one
// transaction.
func (s *Service) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	model, err := s.validateChat(req)
	if err != nil {
		return nil, err
	}

	h, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	log := logger.With("user_id", req.UserID, "session_id", req.SessionID, "model", model)

	active, err := s.checkRateLimit(ctx, h, req.UserID)
	if err != nil {
		log.Error("rate limit check failed", "error", err)
		return nil, ErrInternal
	}
	if active != nil {
		log.Info("chat rejected: rate limited", "expires_at", active.ExpiresAt)
		return nil, s.rateLimited(active)
	}

	snippets := s.retrieveContext(ctx, h, req.UserID, req.Message, s.config.ContextLimit)

	var rec *domain.RateLimitRecord
	result, err := s.runner.Run(ctx, h, req.SessionID, domain.ConversationState{
		Messages:  []domain.Message{domain.NewUserMessage(enrichPrompt(req.Message, snippets))},
		ModelType: model,
	}, func(ctx context.Context, tx store.Tx, thread []domain.Message) error {
		item := domain.UserContextItem{
			Data:      req.Message,
			Timestamp: s.now().UTC(),
			SessionID: req.SessionID,
		}
		if err := tx.PutItem(ctx, domain.UserNamespace(req.UserID), s.newKey(), item); err != nil {
			return fmt.Errorf("failed to store user context: %w", err)
		}
		var err error
		rec, err = s.applyRateLimit(ctx, tx, req.UserID, req.SessionID, len(thread))
		return err
	})
	if err != nil {
		log.Error("chat turn failed", "error", err)
		return nil, ErrInternal
	}

	conversationLength := len(result.Messages)
	resp := &domain.ChatResponse{
		Response:           result.Reply.Content,
		SessionID:          req.SessionID,
		UserID:             req.UserID,
		ModelUsed:          result.Model,
		ConversationLength: conversationLength,
		ContextItemsFound:  len(snippets),
		RateLimited:        rec != nil,
	}
	if rec != nil {
		expires := rec.ExpiresAt
		resp.RateLimitExpiresAt = &expires
	}
	log.Debug("chat turn completed", "conversation_length", conversationLength, "context_items", len(snippets))
	return resp, nil
}

// validateChat checks the request fields in order; the first failure wins.
func (s *Service) validateChat(req domain.ChatRequest) (domain.ModelType, error) {
	if err := validateUserID(req.UserID); err != nil {
		return "", err
	}
	if strings.TrimSpace(req.Message) == "" {
		return "", newValidationError("message", "message is required")
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return "", newValidationError("session_id", "session_id is required")
	}
	model, err := domain.ParseModelType(req.Model)
	if err != nil {
		return "", newValidationError("model", "model must be one of: gpt, claude")
	}
	if n := utf8.RuneCountInString(req.Message); n > s.config.MaxMessageLength {
		return "", newValidationError("message", "message too long: %d characters, maximum is %d", n, s.config.MaxMessageLength)
	}
	return model, nil
}

func validateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return newValidationError("user_id", "user_id is required")
	}
	if userID == domain.RateLimitNamespace[0] {
		return newValidationError("user_id", "user_id %q is reserved", userID)
	}
	return nil
}

// open acquires the request-scoped store handle.
func (s *Service) open(ctx context.Context) (store.Handle, error) {
	if s.opener == nil {
		logger.Error("store is not configured")
		return nil, ErrConfiguration
	}
	h, err := s.opener.Open(ctx)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		return nil, ErrInternal
	}
	return h, nil
}

// enrichPrompt prefixes the message with the retrieved snippets.
func enrichPrompt(message string, snippets []string) string {
	if len(snippets) == 0 {
		return message
	}
	var b strings.Builder
	b.WriteString("Relevant context from previous conversations:\n")
	for _, snippet := range snippets {
		b.WriteString("- ")
		b.WriteString(snippet)
		b.WriteString("\n")
	}
	b.WriteString("\nCurrent question: ")
	b.WriteString(message)
	return b.String()
}
