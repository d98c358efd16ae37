package domain

import (
	"encoding/json"
	"time"
)

// ChatRequest represents a chat turn submitted by a client.
type ChatRequest struct {
	Message   string `json:"message"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Model     string `json:"model,omitempty"`
}

// ChatResponse is the result of a successful chat turn.
type ChatResponse struct {
	Response           string     `json:"response"`
	SessionID          string     `json:"session_id"`
	UserID             string     `json:"user_id"`
	ModelUsed          ModelType  `json:"model_used"`
	ConversationLength int        `json:"conversation_length"`
	ContextItemsFound  int        `json:"context_items_found"`
	RateLimited        bool       `json:"rate_limited"`
	RateLimitExpiresAt *time.Time `json:"rate_limit_expires_at,omitempty"`
}

// RateLimitedResponse is returned when a user is still inside a rate-limit window.
type RateLimitedResponse struct {
	Error              string    `json:"error"`
	RemainingHours     int       `json:"remaining_hours"`
	RemainingMinutes   int       `json:"remaining_minutes"`
	ConversationLength int       `json:"conversation_length"`
	ExpiresAt          time.Time `json:"expires_at"`
}

// HistoryResponse represents the persisted thread of a session.
type HistoryResponse struct {
	SessionID string    `json:"session_id"`
	Messages  []Message `json:"messages"`
}

// ClearHistoryRequest asks for a session thread to be deleted.
type ClearHistoryRequest struct {
	SessionID string `json:"session_id" query:"session_id"`
	UserID    string `json:"user_id" query:"user_id"`
}

// ClearUserDataRequest asks for every context item of a user to be deleted.
type ClearUserDataRequest struct {
	UserID string `json:"user_id" query:"user_id"`
}

// ClearUserDataResponse reports how many context items were removed.
type ClearUserDataResponse struct {
	UserID       string `json:"user_id"`
	DeletedCount int    `json:"deleted_count"`
}

// Item is a free-form record kept in the items table.
type Item struct {
	ItemID    string          `json:"item_id"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// ItemsResponse wraps item operations in a success envelope.
type ItemsResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}
