package domain

import (
	"time"
)

// Message represents a single message in a conversation thread.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Checkpoint is a durable snapshot of a thread's full message sequence.
type Checkpoint struct {
	CheckpointID string    `json:"checkpoint_id"`
	ThreadID     string    `json:"thread_id"`
	Messages     []Message `json:"messages"`
	CreatedAt    time.Time `json:"created_at"`
}

// ConversationState is the transient state threaded through the chat graph
// for a single turn.
type ConversationState struct {
	Messages  []Message `json:"messages"`
	ModelType ModelType `json:"model_type"`
}
