package ws

import "github.com/mdossett204/adaptive-health-project/internal/domain"

// Message types from client to server
const (
	TypeHello = "hello"
	TypeChat  = "chat"
)

// Message types from server to client
const (
	TypeHelloAck    = "hello_ack"
	TypeChatResult  = "chat_result"
	TypeRateLimited = "rate_limited"
	TypeError       = "error"
)

// Error codes
const (
	ErrorCodeInvalidMessage   = "invalid_message"
	ErrorCodeUnauthorized     = "unauthorized"
	ErrorCodeSessionRequired  = "session_required"
	ErrorCodeValidationFailed = "validation_failed"
	ErrorCodeInternalError    = "internal_error"
	ErrorCodeForbidden        = "forbidden"
	ErrorCodeShuttingDown     = "shutting_down"
)

// BaseMessage contains common fields for all messages.
type BaseMessage struct {
	Type      string `json:"type"`
	Ts        int64  `json:"ts"`
	RequestID string `json:"request_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// HelloMessage authenticates the connection.
type HelloMessage struct {
	BaseMessage
	Token string `json:"token"`
}

// HelloAckMessage confirms the verified user.
type HelloAckMessage struct {
	BaseMessage
	UserID string `json:"user_id"`
}

// ChatMessage submits one chat turn. UserID defaults to the hello identity.
type ChatMessage struct {
	BaseMessage
	UserID  string `json:"user_id,omitempty"`
	Message string `json:"message"`
	Model   string `json:"model,omitempty"`
}

// ChatResultMessage carries a completed turn.
type ChatResultMessage struct {
	BaseMessage
	Result *domain.ChatResponse `json:"result"`
}

// RateLimitedMessage rejects a turn while the user is rate limited.
type RateLimitedMessage struct {
	BaseMessage
	domain.RateLimitedResponse
}

// ErrorMessage reports a failure.
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"code"`
	Message string `json:"message"`
}
