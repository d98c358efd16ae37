package domain

import (
	"encoding/json"
	"time"
)

// Namespace is a key-path partition in the context store.
type Namespace []string

// RateLimitNamespace is the reserved namespace holding rate-limit records.
var RateLimitNamespace = Namespace{"rate_limits"}

// UserNamespace returns the personal context namespace for a user.
func UserNamespace(userID string) Namespace {
	return Namespace{userID}
}

// String returns the storage form of the namespace.
func (n Namespace) String() string {
	b, _ := json.Marshal([]string(n))
	return string(b)
}

// StoreItem is a single key/value entry in the context store.
type StoreItem struct {
	Namespace Namespace       `json:"namespace"`
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Score     float64         `json:"score,omitempty"`
}

// Decode unmarshals the item value into v.
func (i *StoreItem) Decode(v interface{}) error {
	return json.Unmarshal(i.Value, v)
}

// SearchOptions narrows a context store search.
type SearchOptions struct {
	Query  string
	Filter map[string]interface{}
	Limit  int
	Offset int
}

// UserContextItem is a message remembered for a user. Items are immutable.
type UserContextItem struct {
	Data      string    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
}

// RateLimitRecord marks a user as limited until ExpiresAt.
type RateLimitRecord struct {
	UserID             string    `json:"user_id"`
	ConversationLength int       `json:"conversation_length"`
	ExpiresAt          time.Time `json:"expires_at"`
	SetAt              time.Time `json:"set_at"`
}

// Active reports whether the record still limits the user at now.
func (r *RateLimitRecord) Active(now time.Time) bool {
	return now.Before(r.ExpiresAt)
}
