package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/mdossett204/adaptive-health-project/internal/domain"
)

// MockBackend is a scriptable Backend used in mock mode and in tests.
type MockBackend struct {
	name string

	mu    sync.Mutex
	reply func(messages []domain.Message) (string, error)
	calls [][]domain.Message
}

var _ Backend = (*MockBackend)(nil)

// NewMockBackend creates a mock backend that echoes the last user message.
func NewMockBackend(name string) *MockBackend {
	return &MockBackend{name: name}
}

// SetReply scripts the next replies. A nil fn restores the echo behaviour.
func (m *MockBackend) SetReply(fn func(messages []domain.Message) (string, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reply = fn
}

// FailWith makes every following call return err.
func (m *MockBackend) FailWith(err error) {
	m.SetReply(func([]domain.Message) (string, error) { return "", err })
}

// Calls returns a copy of the message sequences received so far.
func (m *MockBackend) Calls() [][]domain.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]domain.Message, len(m.calls))
	copy(out, m.calls)
	return out
}

// Invoke records the call and returns the scripted or echoed reply.
func (m *MockBackend) Invoke(ctx context.Context, messages []domain.Message) (domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return domain.Message{}, err
	}

	m.mu.Lock()
	m.calls = append(m.calls, append([]domain.Message(nil), messages...))
	reply := m.reply
	m.mu.Unlock()

	if reply != nil {
		content, err := reply(messages)
		if err != nil {
			return domain.Message{}, err
		}
		return domain.NewAssistantMessage(content), nil
	}

	var last string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			last = messages[i].Content
			break
		}
	}
	if last == "" {
		return domain.NewAssistantMessage(fmt.Sprintf("[MOCK %s] This is a mock response.", m.name)), nil
	}
	return domain.NewAssistantMessage(fmt.Sprintf("[MOCK %s] Received your message: %q. This is a mock response.", m.name, truncate(last, 100))), nil
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
