package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mdossett204/adaptive-health-project/internal/domain"
)

const anthropicMaxTokens = 1024

// AnthropicBackend serves the Claude branch through the Anthropic messages API.
type AnthropicBackend struct {
	client  anthropic.Client
	model   string
	timeout time.Duration
}

var _ Backend = (*AnthropicBackend)(nil)

// NewAnthropicBackend creates a Claude backend.
func NewAnthropicBackend(apiKey, model string, timeout time.Duration, opts ...option.RequestOption) *AnthropicBackend {
	options := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicBackend{
		client:  anthropic.NewClient(options...),
		model:   model,
		timeout: timeout,
	}
}

// Invoke sends the messages with temperature 0. System messages are folded
// into the system prompt since the messages API only accepts user and
// assistant turns.
func (b *AnthropicBackend) Invoke(ctx context.Context, messages []domain.Message) (domain.Message, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	turns, system := toAnthropicMessages(messages)
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(b.model),
		MaxTokens:   anthropicMaxTokens,
		Messages:    turns,
		Temperature: anthropic.Float(0),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	message, err := b.client.Messages.New(ctx, params)
	if err != nil {
		return domain.Message{}, fmt.Errorf("anthropic request failed: %w", err)
	}

	var content strings.Builder
	for _, block := range message.Content {
		content.WriteString(block.Text)
	}
	if content.Len() == 0 {
		return domain.Message{}, fmt.Errorf("anthropic: %w", ErrEmptyResponse)
	}
	return domain.NewAssistantMessage(content.String()), nil
}

func toAnthropicMessages(messages []domain.Message) ([]anthropic.MessageParam, string) {
	out := make([]anthropic.MessageParam, 0, len(messages))
	var system []string
	for _, msg := range messages {
		switch msg.Role {
		case domain.RoleSystem:
			system = append(system, msg.Content)
		case domain.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	return out, strings.Join(system, "\n\n")
}
