package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/mdossett204/adaptive-health-project/internal/domain"
)

// OpenAIBackend serves the GPT branch through the OpenAI chat completions API.
type OpenAIBackend struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

var _ Backend = (*OpenAIBackend)(nil)

// NewOpenAIBackend creates a GPT backend. baseURL may be empty.
func NewOpenAIBackend(apiKey, baseURL, model string, timeout time.Duration, opts ...option.RequestOption) *OpenAIBackend {
	options := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}
	options = append(options, opts...)
	return &OpenAIBackend{
		client:  openai.NewClient(options...),
		model:   model,
		timeout: timeout,
	}
}

// Invoke sends the messages with temperature 0.
func (b *OpenAIBackend) Invoke(ctx context.Context, messages []domain.Message) (domain.Message, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(b.model),
		Messages:    toOpenAIMessages(messages),
		Temperature: openai.Float(0),
	}

	completion, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return domain.Message{}, fmt.Errorf("openai request failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return domain.Message{}, fmt.Errorf("openai: no response choices returned")
	}
	content := completion.Choices[0].Message.Content
	if content == "" {
		return domain.Message{}, fmt.Errorf("openai: %w", ErrEmptyResponse)
	}
	return domain.NewAssistantMessage(content), nil
}

func toOpenAIMessages(messages []domain.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case domain.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case domain.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}
