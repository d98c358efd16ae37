package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaioption "github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdossett204/adaptive-health-project/internal/config"
	"github.com/mdossett204/adaptive-health-project/internal/domain"
)

func thread() []domain.Message {
	return []domain.Message{
		{Role: domain.RoleSystem, Content: "be brief"},
		domain.NewUserMessage("A"),
		domain.NewAssistantMessage("B"),
		domain.NewUserMessage("C"),
	}
}

func TestOpenAIBackendInvoke(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "hello from gpt"}}]
		}`))
	}))
	defer server.Close()

	b := NewOpenAIBackend("sk-test", server.URL, "gpt-4o-mini", 0, openaioption.WithMaxRetries(0))
	msg, err := b.Invoke(context.Background(), thread())
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAssistant, msg.Role)
	assert.Equal(t, "hello from gpt", msg.Content)

	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.Equal(t, float64(0), body["temperature"])
	messages := body["messages"].([]interface{})
	require.Len(t, messages, 4)
	assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])
	assert.Equal(t, "assistant", messages[2].(map[string]interface{})["role"])
}

func TestOpenAIBackendUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
	}))
	defer server.Close()

	b := NewOpenAIBackend("sk-test", server.URL, "gpt-4o-mini", 0, openaioption.WithMaxRetries(0))
	_, err := b.Invoke(context.Background(), thread())
	assert.Error(t, err)
}

func TestOpenAIBackendEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-4o-mini", "choices": []}`))
	}))
	defer server.Close()

	b := NewOpenAIBackend("sk-test", server.URL, "gpt-4o-mini", 0, openaioption.WithMaxRetries(0))
	_, err := b.Invoke(context.Background(), thread())
	assert.Error(t, err)
}

func TestAnthropicBackendInvoke(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("X-Api-Key"))
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-latest",
			"content": [{"type": "text", "text": "hello "}, {"type": "text", "text": "from claude"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 3, "output_tokens": 4}
		}`))
	}))
	defer server.Close()

	b := NewAnthropicBackend("sk-ant-test", "claude-3-5-haiku-latest", 0,
		anthropicoption.WithBaseURL(server.URL), anthropicoption.WithMaxRetries(0))
	msg, err := b.Invoke(context.Background(), thread())
	require.NoError(t, err)
	assert.Equal(t, "hello from claude", msg.Content)

	assert.Equal(t, "claude-3-5-haiku-latest", body["model"])
	assert.Equal(t, float64(0), body["temperature"])
	assert.Equal(t, float64(anthropicMaxTokens), body["max_tokens"])
	messages := body["messages"].([]interface{})
	assert.Len(t, messages, 3, "system message must be folded into the system prompt")
	system := body["system"].([]interface{})
	assert.Equal(t, "be brief", system[0].(map[string]interface{})["text"])
}

func TestAnthropicBackendUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "invalid_request_error", "message": "bad"}}`))
	}))
	defer server.Close()

	b := NewAnthropicBackend("sk-ant-test", "claude-3-5-haiku-latest", 0,
		anthropicoption.WithBaseURL(server.URL), anthropicoption.WithMaxRetries(0))
	_, err := b.Invoke(context.Background(), thread())
	assert.Error(t, err)
}

func TestMockBackend(t *testing.T) {
	m := NewMockBackend("gpt-4o-mini")

	msg, err := m.Invoke(context.Background(), []domain.Message{domain.NewUserMessage("hi")})
	require.NoError(t, err)
	assert.Contains(t, msg.Content, `"hi"`)

	m.SetReply(func(messages []domain.Message) (string, error) {
		return "scripted", nil
	})
	msg, err = m.Invoke(context.Background(), thread())
	require.NoError(t, err)
	assert.Equal(t, "scripted", msg.Content)

	boom := errors.New("boom")
	m.FailWith(boom)
	_, err = m.Invoke(context.Background(), thread())
	assert.ErrorIs(t, err, boom)

	calls := m.Calls()
	require.Len(t, calls, 3)
	assert.Len(t, calls[1], 4)
}

func TestBackendsFor(t *testing.T) {
	gpt := NewMockBackend("gpt")
	claude := NewMockBackend("claude")
	b := Backends{GPT: gpt, Claude: claude}

	assert.Same(t, claude, b.For(domain.ModelClaude))
	assert.Same(t, gpt, b.For(domain.ModelGPT))
	assert.Same(t, gpt, b.For(domain.ModelType("other")))
}

func TestNewBackendsMockMode(t *testing.T) {
	cfg := config.Default()
	cfg.Mode = config.ModeMock

	b := NewBackends(cfg)
	_, ok := b.GPT.(*MockBackend)
	assert.True(t, ok)
	_, ok = b.Claude.(*MockBackend)
	assert.True(t, ok)

	cfg.Mode = ""
	b = NewBackends(cfg)
	_, ok = b.GPT.(*OpenAIBackend)
	assert.True(t, ok)
	_, ok = b.Claude.(*AnthropicBackend)
	assert.True(t, ok)
}
