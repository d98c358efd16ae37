package llm

import (
	"github.com/mdossett204/adaptive-health-project/internal/config"
	"github.com/mdossett204/adaptive-health-project/internal/logger"
)

// NewBackends builds the GPT and Claude backends from cfg. GOGO_MODE=MOCK
// selects mock backends for both.
func NewBackends(cfg *config.Config) Backends {
	if cfg.MockMode() {
		logger.Info("GOGO_MODE=MOCK detected, using mock model backends")
		return Backends{
			GPT:    NewMockBackend(cfg.GPTModel),
			Claude: NewMockBackend(cfg.ClaudeModel),
		}
	}
	return Backends{
		GPT:    NewOpenAIBackend(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.GPTModel, cfg.LLMTimeout),
		Claude: NewAnthropicBackend(cfg.ClaudeAPIKey, cfg.ClaudeModel, cfg.LLMTimeout),
	}
}
