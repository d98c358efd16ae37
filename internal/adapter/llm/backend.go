// Package llm provides the model backends a chat turn can be routed to.
package llm

import (
	"context"
	"errors"

	"github.com/mdossett204/adaptive-health-project/internal/domain"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("empty response content")

// Backend invokes one model with a full message sequence and returns the
// assistant reply.
type Backend interface {
	Invoke(ctx context.Context, messages []domain.Message) (domain.Message, error)
}

// Backends is the closed set of model backends, one per ModelType.
type Backends struct {
	GPT    Backend
	Claude Backend
}

// For returns the backend serving mt. Unknown values fall back to GPT.
func (b Backends) For(mt domain.ModelType) Backend {
	if mt == domain.ModelClaude {
		return b.Claude
	}
	return b.GPT
}
