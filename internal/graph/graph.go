// Package graph implements the model router: an explicit state machine that
// dispatches one conversation turn to a model backend and checkpoints the
// resulting thread.
package graph

import (
	"errors"
	"fmt"

	"github.com/mdossett204/adaptive-health-project/internal/domain"
)

// State is a node of the chat graph.
type State string

const (
	StateEntry      State = "entry"
	StateGPTChat    State = "gpt_chat"
	StateClaudeChat State = "claude_chat"
	StateDone       State = "done"
)

// ErrTerminal is returned when a transition is requested from StateDone.
var ErrTerminal = errors.New("graph: done is terminal")

// EffectKind names a side effect the runner must perform.
type EffectKind string

const (
	// EffectInvokeModel calls the backend of Effect.Model with the full thread
	// and appends its reply.
	EffectInvokeModel EffectKind = "invoke_model"
	// EffectCheckpoint persists the full thread under the session id.
	EffectCheckpoint EffectKind = "checkpoint"
)

// Effect is a side effect produced by a transition.
type Effect struct {
	Kind  EffectKind
	Model domain.ModelType
}

// Transition is the pure transition function of the graph. From entry the
// model tag picks the branch; "claude" in any case selects Claude and every
// other value, including unknown ones, selects GPT. A model state moves
// unconditionally to done, invoking its model once and then checkpointing.
func Transition(state State, cs domain.ConversationState) (State, []Effect, error) {
	switch state {
	case StateEntry:
		if domain.RouteModelType(string(cs.ModelType)) == domain.ModelClaude {
			return StateClaudeChat, nil, nil
		}
		return StateGPTChat, nil, nil
	case StateGPTChat:
		return StateDone, []Effect{{Kind: EffectInvokeModel, Model: domain.ModelGPT}, {Kind: EffectCheckpoint}}, nil
	case StateClaudeChat:
		return StateDone, []Effect{{Kind: EffectInvokeModel, Model: domain.ModelClaude}, {Kind: EffectCheckpoint}}, nil
	case StateDone:
		return StateDone, nil, ErrTerminal
	}
	return state, nil, fmt.Errorf("graph: unknown state %q", state)
}
