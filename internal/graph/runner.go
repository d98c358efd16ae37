package graph

import (
	"context"
	"fmt"

	"github.com/mdossett204/adaptive-health-project/internal/adapter/llm"
	"github.com/mdossett204/adaptive-health-project/internal/domain"
	"github.com/mdossett204/adaptive-health-project/internal/logger"
	store "github.com/mdossett204/adaptive-health-project/internal/repository"
)

// Result is the outcome of one graph run.
type Result struct {
	// Messages is the full thread after the turn, prior history included.
	Messages []domain.Message
	// Reply is the assistant message appended by the model state.
	Reply domain.Message
	// Model is the branch that served the turn.
	Model domain.ModelType
	// Checkpoint is the snapshot written at the end of the run.
	Checkpoint *domain.Checkpoint
}

// ThreadStore is what a run needs from the store: thread reads and a
// transaction for the final writes.
type ThreadStore interface {
	store.CheckpointStore
	store.Transactor
}

// CommitFunc adds writes to the transaction that checkpoints the finished
// thread. Returning an error discards the checkpoint as well.
type CommitFunc func(ctx context.Context, tx store.Tx, thread []domain.Message) error

// Runner executes the graph against a set of backends.
type Runner struct {
	backends llm.Backends
}

// NewRunner creates a runner.
func NewRunner(backends llm.Backends) *Runner {
	return &Runner{backends: backends}
}

// Run continues the thread threadID with the messages of cs. The latest
// checkpoint is loaded first and cs.Messages are appended to it. Nothing is
// persisted unless the model call succeeds; the checkpoint and the writes of
// commit (which may be nil) land in one transaction. The store is passed per
// call so each request can bring its own handle.
func (r *Runner) Run(ctx context.Context, checkpoints ThreadStore, threadID string, cs domain.ConversationState, commit CommitFunc) (*Result, error) {
	latest, err := checkpoints.LatestCheckpoint(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load thread %s: %w", threadID, err)
	}

	var thread []domain.Message
	if latest != nil {
		thread = append(thread, latest.Messages...)
	}
	thread = append(thread, cs.Messages...)

	result := &Result{}
	state := StateEntry
	for state != StateDone {
		next, effects, err := Transition(state, cs)
		if err != nil {
			return nil, err
		}
		logger.Debug("graph transition", "thread_id", threadID, "from", state, "to", next)

		for _, effect := range effects {
			switch effect.Kind {
			case EffectInvokeModel:
				backend := r.backends.For(effect.Model)
				if backend == nil {
					return nil, fmt.Errorf("no backend configured for model %s", effect.Model)
				}
				reply, err := backend.Invoke(ctx, thread)
				if err != nil {
					return nil, fmt.Errorf("model %s failed: %w", effect.Model, err)
				}
				reply.Role = domain.RoleAssistant
				thread = append(thread, reply)
				result.Reply = reply
				result.Model = effect.Model
			case EffectCheckpoint:
				err := checkpoints.WithTx(ctx, func(tx store.Tx) error {
					cp, err := tx.PutCheckpoint(ctx, threadID, thread)
					if err != nil {
						return fmt.Errorf("failed to checkpoint thread %s: %w", threadID, err)
					}
					if commit != nil {
						if err := commit(ctx, tx, thread); err != nil {
							return err
						}
					}
					result.Checkpoint = cp
					return nil
				})
				if err != nil {
					return nil, err
				}
			}
		}
		state = next
	}

	result.Messages = thread
	return result, nil
}
