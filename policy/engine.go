// Package policy evaluates the chat rate-limit trigger policy with OPA.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Decisions returned by the chat policy.
const (
	DecisionAllow = "allow"
	DecisionLimit = "limit"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.chat_policy.decision"),
		rego.Module("chat_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Input is the document the chat policy is evaluated against.
type Input struct {
	UserID             string `json:"user_id"`
	SessionID          string `json:"session_id"`
	ConversationLength int    `json:"conversation_length"`
}

// Evaluate returns DecisionAllow or DecisionLimit for a completed turn.
func (e *Engine) Evaluate(ctx context.Context, in Input) (string, error) {
	input := map[string]interface{}{
		"user_id":             in.UserID,
		"session_id":          in.SessionID,
		"conversation_length": in.ConversationLength,
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	// The policy defines a default, so an empty result means a broken module.
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return "", fmt.Errorf("policy returned no decision")
	}

	s, ok := results[0].Expressions[0].Value.(string)
	if !ok {
		return "", fmt.Errorf("policy returned %T, want string", results[0].Expressions[0].Value)
	}
	if s != DecisionAllow && s != DecisionLimit {
		return "", fmt.Errorf("unknown policy decision %q", s)
	}
	return s, nil
}

// DefaultPolicy limits a user once the session thread holds more than ten
// messages.
const DefaultPolicy = `
package chat_policy

default decision = "allow"

decision = "limit" {
	input.conversation_length > 10
}
`
