package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicyThreshold(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, DefaultPolicy)
	require.NoError(t, err)

	tests := []struct {
		length int
		want   string
	}{
		{0, DecisionAllow},
		{2, DecisionAllow},
		{10, DecisionAllow},
		{11, DecisionLimit},
		{40, DecisionLimit},
	}
	for _, tt := range tests {
		got, err := engine.Evaluate(ctx, Input{UserID: "u1", SessionID: "s1", ConversationLength: tt.length})
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "conversation_length=%d", tt.length)
	}
}

func TestNewEngineRejectsInvalidModule(t *testing.T) {
	_, err := NewEngine(context.Background(), "package chat_policy\n\ndecision = {")
	assert.Error(t, err)
}

func TestEvaluateRejectsUnknownDecision(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, "package chat_policy\n\ndefault decision = \"maybe\"\n")
	require.NoError(t, err)

	_, err = engine.Evaluate(ctx, Input{ConversationLength: 1})
	assert.Error(t, err)
}
