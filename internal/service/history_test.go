package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdossett204/adaptive-health-project/internal/domain"
	store "github.com/mdossett204/adaptive-health-project/internal/repository"
	"github.com/mdossett204/adaptive-health-project/tests/helpers"
)

func TestHistoryRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.gpt.SetReply(func([]domain.Message) (string, error) { return "B", nil })

	_, err := f.svc.Chat(ctx, chatReq("u1", "s1", "A"))
	require.NoError(t, err)

	history, err := f.svc.GetHistory(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history.Messages, 2)
	assert.Equal(t, domain.Message{Role: domain.RoleUser, Content: "A"}, history.Messages[0])
	assert.Equal(t, domain.Message{Role: domain.RoleAssistant, Content: "B"}, history.Messages[1])

	require.NoError(t, f.svc.ClearHistory(ctx, domain.ClearHistoryRequest{SessionID: "s1", UserID: "u1"}))

	history, err = f.svc.GetHistory(ctx, "s1")
	require.NoError(t, err)
	assert.NotNil(t, history.Messages)
	assert.Empty(t, history.Messages)
}

func TestGetHistoryUnknownSessionIsEmpty(t *testing.T) {
	f := newFixture(t)

	history, err := f.svc.GetHistory(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Equal(t, "never-seen", history.SessionID)
	assert.Empty(t, history.Messages)

	_, err = f.svc.GetHistory(context.Background(), "")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestClearHistoryRefusedWhileRateLimited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for turn := 0; turn < 6; turn++ {
		_, err := f.svc.Chat(ctx, chatReq("u1", "s1", "hello"))
		require.NoError(t, err)
	}

	err := f.svc.ClearHistory(ctx, domain.ClearHistoryRequest{SessionID: "s1", UserID: "u1"})
	var limited *RateLimitedError
	require.ErrorAs(t, err, &limited)

	history, err := f.svc.GetHistory(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, history.Messages, 12, "thread must be unchanged")

	// Once the window has passed the stale record is purged and clearing works.
	f.advance(4*time.Hour + time.Minute)
	require.NoError(t, f.svc.ClearHistory(ctx, domain.ClearHistoryRequest{SessionID: "s1", UserID: "u1"}))
	history, err = f.svc.GetHistory(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, history.Messages)
}

func TestClearHistoryValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var verr *ValidationError
	require.ErrorAs(t, f.svc.ClearHistory(ctx, domain.ClearHistoryRequest{UserID: "u1"}), &verr)
	assert.Equal(t, "session_id", verr.Field)
	require.ErrorAs(t, f.svc.ClearHistory(ctx, domain.ClearHistoryRequest{SessionID: "s1"}), &verr)
	assert.Equal(t, "user_id", verr.Field)
	assert.Equal(t, 0, f.opener.Opens())
}

func TestClearUserData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	helpers.WithHandle(t, f.db, func(h store.Handle) {
		for i := 0; i < 230; i++ {
			require.NoError(t, h.PutItem(ctx, domain.UserNamespace("alice"), fmt.Sprintf("k%d", i), domain.UserContextItem{Data: "note"}))
		}
		for i := 0; i < 4; i++ {
			require.NoError(t, h.PutItem(ctx, domain.UserNamespace("bob"), fmt.Sprintf("k%d", i), domain.UserContextItem{Data: "note"}))
		}
		require.NoError(t, h.PutItem(ctx, domain.RateLimitNamespace, "alice", domain.RateLimitRecord{UserID: "alice", ExpiresAt: f.now.Add(time.Hour)}))
		_, err := h.PutCheckpoint(ctx, "alice-session", []domain.Message{domain.NewUserMessage("A")})
		require.NoError(t, err)
	})

	resp, err := f.svc.ClearUserData(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 230, resp.DeletedCount)

	resp, err = f.svc.ClearUserData(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, resp.DeletedCount)

	helpers.WithHandle(t, f.db, func(h store.Handle) {
		bob, err := h.SearchItems(ctx, domain.UserNamespace("bob"), domain.SearchOptions{})
		require.NoError(t, err)
		assert.Len(t, bob, 4)

		rec, err := h.GetItem(ctx, domain.RateLimitNamespace, "alice")
		require.NoError(t, err)
		assert.NotNil(t, rec, "rate-limit records are not user data")

		cp, err := h.LatestCheckpoint(ctx, "alice-session")
		require.NoError(t, err)
		assert.NotNil(t, cp, "threads are not user data")
	})

	_, err = f.svc.ClearUserData(ctx, "rate_limits")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	item, err := f.svc.CreateItem(ctx, json.RawMessage(`{"name":"widget","qty":2}`))
	require.NoError(t, err)
	assert.NotEmpty(t, item.ItemID)

	for _, bad := range []string{``, `[]`, `"x"`, `{}`, `{bad`} {
		_, err := f.svc.CreateItem(ctx, json.RawMessage(bad))
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr, "input %q", bad)
	}

	items, err := f.svc.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.JSONEq(t, `{"name":"widget","qty":2}`, string(items[0].Data))
}
