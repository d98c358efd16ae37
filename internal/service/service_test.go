package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mdossett204/adaptive-health-project/internal/adapter/llm"
	"github.com/mdossett204/adaptive-health-project/internal/config"
	"github.com/mdossett204/adaptive-health-project/internal/domain"
	store "github.com/mdossett204/adaptive-health-project/internal/repository"
	"github.com/mdossett204/adaptive-health-project/policy"
	"github.com/mdossett204/adaptive-health-project/tests/helpers"
)

// countingOpener records how often the store was opened and can inject
// search or write failures.
type countingOpener struct {
	inner store.Opener

	mu         sync.Mutex
	opens      int
	failSearch bool
	failPut    bool
}

func (o *countingOpener) Open(ctx context.Context) (store.Handle, error) {
	o.mu.Lock()
	o.opens++
	failSearch, failPut := o.failSearch, o.failPut
	o.mu.Unlock()

	h, err := o.inner.Open(ctx)
	if err != nil {
		return nil, err
	}
	if failSearch {
		h = &failingSearchHandle{Handle: h}
	}
	if failPut {
		h = &failingPutHandle{Handle: h}
	}
	return h, nil
}

func (o *countingOpener) Opens() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opens
}

type failingSearchHandle struct {
	store.Handle
}

func (h *failingSearchHandle) SearchItems(context.Context, domain.Namespace, domain.SearchOptions) ([]domain.StoreItem, error) {
	return nil, errors.New("search backend unavailable")
}

// failingPutHandle fails every context store write made inside a transaction.
type failingPutHandle struct {
	store.Handle
}

func (h *failingPutHandle) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return h.Handle.WithTx(ctx, func(tx store.Tx) error {
		return fn(failingPutTx{Tx: tx})
	})
}

type failingPutTx struct {
	store.Tx
}

func (failingPutTx) PutItem(context.Context, domain.Namespace, string, interface{}) error {
	return errors.New("context store unavailable")
}

type fixture struct {
	svc    *Service
	db     *store.SQLiteStore
	opener *countingOpener
	gpt    *llm.MockBackend
	claude *llm.MockBackend
	now    time.Time
}

func (f *fixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db := helpers.NewTestSQLiteStore(t)
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	f := &fixture{
		db:     db,
		opener: &countingOpener{inner: db},
		gpt:    llm.NewMockBackend("gpt-4o-mini"),
		claude: llm.NewMockBackend("claude-3-5-haiku-latest"),
		now:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = New(f.opener, llm.Backends{GPT: f.gpt, Claude: f.claude}, config.Default(), policyEngine)
	f.svc.SetClock(func() time.Time { return f.now })
	return f
}

func chatReq(userID, sessionID, message string) domain.ChatRequest {
	return domain.ChatRequest{UserID: userID, SessionID: sessionID, Message: message}
}
