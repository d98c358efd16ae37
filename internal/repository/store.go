// Package store defines the storage interfaces and the SQLite implementation.
package store

import (
	"context"
	"errors"

	"github.com/mdossett204/adaptive-health-project/internal/domain"
)

// ErrMissingDSN is returned when no database connection string is configured.
var ErrMissingDSN = errors.New("database connection string is not configured")

// ContextStore is a namespaced key/value store with relevance search.
type ContextStore interface {
	PutItem(ctx context.Context, ns domain.Namespace, key string, value interface{}) error
	GetItem(ctx context.Context, ns domain.Namespace, key string) (*domain.StoreItem, error)
	SearchItems(ctx context.Context, ns domain.Namespace, opts domain.SearchOptions) ([]domain.StoreItem, error)
	DeleteItem(ctx context.Context, ns domain.Namespace, key string) error
}

// CheckpointStore is an append-style conversation log addressed by thread id.
type CheckpointStore interface {
	// PutCheckpoint appends a snapshot of the full thread.
	PutCheckpoint(ctx context.Context, threadID string, messages []domain.Message) (*domain.Checkpoint, error)
	// ListCheckpoints returns the thread's checkpoints, most recent first.
	ListCheckpoints(ctx context.Context, threadID string) ([]domain.Checkpoint, error)
	// LatestCheckpoint returns nil when the thread does not exist.
	LatestCheckpoint(ctx context.Context, threadID string) (*domain.Checkpoint, error)
	DeleteThread(ctx context.Context, threadID string) error
}

// ItemStore keeps free-form records.
type ItemStore interface {
	CreateItem(ctx context.Context, item *domain.Item) error
	ListItems(ctx context.Context, limit int) ([]domain.Item, error)
}

// Tx is the view of the stores inside one transaction.
type Tx interface {
	ContextStore
	CheckpointStore
}

// Transactor runs fn atomically: every write made through tx is committed
// when fn returns nil and discarded otherwise.
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Handle is a request-scoped view over every store. Close releases the
// underlying connection and must be called on every exit path.
type Handle interface {
	ContextStore
	CheckpointStore
	ItemStore
	Transactor
	Close() error
}

// Opener hands out request-scoped store handles.
type Opener interface {
	Open(ctx context.Context) (Handle, error)
}
