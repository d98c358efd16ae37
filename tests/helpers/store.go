package helpers

import (
	"context"
	"testing"

	"github.com/mdossett204/adaptive-health-project/internal/repository"
)

func NewTestSQLiteStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

// WithHandle runs fn with a freshly opened handle and releases it afterwards,
// so that the single in-memory connection is free again for the code under test.
func WithHandle(t *testing.T, s *store.SQLiteStore, fn func(h store.Handle)) {
	t.Helper()

	h, err := s.Open(context.Background())
	if err != nil {
		t.Fatalf("failed to open handle: %v", err)
	}
	defer h.Close()

	fn(h)
}
