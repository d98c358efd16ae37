package service

import (
	"context"

	"github.com/mdossett204/adaptive-health-project/internal/domain"
	"github.com/mdossett204/adaptive-health-project/internal/logger"
	store "github.com/mdossett204/adaptive-health-project/internal/repository"
)

// retrieveContext returns up to limit remembered messages of userID ranked
// by relevance to query. Failures are logged and yield no context.
func (s *Service) retrieveContext(ctx context.Context, cs store.ContextStore, userID, query string, limit int) []string {
	items, err := cs.SearchItems(ctx, domain.UserNamespace(userID), domain.SearchOptions{
		Query: query,
		Limit: limit,
	})
	if err != nil {
		logger.Warn("context retrieval failed", "user_id", userID, "error", err)
		return nil
	}

	snippets := make([]string, 0, len(items))
	for i := range items {
		var item domain.UserContextItem
		if err := items[i].Decode(&item); err != nil {
			logger.Warn("skipping undecodable context item", "user_id", userID, "key", items[i].Key, "error", err)
			continue
		}
		if item.Data == "" {
			continue
		}
		snippets = append(snippets, item.Data)
		if len(snippets) == limit {
			break
		}
	}
	return snippets
}
