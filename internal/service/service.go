// Package service implements the session orchestrator and the history and
// item operations around it.
package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/mdossett204/adaptive-health-project/internal/adapter/llm"
	"github.com/mdossett204/adaptive-health-project/internal/config"
	"github.com/mdossett204/adaptive-health-project/internal/graph"
	store "github.com/mdossett204/adaptive-health-project/internal/repository"
	"github.com/mdossett204/adaptive-health-project/policy"
)

type Service struct {
	opener       store.Opener
	runner       *graph.Runner
	config       *config.Config
	policyEngine *policy.Engine

	now    func() time.Time
	newKey func() string
}

// New creates the service. The opener hands out one store handle per call;
// a nil opener makes every operation fail with ErrConfiguration.
func New(opener store.Opener, backends llm.Backends, cfg *config.Config, policyEngine *policy.Engine) *Service {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Service{
		opener:       opener,
		runner:       graph.NewRunner(backends),
		config:       cfg,
		policyEngine: policyEngine,
		now:          time.Now,
		newKey:       func() string { return uuid.New().String() },
	}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}
