package server

import (
	"context"
	"sync"

	"github.com/beacon-agent/beacon/engine/llm"
)

// Session holds the live LLM configuration for a running agent. All changes
// go through the reconciler; on a failed reconciliation the previous config
// stays active untouched.
type Session struct {
	mu         sync.RWMutex
	reconciler *llm.Reconciler
	current    *llm.Config
}

func NewSession(reconciler *llm.Reconciler, initial *llm.Config) *Session {
	if initial == nil {
		initial = &llm.Config{}
	}
	initial.SetDefaults()
	return &Session{reconciler: reconciler, current: initial}
}

// Current returns a copy of the active config; callers can not mutate
// session state through it.
func (s *Session) Current() *llm.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Apply reconciles an update against the active config and installs the
// result only when it is valid.
func (s *Session) Apply(ctx context.Context, update *llm.Update) *llm.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	outcome := s.reconciler.Reconcile(ctx, update, s.current)
	if outcome.Valid {
		s.current = outcome.Config
	}
	return outcome
}
