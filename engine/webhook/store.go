package webhook

import (
	"sort"
	"sync"

	"github.com/beacon-agent/beacon/engine/core"
)

// Store holds registered webhooks. It is an interface so a persistent
// implementation can replace the in-memory one without touching delivery
// code, which only ever reads snapshots.
type Store interface {
	Add(cfg *Config)
	Remove(id core.ID) bool
	Get(id core.ID) (*Config, bool)
	List() []*Config
}

// MemoryStore is the default Store: a mutex-guarded map with no
// persistence. State does not survive a restart.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[core.ID]*Config
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[core.ID]*Config)}
}

func (s *MemoryStore) Add(cfg *Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[cfg.ID] = cfg
}

func (s *MemoryStore) Remove(id core.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	return true
}

func (s *MemoryStore) Get(id core.ID) (*Config, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.byID[id]
	return cfg, ok
}

// List returns a point-in-time snapshot ordered by creation time. Fan-out
// iterates this snapshot, so registry mutations during delivery never affect
// an in-flight dispatch.
func (s *MemoryStore) List() []*Config {
	s.mu.RLock()
	out := make([]*Config, 0, len(s.byID))
	for _, cfg := range s.byID {
		out = append(out, cfg)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
