package webhook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beacon-agent/beacon/engine/core"
)

func TestMemoryStore(t *testing.T) {
	t.Run("Should list webhooks ordered by creation time", func(t *testing.T) {
		store := NewMemoryStore()
		base := time.Now().UTC()
		newest := &Config{ID: core.MustNewID(), URL: "https://c", CreatedAt: base.Add(2 * time.Second)}
		oldest := &Config{ID: core.MustNewID(), URL: "https://a", CreatedAt: base}
		middle := &Config{ID: core.MustNewID(), URL: "https://b", CreatedAt: base.Add(time.Second)}
		store.Add(newest)
		store.Add(oldest)
		store.Add(middle)

		list := store.List()
		require.Len(t, list, 3)
		assert.Equal(t, []*Config{oldest, middle, newest}, list)
	})

	t.Run("Should snapshot on list", func(t *testing.T) {
		store := NewMemoryStore()
		cfg := &Config{ID: core.MustNewID(), URL: "https://a", CreatedAt: time.Now()}
		store.Add(cfg)
		list := store.List()
		store.Remove(cfg.ID)
		require.Len(t, list, 1, "existing snapshot is unaffected by removal")
		assert.Empty(t, store.List())
	})

	t.Run("Should report removal of unknown ids", func(t *testing.T) {
		store := NewMemoryStore()
		assert.False(t, store.Remove(core.MustNewID()))
	})
}
