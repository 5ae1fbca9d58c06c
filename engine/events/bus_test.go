package events

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	t.Run("Should deliver events to subscribed handlers", func(t *testing.T) {
		bus := NewBus()
		got := make([]Event, 0, 1)
		bus.Subscribe(context.Background(), LLMResponse, func(_ context.Context, evt Event) {
			got = append(got, evt)
		})
		bus.Publish(context.Background(), LLMResponse, map[string]string{"content": "hello"})
		require.Len(t, got, 1)
		assert.Equal(t, LLMResponse, got[0].Name)
		assert.False(t, got[0].Time.IsZero())
	})

	t.Run("Should not deliver events of other names", func(t *testing.T) {
		bus := NewBus()
		calls := 0
		bus.Subscribe(context.Background(), LLMThinking, func(_ context.Context, _ Event) { calls++ })
		bus.Publish(context.Background(), LLMResponse, nil)
		assert.Zero(t, calls)
	})

	t.Run("Should invoke handlers in registration order", func(t *testing.T) {
		bus := NewBus()
		var order []int
		for i := range 5 {
			bus.Subscribe(context.Background(), AgentStarted, func(_ context.Context, _ Event) {
				order = append(order, i)
			})
		}
		bus.Publish(context.Background(), AgentStarted, nil)
		assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	})
}

func TestBus_BackgroundContext(t *testing.T) {
	t.Run("Should not spawn watcher goroutines for non-cancellable contexts", func(t *testing.T) {
		bus := NewBus()
		before := runtime.NumGoroutine()
		for range 100 {
			bus.Subscribe(context.Background(), AgentCompleted, func(_ context.Context, _ Event) {})
		}
		assert.Less(t, runtime.NumGoroutine(), before+10)
		assert.Equal(t, 100, bus.SubscriberCount(AgentCompleted))
	})
}

func TestBus_Cancellation(t *testing.T) {
	t.Run("Should detach all handlers sharing one context", func(t *testing.T) {
		bus := NewBus()
		ctx, cancel := context.WithCancel(context.Background())
		for _, name := range All() {
			bus.Subscribe(ctx, name, func(_ context.Context, _ Event) {})
		}
		for _, name := range All() {
			require.Equal(t, 1, bus.SubscriberCount(name))
		}
		cancel()
		assert.Eventually(t, func() bool {
			for _, name := range All() {
				if bus.SubscriberCount(name) != 0 {
					return false
				}
			}
			return true
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("Should keep other subscriptions alive after one is cancelled", func(t *testing.T) {
		bus := NewBus()
		ctx1, cancel1 := context.WithCancel(context.Background())
		ctx2 := context.Background()
		calls := 0
		bus.Subscribe(ctx1, AgentError, func(_ context.Context, _ Event) {})
		bus.Subscribe(ctx2, AgentError, func(_ context.Context, _ Event) { calls++ })
		cancel1()
		require.Eventually(t, func() bool {
			return bus.SubscriberCount(AgentError) == 1
		}, time.Second, 5*time.Millisecond)
		bus.Publish(context.Background(), AgentError, nil)
		assert.Equal(t, 1, calls)
	})
}
