package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Handler receives published events. Handlers run synchronously on the
// publishing goroutine; long-running work belongs in the handler's own
// goroutine.
type Handler func(ctx context.Context, evt Event)

type registration struct {
	id uint64
	fn Handler
}

// Bus is an in-process publish/subscribe hub for agent lifecycle events.
// For a single event, handlers fire in registration order; ordering across
// different event names is only the emission order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Name][]registration
	nextID   uint64
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[Name][]registration)}
}

// Subscribe registers fn for the named event until ctx is done. A group of
// subscriptions sharing one context is therefore detached by a single
// cancellation. A context that can never be cancelled (context.Background)
// registers permanently and spawns no watcher goroutine.
func (b *Bus) Subscribe(ctx context.Context, name Name, fn Handler) {
	id := atomic.AddUint64(&b.nextID, 1)

	b.mu.Lock()
	b.handlers[name] = append(b.handlers[name], registration{id: id, fn: fn})
	b.mu.Unlock()

	done := ctx.Done()
	if done == nil {
		return
	}
	go func() {
		<-done
		b.remove(name, id)
	}()
}

// Publish delivers evt to every handler registered for its name. The handler
// list is snapshotted first, so handlers added or removed mid-publish do not
// affect this delivery.
func (b *Bus) Publish(ctx context.Context, name Name, payload any) {
	evt := Event{Name: name, Payload: payload, Time: time.Now().UTC()}

	b.mu.RLock()
	regs := b.handlers[name]
	snapshot := make([]registration, len(regs))
	copy(snapshot, regs)
	b.mu.RUnlock()

	for _, reg := range snapshot {
		reg.fn(ctx, evt)
	}
}

// SubscriberCount reports how many handlers are registered for name.
func (b *Bus) SubscriberCount(name Name) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[name])
}

func (b *Bus) remove(name Name, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	regs := b.handlers[name]
	for i, reg := range regs {
		if reg.id == id {
			b.handlers[name] = append(regs[:i:i], regs[i+1:]...)
			break
		}
	}
	if len(b.handlers[name]) == 0 {
		delete(b.handlers, name)
	}
}
