package webhook

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/beacon-agent/beacon/engine/core"
	"github.com/beacon-agent/beacon/engine/events"
	"github.com/beacon-agent/beacon/pkg/logger"
)

// Error taxonomy (router maps to HTTP later)
var (
	ErrNotFound   = errors.New("webhook not found")
	ErrBadRequest = errors.New("bad request")
)

// Service owns the webhook registry and fans agent events out to every
// registered endpoint. Delivery failures are isolated per endpoint and never
// propagate to the code that emitted the event.
type Service struct {
	store     Store
	deliverer *Deliverer
	opts      Options

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewService(store Store, opts Options) *Service {
	opts.normalize()
	if store == nil {
		store = NewMemoryStore()
	}
	return &Service{store: store, deliverer: NewDeliverer(opts), opts: opts}
}

// Add validates the registration payload, mints an ID, and stores the
// webhook.
func (s *Service) Add(in *RegisterInput) (*Config, error) {
	if in == nil {
		return nil, ErrBadRequest
	}
	if err := in.Validate(); err != nil {
		return nil, errors.Join(ErrBadRequest, err)
	}
	cfg := &Config{
		ID:          core.MustNewID(),
		URL:         in.URL,
		Secret:      in.Secret,
		Description: in.Description,
		CreatedAt:   time.Now().UTC(),
	}
	s.store.Add(cfg)
	return cfg, nil
}

func (s *Service) Remove(id core.ID) bool {
	return s.store.Remove(id)
}

func (s *Service) Get(id core.ID) (*Config, bool) {
	return s.store.Get(id)
}

func (s *Service) List() []*Config {
	return s.store.List()
}

// Subscribe registers the service for every agent event name under a single
// shared cancellation handle. Cleanup detaches all listeners at once;
// deliveries already in flight are not aborted.
func (s *Service) Subscribe(bus *events.Bus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	for _, name := range events.All() {
		bus.Subscribe(ctx, name, func(ctx context.Context, evt events.Event) {
			s.dispatch(ctx, evt)
		})
	}
}

// Cleanup detaches all event listeners. Safe to call multiple times.
func (s *Service) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// dispatch wraps the event in an envelope and delivers it to a snapshot of
// the current webhooks concurrently. In normal operation deliveries are
// fire-and-forget; with AwaitDeliveries set it blocks and returns every
// result so tests can assert deterministically.
func (s *Service) dispatch(ctx context.Context, evt events.Event) []*DeliveryResult {
	targets := s.store.List()
	if len(targets) == 0 {
		return nil
	}
	env := NewEnvelope(evt)

	if !s.opts.AwaitDeliveries {
		for _, wh := range targets {
			go func(wh *Config) {
				// Detach from the handler's context: cancelling the
				// subscription must not abort an in-flight delivery.
				s.deliverer.Deliver(context.WithoutCancel(ctx), wh, env)
			}(wh)
		}
		return nil
	}

	results := make([]*DeliveryResult, len(targets))
	var wg sync.WaitGroup
	for i, wh := range targets {
		wg.Add(1)
		go func(i int, wh *Config) {
			defer wg.Done()
			results[i] = s.deliverer.Deliver(ctx, wh, env)
		}(i, wh)
	}
	wg.Wait()
	return results
}

// Dispatch exposes fan-out for callers that emit events outside the bus,
// e.g. replaying a stored event.
func (s *Service) Dispatch(ctx context.Context, evt events.Event) []*DeliveryResult {
	return s.dispatch(ctx, evt)
}

// Test sends a synthetic sample event through the regular single-webhook
// delivery path and returns the raw result for diagnostics.
func (s *Service) Test(ctx context.Context, id core.ID) (*DeliveryResult, error) {
	wh, ok := s.store.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	evt := events.Event{
		Name: events.AgentStarted,
		Payload: map[string]any{
			"sample":  true,
			"message": "webhook connectivity test",
		},
		Time: time.Now().UTC(),
	}
	result := s.deliverer.Deliver(ctx, wh, NewEnvelope(evt))
	logger.FromContext(ctx).Info("webhook test delivery finished",
		"webhook", id, "success", result.Success, "status", result.StatusCode)
	return result, nil
}
