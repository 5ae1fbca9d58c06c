package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sethvargo/go-retry"

	"github.com/beacon-agent/beacon/engine/core"
	"github.com/beacon-agent/beacon/engine/events"
	"github.com/beacon-agent/beacon/pkg/logger"
)

const (
	defaultMaxRetries  = 3
	defaultTimeout     = 10 * time.Second
	defaultBaseBackoff = 1 * time.Second
	defaultMaxBackoff  = 10 * time.Second

	// jitterPercent spreads concurrent retries by up to ±20% per delay.
	jitterPercent = 20
)

// Options tunes delivery behavior. Timing is configured here explicitly:
// test suites shorten BaseBackoff and set AwaitDeliveries instead of the
// subsystem sniffing a runtime mode.
type Options struct {
	// MaxRetries is the total number of attempts per webhook, including the
	// first one.
	MaxRetries int
	// Timeout bounds each individual HTTP attempt.
	Timeout time.Duration
	// BaseBackoff seeds the exponential delay between attempts.
	BaseBackoff time.Duration
	// MaxBackoff caps the pre-jitter delay.
	MaxBackoff time.Duration
	// DisableSigning suppresses the signature header even when a webhook has
	// a secret.
	DisableSigning bool
	// AwaitDeliveries makes event fan-out wait for all deliveries and return
	// their results instead of firing and forgetting.
	AwaitDeliveries bool
}

func (o *Options) normalize() {
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultMaxRetries
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.BaseBackoff <= 0 {
		o.BaseBackoff = defaultBaseBackoff
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = defaultMaxBackoff
	}
}

// backoff builds the retry schedule: exponential from BaseBackoff, jittered,
// then capped. The cap wraps the jitter so MaxBackoff bounds the delay that
// is actually slept, not the pre-jitter one.
func (o Options) backoff() retry.Backoff {
	b := retry.NewExponential(o.BaseBackoff)
	b = retry.WithJitterPercent(jitterPercent, b)
	b = retry.WithCappedDuration(o.MaxBackoff, b)
	return retry.WithMaxRetries(uint64(o.MaxRetries-1), b) // #nosec G115 -- normalized above
}

// DeliveryResult reports the terminal outcome of delivering one envelope to
// one webhook. Attempt is the number of the attempt that produced this
// outcome (MaxRetries when exhausted).
type DeliveryResult struct {
	WebhookID    core.ID       `json:"webhook_id"`
	EventID      string        `json:"event_id"`
	EventType    events.Name   `json:"event_type"`
	Success      bool          `json:"success"`
	StatusCode   int           `json:"status_code,omitempty"`
	Error        string        `json:"error,omitempty"`
	Attempt      int           `json:"attempt"`
	ResponseTime time.Duration `json:"response_time"`
}

// Deliverer performs signed, retried HTTP POSTs to webhook endpoints.
type Deliverer struct {
	client *resty.Client
	opts   Options
}

func NewDeliverer(opts Options) *Deliverer {
	opts.normalize()
	client := resty.New().
		SetHeader("User-Agent", userAgent).
		SetRetryCount(0) // retries are driven here, not by the HTTP client
	return &Deliverer{client: client, opts: opts}
}

// Deliver posts the envelope to one webhook, retrying transport errors and
// non-2xx responses with exponential backoff. It never returns an error:
// exhaustion yields a failed result for logging, because webhook delivery is
// a best-effort side channel that must not crash the emitting path.
func (d *Deliverer) Deliver(ctx context.Context, wh *Config, env *Envelope) *DeliveryResult {
	result := &DeliveryResult{WebhookID: wh.ID, EventID: env.ID, EventType: env.Type}
	body, err := json.Marshal(env)
	if err != nil {
		result.Error = fmt.Sprintf("failed to encode envelope: %v", err)
		return result
	}

	backoff := d.opts.backoff()
	attempt := 0
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		result.Attempt = attempt
		start := time.Now()
		code, attemptErr := d.attempt(ctx, wh, env, body, attempt)
		result.ResponseTime = time.Since(start)
		result.StatusCode = code
		if attemptErr != nil {
			return retry.RetryableError(attemptErr)
		}
		return nil
	})
	if err != nil {
		if inner := errors.Unwrap(err); inner != nil {
			err = inner
		}
		result.Error = err.Error()
		logger.FromContext(ctx).Warn("webhook delivery exhausted",
			"webhook", wh.ID, "event", env.ID, "attempts", result.Attempt,
			"status", result.StatusCode, "error", result.Error)
		return result
	}
	result.Success = true
	return result
}

// attempt performs one POST with a per-attempt timeout, independent of the
// subscription lifecycle.
func (d *Deliverer) attempt(ctx context.Context, wh *Config, env *Envelope, body []byte, attempt int) (int, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	req := d.client.R().
		SetContext(attemptCtx).
		SetHeader("Content-Type", "application/json").
		SetHeader(HeaderEventType, string(env.Type)).
		SetHeader(HeaderEventID, env.ID).
		SetHeader(HeaderDeliveryAttempt, strconv.Itoa(attempt)).
		SetBody(body)
	if wh.Secret != "" && !d.opts.DisableSigning {
		req.SetHeader(HeaderSignature, Sign(wh.Secret, body))
	}

	resp, err := req.Post(wh.URL)
	if err != nil {
		return 0, err
	}
	if resp.IsSuccess() {
		return resp.StatusCode(), nil
	}
	return resp.StatusCode(), fmt.Errorf("unexpected status %d", resp.StatusCode())
}
