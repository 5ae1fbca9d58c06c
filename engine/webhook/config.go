package webhook

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/beacon-agent/beacon/engine/core"
)

// Config is one registered webhook endpoint. Secret, when set, enables
// HMAC-SHA256 signing of every delivery to this endpoint.
type Config struct {
	ID          core.ID   `json:"id"`
	URL         string    `json:"url"`
	Secret      string    `json:"secret,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RegisterInput is the operator-facing registration payload.
type RegisterInput struct {
	URL         string `json:"url"`
	Secret      string `json:"secret,omitempty"`
	Description string `json:"description,omitempty"`
}

// Validate checks the registration payload before a Config is minted.
func (in *RegisterInput) Validate() error {
	raw := strings.TrimSpace(in.URL)
	if raw == "" {
		return errors.New("webhook url is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid webhook url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("webhook url must use http or https scheme, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("webhook url must include a host")
	}
	return nil
}
