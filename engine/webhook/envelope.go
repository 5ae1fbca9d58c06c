package webhook

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/beacon-agent/beacon/engine/events"
)

// APIVersion is stamped on every envelope so receivers can track payload
// shape changes.
const APIVersion = "2024-06-01"

// Envelope is the JSON wrapper around every outbound event payload.
type Envelope struct {
	ID         string      `json:"id"`
	Type       events.Name `json:"type"`
	Data       any         `json:"data"`
	Created    string      `json:"created"`
	APIVersion string      `json:"apiVersion"`
}

// NewEnvelope wraps an event for delivery. IDs are "evt_<unix-ms>_<random>"
// so receivers can both order and deduplicate deliveries.
func NewEnvelope(evt events.Event) *Envelope {
	return &Envelope{
		ID:         newEventID(evt.Time),
		Type:       evt.Name,
		Data:       evt.Payload,
		Created:    evt.Time.UTC().Format(time.RFC3339),
		APIVersion: APIVersion,
	}
}

func newEventID(t time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("evt_%d_%s", t.UnixMilli(), random)
}
