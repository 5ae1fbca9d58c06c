package core

import (
	"fmt"

	"github.com/segmentio/ksuid"
)

// ID is a K-sortable unique identifier used for webhooks and sessions.
type ID string

func NewID() (ID, error) {
	id, err := ksuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate ID: %w", err)
	}
	return ID(id.String()), nil
}

// MustNewID panics on generation failure; crypto/rand exhaustion is the only
// failure mode, so this is safe outside of init paths.
func MustNewID() ID {
	id, err := NewID()
	if err != nil {
		panic(err)
	}
	return id
}

func ParseID(s string) (ID, error) {
	if _, err := ksuid.Parse(s); err != nil {
		return "", fmt.Errorf("invalid ID %q: %w", s, err)
	}
	return ID(s), nil
}

func (id ID) String() string { return string(id) }
func (id ID) IsZero() bool   { return id == "" }
