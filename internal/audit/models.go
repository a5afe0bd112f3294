// Package audit records every state change to a verification or dispute as an
// append-only trail.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Entity types recorded in the trail.
const (
	EntityVerification = "verification"
	EntityDispute      = "dispute"
)

// Entry is one append-only trail record. Entries are never updated or
// deleted; corrections are new entries.
type Entry struct {
	ID         string         `json:"id"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Action     string         `json:"action"`
	Details    map[string]any `json:"details,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// NewEntry builds a trail entry with a fresh ID and the current time.
func NewEntry(entityType, entityID, action string, details map[string]any) Entry {
	return Entry{
		ID:         "aud_" + uuid.NewString(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Details:    details,
		Timestamp:  time.Now().UTC(),
	}
}
