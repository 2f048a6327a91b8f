// Package eventstream publishes gateway lifecycle events to an external
// stream. Today there is a single event, emitted after memories are
// successfully stored, so downstream consumers can react to new
// conversational context without polling the MemMachine service.
package eventstream

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SchemaVersionV1 is the current event schema version.
const SchemaVersionV1 = "v1"

// EventTypeMemoryStored identifies a successful memory store.
const EventTypeMemoryStored = "memgate.memory.stored"

// MemoryStoredEvent is emitted once per successful store request.
type MemoryStoredEvent struct {
	SchemaVersion string    `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	OrgID     string `json:"org_id"`
	ProjectID string `json:"project_id"`
	SessionID string `json:"session_id,omitempty"`

	// MessageCount is the number of messages in the stored request.
	MessageCount int `json:"message_count"`
}

// NewMemoryStoredEvent builds a v1 event with a fresh ID and timestamp.
func NewMemoryStoredEvent(orgID, projectID, sessionID string, messageCount int) MemoryStoredEvent {
	return MemoryStoredEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeMemoryStored,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		OrgID:         orgID,
		ProjectID:     projectID,
		SessionID:     sessionID,
		MessageCount:  messageCount,
	}
}

// Publisher delivers events to a stream. Implementations must be safe for
// concurrent use.
type Publisher interface {
	// Publish delivers one event. Delivery failures are the caller's to
	// handle; the gateway logs and continues.
	Publish(ctx context.Context, event MemoryStoredEvent) error

	// Close flushes and releases the publisher.
	Close() error
}
