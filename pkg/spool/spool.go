// Package spool buffers store requests that could not reach the MemMachine
// service. Entries are written on store failure and replayed later by the
// flush command, so a conversation turn is never silently lost to a network
// blip.
package spool

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/memgatehq/memgate/pkg/memmachine"
)

// Entry is one spooled store request.
type Entry struct {
	// ID uniquely identifies the entry.
	ID string `json:"id"`

	// CreatedAt records when the entry was spooled, in UTC.
	CreatedAt time.Time `json:"created_at"`

	// Messages is the store payload that failed to deliver.
	Messages []memmachine.Message `json:"messages"`
}

// NewEntry wraps messages in a fresh entry.
func NewEntry(messages []memmachine.Message) Entry {
	return Entry{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Messages:  messages,
	}
}

// Driver persists and drains spool entries. Implementations must be safe for
// concurrent use.
type Driver interface {
	// Append stores an entry. Appending an ID that already exists is a
	// no-op.
	Append(ctx context.Context, entry Entry) error

	// List returns all entries ordered oldest first.
	List(ctx context.Context) ([]Entry, error)

	// Remove deletes an entry by ID.
	Remove(ctx context.Context, id string) error

	// Len reports the number of spooled entries.
	Len(ctx context.Context) (int, error)

	// Close releases any resources held by the driver.
	Close() error
}

// ErrNotFound is returned when an entry doesn't exist in the spool.
type ErrNotFound struct {
	ID string
}

func (e ErrNotFound) Error() string {
	if e.ID == "" {
		return "spool entry not found"
	}

	return "spool entry not found: " + e.ID
}
