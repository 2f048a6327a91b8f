// Package nop provides a publisher that drops every event. It is the default
// when no event stream is configured.
package nop

import (
	"context"

	"github.com/memgatehq/memgate/pkg/eventstream"
)

// Publisher implements eventstream.Publisher by discarding events.
type Publisher struct{}

// NewPublisher creates a drop-everything publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Publish discards the event.
func (p *Publisher) Publish(_ context.Context, _ eventstream.MemoryStoredEvent) error {
	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
