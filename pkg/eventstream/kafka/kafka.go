// Package kafka publishes gateway events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	segmentio "github.com/segmentio/kafka-go"

	"github.com/memgatehq/memgate/pkg/eventstream"
)

// Publisher implements eventstream.Publisher on a Kafka writer. Events are
// keyed by project ID so per-project ordering is preserved within a
// partition.
type Publisher struct {
	writer kafkaWriter
}

// kafkaWriter is the slice of segmentio's Writer the publisher needs; tests
// substitute a fake.
type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...segmentio.Message) error
	Close() error
}

// NewPublisher creates a publisher writing to topic on the given brokers.
func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}
	if topic == "" {
		return nil, errors.New("kafka topic is required")
	}

	return &Publisher{
		writer: &segmentio.Writer{
			Addr:     segmentio.TCP(brokers...),
			Topic:    topic,
			Balancer: &segmentio.Hash{},
		},
	}, nil
}

// Publish encodes the event as JSON and writes it keyed by project ID.
func (p *Publisher) Publish(ctx context.Context, event eventstream.MemoryStoredEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, segmentio.Message{
		Key:   []byte(event.ProjectID),
		Value: value,
		Headers: []segmentio.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "schema_version", Value: []byte(event.SchemaVersion)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
