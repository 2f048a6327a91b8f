package kafka_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	segmentio "github.com/segmentio/kafka-go"

	"github.com/memgatehq/memgate/pkg/eventstream"
	"github.com/memgatehq/memgate/pkg/eventstream/kafka"
)

type fakeWriter struct {
	messages []segmentio.Message
	writeErr error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...segmentio.Message) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

var _ = Describe("NewPublisher", func() {
	It("requires brokers and a topic", func() {
		_, err := kafka.NewPublisher(nil, "topic")
		Expect(err).To(MatchError(ContainSubstring("broker")))

		_, err = kafka.NewPublisher([]string{"localhost:9092"}, "")
		Expect(err).To(MatchError(ContainSubstring("topic")))
	})

	It("builds a publisher for valid settings", func() {
		pub, err := kafka.NewPublisher([]string{"localhost:9092"}, "memgate.memory.stored")
		Expect(err).NotTo(HaveOccurred())
		Expect(pub).NotTo(BeNil())
	})
})

var _ = Describe("Publish", func() {
	var (
		writer *fakeWriter
		pub    *kafka.Publisher
	)

	BeforeEach(func() {
		writer = &fakeWriter{}
		pub = kafka.NewPublisherWithWriter(writer)
	})

	It("writes the event as JSON keyed by project ID", func() {
		event := eventstream.NewMemoryStoredEvent("org-1", "proj-1", "sess-1", 3)

		Expect(pub.Publish(context.Background(), event)).To(Succeed())
		Expect(writer.messages).To(HaveLen(1))

		msg := writer.messages[0]
		Expect(string(msg.Key)).To(Equal("proj-1"))

		var decoded eventstream.MemoryStoredEvent
		Expect(json.Unmarshal(msg.Value, &decoded)).To(Succeed())
		Expect(decoded.EventType).To(Equal(eventstream.EventTypeMemoryStored))
		Expect(decoded.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		Expect(decoded.EventID).To(Equal(event.EventID))
		Expect(decoded.MessageCount).To(Equal(3))
	})

	It("carries event type and schema version as headers", func() {
		event := eventstream.NewMemoryStoredEvent("org-1", "proj-1", "", 1)
		Expect(pub.Publish(context.Background(), event)).To(Succeed())

		headers := writer.messages[0].Headers
		Expect(headers).To(HaveLen(2))
		Expect(headers[0].Key).To(Equal("event_type"))
		Expect(string(headers[0].Value)).To(Equal("memgate.memory.stored"))
		Expect(headers[1].Key).To(Equal("schema_version"))
		Expect(string(headers[1].Value)).To(Equal("v1"))
	})

	It("wraps writer failures", func() {
		writer.writeErr = errors.New("broker unreachable")
		err := pub.Publish(context.Background(), eventstream.NewMemoryStoredEvent("o", "p", "", 0))
		Expect(err).To(MatchError(ContainSubstring("failed to publish event")))
	})

	It("closes the underlying writer", func() {
		Expect(pub.Close()).To(Succeed())
		Expect(writer.closed).To(BeTrue())
	})
})
