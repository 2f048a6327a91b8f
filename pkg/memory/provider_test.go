package memory_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/memgatehq/memgate/pkg/eventstream"
	"github.com/memgatehq/memgate/pkg/memmachine"
	"github.com/memgatehq/memgate/pkg/memory"
	"github.com/memgatehq/memgate/pkg/spool/inmemory"
)

type fakeClient struct {
	mu sync.Mutex

	searchRaw json.RawMessage
	searchErr error
	queries   []string

	storeErrs []error
	stored    [][]memmachine.Message
}

func (f *fakeClient) Search(_ context.Context, query string, _ int) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchRaw, nil
}

func (f *fakeClient) Store(_ context.Context, messages []memmachine.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.storeErrs) > 0 {
		err := f.storeErrs[0]
		f.storeErrs = f.storeErrs[1:]
		if err != nil {
			return err
		}
	}
	f.stored = append(f.stored, messages)
	return nil
}

func (f *fakeClient) OrgID() string     { return "org-1" }
func (f *fakeClient) ProjectID() string { return "proj-1" }

type fakePublisher struct {
	mu         sync.Mutex
	events     []eventstream.MemoryStoredEvent
	publishErr error
}

func (f *fakePublisher) Publish(_ context.Context, event eventstream.MemoryStoredEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

var _ = Describe("Provider", func() {
	var (
		ctx       context.Context
		client    *fakeClient
		driver    *inmemory.Driver
		publisher *fakePublisher
	)

	newProvider := func(opts memory.Options) *memory.Provider {
		provider, err := memory.NewProvider(client, driver, publisher, nil, zap.NewNop(), opts)
		Expect(err).NotTo(HaveOccurred())
		return provider
	}

	BeforeEach(func() {
		ctx = context.Background()
		client = &fakeClient{}
		driver = inmemory.NewDriver()
		publisher = &fakePublisher{}
	})

	Describe("NewProvider", func() {
		It("requires its collaborators", func() {
			_, err := memory.NewProvider(nil, driver, publisher, nil, zap.NewNop(), memory.Options{})
			Expect(err).To(MatchError(ContainSubstring("client")))

			_, err = memory.NewProvider(client, nil, publisher, nil, zap.NewNop(), memory.Options{})
			Expect(err).To(MatchError(ContainSubstring("spool")))

			_, err = memory.NewProvider(client, driver, nil, nil, zap.NewNop(), memory.Options{})
			Expect(err).To(MatchError(ContainSubstring("publisher")))

			_, err = memory.NewProvider(client, driver, publisher, nil, nil, memory.Options{})
			Expect(err).To(MatchError(ContainSubstring("logger")))
		})
	})

	Describe("Context", func() {
		It("renders recalled memories through the template", func() {
			client.searchRaw = json.RawMessage(
				`{"memories":[{"type":"episodic","content":"hello","producer_id":"u1","produced_for_id":"a1"}]}`)

			provider := newProvider(memory.Options{Template: "H:{{history}}|P:{{profileMemory}}"})
			out := provider.Context(ctx, "greeting")

			Expect(out).To(Equal("H:- **u1** → a1: hello|P:*No profile information available*"))
			Expect(client.queries).To(Equal([]string{"greeting"}))
		})

		It("renders the same deduped facts into profile and semantic sections", func() {
			client.searchRaw = json.RawMessage(
				`{"memories":[
					{"type":"profile","tag":"Diet","feature_name":"preference","value":"vegan"},
					{"type":"profile","tag":"Diet","feature_name":"preference","value":"vegan"}
				]}`)

			provider := newProvider(memory.Options{Template: "{{profileMemory}}||{{semanticMemory}}"})
			out := provider.Context(ctx, "prefs")

			Expect(out).To(Equal("### Diet\n- **preference**: vegan||- **Diet** / preference: vegan"))
		})

		It("degrades to an empty render when the search fails", func() {
			client.searchErr = errors.New("service down")

			provider := newProvider(memory.Options{Template: "{{history}}"})
			Expect(provider.Context(ctx, "anything")).To(Equal("*No memories in this category*"))
		})

		It("skips the remote call for a blank query", func() {
			provider := newProvider(memory.Options{Template: "{{history}}"})
			provider.Context(ctx, "   ")
			Expect(client.queries).To(BeEmpty())
		})

		It("uses pre-bucketed membership when the response carries buckets", func() {
			client.searchRaw = json.RawMessage(
				`{"content":{"episodic_memory":{
					"short_term_memory":{"episodes":[{"uid":"s1","content":"recent","producer_id":"u1","produced_for_id":"a1"}]},
					"long_term_memory":{"episodes":[{"uid":"l1","content":"old","producer_id":"u1","produced_for_id":"a1"}]}
				}}}`)

			provider := newProvider(memory.Options{Template: "H:{{history}}|S:{{shortTermMemory}}|L:{{longTermMemory}}"})
			out := provider.Context(ctx, "q")

			Expect(out).To(Equal(
				"H:*No memories in this category*|S:- **u1** → a1: recent|L:- **u1** → a1: old"))
		})

		It("falls back to the default template", func() {
			provider := newProvider(memory.Options{})
			out := provider.Context(ctx, "q")
			Expect(out).To(ContainSubstring("## Conversation History"))
			Expect(out).To(ContainSubstring("*No memories in this category*"))
		})
	})

	Describe("SetTemplate", func() {
		It("swaps the template for subsequent recalls", func() {
			provider := newProvider(memory.Options{Template: "A:{{history}}"})
			provider.SetTemplate("B:{{history}}")
			Expect(provider.Context(ctx, "q")).To(Equal("B:*No memories in this category*"))
		})

		It("restores the default for an empty template", func() {
			provider := newProvider(memory.Options{Template: "custom"})
			provider.SetTemplate("")
			Expect(provider.Template()).To(Equal(memory.DefaultTemplate))
		})
	})

	Describe("Messages", func() {
		It("returns deduped role-classified messages", func() {
			client.searchRaw = json.RawMessage(
				`{"memories":[
					{"type":"episodic","content":"hi","producer_id":"u1","produced_for_id":"bot"},
					{"type":"episodic","content":"hi","producer_id":"u1","produced_for_id":"bot"},
					{"type":"episodic","content":"hello back","producer_id":"bot","produced_for_id":"u1"}
				]}`)

			provider := newProvider(memory.Options{UserIDs: []string{"u1"}})
			msgs := provider.Messages(ctx, "q")

			Expect(msgs).To(HaveLen(2))
			Expect(msgs[0].Role).To(Equal(memory.RoleHuman))
			Expect(msgs[0].Content).To(Equal("hi"))
			Expect(msgs[1].Role).To(Equal(memory.RoleAI))
		})

		It("returns an empty slice when the search fails", func() {
			client.searchErr = errors.New("down")
			provider := newProvider(memory.Options{})
			Expect(provider.Messages(ctx, "q")).To(BeEmpty())
		})
	})

	Describe("Remember", func() {
		messages := []memmachine.Message{{Content: "hello", Producer: "u1", Role: "user"}}

		It("stores messages and publishes a stored event", func() {
			provider := newProvider(memory.Options{SessionID: "sess-9"})
			Expect(provider.Remember(ctx, messages)).To(Succeed())

			Expect(client.stored).To(HaveLen(1))
			Expect(publisher.events).To(HaveLen(1))
			Expect(publisher.events[0].OrgID).To(Equal("org-1"))
			Expect(publisher.events[0].ProjectID).To(Equal("proj-1"))
			Expect(publisher.events[0].SessionID).To(Equal("sess-9"))
			Expect(publisher.events[0].MessageCount).To(Equal(1))
		})

		It("rejects an empty message list", func() {
			provider := newProvider(memory.Options{})
			Expect(provider.Remember(ctx, nil)).To(MatchError(ContainSubstring("at least one message")))
		})

		It("spools the request and returns the error when the store fails", func() {
			client.storeErrs = []error{errors.New("unreachable")}
			provider := newProvider(memory.Options{})

			err := provider.Remember(ctx, messages)
			Expect(err).To(MatchError(ContainSubstring("unreachable")))

			count, lenErr := driver.Len(ctx)
			Expect(lenErr).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))
			Expect(publisher.events).To(BeEmpty())
		})

		It("treats a publish failure as non-fatal", func() {
			publisher.publishErr = errors.New("broker down")
			provider := newProvider(memory.Options{})
			Expect(provider.Remember(ctx, messages)).To(Succeed())
		})
	})

	Describe("Flush", func() {
		messages := []memmachine.Message{{Content: "spooled", Producer: "u1"}}

		It("replays spooled entries oldest first and clears them", func() {
			client.storeErrs = []error{errors.New("down"), errors.New("down")}
			provider := newProvider(memory.Options{})

			Expect(provider.Remember(ctx, messages)).NotTo(Succeed())
			Expect(provider.Remember(ctx, []memmachine.Message{{Content: "second"}})).NotTo(Succeed())

			flushed, err := provider.Flush(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(flushed).To(Equal(2))

			count, _ := driver.Len(ctx)
			Expect(count).To(BeZero())
			Expect(client.stored).To(HaveLen(2))
			Expect(client.stored[0][0].Content).To(Equal("spooled"))
		})

		It("stops at the first replay failure and keeps the remainder", func() {
			client.storeErrs = []error{errors.New("down"), errors.New("down")}
			provider := newProvider(memory.Options{})
			_ = provider.Remember(ctx, messages)
			_ = provider.Remember(ctx, []memmachine.Message{{Content: "second"}})

			client.storeErrs = []error{nil, errors.New("still down")}
			flushed, err := provider.Flush(ctx)
			Expect(err).To(MatchError(ContainSubstring("still down")))
			Expect(flushed).To(Equal(1))

			count, _ := driver.Len(ctx)
			Expect(count).To(Equal(1))
		})
	})
})
