package mcp

import (
	"context"
	"errors"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/memgatehq/memgate/pkg/memmachine"
	"github.com/memgatehq/memgate/pkg/memory"
)

type fakeProvider struct {
	contextOut  string
	rememberErr error
	received    [][]memmachine.Message
}

func (f *fakeProvider) Context(_ context.Context, _ string) string {
	return f.contextOut
}

func (f *fakeProvider) Messages(_ context.Context, _ string) []memory.ContextMessage {
	return nil
}

func (f *fakeProvider) Remember(_ context.Context, messages []memmachine.Message) error {
	f.received = append(f.received, messages)
	return f.rememberErr
}

var _ = Describe("MCP Server", func() {
	var (
		provider *fakeProvider
		server   *Server
	)

	BeforeEach(func() {
		provider = &fakeProvider{}

		var err error
		server, err = NewServer(Config{
			Provider: provider,
			Logger:   zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("returns an error when the provider is nil", func() {
			_, err := NewServer(Config{Logger: zap.NewNop()})
			Expect(err).To(MatchError(ContainSubstring("provider is required")))
		})

		It("returns an error when the logger is nil", func() {
			_, err := NewServer(Config{Provider: provider})
			Expect(err).To(MatchError(ContainSubstring("logger is required")))
		})

		It("returns an HTTP handler", func() {
			Expect(server.Handler()).NotTo(BeNil())
		})

		It("builds an empty server in noop mode without collaborators", func() {
			noop, err := NewServer(Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(noop).NotTo(BeNil())
		})
	})

	Describe("handleMemoryRecall", func() {
		It("returns the rendered context", func() {
			provider.contextOut = "## Conversation History\n- **u1** → a1: hello"

			result, output, err := server.handleMemoryRecall(
				context.Background(), nil, MemoryRecallInput{Query: "greeting"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(output.Context).To(Equal(provider.contextOut))
			Expect(result.Content[0].(*sdk.TextContent).Text).To(Equal(provider.contextOut))
		})

		It("rejects an empty query as a tool error", func() {
			result, _, err := server.handleMemoryRecall(
				context.Background(), nil, MemoryRecallInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
		})
	})

	Describe("handleMemoryStore", func() {
		messages := []memmachine.Message{{Content: "hello", Producer: "u1"}}

		It("stores messages and reports the count", func() {
			result, output, err := server.handleMemoryStore(
				context.Background(), nil, MemoryStoreInput{Messages: messages})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(output.Stored).To(Equal(1))
			Expect(provider.received).To(HaveLen(1))
		})

		It("rejects an empty message list as a tool error", func() {
			result, _, err := server.handleMemoryStore(
				context.Background(), nil, MemoryStoreInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
			Expect(provider.received).To(BeEmpty())
		})

		It("surfaces provider failures as tool errors, not transport errors", func() {
			provider.rememberErr = errors.New("unreachable")

			result, _, err := server.handleMemoryStore(
				context.Background(), nil, MemoryStoreInput{Messages: messages})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
			Expect(result.Content[0].(*sdk.TextContent).Text).To(ContainSubstring("unreachable"))
		})
	})
})
