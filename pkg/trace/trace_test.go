package trace_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/memgatehq/memgate/pkg/trace"
)

var _ = Describe("Nop", func() {
	It("returns the caller's context and a span that tolerates everything", func() {
		ctx := context.Background()
		outCtx, span := trace.Nop().StartSpan(ctx, "anything", map[string]any{"k": "v"})
		Expect(outCtx).To(BeIdenticalTo(ctx))

		span.SetAttribute("k2", 3)
		span.SetError(errors.New("ignored"))
		span.End()
		span.End()
	})
})

var _ = Describe("ZapTracer", func() {
	var (
		core   *observer.ObservedLogs
		tracer trace.Tracer
	)

	BeforeEach(func() {
		obsCore, logs := observer.New(zap.DebugLevel)
		core = logs
		tracer = trace.NewZapTracer(zap.New(obsCore))
	})

	It("logs span start with attributes", func() {
		_, span := tracer.StartSpan(context.Background(), "memory.context", map[string]any{"query": "q"})
		span.End()

		starts := core.FilterMessage("span start").All()
		Expect(starts).To(HaveLen(1))
		Expect(starts[0].ContextMap()).To(HaveKeyWithValue("span", "memory.context"))
		Expect(starts[0].ContextMap()).To(HaveKeyWithValue("query", "q"))
	})

	It("logs span end with duration and later attributes", func() {
		_, span := tracer.StartSpan(context.Background(), "memory.store", nil)
		span.SetAttribute("messages", int64(2))
		span.End()

		ends := core.FilterMessage("span end").All()
		Expect(ends).To(HaveLen(1))
		Expect(ends[0].Level).To(Equal(zap.DebugLevel))
		Expect(ends[0].ContextMap()).To(HaveKey("duration"))
		Expect(ends[0].ContextMap()).To(HaveKeyWithValue("messages", int64(2)))
	})

	It("downgrades the close to a warning when the span failed", func() {
		_, span := tracer.StartSpan(context.Background(), "memory.store", nil)
		span.SetError(errors.New("store failed"))
		span.End()

		ends := core.FilterMessage("span end").All()
		Expect(ends).To(HaveLen(1))
		Expect(ends[0].Level).To(Equal(zap.WarnLevel))
		Expect(ends[0].ContextMap()).To(HaveKeyWithValue("error", "store failed"))
	})

	It("logs each span close at most once", func() {
		_, span := tracer.StartSpan(context.Background(), "x", nil)
		span.End()
		span.End()
		Expect(core.FilterMessage("span end").All()).To(HaveLen(1))
	})
})
