package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/memgatehq/memgate/pkg/eventstream"
	"github.com/memgatehq/memgate/pkg/memmachine"
	"github.com/memgatehq/memgate/pkg/spool"
	"github.com/memgatehq/memgate/pkg/trace"
)

// DefaultTemplate is the context layout used when no custom template is
// configured.
const DefaultTemplate = `## Conversation History
{{history}}

## Short-Term Memory
{{shortTermMemory}}

## Long-Term Memory
{{longTermMemory}}

## Profile
{{profileMemory}}

## Semantic Features
{{semanticMemory}}

## Episode Summaries
{{episodeSummary}}`

// SearchClient is the slice of the MemMachine client the provider needs.
// *memmachine.Client satisfies it; tests substitute fakes.
type SearchClient interface {
	Search(ctx context.Context, query string, limit int) (json.RawMessage, error)
	Store(ctx context.Context, messages []memmachine.Message) error
	OrgID() string
	ProjectID() string
}

// Options tunes the provider's recall and store behavior.
type Options struct {
	// HistoryCount and ShortTermCount size the positional buckets.
	// Zero values fall back to the package defaults.
	HistoryCount   int
	ShortTermCount int

	// SearchLimit caps how many memories a recall requests. Zero asks
	// the service for its default.
	SearchLimit int

	// Template overrides DefaultTemplate when non-empty.
	Template string

	// UserIDs lists producer IDs classified as human; all others are
	// treated as AI.
	UserIDs []string

	// SessionID tags stored memories and emitted events.
	SessionID string
}

// ContextMessage is one recalled message on the raw (non-templated) path.
type ContextMessage struct {
	Role        Role   `json:"role"`
	Content     string `json:"content"`
	Producer    string `json:"producer,omitempty"`
	ProducedFor string `json:"produced_for,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// Provider orchestrates the recall and store pipelines: it searches the
// MemMachine service, normalizes and deduplicates what comes back,
// categorizes episodes, and renders templates; on the store side it spools
// undeliverable requests and emits events for delivered ones.
//
// Recall never fails: a search error degrades to an empty context so the
// caller's prompt assembly keeps working without memories.
type Provider struct {
	client    SearchClient
	tracer    trace.Tracer
	logger    *zap.Logger
	spool     spool.Driver
	publisher eventstream.Publisher

	opts     Options
	classify RoleClassifier

	mu       sync.RWMutex
	template string
}

// NewProvider wires a provider. Client, logger, spool, and publisher are
// required; a nil tracer falls back to trace.Nop().
func NewProvider(
	client SearchClient,
	spoolDriver spool.Driver,
	publisher eventstream.Publisher,
	tracer trace.Tracer,
	logger *zap.Logger,
	opts Options,
) (*Provider, error) {
	if client == nil {
		return nil, errors.New("memmachine client is required")
	}
	if spoolDriver == nil {
		return nil, errors.New("spool driver is required")
	}
	if publisher == nil {
		return nil, errors.New("event publisher is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if tracer == nil {
		tracer = trace.Nop()
	}

	if opts.HistoryCount == 0 {
		opts.HistoryCount = DefaultHistoryCount
	}
	if opts.ShortTermCount == 0 {
		opts.ShortTermCount = DefaultShortTermCount
	}

	template := opts.Template
	if template == "" {
		template = DefaultTemplate
	}

	return &Provider{
		client:    client,
		tracer:    tracer,
		logger:    logger,
		spool:     spoolDriver,
		publisher: publisher,
		opts:      opts,
		classify:  ClassifierFromUserIDs(opts.UserIDs),
		template:  template,
	}, nil
}

// SetTemplate replaces the recall template. An empty template restores the
// default.
func (p *Provider) SetTemplate(template string) {
	if template == "" {
		template = DefaultTemplate
	}

	p.mu.Lock()
	p.template = template
	p.mu.Unlock()
}

// Template returns the current recall template.
func (p *Provider) Template() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.template
}

// Context recalls memories for query and renders them through the template.
// A search failure is logged and rendered as an empty context; Context never
// returns an error.
func (p *Provider) Context(ctx context.Context, query string) string {
	ctx, span := p.tracer.StartSpan(ctx, "memory.context", map[string]any{
		"project_id": p.client.ProjectID(),
	})
	defer span.End()

	normalized := p.search(ctx, query, span)
	categorized := p.categorize(normalized)

	span.SetAttribute("episodes", categorized.Total())
	span.SetAttribute("facts", len(normalized.Facts))

	// Profile and semantic sections are two views over the same deduped
	// facts: grouped by subject vs raw.
	facts := DedupeFacts(normalized.Facts)

	return Render(p.Template(), RenderContext{
		Categorized: categorized,
		Profile:     facts,
		Features:    facts,
		Summaries:   normalized.Summaries,
	})
}

// Messages recalls memories for query as role-classified messages, for
// callers that assemble prompts themselves instead of using a template.
// Like Context, it degrades to an empty slice on search failure.
func (p *Provider) Messages(ctx context.Context, query string) []ContextMessage {
	ctx, span := p.tracer.StartSpan(ctx, "memory.messages", map[string]any{
		"project_id": p.client.ProjectID(),
	})
	defer span.End()

	normalized := p.search(ctx, query, span)
	episodes := DedupeEpisodes(normalized.Episodes)
	span.SetAttribute("episodes", len(episodes))

	out := make([]ContextMessage, 0, len(episodes))
	for _, ep := range episodes {
		out = append(out, ContextMessage{
			Role:        p.classify(ep.Producer),
			Content:     ep.Content,
			Producer:    ep.Producer,
			ProducedFor: ep.ProducedFor,
			Timestamp:   ep.Timestamp,
		})
	}

	return out
}

// Remember stores messages. On delivery failure the request is spooled for
// later replay and the error returned; on success a stored event is
// published (publish failures are logged, not returned).
func (p *Provider) Remember(ctx context.Context, messages []memmachine.Message) error {
	if len(messages) == 0 {
		return errors.New("at least one message is required")
	}

	ctx, span := p.tracer.StartSpan(ctx, "memory.remember", map[string]any{
		"project_id": p.client.ProjectID(),
		"messages":   len(messages),
	})
	defer span.End()

	if err := p.client.Store(ctx, messages); err != nil {
		span.SetError(err)

		entry := spool.NewEntry(messages)
		if spoolErr := p.spool.Append(ctx, entry); spoolErr != nil {
			p.logger.Error("failed to spool undelivered store request",
				zap.String("entry_id", entry.ID),
				zap.Error(spoolErr),
			)
			return fmt.Errorf("storing memories: %w (spooling also failed: %v)", err, spoolErr)
		}

		p.logger.Warn("store failed, request spooled for replay",
			zap.String("entry_id", entry.ID),
			zap.Int("messages", len(messages)),
			zap.Error(err),
		)
		return fmt.Errorf("storing memories (spooled as %s): %w", entry.ID, err)
	}

	event := eventstream.NewMemoryStoredEvent(
		p.client.OrgID(), p.client.ProjectID(), p.opts.SessionID, len(messages),
	)
	if err := p.publisher.Publish(ctx, event); err != nil {
		p.logger.Warn("failed to publish stored event",
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
	}

	return nil
}

// Flush replays spooled entries oldest first, removing each one the service
// accepts. It stops at the first delivery failure and reports how many
// entries were replayed.
func (p *Provider) Flush(ctx context.Context) (int, error) {
	ctx, span := p.tracer.StartSpan(ctx, "memory.flush", nil)
	defer span.End()

	entries, err := p.spool.List(ctx)
	if err != nil {
		span.SetError(err)
		return 0, fmt.Errorf("listing spool: %w", err)
	}

	flushed := 0
	for _, entry := range entries {
		if err := p.client.Store(ctx, entry.Messages); err != nil {
			span.SetError(err)
			span.SetAttribute("flushed", flushed)
			return flushed, fmt.Errorf("replaying spool entry %s: %w", entry.ID, err)
		}
		if err := p.spool.Remove(ctx, entry.ID); err != nil {
			span.SetError(err)
			return flushed, fmt.Errorf("removing replayed spool entry %s: %w", entry.ID, err)
		}
		flushed++
	}

	span.SetAttribute("flushed", flushed)
	return flushed, nil
}

// search runs the remote query and normalizes the response. Failures are
// logged and recorded on the span, then flattened to an empty result.
func (p *Provider) search(ctx context.Context, query string, span trace.Span) Normalized {
	if strings.TrimSpace(query) == "" {
		return Normalized{}
	}

	raw, err := p.client.Search(ctx, query, p.opts.SearchLimit)
	if err != nil {
		span.SetError(err)
		p.logger.Warn("memory search failed, recalling empty context", zap.Error(err))
		return Normalized{}
	}

	return Normalize(raw)
}

func (p *Provider) categorize(normalized Normalized) Categorized {
	episodes := DedupeEpisodes(normalized.Episodes)
	if normalized.Bucketed {
		return CategorizeBuckets(episodes, normalized.ShortTermUUIDs, normalized.LongTermUUIDs)
	}
	return Categorize(episodes, p.opts.HistoryCount, p.opts.ShortTermCount)
}
