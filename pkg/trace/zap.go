package trace

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// NewZapTracer returns a tracer that logs span start and end through the
// given logger. End logs the duration; SetError downgrades the close to a
// warning carrying the error.
func NewZapTracer(logger *zap.Logger) Tracer {
	return &zapTracer{logger: logger}
}

type zapTracer struct {
	logger *zap.Logger
}

func (t *zapTracer) StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, Span) {
	fields := make([]zap.Field, 0, len(attrs))
	for k, v := range attrs {
		fields = append(fields, zap.Any(k, v))
	}
	t.logger.Debug("span start", append([]zap.Field{zap.String("span", name)}, fields...)...)

	return ctx, &zapSpan{
		logger: t.logger,
		name:   name,
		start:  time.Now(),
	}
}

type zapSpan struct {
	logger *zap.Logger
	name   string
	start  time.Time

	mu    sync.Mutex
	attrs []zap.Field
	err   error
	ended bool
}

func (s *zapSpan) SetAttribute(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attrs = append(s.attrs, zap.Any(key, value))
}

func (s *zapSpan) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *zapSpan) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true

	fields := append([]zap.Field{
		zap.String("span", s.name),
		zap.Duration("duration", time.Since(s.start)),
	}, s.attrs...)

	if s.err != nil {
		s.logger.Warn("span end", append(fields, zap.Error(s.err))...)
		return
	}
	s.logger.Debug("span end", fields...)
}
