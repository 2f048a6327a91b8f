package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/memgatehq/memgate/pkg/memmachine"
	"github.com/memgatehq/memgate/pkg/memory"
)

// MemoryProvider is the slice of the memory provider the server needs.
// *memory.Provider satisfies it; tests substitute fakes.
type MemoryProvider interface {
	Context(ctx context.Context, query string) string
	Messages(ctx context.Context, query string) []memory.ContextMessage
	Remember(ctx context.Context, messages []memmachine.Message) error
}

// Server is the API server for recalling and storing memories.
type Server struct {
	config   Config
	provider MemoryProvider
	logger   *zap.Logger
	app      *fiber.App
}

// NewServer creates a new API server. The provider is injected to allow
// sharing with other surfaces (e.g., the MCP server). The mcpHandler, when
// non-nil, is mounted at /mcp.
func NewServer(config Config, provider MemoryProvider, mcpHandler http.Handler, logger *zap.Logger) (*Server, error) {
	if provider == nil {
		return nil, errors.New("memory provider is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		provider: provider,
		logger:   logger,
		app:      app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/v1/context", s.handleContext)
	app.Get("/v1/search", s.handleSearch)
	app.Post("/v1/store", s.handleStore)

	if mcpHandler != nil {
		app.All("/mcp", adaptor.HTTPHandler(mcpHandler))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
