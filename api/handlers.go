package api

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/memgatehq/memgate/pkg/memmachine"
	"github.com/memgatehq/memgate/pkg/memory"
)

// ErrorResponse is the JSON error body for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ContextResponse carries a rendered memory context.
type ContextResponse struct {
	Context string `json:"context"`
}

// SearchResponse carries recalled messages on the raw (non-templated) path.
type SearchResponse struct {
	Count    int                     `json:"count"`
	Messages []memory.ContextMessage `json:"messages"`
}

// StoreRequest is the body for POST /v1/store.
type StoreRequest struct {
	Messages []memmachine.Message `json:"messages"`
}

// StoreResponse confirms a successful store.
type StoreResponse struct {
	Stored int `json:"stored"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleContext renders the memory context for a query. Recall never fails;
// an unreachable memory service renders as an empty context.
func (s *Server) handleContext(c *fiber.Ctx) error {
	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "query parameter required"})
	}

	rendered := s.provider.Context(c.Context(), query)
	return c.JSON(ContextResponse{Context: rendered})
}

// handleSearch returns recalled messages without template rendering.
func (s *Server) handleSearch(c *fiber.Ctx) error {
	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "query parameter required"})
	}

	messages := s.provider.Messages(c.Context(), query)
	if messages == nil {
		messages = []memory.ContextMessage{}
	}

	return c.JSON(SearchResponse{
		Count:    len(messages),
		Messages: messages,
	})
}

// handleStore persists messages through the provider. Failed stores are
// spooled by the provider for later replay, so the client gets a 502 but the
// messages are not lost.
func (s *Server) handleStore(c *fiber.Ctx) error {
	var req StoreRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if len(req.Messages) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "at least one message is required"})
	}

	if err := s.provider.Remember(c.Context(), req.Messages); err != nil {
		s.logger.Warn("store request failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(StoreResponse{Stored: len(req.Messages)})
}
