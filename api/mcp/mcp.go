// Package mcp provides an MCP (Model Context Protocol) server exposing the
// gateway's recall and store operations as tools.
package mcp

import (
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/memgatehq/memgate/api"
	"github.com/memgatehq/memgate/pkg/utils"
)

type Config struct {
	// Provider serves recall and store requests.
	Provider api.MemoryProvider

	// Noop for an empty MCP server with no tools configured.
	Noop bool

	// Logger is the configured zap logger.
	Logger *zap.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the memory tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "memgate",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if c.Noop {
		// return the empty MCP server with no tools configured
		// if the noop flag is set (i.e., MCP capabilities are disabled)
		s.mcpServer = mcpServer
		return s, nil
	}

	if c.Provider == nil {
		return nil, errors.New("memory provider is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        memoryRecallToolName,
		Description: memoryRecallDescription,
	}, s.handleMemoryRecall)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        memoryStoreToolName,
		Description: memoryStoreDescription,
	}, s.handleMemoryStore)

	s.mcpServer = mcpServer

	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
