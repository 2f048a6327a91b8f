package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/memgatehq/memgate/pkg/memmachine"
)

var (
	memoryStoreToolName    = "memory_store"
	memoryStoreDescription = "Store conversational messages in the memory service so they can be recalled in later sessions. Each message carries its content plus who produced it and for whom."
)

// MemoryStoreInput represents the input arguments for the MCP memory_store tool.
type MemoryStoreInput struct {
	Messages []memmachine.Message `json:"messages" jsonschema:"the messages to store"`
}

// MemoryStoreOutput represents the structured output of a memory store.
type MemoryStoreOutput struct {
	Stored int `json:"stored"`
}

// handleMemoryStore processes a store request via MCP.
func (s *Server) handleMemoryStore(ctx context.Context, _ *mcp.CallToolRequest, input MemoryStoreInput) (*mcp.CallToolResult, MemoryStoreOutput, error) {
	if len(input.Messages) == 0 {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "at least one message is required"},
			},
		}, MemoryStoreOutput{}, nil
	}

	if err := s.config.Provider.Remember(ctx, input.Messages); err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Memory store failed: %v", err)},
			},
		}, MemoryStoreOutput{}, nil
	}

	output := MemoryStoreOutput{Stored: len(input.Messages)}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Stored %d message(s)", len(input.Messages))},
		},
	}, output, nil
}
