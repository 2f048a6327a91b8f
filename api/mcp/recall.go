package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	memoryRecallToolName    = "memory_recall"
	memoryRecallDescription = "Recall conversational memory relevant to a query. Returns a markdown context block with conversation history, short-term and long-term memories, profile facts, semantic features, and episode summaries. Use this before answering to ground responses in what the user has said before."
)

// MemoryRecallInput represents the input arguments for the MCP memory_recall tool.
type MemoryRecallInput struct {
	Query string `json:"query" jsonschema:"the question or topic to recall memories for"`
}

// MemoryRecallOutput represents the structured output of a memory recall.
type MemoryRecallOutput struct {
	Context string `json:"context"`
}

// handleMemoryRecall processes a recall request via MCP. Recall never fails:
// an unreachable memory service produces an empty context, not a tool error.
func (s *Server) handleMemoryRecall(ctx context.Context, _ *mcp.CallToolRequest, input MemoryRecallInput) (*mcp.CallToolResult, MemoryRecallOutput, error) {
	if input.Query == "" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "query is required"},
			},
		}, MemoryRecallOutput{}, nil
	}

	rendered := s.config.Provider.Context(ctx, input.Query)
	output := MemoryRecallOutput{Context: rendered}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: rendered},
		},
	}, output, nil
}
