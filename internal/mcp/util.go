package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// jsonResult renders a structured payload as the tool's text content.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
	}, nil
}

// textResult wraps a plain message as the tool's text content.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// progressReporter bridges a component progress callback to MCP progress
// notifications. Returns nil when the caller supplied no progress token, so
// components skip reporting entirely.
func (s *Server) progressReporter(ctx context.Context, req *mcp.CallToolRequest) func(progress, total float64, message string) {
	token := req.Params.GetProgressToken()
	if token == nil {
		return nil
	}
	session := req.Session
	return func(progress, total float64, message string) {
		err := session.NotifyProgress(ctx, &mcp.ProgressNotificationParams{
			ProgressToken: token,
			Progress:      progress,
			Total:         total,
			Message:       message,
		})
		if err != nil {
			s.logger.Warn("progress notification failed", "error", err)
		}
	}
}
