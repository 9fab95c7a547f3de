package tools

import (
	"context"
	"fmt"

	"github.com/HendryAvila/docsight/internal/preview"
	"github.com/mark3labs/mcp-go/mcp"
)

// ClosePreviewsTool handles docsight_close_previews: shut down every
// active preview session in this process.
type ClosePreviewsTool struct {
	reg *preview.Registry
}

// NewClosePreviewsTool creates a ClosePreviewsTool.
func NewClosePreviewsTool(reg *preview.Registry) *ClosePreviewsTool {
	return &ClosePreviewsTool{reg: reg}
}

// Definition returns the MCP tool definition for registration.
func (t *ClosePreviewsTool) Definition() mcp.Tool {
	return mcp.NewTool("docsight_close_previews",
		mcp.WithDescription("Close all active preview servers launched by docsight tools."),
	)
}

// Handle processes the docsight_close_previews tool call.
func (t *ClosePreviewsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	open := len(t.reg.ActivePorts())
	t.reg.CloseAll()
	if open == 0 {
		return mcp.NewToolResultText("No preview sessions were open."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Closed %d preview session(s).", open)), nil
}
