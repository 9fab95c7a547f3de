package tools

import (
	"context"
	"fmt"

	"github.com/HendryAvila/docsight/internal/dbcap"
	"github.com/HendryAvila/docsight/internal/report"
	"github.com/mark3labs/mcp-go/mcp"
)

// StatusTool handles docsight_status: connection state, deployment
// URL, access level and table inventory.
type StatusTool struct {
	cap dbcap.Capability
}

// NewStatusTool creates a StatusTool.
func NewStatusTool(cap dbcap.Capability) *StatusTool {
	return &StatusTool{cap: cap}
}

// Definition returns the MCP tool definition for registration.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("docsight_status",
		mcp.WithDescription(
			"Check the deployment connection: URL, access level, and the list of "+
				"tables with document counts and indexes. Start here when another "+
				"docsight tool reports a connection problem.",
		),
	)
}

// Handle processes the docsight_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if res := requireConnected(ctx, t.cap); res != nil {
		return res, nil
	}

	tables, err := t.cap.ListTables(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Failed to list tables: %v. Check that the deployment is reachable and the credential is valid.", err,
		)), nil
	}

	access := "read-only"
	if t.cap.HasAdminAccess(ctx) {
		access = "admin"
	}

	rows := make([][]string, 0, len(tables))
	var total int64
	for _, tbl := range tables {
		rows = append(rows, []string{
			tbl.Name,
			report.FormatNumber(float64(tbl.DocumentCount)),
			fmt.Sprintf("%d", len(tbl.Indexes)),
		})
		total += tbl.DocumentCount
	}

	md := report.RenderMarkdown(report.MarkdownDoc{
		Title:   "Deployment Status",
		Context: fmt.Sprintf("%s · access: %s · %d tables · %s documents", deploymentLine(t.cap), access, len(tables), report.FormatNumber(float64(total))),
		Headers: []string{"Table", "Documents", "Indexes"},
		Rows:    rows,
	})
	return mcp.NewToolResultText(md), nil
}
