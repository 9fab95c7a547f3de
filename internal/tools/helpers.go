// Package tools implements the MCP tool handlers.
//
// Each tool is one file: a struct carrying its dependencies, a
// constructor, a Definition for registration, and a Handle compatible
// with mcp-go's CallToolRequest signature. Tools depend on the
// dbcap.Capability interface and the preview registry, never on the
// mongo driver directly.
package tools

import (
	"context"
	"log"
	"time"

	"github.com/HendryAvila/docsight/internal/dbcap"
	"github.com/HendryAvila/docsight/internal/preview"
	"github.com/mark3labs/mcp-go/mcp"
)

// Argument defaults shared across tools.
const (
	defaultWindowMinutes = 60
	defaultMaxTables     = 20
	defaultMaxDocuments  = 500
	defaultSampleSize    = 100
	defaultKanbanDocs    = 200
)

// withCommonArgs appends the arguments every report tool accepts.
func withCommonArgs(opts ...mcp.ToolOption) []mcp.ToolOption {
	return append(opts,
		mcp.WithBoolean("no_browser",
			mcp.Description("Skip launching the interactive browser preview"),
		),
		mcp.WithString("theme",
			mcp.Description("Preview color theme"),
			mcp.Enum("dark", "light", "auto"),
		),
		mcp.WithNumber("port",
			mcp.Description("Preferred local port for the preview server"),
		),
	)
}

// notConnectedResult is the user-facing error for a missing or dead
// deployment connection. Always includes the remediation.
func notConnectedResult() *mcp.CallToolResult {
	return mcp.NewToolResultError(
		"No deployment connection. Set DOCSIGHT_URI (and optionally DOCSIGHT_DB) " +
			"to your deployment's connection string, or put them in a .env file, " +
			"then restart the server.",
	)
}

// noAdminResult is the user-facing error for operations that need
// document-level reads the connection doesn't grant.
func noAdminResult() *mcp.CallToolResult {
	return mcp.NewToolResultError(
		"This operation reads documents and needs elevated access, which the " +
			"current credential does not grant. Connect with a credential that " +
			"has read access to the database.",
	)
}

// requireConnected gates a tool on a live connection. Returns nil when
// the tool may proceed.
func requireConnected(ctx context.Context, cap dbcap.Capability) *mcp.CallToolResult {
	if cap == nil || !cap.IsConnected(ctx) {
		return notConnectedResult()
	}
	return nil
}

// requireAdmin gates a tool on document-level access on top of a live
// connection.
func requireAdmin(ctx context.Context, cap dbcap.Capability) *mcp.CallToolResult {
	if res := requireConnected(ctx, cap); res != nil {
		return res
	}
	if !cap.HasAdminAccess(ctx) {
		return noAdminResult()
	}
	return nil
}

// launchPreview starts a preview session for a report, honoring the
// common arguments. A launch failure is logged and yields an empty URL
// — the Markdown report is still returned, the invocation never fails
// on this.
func launchPreview(reg *preview.Registry, app string, config any, customHTML string, req mcp.CallToolRequest) string {
	if reg == nil || req.GetBool("no_browser", false) {
		return ""
	}
	session, err := reg.Launch(preview.LaunchOptions{
		App:           app,
		Config:        config,
		PreferredPort: req.GetInt("port", 0),
		AutoClose:     30 * time.Minute,
		CustomHTML:    customHTML,
	})
	if err != nil {
		log.Printf("tools: preview launch for %s: %v", app, err)
		return ""
	}
	return session.URL
}

// theme resolves the common theme argument to a member of the fixed
// enumeration.
func theme(req mcp.CallToolRequest) string {
	switch t := req.GetString("theme", "auto"); t {
	case "dark", "light", "auto":
		return t
	default:
		return "auto"
	}
}

// deploymentLine renders the connection/context line shared by all
// Markdown reports.
func deploymentLine(cap dbcap.Capability) string {
	url := cap.GetDeploymentURL()
	if url == "" {
		return "Deployment: connected"
	}
	return "Deployment: " + url
}
