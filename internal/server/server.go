// Package server wires all MCP components and creates the server
// instance.
//
// This is the composition root: it resolves configuration, creates
// concrete implementations and injects them into the tools, prompts
// and resources that depend on abstractions. No business logic lives
// here — only wiring.
package server

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/HendryAvila/docsight/internal/dbcap"
	"github.com/HendryAvila/docsight/internal/preview"
	"github.com/HendryAvila/docsight/internal/prompts"
	"github.com/HendryAvila/docsight/internal/resources"
	"github.com/HendryAvila/docsight/internal/tools"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes every active preview session
// and disconnects the database client; it must be called on shutdown
// (typically via defer) and is always non-nil.
//
// A missing or unreachable deployment does not fail startup: tools
// that need it return a not-connected error with remediation steps,
// while docsight_conflicts keeps working on local log files.
func New() (*server.MCPServer, func(), error) {
	// Best effort: a .env next to the binary or cwd may carry the
	// deployment settings. Absence is not an error.
	_ = godotenv.Load()

	registry := preview.NewRegistry(os.Getenv("DOCSIGHT_WEB_ROOT"))

	var cap dbcap.Capability
	var closeCap func()
	if uri := os.Getenv("DOCSIGHT_URI"); uri != "" {
		dbName := os.Getenv("DOCSIGHT_DB")
		if dbName == "" {
			dbName = "app"
		}
		mc, err := dbcap.Connect(context.Background(), uri, dbName, displayURL(uri))
		if err != nil {
			// Startup proceeds; every data tool will surface the
			// not-connected remediation instead.
			log.Printf("WARNING: deployment connection failed: %v", err)
		} else {
			cap = mc
			closeCap = func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := mc.Close(ctx); err != nil {
					log.Printf("WARNING: closing deployment client: %v", err)
				}
			}
		}
	} else {
		log.Printf("WARNING: DOCSIGHT_URI not set; data tools will report not-connected")
	}

	cleanup := func() {
		registry.CloseAll()
		if closeCap != nil {
			closeCap()
		}
	}

	s := server.NewMCPServer(
		"docsight",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register report tools ---

	statusTool := tools.NewStatusTool(cap)
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	schemaTool := tools.NewSchemaTool(cap, registry)
	s.AddTool(schemaTool.Definition(), schemaTool.Handle)

	dashboardTool := tools.NewDashboardTool(cap, registry)
	s.AddTool(dashboardTool.Definition(), dashboardTool.Handle)

	heatmapTool := tools.NewHeatmapTool(cap, registry)
	s.AddTool(heatmapTool.Definition(), heatmapTool.Handle)

	kanbanTool := tools.NewKanbanTool(cap, registry)
	s.AddTool(kanbanTool.Definition(), kanbanTool.Handle)

	// --- Register log analysis (no deployment needed) ---

	conflictsTool := tools.NewConflictsTool(registry)
	s.AddTool(conflictsTool.Definition(), conflictsTool.Handle)

	// --- Register preview lifecycle ---

	closePreviews := tools.NewClosePreviewsTool(registry)
	s.AddTool(closePreviews.Definition(), closePreviews.Handle)

	// --- Register prompts ---

	inspectPrompt := prompts.NewInspectPrompt()
	s.AddPrompt(inspectPrompt.Definition(), inspectPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(cap, registry)
	s.AddResource(resourceHandler.StatusResource(), resourceHandler.HandleStatus)

	return s, cleanup, nil
}

// displayURL strips credentials from a connection URI for reports and
// logs. A URI that doesn't parse is not shown at all.
func displayURL(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}

// serverInstructions tells the AI how to use docsight effectively.
func serverInstructions() string {
	return fmt.Sprintf(`You have access to docsight, a document database inspection server.

Use it when the user asks about their deployment's data, schema health,
write activity, or log noise:

- docsight_status: always a safe first call; verifies the connection and
  lists tables with document counts.
- docsight_schema: detects schema drift (undeclared fields, unobserved
  fields, type mismatches) between the declared schema and live data.
- docsight_dashboard: computes count/sum/avg/min/max metrics from a JSON
  array of metric specs you construct.
- docsight_heatmap: per-table write rates over a recent window.
- docsight_kanban: lays one table out as a board grouped by a status field.
- docsight_conflicts: parses a local log file and aggregates write
  conflicts by (function, table).

Most tools open an interactive browser preview; pass no_browser=true in
headless environments. Aggregations other than count run over bounded
samples — say so when you present them.

docsight v%s`, Version)
}
