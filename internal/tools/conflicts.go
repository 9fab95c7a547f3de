package tools

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/HendryAvila/docsight/internal/logparse"
	"github.com/HendryAvila/docsight/internal/preview"
	"github.com/HendryAvila/docsight/internal/report"
	"github.com/mark3labs/mcp-go/mcp"
)

// ConflictsTool handles docsight_conflicts: parse a log file and
// aggregate write-conflict events by (function, table). This tool
// needs no deployment connection — it reads a local file.
type ConflictsTool struct {
	reg *preview.Registry
}

// ConflictsConfig is the typed payload handed to the conflicts page.
type ConflictsConfig struct {
	LogFile string                 `json:"logFile"`
	Theme   string                 `json:"theme"`
	Scanned int                    `json:"scanned"`
	Rows    []logparse.ConflictRow `json:"rows"`
}

// NewConflictsTool creates a ConflictsTool.
func NewConflictsTool(reg *preview.Registry) *ConflictsTool {
	return &ConflictsTool{reg: reg}
}

// Definition returns the MCP tool definition for registration.
func (t *ConflictsTool) Definition() mcp.Tool {
	return mcp.NewTool("docsight_conflicts",
		withCommonArgs(
			mcp.WithDescription(
				"Analyze a log file for write conflicts: parse each line (JSON or "+
					"free text), classify conflict events, and aggregate them by "+
					"(function, table) pair, most frequent first.",
			),
			mcp.WithString("log_file",
				mcp.Required(),
				mcp.Description("Path to the log file, one JSON object or free-text line per entry"),
			),
		)...,
	)
}

// Handle processes the docsight_conflicts tool call.
func (t *ConflictsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := strings.TrimSpace(req.GetString("log_file", ""))
	if path == "" {
		return mcp.NewToolResultError(
			"'log_file' is required: the path to a log file with one entry per line. " +
				"Lines may be JSON objects (with functionName/tableName/message fields) " +
				"or free text.",
		), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Cannot read log file %q: %v. Provide a readable file with one log entry "+
				"per line (JSON objects or free text).", path, err,
		)), nil
	}
	defer f.Close()

	events, err := logparse.ParseReader(f)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed reading %q: %v.", path, err)), nil
	}
	rows := logparse.AggregateConflicts(events)

	cfg := ConflictsConfig{LogFile: path, Theme: theme(req), Scanned: len(events), Rows: rows}
	url := launchPreview(t.reg, "conflicts", cfg, conflictsHTML(cfg), req)

	mdRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		mdRows = append(mdRows, []string{r.Function, r.Table, fmt.Sprintf("%d", r.Count)})
	}
	md := report.RenderMarkdown(report.MarkdownDoc{
		Title:      "Write Conflicts",
		PreviewURL: url,
		Context:    fmt.Sprintf("Log: %s · %d lines scanned", path, len(events)),
		Headers:    []string{"Function", "Table", "Conflicts"},
		Rows:       mdRows,
	})
	return mcp.NewToolResultText(md), nil
}

// conflictsHTML renders the self-contained conflicts page.
func conflictsHTML(cfg ConflictsConfig) string {
	subtitle := fmt.Sprintf("%s · %d lines scanned", cfg.LogFile, cfg.Scanned)
	if len(cfg.Rows) == 0 {
		return report.RenderHTML(report.Page{
			Title: "Write Conflicts", Subtitle: subtitle, Theme: cfg.Theme,
			Body: report.Empty("No write conflicts found."),
		})
	}

	var total int
	rows := make([][]report.Safe, 0, len(cfg.Rows))
	for _, r := range cfg.Rows {
		total += r.Count
		kind := "warn"
		if r.Count >= 10 {
			kind = "err"
		}
		rows = append(rows, []report.Safe{
			report.Escape(r.Function),
			report.Escape(r.Table),
			report.Badge(fmt.Sprintf("%d", r.Count), kind),
		})
	}
	body := report.Join(
		report.Cards(
			report.Card("Conflicts", report.FormatNumber(float64(total))),
			report.Card("Hot pairs", fmt.Sprintf("%d", len(cfg.Rows))),
		),
		report.Table([]string{"Function", "Table", "Count"}, rows),
	)
	return report.RenderHTML(report.Page{
		Title: "Write Conflicts", Subtitle: subtitle, Theme: cfg.Theme, Body: body,
	})
}
