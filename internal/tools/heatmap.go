package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/HendryAvila/docsight/internal/dbcap"
	"github.com/HendryAvila/docsight/internal/preview"
	"github.com/HendryAvila/docsight/internal/report"
	"github.com/mark3labs/mcp-go/mcp"
)

// HeatmapTool handles docsight_heatmap: per-table write rates over a
// recent time window, from a bounded reverse-chronological scan.
type HeatmapTool struct {
	cap dbcap.Capability
	reg *preview.Registry
	now func() time.Time
}

// HeatmapConfig is the typed payload handed to the heatmap page.
type HeatmapConfig struct {
	Deployment    string              `json:"deployment"`
	Theme         string              `json:"theme"`
	WindowMinutes int                 `json:"windowMinutes"`
	Rows          []report.HeatmapRow `json:"rows"`
}

// NewHeatmapTool creates a HeatmapTool.
func NewHeatmapTool(cap dbcap.Capability, reg *preview.Registry) *HeatmapTool {
	return &HeatmapTool{cap: cap, reg: reg, now: time.Now}
}

// Definition returns the MCP tool definition for registration.
func (t *HeatmapTool) Definition() mcp.Tool {
	return mcp.NewTool("docsight_heatmap",
		withCommonArgs(
			mcp.WithDescription(
				"Render a write-rate heatmap: documents created per table inside a "+
					"recent window, with per-minute rates. The scan walks documents "+
					"newest first and stops at the window edge, so counts are bounded "+
					"by max_documents per table.",
			),
			mcp.WithNumber("window_minutes",
				mcp.Description("Window size in minutes (default 60)"),
			),
			mcp.WithNumber("max_tables",
				mcp.Description("Maximum number of tables to scan (default 20)"),
			),
			mcp.WithNumber("max_documents",
				mcp.Description("Scan ceiling per table (default 500)"),
			),
		)...,
	)
}

// Handle processes the docsight_heatmap tool call.
func (t *HeatmapTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if res := requireAdmin(ctx, t.cap); res != nil {
		return res, nil
	}

	windowMin := req.GetInt("window_minutes", defaultWindowMinutes)
	if windowMin <= 0 {
		windowMin = defaultWindowMinutes
	}
	maxTables := req.GetInt("max_tables", defaultMaxTables)
	maxDocs := req.GetInt("max_documents", defaultMaxDocuments)

	window := time.Duration(windowMin) * time.Minute
	cutoff := t.now().Add(-window)

	tables, err := t.cap.ListTables(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Failed to list tables: %v. Check the deployment connection and retry.", err,
		)), nil
	}
	if len(tables) > maxTables {
		tables = tables[:maxTables]
	}

	rows := make([]report.HeatmapRow, 0, len(tables))
	for _, tbl := range tables {
		page, err := t.cap.QueryDocuments(ctx, tbl.Name, dbcap.QueryOptions{Limit: maxDocs, Descending: true})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf(
				"Failed to scan %q: %v. Check the deployment connection and retry.", tbl.Name, err,
			)), nil
		}
		rows = append(rows, report.ComputeHeatmap(tbl.Name, page.Documents, cutoff, window))
	}
	report.RankHeatmap(rows)

	cfg := HeatmapConfig{
		Deployment:    t.cap.GetDeploymentURL(),
		Theme:         theme(req),
		WindowMinutes: windowMin,
		Rows:          rows,
	}
	url := launchPreview(t.reg, "heatmap", cfg, heatmapHTML(cfg), req)

	mdRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		mdRows = append(mdRows, []string{
			r.Table,
			report.FormatNumber(float64(r.Writes)),
			fmt.Sprintf("%.2f/min", r.PerMinute),
			fmt.Sprintf("%d", r.DocsScanned),
		})
	}
	md := report.RenderMarkdown(report.MarkdownDoc{
		Title:      "Write Heatmap",
		PreviewURL: url,
		Context:    fmt.Sprintf("%s · last %dm", deploymentLine(t.cap), windowMin),
		Headers:    []string{"Table", "Writes", "Rate", "Scanned"},
		Rows:       mdRows,
		Footer:     "Counts are bounded by the scan ceiling and assume creation-time ordering.",
	})
	return mcp.NewToolResultText(md), nil
}

// heatmapHTML renders the self-contained heatmap page, hottest tables
// first.
func heatmapHTML(cfg HeatmapConfig) string {
	subtitle := fmt.Sprintf("%s · last %dm", cfg.Deployment, cfg.WindowMinutes)
	if len(cfg.Rows) == 0 {
		return report.RenderHTML(report.Page{
			Title: "Write Heatmap", Subtitle: subtitle, Theme: cfg.Theme,
			Body: report.Empty("No tables found."),
		})
	}

	rows := make([][]report.Safe, 0, len(cfg.Rows))
	for _, r := range cfg.Rows {
		kind := "ok"
		switch {
		case r.PerMinute >= 10:
			kind = "err"
		case r.PerMinute >= 1:
			kind = "warn"
		}
		rows = append(rows, []report.Safe{
			report.Escape(r.Table),
			report.Escape(report.FormatNumber(float64(r.Writes))),
			report.Badge(fmt.Sprintf("%.2f/min", r.PerMinute), kind),
			report.Escape(fmt.Sprintf("%d", r.DocsScanned)),
		})
	}
	return report.RenderHTML(report.Page{
		Title: "Write Heatmap", Subtitle: subtitle, Theme: cfg.Theme,
		Body:  report.Table([]string{"Table", "Writes", "Rate", "Docs scanned"}, rows),
	})
}
