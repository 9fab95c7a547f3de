package tools

import (
	"context"
	"fmt"

	"github.com/HendryAvila/docsight/internal/dbcap"
	"github.com/HendryAvila/docsight/internal/preview"
	"github.com/HendryAvila/docsight/internal/report"
	"github.com/mark3labs/mcp-go/mcp"
)

// DashboardTool handles docsight_dashboard: a metric dashboard
// computed from declarative metric specs over document snapshots.
type DashboardTool struct {
	cap dbcap.Capability
	reg *preview.Registry
}

// MetricResult pairs a spec with its computed value.
type MetricResult struct {
	Spec  report.MetricSpec `json:"spec"`
	Value float64           `json:"value"`
}

// DashboardConfig is the typed payload handed to the dashboard page.
type DashboardConfig struct {
	Deployment string         `json:"deployment"`
	Theme      string         `json:"theme"`
	Metrics    []MetricResult `json:"metrics"`
}

// NewDashboardTool creates a DashboardTool.
func NewDashboardTool(cap dbcap.Capability, reg *preview.Registry) *DashboardTool {
	return &DashboardTool{cap: cap, reg: reg}
}

// Definition returns the MCP tool definition for registration.
func (t *DashboardTool) Definition() mcp.Tool {
	return mcp.NewTool("docsight_dashboard",
		withCommonArgs(
			mcp.WithDescription(
				"Render a metric dashboard. Takes a JSON array of metric specs: "+
					`[{"name":"Users","table":"users","kind":"count"},`+
					`{"name":"Avg total","table":"orders","kind":"avg","field":"total","filter":"status=paid"}]. `+
					"Kinds: count, sum, avg, min, max. count uses the server-side table "+
					"count and stays exact; the others aggregate over a bounded sample.",
			),
			mcp.WithString("metrics",
				mcp.Required(),
				mcp.Description("JSON array of metric specs"),
			),
			mcp.WithNumber("max_documents",
				mcp.Description("Documents sampled per table (default 500)"),
			),
		)...,
	)
}

// Handle processes the docsight_dashboard tool call.
func (t *DashboardTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	specs, err := report.ParseMetricSpecs(req.GetString("metrics", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if res := requireAdmin(ctx, t.cap); res != nil {
		return res, nil
	}
	maxDocs := req.GetInt("max_documents", defaultMaxDocuments)

	// One table inventory for the authoritative counts, one snapshot
	// per referenced table for the sampled aggregations.
	tables, err := t.cap.ListTables(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Failed to list tables: %v. Check the deployment connection and retry.", err,
		)), nil
	}
	counts := make(map[string]int64, len(tables))
	for _, tbl := range tables {
		counts[tbl.Name] = tbl.DocumentCount
	}

	snapshots := make(map[string][]report.Record)
	results := make([]MetricResult, 0, len(specs))
	for _, spec := range specs {
		docs, ok := snapshots[spec.Table]
		if !ok {
			page, err := t.cap.QueryDocuments(ctx, spec.Table, dbcap.QueryOptions{Limit: maxDocs, Descending: true})
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf(
					"Failed to read documents of %q: %v. Check the deployment connection and retry.", spec.Table, err,
				)), nil
			}
			docs = page.Documents
			snapshots[spec.Table] = docs
		}

		filtered := report.ApplyFilter(docs, spec.Filter)
		fallback := int64(-1)
		// The server-side count is only authoritative for the whole
		// table; a filtered count must come from the sample.
		if spec.Kind == report.KindCount && spec.Filter == "" {
			if n, ok := counts[spec.Table]; ok {
				fallback = n
			}
		}
		results = append(results, MetricResult{
			Spec:  spec,
			Value: report.Aggregate(filtered, spec.Kind, spec.Field, fallback),
		})
	}

	cfg := DashboardConfig{Deployment: t.cap.GetDeploymentURL(), Theme: theme(req), Metrics: results}
	url := launchPreview(t.reg, "dashboard", cfg, dashboardHTML(cfg), req)

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Spec.Name,
			r.Spec.Table,
			string(r.Spec.Kind),
			report.FormatNumber(r.Value),
		})
	}
	md := report.RenderMarkdown(report.MarkdownDoc{
		Title:      "Dashboard",
		PreviewURL: url,
		Context:    deploymentLine(t.cap),
		Headers:    []string{"Metric", "Table", "Kind", "Value"},
		Rows:       rows,
	})
	return mcp.NewToolResultText(md), nil
}

// dashboardHTML renders the self-contained dashboard page: one stat
// card per metric.
func dashboardHTML(cfg DashboardConfig) string {
	if len(cfg.Metrics) == 0 {
		return report.RenderHTML(report.Page{
			Title: "Dashboard", Subtitle: cfg.Deployment, Theme: cfg.Theme,
			Body: report.Empty("No metrics configured."),
		})
	}

	cards := make([]report.Safe, 0, len(cfg.Metrics))
	for _, m := range cfg.Metrics {
		cards = append(cards, report.Card(m.Spec.Name, report.FormatNumber(m.Value)))
	}
	return report.RenderHTML(report.Page{
		Title: "Dashboard", Subtitle: cfg.Deployment, Theme: cfg.Theme,
		Body: report.Cards(cards...),
	})
}
