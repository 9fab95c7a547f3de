package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/docsight/internal/dbcap"
	"github.com/HendryAvila/docsight/internal/preview"
	"github.com/HendryAvila/docsight/internal/report"
	"github.com/mark3labs/mcp-go/mcp"
)

// SchemaTool handles docsight_schema: the schema browser with drift
// detection. For each table it diffs the declared field set against
// the one inferred from sampled documents and ranks tables by total
// drift.
type SchemaTool struct {
	cap dbcap.Capability
	reg *preview.Registry
}

// SchemaConfig is the typed payload handed to the schema browser page.
type SchemaConfig struct {
	Deployment string            `json:"deployment"`
	Theme      string            `json:"theme"`
	Rows       []report.DriftRow `json:"rows"`
}

// NewSchemaTool creates a SchemaTool.
func NewSchemaTool(cap dbcap.Capability, reg *preview.Registry) *SchemaTool {
	return &SchemaTool{cap: cap, reg: reg}
}

// Definition returns the MCP tool definition for registration.
func (t *SchemaTool) Definition() mcp.Tool {
	return mcp.NewTool("docsight_schema",
		withCommonArgs(
			mcp.WithDescription(
				"Browse table schemas and detect drift: fields present in live data "+
					"but not declared, declared fields never observed, and type "+
					"mismatches. Tables are ranked by total drift.",
			),
			mcp.WithNumber("max_tables",
				mcp.Description("Maximum number of tables to inspect (default 20)"),
			),
			mcp.WithNumber("sample_size",
				mcp.Description("Documents sampled per table for inference (default 100)"),
			),
		)...,
	)
}

// Handle processes the docsight_schema tool call.
func (t *SchemaTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if res := requireAdmin(ctx, t.cap); res != nil {
		return res, nil
	}
	maxTables := req.GetInt("max_tables", defaultMaxTables)
	sampleSize := req.GetInt("sample_size", defaultSampleSize)

	tables, err := t.cap.ListTables(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Failed to list tables: %v. Check the deployment connection and retry.", err,
		)), nil
	}
	if len(tables) > maxTables {
		tables = tables[:maxTables]
	}

	driftRows := make([]report.DriftRow, 0, len(tables))
	for _, tbl := range tables {
		schema, err := t.cap.GetTableSchema(ctx, tbl.Name, sampleSize)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf(
				"Failed to read schema of %q: %v. Check the deployment connection and retry.", tbl.Name, err,
			)), nil
		}
		driftRows = append(driftRows, report.DriftRow{
			Table: tbl.Name,
			Drift: report.DiffSchema(schema.Declared, schema.Inferred),
		})
	}
	report.RankDrift(driftRows)

	cfg := SchemaConfig{Deployment: t.cap.GetDeploymentURL(), Theme: theme(req), Rows: driftRows}
	url := launchPreview(t.reg, "schema", cfg, schemaHTML(cfg), req)

	md := report.RenderMarkdown(report.MarkdownDoc{
		Title:      "Schema Drift",
		PreviewURL: url,
		Context:    fmt.Sprintf("%s · %d tables inspected", deploymentLine(t.cap), len(driftRows)),
		Headers:    []string{"Table", "Drift", "Undeclared", "Unobserved", "Type mismatches"},
		Rows:       driftMarkdownRows(driftRows),
	})
	return mcp.NewToolResultText(md), nil
}

func driftMarkdownRows(rows []report.DriftRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		status := "clean"
		if r.Drift.Total() > 0 {
			status = fmt.Sprintf("%d", r.Drift.Total())
		}
		out = append(out, []string{
			r.Table,
			status,
			fieldNames(r.Drift.MissingDeclared),
			fieldNames(r.Drift.MissingInferred),
			mismatchNames(r.Drift.Mismatched),
		})
	}
	return out
}

func fieldNames(fields []report.FieldDescriptor) string {
	if len(fields) == 0 {
		return "-"
	}
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return strings.Join(names, ", ")
}

func mismatchNames(mismatches []report.FieldMismatch) string {
	if len(mismatches) == 0 {
		return "-"
	}
	parts := make([]string, len(mismatches))
	for i, m := range mismatches {
		parts[i] = fmt.Sprintf("%s (%s vs %s)", m.Name, m.Declared, m.Inferred)
	}
	return strings.Join(parts, ", ")
}

// schemaHTML renders the self-contained drift browser page.
func schemaHTML(cfg SchemaConfig) string {
	if len(cfg.Rows) == 0 {
		return report.RenderHTML(report.Page{
			Title: "Schema Drift", Subtitle: cfg.Deployment, Theme: cfg.Theme,
			Body: report.Empty("No tables found."),
		})
	}

	var clean, drifted int
	rows := make([][]report.Safe, 0, len(cfg.Rows))
	for _, r := range cfg.Rows {
		badge := report.Badge("clean", "ok")
		if total := r.Drift.Total(); total > 0 {
			drifted++
			kind := "warn"
			if len(r.Drift.Mismatched) > 0 {
				kind = "err"
			}
			badge = report.Badge(fmt.Sprintf("%d drift", total), kind)
		} else {
			clean++
		}
		rows = append(rows, []report.Safe{
			report.Escape(r.Table),
			badge,
			report.Escape(fieldNames(r.Drift.MissingDeclared)),
			report.Escape(fieldNames(r.Drift.MissingInferred)),
			report.Escape(mismatchNames(r.Drift.Mismatched)),
		})
	}

	body := report.Join(
		report.Cards(
			report.Card("Tables", fmt.Sprintf("%d", len(cfg.Rows))),
			report.Card("Clean", fmt.Sprintf("%d", clean)),
			report.Card("Drifted", fmt.Sprintf("%d", drifted)),
		),
		report.Table(
			[]string{"Table", "Status", "Undeclared fields", "Unobserved fields", "Type mismatches"},
			rows,
		),
	)
	return report.RenderHTML(report.Page{
		Title: "Schema Drift", Subtitle: cfg.Deployment, Theme: cfg.Theme, Body: body,
	})
}
