package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/HendryAvila/docsight/internal/dbcap"
	"github.com/HendryAvila/docsight/internal/preview"
	"github.com/HendryAvila/docsight/internal/report"
	"github.com/mark3labs/mcp-go/mcp"
)

// KanbanTool handles docsight_kanban: one table's documents laid out
// as board columns grouped by a status-like field.
type KanbanTool struct {
	cap dbcap.Capability
	reg *preview.Registry
	now func() time.Time
}

// KanbanConfig is the typed payload handed to the kanban page.
type KanbanConfig struct {
	Deployment string                `json:"deployment"`
	Theme      string                `json:"theme"`
	Table      string                `json:"table"`
	GroupBy    string                `json:"groupBy"`
	Columns    []report.KanbanColumn `json:"columns"`
}

// NewKanbanTool creates a KanbanTool.
func NewKanbanTool(cap dbcap.Capability, reg *preview.Registry) *KanbanTool {
	return &KanbanTool{cap: cap, reg: reg, now: time.Now}
}

// Definition returns the MCP tool definition for registration.
func (t *KanbanTool) Definition() mcp.Tool {
	return mcp.NewTool("docsight_kanban",
		withCommonArgs(
			mcp.WithDescription(
				"Render one table as a kanban board, grouping documents by a "+
					"status-like field. Documents missing the field land in a "+
					"\"(none)\" column.",
			),
			mcp.WithString("table",
				mcp.Required(),
				mcp.Description("Table to render"),
			),
			mcp.WithString("group_by",
				mcp.Description("Field to group by (default \"status\")"),
			),
			mcp.WithNumber("max_documents",
				mcp.Description("Documents fetched, newest first (default 200)"),
			),
		)...,
	)
}

// Handle processes the docsight_kanban tool call.
func (t *KanbanTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	table := strings.TrimSpace(req.GetString("table", ""))
	if table == "" {
		return mcp.NewToolResultError("'table' is required"), nil
	}
	if res := requireAdmin(ctx, t.cap); res != nil {
		return res, nil
	}
	groupBy := req.GetString("group_by", "status")
	maxDocs := req.GetInt("max_documents", defaultKanbanDocs)

	page, err := t.cap.QueryDocuments(ctx, table, dbcap.QueryOptions{Limit: maxDocs, Descending: true})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Failed to read documents of %q: %v. Check the table name and the "+
				"deployment connection.", table, err,
		)), nil
	}
	columns := report.BuildKanban(page.Documents, groupBy)

	cfg := KanbanConfig{
		Deployment: t.cap.GetDeploymentURL(),
		Theme:      theme(req),
		Table:      table,
		GroupBy:    groupBy,
		Columns:    columns,
	}
	url := launchPreview(t.reg, "kanban", cfg, t.kanbanHTML(cfg), req)

	mdRows := make([][]string, 0, len(columns))
	for _, c := range columns {
		mdRows = append(mdRows, []string{c.Name, fmt.Sprintf("%d", len(c.Cards))})
	}
	md := report.RenderMarkdown(report.MarkdownDoc{
		Title:      fmt.Sprintf("Kanban: %s by %s", table, groupBy),
		PreviewURL: url,
		Context:    fmt.Sprintf("%s · %d documents", deploymentLine(t.cap), len(page.Documents)),
		Headers:    []string{"Column", "Cards"},
		Rows:       mdRows,
	})
	return mcp.NewToolResultText(md), nil
}

// kanbanHTML renders the board: one table with a column-per-lane
// summary and the newest cards of each lane with their relative age.
func (t *KanbanTool) kanbanHTML(cfg KanbanConfig) string {
	title := fmt.Sprintf("Kanban: %s", cfg.Table)
	if len(cfg.Columns) == 0 {
		return report.RenderHTML(report.Page{
			Title: title, Subtitle: cfg.Deployment, Theme: cfg.Theme,
			Body: report.Empty("No documents found."),
		})
	}

	now := t.now()
	const cardsShown = 8
	rows := make([][]report.Safe, 0, len(cfg.Columns))
	for _, col := range cfg.Columns {
		var cards []string
		for i, card := range col.Cards {
			if i == cardsShown {
				cards = append(cards, fmt.Sprintf("… %d more", len(col.Cards)-cardsShown))
				break
			}
			id, _ := card["_id"].(string)
			cards = append(cards, fmt.Sprintf("%s (%s)", id, report.RelativeTime(report.CreationTime(card), now)))
		}
		rows = append(rows, []report.Safe{
			report.Badge(col.Name, "ok"),
			report.Escape(fmt.Sprintf("%d", len(col.Cards))),
			report.Escape(strings.Join(cards, ", ")),
		})
	}
	return report.RenderHTML(report.Page{
		Title:    title,
		Subtitle: fmt.Sprintf("%s · grouped by %s", cfg.Deployment, cfg.GroupBy),
		Theme:    cfg.Theme,
		Body:     report.Table([]string{"Column", "Cards", "Newest"}, rows),
	})
}
