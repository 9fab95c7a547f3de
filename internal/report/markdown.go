package report

import (
	"fmt"
	"strings"
)

// MarkdownDoc describes one text report. The renderer always emits the
// title, then the interactive URL when a preview session exists, then
// the context line, then the table — or an italic "no data" sentence
// when the row set is empty.
type MarkdownDoc struct {
	Title      string
	PreviewURL string
	Context    string
	Headers    []string
	Rows       [][]string
	Footer     string
}

// RenderMarkdown renders a report for text-only consumers.
func RenderMarkdown(doc MarkdownDoc) string {
	var sb strings.Builder
	sb.WriteString("# " + doc.Title + "\n\n")
	if doc.PreviewURL != "" {
		sb.WriteString("Interactive UI: " + doc.PreviewURL + "\n\n")
	}
	if doc.Context != "" {
		sb.WriteString(doc.Context + "\n\n")
	}

	if len(doc.Rows) == 0 {
		sb.WriteString("*No data available.*\n")
	} else {
		writeMarkdownTable(&sb, doc.Headers, doc.Rows)
	}

	if doc.Footer != "" {
		sb.WriteString("\n" + doc.Footer + "\n")
	}
	return sb.String()
}

func writeMarkdownTable(sb *strings.Builder, headers []string, rows [][]string) {
	sb.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	seps := make([]string, len(headers))
	for i := range seps {
		seps[i] = "---"
	}
	sb.WriteString("| " + strings.Join(seps, " | ") + " |\n")
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			// Pipes inside a cell would split the row.
			cells[i] = strings.ReplaceAll(c, "|", "\\|")
		}
		fmt.Fprintf(sb, "| %s |\n", strings.Join(cells, " | "))
	}
}
