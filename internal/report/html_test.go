package report

import (
	"strings"
	"testing"
)

func TestEscape(t *testing.T) {
	got := string(Escape(`<script>alert("hi") & 'bye'</script>`))
	want := "&lt;script&gt;alert(&quot;hi&quot;) &amp; &#39;bye&#39;&lt;/script&gt;"
	if got != want {
		t.Errorf("Escape = %q, want %q", got, want)
	}
}

func TestRenderHTML_DataNeverBecomesMarkup(t *testing.T) {
	// A stored document value containing markup must come out inert.
	body := Table(
		[]string{"Field"},
		[][]Safe{{Escape("<script>alert(1)</script>")}},
	)
	html := RenderHTML(Page{Title: "t", Body: body})

	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("unescaped data reached the document")
	}
	if !strings.Contains(html, "&lt;script&gt;alert(1)&lt;/script&gt;") {
		t.Error("escaped data missing from the document")
	}
}

func TestRenderHTML_TitleEscapedAndThemeValidated(t *testing.T) {
	html := RenderHTML(Page{Title: "a <b> title", Theme: "neon"})
	if !strings.Contains(html, "a &lt;b&gt; title") {
		t.Error("title not escaped")
	}
	if !strings.Contains(html, `data-theme="auto"`) {
		t.Error("unknown theme should fall back to auto")
	}
}

func TestTable(t *testing.T) {
	html := string(Table([]string{"A", "B"}, [][]Safe{
		{Escape("1"), Badge("ok", "ok")},
	}))
	for _, want := range []string{"<th>A</th>", "<th>B</th>", "<td>1</td>", `badge-ok`} {
		if !strings.Contains(html, want) {
			t.Errorf("table missing %q in %q", want, html)
		}
	}
}

func TestBadge_UnknownKindFallsBack(t *testing.T) {
	if got := string(Badge("x", "sparkly")); !strings.Contains(got, "badge-ok") {
		t.Errorf("Badge kind fallback: %q", got)
	}
}

func TestRenderMarkdown(t *testing.T) {
	md := RenderMarkdown(MarkdownDoc{
		Title:      "Report",
		PreviewURL: "http://127.0.0.1:3810",
		Context:    "Deployment: example",
		Headers:    []string{"A", "B"},
		Rows:       [][]string{{"1", "has|pipe"}},
	})

	for _, want := range []string{
		"# Report\n",
		"Interactive UI: http://127.0.0.1:3810",
		"Deployment: example",
		"| A | B |",
		`has\|pipe`,
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestRenderMarkdown_EmptyRows(t *testing.T) {
	md := RenderMarkdown(MarkdownDoc{Title: "Report", Headers: []string{"A"}})
	if !strings.Contains(md, "*No data available.*") {
		t.Errorf("empty report missing no-data sentence:\n%s", md)
	}
	if strings.Contains(md, "| A |") {
		t.Errorf("empty report should not render a table:\n%s", md)
	}
}
