package report

import "strings"

// Safe is an HTML fragment that is safe to splice into a page: either
// it came out of Escape, or it was assembled from Safe parts by the
// builders below. Raw data-derived strings never reach the template —
// the type system keeps unescaped text out.
type Safe string

// Escape converts arbitrary text into a Safe fragment, escaping the
// five characters that matter for markup injection.
func Escape(s string) Safe {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
	)
	return Safe(r.Replace(s))
}

// Join concatenates Safe fragments.
func Join(parts ...Safe) Safe {
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(string(p))
	}
	return Safe(sb.String())
}

// Table builds a styled table from pre-escaped cells.
func Table(headers []string, rows [][]Safe) Safe {
	var sb strings.Builder
	sb.WriteString(`<table class="report-table"><thead><tr>`)
	for _, h := range headers {
		sb.WriteString("<th>" + string(Escape(h)) + "</th>")
	}
	sb.WriteString("</tr></thead><tbody>")
	for _, row := range rows {
		sb.WriteString("<tr>")
		for _, cell := range row {
			sb.WriteString("<td>" + string(cell) + "</td>")
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</tbody></table>")
	return Safe(sb.String())
}

// Badge renders a small colored label. kind selects the color class:
// ok, warn or err.
func Badge(text, kind string) Safe {
	switch kind {
	case "ok", "warn", "err":
	default:
		kind = "ok"
	}
	return Safe(`<span class="badge badge-` + kind + `">` + string(Escape(text)) + `</span>`)
}

// Card renders a stat card with a big value and a label under it.
func Card(label, value string) Safe {
	return Safe(`<div class="card"><div class="card-value">` + string(Escape(value)) +
		`</div><div class="card-label">` + string(Escape(label)) + `</div></div>`)
}

// Cards wraps stat cards in a flex row.
func Cards(cards ...Safe) Safe {
	return Safe(`<div class="cards">`) + Join(cards...) + Safe(`</div>`)
}

// Empty is the body shown when a report has no rows.
func Empty(message string) Safe {
	return Safe(`<p class="empty">` + string(Escape(message)) + `</p>`)
}

// Page describes one HTML report document.
type Page struct {
	Title    string
	Subtitle string
	Theme    string // dark, light or auto
	Body     Safe
}

// RenderHTML produces a self-contained document: shared styling, theme
// toggle script, and the pre-escaped body spliced in.
func RenderHTML(p Page) string {
	theme := p.Theme
	switch theme {
	case "dark", "light":
	default:
		theme = "auto"
	}
	out := htmlShell
	out = strings.ReplaceAll(out, "{{TITLE}}", string(Escape(p.Title)))
	out = strings.ReplaceAll(out, "{{SUBTITLE}}", string(Escape(p.Subtitle)))
	out = strings.ReplaceAll(out, "{{THEME}}", theme)
	out = strings.ReplaceAll(out, "{{BODY}}", string(p.Body))
	return out
}

// htmlShell is the shared document template. Placeholders are replaced
// by RenderHTML; only Safe content ever lands in {{BODY}}.
const htmlShell = `<!DOCTYPE html>
<html lang="en" data-theme="{{THEME}}">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{TITLE}}</title>
<style>
:root { --bg: #ffffff; --fg: #1a1a2e; --muted: #6b7280; --card: #f3f4f6; --border: #e5e7eb; --accent: #6366f1; }
[data-theme="dark"] { --bg: #0f1117; --fg: #e5e7eb; --muted: #9ca3af; --card: #1b1e27; --border: #2a2e3a; --accent: #818cf8; }
@media (prefers-color-scheme: dark) {
  [data-theme="auto"] { --bg: #0f1117; --fg: #e5e7eb; --muted: #9ca3af; --card: #1b1e27; --border: #2a2e3a; --accent: #818cf8; }
}
* { box-sizing: border-box; }
body { margin: 0; padding: 2rem; background: var(--bg); color: var(--fg);
       font: 15px/1.5 -apple-system, "Segoe UI", Roboto, sans-serif; }
header { display: flex; align-items: baseline; justify-content: space-between; margin-bottom: 1.5rem; }
h1 { margin: 0; font-size: 1.4rem; }
.subtitle { color: var(--muted); font-size: 0.9rem; }
#theme-toggle { background: var(--card); color: var(--fg); border: 1px solid var(--border);
                border-radius: 6px; padding: 0.3rem 0.8rem; cursor: pointer; }
.cards { display: flex; flex-wrap: wrap; gap: 1rem; margin-bottom: 1.5rem; }
.card { background: var(--card); border: 1px solid var(--border); border-radius: 10px;
        padding: 1rem 1.4rem; min-width: 10rem; }
.card-value { font-size: 1.8rem; font-weight: 600; color: var(--accent); }
.card-label { color: var(--muted); font-size: 0.85rem; }
.report-table { width: 100%; border-collapse: collapse; }
.report-table th { text-align: left; color: var(--muted); font-weight: 500;
                   border-bottom: 2px solid var(--border); padding: 0.5rem 0.75rem; }
.report-table td { border-bottom: 1px solid var(--border); padding: 0.5rem 0.75rem; }
.badge { display: inline-block; border-radius: 999px; padding: 0.1rem 0.6rem; font-size: 0.8rem; }
.badge-ok { background: #10b98122; color: #10b981; }
.badge-warn { background: #f59e0b22; color: #f59e0b; }
.badge-err { background: #ef444422; color: #ef4444; }
.empty { color: var(--muted); font-style: italic; }
</style>
</head>
<body>
<header>
  <div>
    <h1>{{TITLE}}</h1>
    <div class="subtitle">{{SUBTITLE}}</div>
  </div>
  <button id="theme-toggle">theme</button>
</header>
<main>
{{BODY}}
</main>
<script>
(function () {
  var root = document.documentElement;
  document.getElementById("theme-toggle").addEventListener("click", function () {
    var cur = root.getAttribute("data-theme");
    root.setAttribute("data-theme", cur === "dark" ? "light" : "dark");
  });
})();
</script>
</body>
</html>
`
