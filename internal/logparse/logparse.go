// Package logparse extracts structured events from heterogeneous log
// text, one line at a time. Lines may be JSON objects or free text;
// every line is independently parseable and parsing never fails — a
// line the strict decoder rejects degrades to best-effort pattern
// extraction, and a line with no extractable names keeps the "unknown"
// grouping key instead of being dropped.
package logparse

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Unknown is the grouping key for events whose function or table name
// could not be extracted.
const Unknown = "unknown"

// Event is one parsed log entry. Timestamp is zero when the line
// carried none (or an unparseable one).
type Event struct {
	Timestamp time.Time
	Function  string
	Table     string
	Message   string
}

// IsWriteConflict reports whether the event's message describes a
// write conflict. Matching is deliberately narrow: the lowercased
// message must contain "write conflict" or "writeconflict".
func (e Event) IsWriteConflict() bool {
	m := strings.ToLower(e.Message)
	return strings.Contains(m, "write conflict") || strings.Contains(m, "writeconflict")
}

// ParseLine parses one log line. JSON lines are decoded strictly
// first; anything else goes through the pattern extractor chain with
// the raw line as the message.
func ParseLine(line string) Event {
	if fields, ok := tryStructuredDecode(line); ok {
		return eventFromFields(fields, line)
	}

	e := Event{Message: line}
	if fn, ok := extractFirst(functionExtractors, line); ok {
		e.Function = fn
	}
	if tbl, ok := extractFirst(tableExtractors, line); ok {
		e.Table = tbl
	}
	return e
}

// ParseReader parses every line of r. Scanner errors (an unreadable
// source, a pathologically long line) abort the scan; parse problems
// on individual lines never do.
func ParseReader(r io.Reader) ([]Event, error) {
	var events []Event
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		events = append(events, ParseLine(line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning log: %w", err)
	}
	return events, nil
}

// ConflictRow is one aggregated frequency-table entry: how often a
// (function, table) pair showed up in write-conflict events.
type ConflictRow struct {
	Function string `json:"function"`
	Table    string `json:"table"`
	Count    int    `json:"count"`
}

// AggregateConflicts groups write-conflict events by (function, table)
// — both defaulting to "unknown" — counts occurrences, and sorts
// descending by count (ties by function then table for stable output).
// No time bucketing is applied; the caller reports the scan window
// separately.
func AggregateConflicts(events []Event) []ConflictRow {
	type key struct{ fn, tbl string }
	counts := make(map[key]int)
	for _, e := range events {
		if !e.IsWriteConflict() {
			continue
		}
		k := key{orUnknown(e.Function), orUnknown(e.Table)}
		counts[k]++
	}

	rows := make([]ConflictRow, 0, len(counts))
	for k, n := range counts {
		rows = append(rows, ConflictRow{Function: k.fn, Table: k.tbl, Count: n})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		if rows[i].Function != rows[j].Function {
			return rows[i].Function < rows[j].Function
		}
		return rows[i].Table < rows[j].Table
	})
	return rows
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}

// ─── Structured decoding ─────────────────────────────────────────────

// Alternate key names seen across log producers, in priority order.
var (
	timestampKeys = []string{"timestamp", "time", "ts"}
	functionKeys  = []string{"functionName", "function", "udfName", "name"}
	tableKeys     = []string{"tableName", "table", "table_name"}
	messageKeys   = []string{"message", "msg", "text"}
)

// tryStructuredDecode treats the line as a self-describing JSON object.
func tryStructuredDecode(line string) (map[string]any, bool) {
	if !strings.HasPrefix(strings.TrimSpace(line), "{") {
		return nil, false
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return nil, false
	}
	return fields, true
}

func eventFromFields(fields map[string]any, raw string) Event {
	e := Event{
		Function: firstString(fields, functionKeys),
		Table:    firstString(fields, tableKeys),
		Message:  firstString(fields, messageKeys),
	}
	if e.Message == "" {
		e.Message = raw
	}
	for _, k := range timestampKeys {
		v, ok := fields[k]
		if !ok {
			continue
		}
		if t, ok := parseTimestamp(v); ok {
			e.Timestamp = t
		}
		break
	}
	return e
}

func firstString(fields map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := fields[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// parseTimestamp accepts epoch milliseconds (any JSON number) or an
// ISO-8601 string. Anything else means "no timestamp" — never an
// error.
func parseTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case float64:
		return time.UnixMilli(int64(t)), true
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed, true
		}
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// ─── Pattern extraction ──────────────────────────────────────────────

// An extractor pulls one optional value out of a free-text line. The
// chain is ordered; the first success per field wins, and every
// extractor is independent of the others.
type extractor func(line string) (string, bool)

var (
	// "function users:create" / mutation "orders/place"
	functionPattern = regexp.MustCompile(`(?i)\b(?:function|mutation)\s+["']?([\w./:-]+)["']?`)

	// table "users" / table orders
	tablePattern = regexp.MustCompile(`(?i)\btable\s+["']?(\w+)["']?`)
	// tableName: users / tableName="orders"
	tableAssignPattern = regexp.MustCompile(`(?i)\btableName\s*[:=]\s*["']?(\w+)["']?`)
)

var functionExtractors = []extractor{
	patternExtractor(functionPattern),
}

var tableExtractors = []extractor{
	patternExtractor(tableAssignPattern),
	patternExtractor(tablePattern),
}

func patternExtractor(re *regexp.Regexp) extractor {
	return func(line string) (string, bool) {
		m := re.FindStringSubmatch(line)
		if m == nil {
			return "", false
		}
		return strings.Trim(m[1], `"'`), true
	}
}

func extractFirst(chain []extractor, line string) (string, bool) {
	for _, ex := range chain {
		if v, ok := ex(line); ok {
			return v, true
		}
	}
	return "", false
}
