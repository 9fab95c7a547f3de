// Package report computes aggregate summaries over document snapshots
// and renders them as Markdown and self-contained HTML pages.
//
// Everything in this package is pure: functions take in-memory records
// and return values or strings. Fetching lives in dbcap, serving in
// preview — report never touches the network or the filesystem.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AggregationKind selects how a metric is computed over a record set.
type AggregationKind string

const (
	KindCount AggregationKind = "count"
	KindSum   AggregationKind = "sum"
	KindAvg   AggregationKind = "avg"
	KindMin   AggregationKind = "min"
	KindMax   AggregationKind = "max"
)

// Record is a point-in-time snapshot of one document: field name → value,
// plus the reserved fields "_id" (string) and "_creationTime" (float64
// milliseconds since epoch). Records are read-only and held only for the
// duration of one report computation.
type Record map[string]any

// MetricSpec declares one dashboard metric. It is never mutated after
// input parsing.
type MetricSpec struct {
	Name   string          `json:"name"`
	Table  string          `json:"table"`
	Kind   AggregationKind `json:"kind"`
	Field  string          `json:"field,omitempty"`
	Filter string          `json:"filter,omitempty"`
}

// ParseMetricSpecs decodes a JSON array of metric specs and validates
// each entry. The error message names the offending spec so the caller
// can surface it verbatim.
func ParseMetricSpecs(raw string) ([]MetricSpec, error) {
	var specs []MetricSpec
	if err := json.Unmarshal([]byte(raw), &specs); err != nil {
		return nil, fmt.Errorf("metrics must be a JSON array of {name, table, kind, field?, filter?}: %w", err)
	}
	for i, s := range specs {
		if s.Name == "" || s.Table == "" {
			return nil, fmt.Errorf("metric #%d: 'name' and 'table' are required", i+1)
		}
		switch s.Kind {
		case KindCount:
		case KindSum, KindAvg, KindMin, KindMax:
			if s.Field == "" {
				return nil, fmt.Errorf("metric %q: kind %q requires a 'field'", s.Name, s.Kind)
			}
		default:
			return nil, fmt.Errorf("metric %q: unknown kind %q (want count, sum, avg, min or max)", s.Name, s.Kind)
		}
	}
	return specs, nil
}

// Aggregate computes one numeric summary over records.
//
// For count, fallbackCount (when >= 0) is an authoritative server-side
// count and wins over len(records) — count stays exact even when only a
// sample of documents is materialized. The other kinds operate over the
// numeric values of the named field; non-numeric and missing values are
// excluded, not treated as zero. avg, min and max over an empty numeric
// set return 0 — a documented degenerate-input policy, not an error.
func Aggregate(records []Record, kind AggregationKind, field string, fallbackCount int64) float64 {
	if kind == KindCount {
		if fallbackCount >= 0 {
			return float64(fallbackCount)
		}
		return float64(len(records))
	}

	var values []float64
	for _, r := range records {
		if v, ok := numericValue(r[field]); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return 0
	}

	switch kind {
	case KindSum, KindAvg:
		var sum float64
		for _, v := range values {
			sum += v
		}
		if kind == KindAvg {
			return sum / float64(len(values))
		}
		return sum
	case KindMin:
		min := values[0]
		for _, v := range values[1:] {
			if v < min {
				min = v
			}
		}
		return min
	case KindMax:
		max := values[0]
		for _, v := range values[1:] {
			if v > max {
				max = v
			}
		}
		return max
	}
	return 0
}

// ApplyFilter narrows records to those whose field equals the given
// value, using a "field=value" expression. Values compare as their
// string rendering, so filter "active=true" matches a boolean true.
// An empty or malformed expression leaves the record set untouched.
func ApplyFilter(records []Record, filter string) []Record {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return records
	}
	field, want, ok := strings.Cut(filter, "=")
	if !ok {
		return records
	}
	field = strings.TrimSpace(field)
	want = strings.TrimSpace(want)

	var out []Record
	for _, r := range records {
		v, present := r[field]
		if present && fmt.Sprintf("%v", v) == want {
			out = append(out, r)
		}
	}
	return out
}

// numericValue extracts a float64 from the numeric types the BSON and
// JSON decoders produce. Everything else (strings, bools, nil, nested
// documents) is excluded from aggregation.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
