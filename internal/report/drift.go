package report

import (
	"sort"
	"strings"
)

// FieldDescriptor describes one field of a table schema: its name, a
// human-readable type label, and whether the field is optional. Two
// parallel sets exist per table — declared (from the static schema
// definition) and inferred (from sampled live documents).
type FieldDescriptor struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Optional bool   `json:"optional,omitempty"`
}

// FieldMismatch is a field present in both sets whose normalized type
// labels differ. Both raw labels are preserved verbatim for display.
type FieldMismatch struct {
	Name     string `json:"name"`
	Declared string `json:"declared"`
	Inferred string `json:"inferred"`
}

// Drift is the result of diffing a table's declared field set against
// the set inferred from sampled data. Computed fresh each invocation
// and never persisted.
type Drift struct {
	MissingDeclared []FieldDescriptor `json:"missingDeclared"`
	MissingInferred []FieldDescriptor `json:"missingInferred"`
	Mismatched      []FieldMismatch   `json:"mismatched"`
}

// Total is the row-level drift score: the sum of the three list
// lengths. A row with Total() == 0 is clean.
func (d Drift) Total() int {
	return len(d.MissingDeclared) + len(d.MissingInferred) + len(d.Mismatched)
}

// DriftRow pairs a table name with its computed drift.
type DriftRow struct {
	Table string `json:"table"`
	Drift Drift  `json:"drift"`
}

// DiffSchema diffs a declared field set against an inferred one.
//
// A field present only in inferred is reported under MissingDeclared
// (the schema doesn't declare it); a field present only in declared is
// reported under MissingInferred (no sampled document carried it). A
// field present in both is compared by normalized type label — the `?`
// optionality marker and whitespace are stripped and the label is
// lowercased — so "string" vs "string?" is not a mismatch, while
// "string" vs "number" is, with both raw labels preserved.
func DiffSchema(declared, inferred []FieldDescriptor) Drift {
	declaredByName := make(map[string]FieldDescriptor, len(declared))
	for _, f := range declared {
		declaredByName[f.Name] = f
	}
	inferredByName := make(map[string]FieldDescriptor, len(inferred))
	for _, f := range inferred {
		inferredByName[f.Name] = f
	}

	var d Drift
	for _, f := range inferred {
		dec, ok := declaredByName[f.Name]
		if !ok {
			d.MissingDeclared = append(d.MissingDeclared, f)
			continue
		}
		if normalizeType(dec.Type) != normalizeType(f.Type) {
			d.Mismatched = append(d.Mismatched, FieldMismatch{
				Name:     f.Name,
				Declared: dec.Type,
				Inferred: f.Type,
			})
		}
	}
	for _, f := range declared {
		if _, ok := inferredByName[f.Name]; !ok {
			d.MissingInferred = append(d.MissingInferred, f)
		}
	}
	return d
}

// RankDrift sorts rows descending by total drift, ties broken by table
// name so output order is stable across invocations.
func RankDrift(rows []DriftRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		ti, tj := rows[i].Drift.Total(), rows[j].Drift.Total()
		if ti != tj {
			return ti > tj
		}
		return rows[i].Table < rows[j].Table
	})
}

// normalizeType prepares a type label for comparison: optionality
// markers and whitespace out, case folded.
func normalizeType(label string) string {
	label = strings.ReplaceAll(label, "?", "")
	label = strings.Join(strings.Fields(label), "")
	return strings.ToLower(label)
}
