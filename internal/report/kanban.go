package report

import (
	"fmt"
	"sort"
)

// NoneColumn is the bucket for documents that don't carry the grouping
// field at all.
const NoneColumn = "(none)"

// KanbanColumn is one board column: the grouping value and the
// documents that carry it.
type KanbanColumn struct {
	Name  string   `json:"name"`
	Cards []Record `json:"cards"`
}

// BuildKanban buckets documents by the string rendering of the named
// field. Documents missing the field land in the "(none)" column.
// Columns come back largest first, ties broken by name, so the busiest
// lane leads the board.
func BuildKanban(docs []Record, groupBy string) []KanbanColumn {
	buckets := make(map[string][]Record)
	for _, doc := range docs {
		key := NoneColumn
		if v, ok := doc[groupBy]; ok && v != nil {
			key = fmt.Sprintf("%v", v)
		}
		buckets[key] = append(buckets[key], doc)
	}

	columns := make([]KanbanColumn, 0, len(buckets))
	for name, cards := range buckets {
		columns = append(columns, KanbanColumn{Name: name, Cards: cards})
	}
	sort.SliceStable(columns, func(i, j int) bool {
		if len(columns[i].Cards) != len(columns[j].Cards) {
			return len(columns[i].Cards) > len(columns[j].Cards)
		}
		return columns[i].Name < columns[j].Name
	})
	return columns
}
