package report

import (
	"sort"
	"time"
)

// HeatmapRow summarizes write activity for one table inside a time
// window: how many documents were created in the window, the resulting
// per-minute rate, and how many documents the scan actually touched.
type HeatmapRow struct {
	Table       string  `json:"table"`
	Writes      int     `json:"writes"`
	PerMinute   float64 `json:"perMinute"`
	DocsScanned int     `json:"docsScanned"`
}

// ComputeHeatmap counts documents created at or after cutoff, scanning
// docs in the order given — callers supply them newest first — and
// stopping at the first document older than the cutoff.
//
// The early stop trusts the descending creation-time order of the
// upstream query; a store that backfills documents out of order would
// under-report here. Documents without a creation time are skipped but
// still count as scanned.
func ComputeHeatmap(table string, docs []Record, cutoff time.Time, window time.Duration) HeatmapRow {
	row := HeatmapRow{Table: table}
	for _, doc := range docs {
		row.DocsScanned++
		created := CreationTime(doc)
		if created.IsZero() {
			continue
		}
		if created.Before(cutoff) {
			break
		}
		row.Writes++
	}
	if minutes := window.Minutes(); minutes > 0 {
		row.PerMinute = float64(row.Writes) / minutes
	}
	return row
}

// RankHeatmap sorts rows descending by write count, ties broken by
// table name.
func RankHeatmap(rows []HeatmapRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Writes != rows[j].Writes {
			return rows[i].Writes > rows[j].Writes
		}
		return rows[i].Table < rows[j].Table
	})
}
