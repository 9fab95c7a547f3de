package report

import (
	"testing"
	"time"
)

func docAt(t time.Time) Record {
	return Record{"_creationTime": float64(t.UnixMilli())}
}

func TestComputeHeatmap(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	window := time.Hour
	cutoff := now.Add(-window)

	// Newest first, matching the upstream query order.
	docs := []Record{
		docAt(now.Add(-5 * time.Minute)),
		docAt(now.Add(-30 * time.Minute)),
		docAt(now.Add(-59 * time.Minute)),
		docAt(now.Add(-2 * time.Hour)),   // older than cutoff: stop here
		docAt(now.Add(-1 * time.Minute)), // never reached
	}

	row := ComputeHeatmap("orders", docs, cutoff, window)
	if row.Writes != 3 {
		t.Errorf("Writes = %d, want 3", row.Writes)
	}
	// The scan stops at the first too-old document; the one after it
	// is never touched.
	if row.DocsScanned != 4 {
		t.Errorf("DocsScanned = %d, want 4", row.DocsScanned)
	}
	if want := 3.0 / 60.0; row.PerMinute != want {
		t.Errorf("PerMinute = %v, want %v", row.PerMinute, want)
	}
}

func TestComputeHeatmap_SkipsDocsWithoutCreationTime(t *testing.T) {
	now := time.Now()
	docs := []Record{
		{},
		docAt(now.Add(-time.Minute)),
	}
	row := ComputeHeatmap("t", docs, now.Add(-time.Hour), time.Hour)
	if row.Writes != 1 || row.DocsScanned != 2 {
		t.Errorf("row = %+v, want 1 write over 2 scanned", row)
	}
}

func TestComputeHeatmap_EmptyTable(t *testing.T) {
	row := ComputeHeatmap("t", nil, time.Now(), time.Hour)
	if row.Writes != 0 || row.PerMinute != 0 || row.DocsScanned != 0 {
		t.Errorf("row = %+v, want all zeros", row)
	}
}

func TestRankHeatmap(t *testing.T) {
	rows := []HeatmapRow{
		{Table: "b", Writes: 1},
		{Table: "a", Writes: 1},
		{Table: "hot", Writes: 50},
	}
	RankHeatmap(rows)
	want := []string{"hot", "a", "b"}
	for i, name := range want {
		if rows[i].Table != name {
			t.Errorf("rows[%d] = %s, want %s", i, rows[i].Table, name)
		}
	}
}
