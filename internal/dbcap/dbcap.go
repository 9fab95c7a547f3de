// Package dbcap is the upstream document-database capability: the
// minimal set of operations the report tools need from a deployment,
// independent of how that deployment is reached. The concrete
// implementation speaks MongoDB; everything above it depends only on
// the Capability interface.
package dbcap

import (
	"context"

	"github.com/HendryAvila/docsight/internal/report"
)

// TableInfo describes one table (collection) of the deployment.
type TableInfo struct {
	Name          string   `json:"name"`
	DocumentCount int64    `json:"documentCount"`
	Indexes       []string `json:"indexes"`
}

// TableSchema carries the two parallel field sets drift is computed
// from: declared (static schema definition) and inferred (sampled live
// documents).
type TableSchema struct {
	Declared []report.FieldDescriptor `json:"declaredFields"`
	Inferred []report.FieldDescriptor `json:"inferredFields"`
}

// QueryOptions bound one document page fetch.
type QueryOptions struct {
	Limit      int
	Cursor     string
	Descending bool // by creation time; heatmap scans rely on this
}

// DocumentPage is one page of a paginated document scan.
type DocumentPage struct {
	Documents      []report.Record `json:"documents"`
	ContinueCursor string          `json:"continueCursor,omitempty"`
	IsDone         bool            `json:"isDone"`
}

// Capability is what this tool needs from a deployment. Calls may
// fail; failure is terminal for the current invocation and is never
// silently retried.
type Capability interface {
	IsConnected(ctx context.Context) bool
	HasAdminAccess(ctx context.Context) bool
	GetDeploymentURL() string
	ListTables(ctx context.Context) ([]TableInfo, error)
	// GetTableSchema diffs sources for one table; sampleSize bounds the
	// document sample inference reads, <= 0 meaning the default.
	GetTableSchema(ctx context.Context, table string, sampleSize int) (*TableSchema, error)
	QueryDocuments(ctx context.Context, table string, opts QueryOptions) (*DocumentPage, error)
	GetAllDocuments(ctx context.Context, maxPerTable int) (map[string][]report.Record, error)
}
