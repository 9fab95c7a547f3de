package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/HendryAvila/docsight/internal/dbcap"
	"github.com/HendryAvila/docsight/internal/report"
	"github.com/mark3labs/mcp-go/mcp"
)

// fakeCap is an in-memory Capability for handler tests.
type fakeCap struct {
	connected bool
	admin     bool
	url       string
	tables    []dbcap.TableInfo
	schemas   map[string]*dbcap.TableSchema
	docs      map[string][]report.Record
	failWith  error

	// sample sizes seen by GetTableSchema, keyed by table
	sampleSizes map[string]int
}

func (f *fakeCap) IsConnected(ctx context.Context) bool    { return f.connected }
func (f *fakeCap) HasAdminAccess(ctx context.Context) bool { return f.admin }
func (f *fakeCap) GetDeploymentURL() string                { return f.url }

func (f *fakeCap) ListTables(ctx context.Context) ([]dbcap.TableInfo, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.tables, nil
}

func (f *fakeCap) GetTableSchema(ctx context.Context, table string, sampleSize int) (*dbcap.TableSchema, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	if f.sampleSizes == nil {
		f.sampleSizes = make(map[string]int)
	}
	f.sampleSizes[table] = sampleSize
	s, ok := f.schemas[table]
	if !ok {
		return nil, fmt.Errorf("table %q does not exist", table)
	}
	return s, nil
}

func (f *fakeCap) QueryDocuments(ctx context.Context, table string, opts dbcap.QueryOptions) (*dbcap.DocumentPage, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	docs := f.docs[table]
	if opts.Limit > 0 && len(docs) > opts.Limit {
		docs = docs[:opts.Limit]
	}
	return &dbcap.DocumentPage{Documents: docs, IsDone: true}, nil
}

func (f *fakeCap) GetAllDocuments(ctx context.Context, maxPerTable int) (map[string][]report.Record, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return f.docs, nil
}

// toolReq builds a CallToolRequest with the given arguments, always
// suppressing the browser preview.
func toolReq(args map[string]interface{}) mcp.CallToolRequest {
	if args == nil {
		args = map[string]interface{}{}
	}
	args["no_browser"] = true
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text payload of a tool result.
func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("result has no content")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

func connectedCap() *fakeCap {
	return &fakeCap{
		connected: true,
		admin:     true,
		url:       "mongodb://localhost:27017/app",
	}
}

// --- Gating ---

func TestTools_NotConnected(t *testing.T) {
	dead := &fakeCap{}

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"status":    NewStatusTool(dead).Handle,
		"schema":    NewSchemaTool(dead, nil).Handle,
		"heatmap":   NewHeatmapTool(dead, nil).Handle,
		"kanban":    func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) { return NewKanbanTool(dead, nil).Handle(ctx, toolReq(map[string]interface{}{"table": "users"})) },
		"dashboard": func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) { return NewDashboardTool(dead, nil).Handle(ctx, toolReq(map[string]interface{}{"metrics": `[{"name":"n","table":"t","kind":"count"}]`})) },
	}
	for name, handle := range handlers {
		t.Run(name, func(t *testing.T) {
			res, err := handle(context.Background(), toolReq(nil))
			if err != nil {
				t.Fatalf("handler returned a Go error: %v", err)
			}
			if !res.IsError {
				t.Fatal("expected an error result")
			}
			if !strings.Contains(resultText(t, res), "DOCSIGHT_URI") {
				t.Error("error result missing remediation hint")
			}
		})
	}
}

func TestTools_NilCapability(t *testing.T) {
	res, err := NewStatusTool(nil).Handle(context.Background(), toolReq(nil))
	if err != nil {
		t.Fatalf("handler returned a Go error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected an error result with no capability wired")
	}
}

func TestTools_InsufficientAccess(t *testing.T) {
	readonly := &fakeCap{connected: true, admin: false}
	res, err := NewSchemaTool(readonly, nil).Handle(context.Background(), toolReq(nil))
	if err != nil {
		t.Fatalf("handler returned a Go error: %v", err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), "elevated access") {
		t.Errorf("want insufficient-access error, got %q", resultText(t, res))
	}
}

func TestTools_UpstreamFailureIsTerminal(t *testing.T) {
	broken := connectedCap()
	broken.failWith = fmt.Errorf("socket closed")

	res, err := NewStatusTool(broken).Handle(context.Background(), toolReq(nil))
	if err != nil {
		t.Fatalf("handler returned a Go error: %v", err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), "socket closed") {
		t.Errorf("upstream failure not surfaced: %q", resultText(t, res))
	}
}

// --- Status ---

func TestStatusTool(t *testing.T) {
	cap := connectedCap()
	cap.tables = []dbcap.TableInfo{
		{Name: "users", DocumentCount: 1500, Indexes: []string{"_id_", "email_1"}},
		{Name: "orders", DocumentCount: 42},
	}

	res, err := NewStatusTool(cap).Handle(context.Background(), toolReq(nil))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := resultText(t, res)

	for _, want := range []string{"Deployment Status", "users", "1.5k", "orders", "admin", "2 tables"} {
		if !strings.Contains(text, want) {
			t.Errorf("status output missing %q:\n%s", want, text)
		}
	}
}

// --- Schema ---

func TestSchemaTool_RanksDrift(t *testing.T) {
	cap := connectedCap()
	cap.tables = []dbcap.TableInfo{{Name: "clean"}, {Name: "drifty"}}
	cap.schemas = map[string]*dbcap.TableSchema{
		"clean": {
			Declared: []report.FieldDescriptor{{Name: "a", Type: "string"}},
			Inferred: []report.FieldDescriptor{{Name: "a", Type: "string"}},
		},
		"drifty": {
			Declared: []report.FieldDescriptor{{Name: "a", Type: "string"}},
			Inferred: []report.FieldDescriptor{{Name: "a", Type: "number"}, {Name: "b", Type: "boolean"}},
		},
	}

	res, err := NewSchemaTool(cap, nil).Handle(context.Background(), toolReq(nil))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := resultText(t, res)

	// drifty (2 drift) ranks above clean (0).
	if di, ci := strings.Index(text, "drifty"), strings.Index(text, "| clean"); di < 0 || ci < 0 || di > ci {
		t.Errorf("drift ranking wrong:\n%s", text)
	}
	if !strings.Contains(text, "a (string vs number)") {
		t.Errorf("mismatch with raw labels missing:\n%s", text)
	}
}

func TestSchemaTool_SampleSizePassedThrough(t *testing.T) {
	cap := connectedCap()
	cap.tables = []dbcap.TableInfo{{Name: "users"}}
	cap.schemas = map[string]*dbcap.TableSchema{"users": {}}

	if _, err := NewSchemaTool(cap, nil).Handle(context.Background(),
		toolReq(map[string]interface{}{"sample_size": 5})); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if got := cap.sampleSizes["users"]; got != 5 {
		t.Errorf("capability sampled %d documents, want 5", got)
	}

	// Without the argument the default applies.
	if _, err := NewSchemaTool(cap, nil).Handle(context.Background(), toolReq(nil)); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if got := cap.sampleSizes["users"]; got != defaultSampleSize {
		t.Errorf("capability sampled %d documents, want the default %d", got, defaultSampleSize)
	}
}

// --- Dashboard ---

func TestDashboardTool(t *testing.T) {
	cap := connectedCap()
	cap.tables = []dbcap.TableInfo{{Name: "orders", DocumentCount: 2_500_000}}
	cap.docs = map[string][]report.Record{
		"orders": {
			{"total": 10.0, "status": "paid"},
			{"total": 30.0, "status": "paid"},
			{"total": 99.0, "status": "open"},
		},
	}

	req := toolReq(map[string]interface{}{
		"metrics": `[
			{"name":"Orders","table":"orders","kind":"count"},
			{"name":"Paid total","table":"orders","kind":"sum","field":"total","filter":"status=paid"}
		]`,
	})
	res, err := NewDashboardTool(cap, nil).Handle(context.Background(), req)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := resultText(t, res)

	// count uses the authoritative server-side number, not the three
	// sampled documents.
	if !strings.Contains(text, "2.5M") {
		t.Errorf("count fallback not applied:\n%s", text)
	}
	if !strings.Contains(text, "40") {
		t.Errorf("filtered sum missing:\n%s", text)
	}
}

func TestDashboardTool_BadSpecs(t *testing.T) {
	res, err := NewDashboardTool(connectedCap(), nil).Handle(context.Background(),
		toolReq(map[string]interface{}{"metrics": "not json"}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !res.IsError {
		t.Error("expected an error result for malformed specs")
	}
}

// --- Heatmap ---

func TestHeatmapTool(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	at := func(age time.Duration) report.Record {
		return report.Record{"_creationTime": float64(now.Add(-age).UnixMilli())}
	}

	cap := connectedCap()
	cap.tables = []dbcap.TableInfo{{Name: "quiet"}, {Name: "busy"}}
	cap.docs = map[string][]report.Record{
		"busy":  {at(time.Minute), at(2 * time.Minute), at(3 * time.Minute), at(2 * time.Hour)},
		"quiet": {at(3 * time.Hour)},
	}

	tool := NewHeatmapTool(cap, nil)
	tool.now = func() time.Time { return now }

	res, err := tool.Handle(context.Background(), toolReq(map[string]interface{}{"window_minutes": 60}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := resultText(t, res)

	if bi, qi := strings.Index(text, "busy"), strings.Index(text, "quiet"); bi < 0 || qi < 0 || bi > qi {
		t.Errorf("busy table should rank first:\n%s", text)
	}
	if !strings.Contains(text, "0.05/min") {
		t.Errorf("rate missing (3 writes / 60m):\n%s", text)
	}
}

// --- Kanban ---

func TestKanbanTool(t *testing.T) {
	cap := connectedCap()
	cap.docs = map[string][]report.Record{
		"tickets": {
			{"_id": "1", "status": "open", "_creationTime": float64(time.Now().UnixMilli())},
			{"_id": "2", "status": "open", "_creationTime": float64(time.Now().UnixMilli())},
			{"_id": "3", "status": "done", "_creationTime": float64(time.Now().UnixMilli())},
			{"_id": "4", "_creationTime": float64(time.Now().UnixMilli())},
		},
	}

	res, err := NewKanbanTool(cap, nil).Handle(context.Background(),
		toolReq(map[string]interface{}{"table": "tickets"}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := resultText(t, res)

	for _, want := range []string{"Kanban: tickets by status", "open", "done", report.NoneColumn, "4 documents"} {
		if !strings.Contains(text, want) {
			t.Errorf("kanban output missing %q:\n%s", want, text)
		}
	}
}

func TestKanbanTool_RequiresTable(t *testing.T) {
	res, err := NewKanbanTool(connectedCap(), nil).Handle(context.Background(), toolReq(nil))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !res.IsError {
		t.Error("expected an error result without a table argument")
	}
}

// --- Conflicts ---

func TestConflictsTool(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "app.log")
	lines := strings.Join([]string{
		`{"functionName":"fnA","tableName":"tableX","message":"Write Conflict detected"}`,
		`{"functionName":"fnA","tableName":"tableX","message":"Write Conflict detected"}`,
		`{"functionName":"fnA","tableName":"tableX","message":"Write Conflict detected"}`,
		`{"functionName":"fnA","tableName":"tableY","message":"Write Conflict detected"}`,
		`conflict-free commit on table tableZ`,
	}, "\n")
	if err := os.WriteFile(logFile, []byte(lines), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := NewConflictsTool(nil).Handle(context.Background(),
		toolReq(map[string]interface{}{"log_file": logFile}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	text := resultText(t, res)

	for _, want := range []string{"fnA | tableX | 3", "fnA | tableY | 1", "5 lines scanned"} {
		if !strings.Contains(text, want) {
			t.Errorf("conflicts output missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "tableZ") {
		t.Errorf("non-conflict line aggregated:\n%s", text)
	}
}

func TestConflictsTool_MissingFile(t *testing.T) {
	res, err := NewConflictsTool(nil).Handle(context.Background(),
		toolReq(map[string]interface{}{"log_file": filepath.Join(t.TempDir(), "absent.log")}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), "one log entry") {
		t.Errorf("missing-file error should explain the expected format: %q", resultText(t, res))
	}
}

func TestConflictsTool_NoPathArgument(t *testing.T) {
	res, err := NewConflictsTool(nil).Handle(context.Background(), toolReq(nil))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !res.IsError {
		t.Error("expected an error result without log_file")
	}
}
