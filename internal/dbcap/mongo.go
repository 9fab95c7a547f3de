package dbcap

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/HendryAvila/docsight/internal/report"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// defaultSampleSize bounds how many documents schema inference reads
// per table.
const defaultSampleSize = 100

// MongoCapability implements Capability against a MongoDB deployment.
type MongoCapability struct {
	client        *mongo.Client
	dbName        string
	deploymentURL string
}

// Connect dials the deployment. The URI comes from the environment and
// is handed to the driver untouched — credentials are never parsed
// here. displayURL is what reports show (the URI with credentials is
// never displayed).
func Connect(ctx context.Context, uri, dbName, displayURL string) (*MongoCapability, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to deployment: %w", err)
	}
	return &MongoCapability{
		client:        client,
		dbName:        dbName,
		deploymentURL: displayURL,
	}, nil
}

// Close releases the underlying client.
func (m *MongoCapability) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// IsConnected pings the deployment with a short deadline.
func (m *MongoCapability) IsConnected(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return m.client.Ping(ctx, nil) == nil
}

// HasAdminAccess probes for document-level read access by running
// dbStats, which anonymous or heavily restricted connections are
// denied.
func (m *MongoCapability) HasAdminAccess(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	res := m.client.Database(m.dbName).RunCommand(ctx, bson.D{{Key: "dbStats", Value: 1}})
	return res.Err() == nil
}

// GetDeploymentURL returns the display URL of the deployment, empty
// when unknown.
func (m *MongoCapability) GetDeploymentURL() string {
	return m.deploymentURL
}

// ListTables lists the deployment's collections with server-side
// document counts and index names.
func (m *MongoCapability) ListTables(ctx context.Context) ([]TableInfo, error) {
	db := m.client.Database(m.dbName)
	names, err := db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}

	tables := make([]TableInfo, 0, len(names))
	for _, name := range names {
		coll := db.Collection(name)
		count, err := coll.EstimatedDocumentCount(ctx)
		if err != nil {
			return nil, fmt.Errorf("counting documents in %q: %w", name, err)
		}

		var indexes []string
		cur, err := coll.Indexes().List(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing indexes of %q: %w", name, err)
		}
		var specs []bson.M
		if err := cur.All(ctx, &specs); err != nil {
			return nil, fmt.Errorf("reading indexes of %q: %w", name, err)
		}
		for _, spec := range specs {
			if n, ok := spec["name"].(string); ok {
				indexes = append(indexes, n)
			}
		}

		tables = append(tables, TableInfo{Name: name, DocumentCount: count, Indexes: indexes})
	}
	return tables, nil
}

// GetTableSchema returns the declared field set (from the collection's
// $jsonSchema validator, when one exists) and the field set inferred
// from a bounded document sample.
func (m *MongoCapability) GetTableSchema(ctx context.Context, table string, sampleSize int) (*TableSchema, error) {
	if sampleSize <= 0 {
		sampleSize = defaultSampleSize
	}
	declared, err := m.declaredFields(ctx, table)
	if err != nil {
		return nil, err
	}

	page, err := m.QueryDocuments(ctx, table, QueryOptions{Limit: sampleSize, Descending: true})
	if err != nil {
		return nil, err
	}

	return &TableSchema{
		Declared: declared,
		Inferred: InferFields(page.Documents),
	}, nil
}

func (m *MongoCapability) declaredFields(ctx context.Context, table string) ([]report.FieldDescriptor, error) {
	db := m.client.Database(m.dbName)
	cur, err := db.ListCollections(ctx, bson.D{{Key: "name", Value: table}})
	if err != nil {
		return nil, fmt.Errorf("reading schema of %q: %w", table, err)
	}
	var specs []bson.M
	if err := cur.All(ctx, &specs); err != nil {
		return nil, fmt.Errorf("reading schema of %q: %w", table, err)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("table %q does not exist", table)
	}

	// No validator means no declared schema — that's a legal state,
	// the drift report just compares against an empty declared set.
	opts := asDoc(specs[0]["options"])
	validator := asDoc(opts["validator"])
	jsonSchema := asDoc(validator["$jsonSchema"])
	if jsonSchema == nil {
		return nil, nil
	}
	return DeclaredFromJSONSchema(jsonSchema), nil
}

// QueryDocuments fetches one page of documents. Descending orders by
// creation time, newest first — heatmap scans depend on that. The
// cursor is a plain offset: opaque to callers, cheap for the bounded
// scans this tool performs.
func (m *MongoCapability) QueryDocuments(ctx context.Context, table string, opts QueryOptions) (*DocumentPage, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := 0
	if opts.Cursor != "" {
		n, err := strconv.Atoi(opts.Cursor)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor %q", opts.Cursor)
		}
		offset = n
	}

	findOpts := options.Find().
		SetSort(creationSort(opts.Descending)).
		SetSkip(int64(offset)).
		SetLimit(int64(limit) + 1) // one extra to detect the last page

	cur, err := m.client.Database(m.dbName).Collection(table).Find(ctx, bson.D{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("querying %q: %w", table, err)
	}
	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("reading documents of %q: %w", table, err)
	}

	isDone := len(raw) <= limit
	if !isDone {
		raw = raw[:limit]
	}

	page := &DocumentPage{IsDone: isDone}
	for _, doc := range raw {
		page.Documents = append(page.Documents, normalizeRecord(doc))
	}
	if !isDone {
		page.ContinueCursor = strconv.Itoa(offset + limit)
	}
	return page, nil
}

// creationSort orders a find by creation time with _id as tiebreaker.
// Heatmap scans depend on seeing documents newest first even when an
// explicit _creationTime disagrees with insertion order; documents
// that don't store the field sort as null, landing at the old end of a
// descending scan.
func creationSort(descending bool) bson.D {
	order := 1
	if descending {
		order = -1
	}
	return bson.D{{Key: "_creationTime", Value: order}, {Key: "_id", Value: order}}
}

// GetAllDocuments snapshots up to maxPerTable documents from every
// table, newest first. The result is a point-in-time sample, not a
// consistent view.
func (m *MongoCapability) GetAllDocuments(ctx context.Context, maxPerTable int) (map[string][]report.Record, error) {
	tables, err := m.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]report.Record, len(tables))
	for _, t := range tables {
		page, err := m.QueryDocuments(ctx, t.Name, QueryOptions{Limit: maxPerTable, Descending: true})
		if err != nil {
			return nil, err
		}
		out[t.Name] = page.Documents
	}
	return out, nil
}

// normalizeRecord converts a decoded BSON document into the reserved
// record shape: "_id" as a string and "_creationTime" as epoch
// milliseconds, derived from the ObjectID timestamp when the document
// doesn't carry an explicit creation time.
func normalizeRecord(doc bson.M) report.Record {
	r := make(report.Record, len(doc))
	for k, v := range doc {
		r[k] = v
	}

	if oid, ok := doc["_id"].(bson.ObjectID); ok {
		r["_id"] = oid.Hex()
		if _, has := r["_creationTime"]; !has {
			r["_creationTime"] = float64(oid.Timestamp().UnixMilli())
		}
	} else if _, ok := doc["_id"]; ok {
		r["_id"] = fmt.Sprintf("%v", doc["_id"])
	}
	return r
}
