package dbcap

import (
	"sort"
	"strings"
	"time"

	"github.com/HendryAvila/docsight/internal/report"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// InferFields derives a field set from sampled documents: the union of
// observed fields, each with a type label from its observed values. A
// field absent from some sampled documents is marked optional and its
// label carries the `?` suffix. A field observed with several types
// gets the labels joined with "|", sorted for determinism.
//
// The reserved "_id" and "_creationTime" fields are excluded — every
// document carries them and they never participate in drift.
func InferFields(docs []report.Record) []report.FieldDescriptor {
	type seen struct {
		labels map[string]struct{}
		count  int
	}
	fields := make(map[string]*seen)
	for _, doc := range docs {
		for name, value := range doc {
			if name == "_id" || name == "_creationTime" {
				continue
			}
			s := fields[name]
			if s == nil {
				s = &seen{labels: make(map[string]struct{})}
				fields[name] = s
			}
			s.labels[typeLabel(value)] = struct{}{}
			s.count++
		}
	}

	out := make([]report.FieldDescriptor, 0, len(fields))
	for name, s := range fields {
		labels := make([]string, 0, len(s.labels))
		for l := range s.labels {
			labels = append(labels, l)
		}
		sort.Strings(labels)

		fd := report.FieldDescriptor{Name: name, Type: strings.Join(labels, "|")}
		if s.count < len(docs) {
			fd.Optional = true
			fd.Type += "?"
		}
		out = append(out, fd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// typeLabel maps a decoded BSON value to the label vocabulary shared
// with declared schemas.
func typeLabel(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int32, int64:
		return "number"
	case time.Time, bson.DateTime:
		return "date"
	case bson.ObjectID:
		return "id"
	case []any, bson.A:
		return "array"
	case map[string]any, bson.M, bson.D:
		return "object"
	default:
		return "unknown"
	}
}

// asDoc unwraps a decoded document value. The driver hands nested
// documents back as bson.M, which a plain map assertion would miss.
func asDoc(v any) map[string]any {
	switch d := v.(type) {
	case map[string]any:
		return d
	case bson.M:
		return d
	}
	return nil
}

// asList unwraps a decoded array value (bson.A or []any).
func asList(v any) []any {
	switch l := v.(type) {
	case []any:
		return l
	case bson.A:
		return l
	}
	return nil
}

// DeclaredFromJSONSchema extracts declared fields from a collection's
// $jsonSchema validator document. Fields listed under "properties" get
// their "bsonType" (or "type") as the label; fields absent from
// "required" are optional.
func DeclaredFromJSONSchema(schema map[string]any) []report.FieldDescriptor {
	props := asDoc(schema["properties"])
	if props == nil {
		return nil
	}

	required := make(map[string]bool)
	for _, r := range asList(schema["required"]) {
		if name, ok := r.(string); ok {
			required[name] = true
		}
	}

	out := make([]report.FieldDescriptor, 0, len(props))
	for name, raw := range props {
		label := "unknown"
		if prop := asDoc(raw); prop != nil {
			if bt, ok := prop["bsonType"].(string); ok {
				label = normalizeBSONType(bt)
			} else if t, ok := prop["type"].(string); ok {
				label = normalizeBSONType(t)
			}
		}
		fd := report.FieldDescriptor{Name: name, Type: label, Optional: !required[name]}
		if fd.Optional {
			fd.Type += "?"
		}
		out = append(out, fd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// normalizeBSONType folds the BSON type names into the inference
// vocabulary so declared and inferred labels compare cleanly.
func normalizeBSONType(bt string) string {
	switch bt {
	case "double", "int", "long", "decimal":
		return "number"
	case "bool":
		return "boolean"
	case "objectId":
		return "id"
	case "timestamp":
		return "date"
	default:
		return bt
	}
}
