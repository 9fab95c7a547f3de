package report

import "testing"

func TestDiffSchema_MissingFields(t *testing.T) {
	declared := []FieldDescriptor{
		{Name: "email", Type: "string"},
		{Name: "legacyFlag", Type: "boolean"},
	}
	inferred := []FieldDescriptor{
		{Name: "email", Type: "string"},
		{Name: "nickname", Type: "string"},
	}

	d := DiffSchema(declared, inferred)

	if len(d.MissingDeclared) != 1 || d.MissingDeclared[0].Name != "nickname" {
		t.Errorf("MissingDeclared = %+v, want [nickname]", d.MissingDeclared)
	}
	if len(d.MissingInferred) != 1 || d.MissingInferred[0].Name != "legacyFlag" {
		t.Errorf("MissingInferred = %+v, want [legacyFlag]", d.MissingInferred)
	}
	if len(d.Mismatched) != 0 {
		t.Errorf("Mismatched = %+v, want empty", d.Mismatched)
	}
	if d.Total() != 2 {
		t.Errorf("Total = %d, want 2", d.Total())
	}
}

func TestDiffSchema_OptionalityIsNotAMismatch(t *testing.T) {
	declared := []FieldDescriptor{{Name: "bio", Type: "string"}}
	inferred := []FieldDescriptor{{Name: "bio", Type: "string?"}}

	d := DiffSchema(declared, inferred)
	if d.Total() != 0 {
		t.Errorf("string vs string? reported as drift: %+v", d)
	}
}

func TestDiffSchema_TypeMismatchKeepsRawLabels(t *testing.T) {
	declared := []FieldDescriptor{{Name: "age", Type: "String"}}
	inferred := []FieldDescriptor{{Name: "age", Type: "number?"}}

	d := DiffSchema(declared, inferred)
	if len(d.Mismatched) != 1 {
		t.Fatalf("Mismatched = %+v, want one entry", d.Mismatched)
	}
	m := d.Mismatched[0]
	if m.Declared != "String" || m.Inferred != "number?" {
		t.Errorf("raw labels not preserved: %+v", m)
	}
}

func TestDiffSchema_NormalizationIsCaseAndSpaceInsensitive(t *testing.T) {
	declared := []FieldDescriptor{{Name: "tags", Type: "Array "}}
	inferred := []FieldDescriptor{{Name: "tags", Type: "array?"}}

	if d := DiffSchema(declared, inferred); d.Total() != 0 {
		t.Errorf("normalized labels should match: %+v", d)
	}
}

func TestDiffSchema_CleanSchema(t *testing.T) {
	fields := []FieldDescriptor{
		{Name: "a", Type: "string"},
		{Name: "b", Type: "number"},
	}
	if d := DiffSchema(fields, fields); d.Total() != 0 {
		t.Errorf("identical sets reported drift: %+v", d)
	}
}

func TestRankDrift(t *testing.T) {
	rows := []DriftRow{
		{Table: "clean", Drift: Drift{}},
		{Table: "worst", Drift: Drift{
			MissingDeclared: []FieldDescriptor{{Name: "x"}, {Name: "y"}},
			Mismatched:      []FieldMismatch{{Name: "z"}},
		}},
		{Table: "mid", Drift: Drift{
			MissingInferred: []FieldDescriptor{{Name: "q"}},
		}},
	}

	RankDrift(rows)

	want := []string{"worst", "mid", "clean"}
	for i, name := range want {
		if rows[i].Table != name {
			t.Errorf("rows[%d] = %s, want %s", i, rows[i].Table, name)
		}
	}
}
