package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestReconcile(t *testing.T) {
	schema, err := NewTableSchema("db", "T", []CatalogColumn{
		{Name: "A", DataType: "int"},
		{Name: "B", DataType: "varchar"},
		{Name: "C", DataType: "date"},
		{Name: "bi_ejecucion", DataType: "datetime"},
	})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		source      []string
		wantMissing []string
		wantExtra   []string
	}{
		{name: "exact match", source: []string{"A", "B", "C"}},
		{name: "any order", source: []string{"C", "A", "B"}},
		{name: "missing column", source: []string{"A", "B"}, wantMissing: []string{"C"}},
		{name: "extra column", source: []string{"A", "B", "C", "D"}, wantExtra: []string{"D"}},
		{name: "both", source: []string{"A", "X", "B"}, wantMissing: []string{"C"}, wantExtra: []string{"X"}},
		{name: "case sensitive", source: []string{"a", "B", "C"}, wantMissing: []string{"A"}, wantExtra: []string{"a"}},
		{name: "surrounding space is part of the name", source: []string{" A", "B", "C"}, wantMissing: []string{"A"}, wantExtra: []string{" A"}},
		{name: "managed column in source is extra", source: []string{"A", "B", "C", "Bi_ejecucion"}, wantExtra: []string{"Bi_ejecucion"}},
		{name: "empty source", source: nil, wantMissing: []string{"A", "B", "C"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Reconcile(schema, DefaultManagedColumn, tt.source)
			if tt.wantMissing == nil && tt.wantExtra == nil {
				if err != nil {
					t.Fatalf("Reconcile() = %v, want nil", err)
				}
				return
			}

			var mm *ColumnMismatchError
			if !errors.As(err, &mm) {
				t.Fatalf("Reconcile() = %v, want *ColumnMismatchError", err)
			}
			if !reflect.DeepEqual(mm.Missing, tt.wantMissing) {
				t.Errorf("Missing = %v, want %v", mm.Missing, tt.wantMissing)
			}
			if !reflect.DeepEqual(mm.Extra, tt.wantExtra) {
				t.Errorf("Extra = %v, want %v", mm.Extra, tt.wantExtra)
			}
			if !errors.Is(err, ErrColumnMismatch) || !IsFatal(err) {
				t.Error("mismatch must be a fatal ErrColumnMismatch")
			}
		})
	}
}

func TestNewTableSchema_RejectsDuplicates(t *testing.T) {
	_, err := NewTableSchema("db", "T", []CatalogColumn{
		{Name: "id", DataType: "int"},
		{Name: "id", DataType: "int"},
	})
	if err == nil {
		t.Fatal("duplicate column names must be rejected")
	}
}

func TestTableSchema_InputColumns(t *testing.T) {
	schema, _ := NewTableSchema("db", "T", []CatalogColumn{
		{Name: "BI_EJECUCION", DataType: "datetime"},
		{Name: "id", DataType: "bigint"},
		{Name: "ok", DataType: "bit"},
	})

	got := schema.InputColumnNames(DefaultManagedColumn)
	if want := []string{"id", "ok"}; !reflect.DeepEqual(got, want) {
		t.Errorf("InputColumnNames = %v, want %v", got, want)
	}

	mc, ok := schema.ManagedColumn(DefaultManagedColumn)
	if !ok || mc.Name != "BI_EJECUCION" || mc.Category != CategoryDateTime {
		t.Errorf("ManagedColumn = %+v, %v", mc, ok)
	}

	if c, _ := schema.Column("ok"); c.Category != CategoryBoolean {
		t.Errorf("ok category = %s", c.Category)
	}
}

func TestBuildInsert(t *testing.T) {
	cols := []ColumnSpec{{Name: "id"}, {Name: "name"}}

	got := BuildInsert(fakeDialect{}, "db", "T", cols, "").SQL
	if want := `INSERT INTO "T" ("id", "name") VALUES (?, ?)`; got != want {
		t.Errorf("SQL = %q, want %q", got, want)
	}

	got = BuildInsert(fakeDialect{}, "db", "T", cols, "stamp").SQL
	if want := `INSERT INTO "T" ("id", "name", "stamp") VALUES (?, ?, NOW())`; got != want {
		t.Errorf("SQL = %q, want %q", got, want)
	}
}
