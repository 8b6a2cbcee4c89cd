package tablefmt

import (
	"reflect"
	"testing"
)

func TestParseTables_TestCaseTable(t *testing.T) {
	reply := `Test Case ID | Category (UI, Functionality, Edge, Filter) | Description | Expected Result | Status
--- | --- | --- | --- | ---
TC_EXP_001 | UI | Banner renders on **home** | Banner is visible | Not Executed
TC_EXP_002 | Edge | Empty ` + "`categories`" + ` list | Empty state shown | Not Executed`

	tables := ParseTables(reply)
	if len(tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(tables))
	}
	wantHeader := []string{"Test Case ID", "Category (UI, Functionality, Edge, Filter)", "Description", "Expected Result", "Status"}
	if !reflect.DeepEqual(tables[0].Header, wantHeader) {
		t.Fatalf("unexpected header %q", tables[0].Header)
	}
	wantRows := [][]string{
		{"TC_EXP_001", "UI", "Banner renders on home", "Banner is visible", "Not Executed"},
		{"TC_EXP_002", "Edge", "Empty categories list", "Empty state shown", "Not Executed"},
	}
	if !reflect.DeepEqual(tables[0].Rows, wantRows) {
		t.Fatalf("unexpected rows %q", tables[0].Rows)
	}
}

func TestParseTables_SurroundingText(t *testing.T) {
	reply := "Here you go:\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\nAnd another:\n\n| c |\n|---|\n| 3 |\n"

	tables := ParseTables(reply)
	if len(tables) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(tables))
	}
	if !reflect.DeepEqual(tables[1].Rows, [][]string{{"3"}}) {
		t.Fatalf("unexpected second table %+v", tables[1])
	}
}

func TestParseTables_NoTable(t *testing.T) {
	for _, reply := range []string{"", "plain answer", "| not | a table |"} {
		if tables := ParseTables(reply); len(tables) != 0 {
			t.Fatalf("expected no tables for %q, got %+v", reply, tables)
		}
	}
}
