package kis

import (
	"bytes"
	"strings"
	"testing"
)

func TestDedupeRows(t *testing.T) {
	type row struct{ code, qty string }

	rows := []row{
		{"005930", "10"},
		{"000660", "5"},
		{"000660", "5"}, // page-boundary duplicate
		{"035420", "2"},
		{"005930", "10"},
	}

	got := dedupeRows(rows)
	want := []row{{"005930", "10"}, {"000660", "5"}, {"035420", "2"}}

	if len(got) != len(want) {
		t.Fatalf("Expected %d rows, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Row %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDedupeRowsKeepsDistinct(t *testing.T) {
	type row struct{ code, qty string }

	// Same code, different quantity: distinct rows, both kept
	rows := []row{{"005930", "10"}, {"005930", "20"}}
	if got := dedupeRows(rows); len(got) != 2 {
		t.Errorf("Expected 2 rows, got %d", len(got))
	}
}

func TestDedupeRowsEmpty(t *testing.T) {
	if got := dedupeRows([]string(nil)); len(got) != 0 {
		t.Errorf("Expected empty result, got %v", got)
	}
	if got := dedupeRows([]string{"only"}); len(got) != 1 {
		t.Errorf("Expected single row, got %v", got)
	}
}

func TestTableRender(t *testing.T) {
	tbl := NewTable("종목코드", "수량")
	tbl.Append("005930", "10")
	tbl.Append("000660") // short row is padded

	var buf bytes.Buffer
	if err := tbl.Render(&buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header + 2 rows, got %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "종목코드") {
		t.Errorf("Header missing: %q", lines[0])
	}
	if !strings.Contains(lines[1], "005930") {
		t.Errorf("First row missing: %q", lines[1])
	}
	if tbl.Empty() {
		t.Error("Table with rows reported empty")
	}
}
