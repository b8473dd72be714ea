package source

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/JonMunkholm/tabload/internal/core"
)

func readAll(t *testing.T, f *File) []core.SourceRow {
	t.Helper()
	var rows []core.SourceRow
	for {
		row, err := f.Next()
		if errors.Is(err, io.EOF) {
			return rows
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		rows = append(rows, row)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{path: "ventas.csv", want: FormatCSV},
		{path: "VENTAS.CSV", want: FormatCSV},
		{path: "export.txt", want: FormatTSV},
		{path: "export.tsv", want: FormatTSV},
		{path: "rows.json", want: FormatJSON},
		{path: "book.xlsx", wantErr: true},
		{path: "book.xls", wantErr: true},
		{path: "noext", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Errorf("err = %v, want ErrUnsupportedFormat", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("FormatFromPath(%q) = %q, %v; want %q", tt.path, got, err, tt.want)
			}
		})
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  hello  ", "  hello  "},
		{`="00123"`, "00123"},
		{`="  A-1 "`, "  A-1 "},
		{` ="A-1" `, ` ="A-1" `},
		{`=`, "="},
		{`="`, `="`},
		{"=SUM(A1)", "=SUM(A1)"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CleanCell(tt.input); got != tt.expected {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFromBytes_CSV(t *testing.T) {
	data := "\xEF\xBB\xBFid,name,code\n1,Ana,=\"007\"\n2,\"Luis, Jr\"\n"

	f, err := FromBytes("people.csv", []byte(data), FormatCSV, Options{})
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if got := strings.Join(f.Columns(), "|"); got != "id|name|code" {
		t.Errorf("columns = %s", got)
	}
	if f.Name() != "people.csv" || len(f.Checksum()) != 16 {
		t.Errorf("name/checksum = %q/%q", f.Name(), f.Checksum())
	}

	rows := readAll(t, f)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if v, _ := rows[0].Get("code"); v != "007" {
		t.Errorf("formula wrapper not removed: %v", v)
	}
	if v, _ := rows[1].Get("name"); v != "Luis, Jr" {
		t.Errorf("quoted field = %v", v)
	}
	if v, ok := rows[1].Get("code"); !ok || v != nil {
		t.Errorf("short row should pad with nil, got %v, %v", v, ok)
	}
}

func TestFromBytes_TSV(t *testing.T) {
	f, err := FromBytes("x.txt", []byte("a\tb\n1\t2\n"), FormatTSV, Options{})
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	rows := readAll(t, f)
	if v, _ := rows[0].Get("b"); v != "2" {
		t.Errorf("b = %v", v)
	}
}

func TestFromBytes_KeepsWhitespace(t *testing.T) {
	f, err := FromBytes("x.csv", []byte(" id,name\n1,  Ana  \n2,   \n"), FormatCSV, Options{})
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if got := strings.Join(f.Columns(), "|"); got != " id|name" {
		t.Errorf("columns = %q, header names must not be trimmed", got)
	}
	rows := readAll(t, f)
	if v, _ := rows[0].Get("name"); v != "  Ana  " {
		t.Errorf("name = %q", v)
	}
	if v, _ := rows[1].Get("name"); v != "   " {
		t.Errorf("whitespace-only cell = %q", v)
	}

	j, err := FromBytes("x.json", []byte(`[{" id": 1, "name": " Eva "}]`), FormatJSON, Options{})
	if err != nil {
		t.Fatalf("FromBytes json: %v", err)
	}
	if got := strings.Join(j.Columns(), "|"); got != " id|name" {
		t.Errorf("json columns = %q", got)
	}
	if v, _ := readAll(t, j)[0].Get("name"); v != " Eva " {
		t.Errorf("json name = %q", v)
	}
}

func TestFromBytes_HeaderErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "empty file", data: ""},
		{name: "duplicate column", data: "id,id\n1,2\n"},
		{name: "blank column", data: "id,,name\n1,2,3\n"},
		{name: "row longer than header", data: "id\n1,2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromBytes("bad.csv", []byte(tt.data), FormatCSV, Options{}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFromBytes_Encoding(t *testing.T) {
	// "año" in Windows-1252
	data := []byte("nombre\na\xF1o\n")

	f, err := FromBytes("w.csv", data, FormatCSV, Options{Encoding: EncodingWindows1252})
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if v, _ := readAll(t, f)[0].Get("nombre"); v != "año" {
		t.Errorf("windows-1252 decode = %q", v)
	}

	f, err = FromBytes("u.csv", data, FormatCSV, Options{})
	if err != nil {
		t.Fatalf("FromBytes utf-8: %v", err)
	}
	v, _ := readAll(t, f)[0].Get("nombre")
	if s, _ := v.(string); !utf8.ValidString(s) || !strings.HasPrefix(s, "a") {
		t.Errorf("invalid UTF-8 should be replaced, got %q", v)
	}

	if _, err := FromBytes("x.csv", data, FormatCSV, Options{Encoding: "ebcdic"}); err == nil {
		t.Error("unknown encoding should be rejected")
	}
}

func TestFromBytes_JSON(t *testing.T) {
	data := `[
		{"id": 1, "name": "Ana", "score": 9.5},
		{"name": "Luis", "id": 2, "active": true, "note": null},
		{"id": 12345678901234567890, "name": "=\"x\"", "tags": [1, 2]}
	]`

	f, err := FromBytes("rows.json", []byte(data), FormatJSON, Options{})
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if got := strings.Join(f.Columns(), ","); got != "id,name,score,active,note,tags" {
		t.Errorf("columns = %s", got)
	}

	rows := readAll(t, f)
	checks := []struct {
		row  int
		col  string
		want any
	}{
		{0, "id", "1"},
		{0, "score", 9.5},
		{0, "active", nil},
		{1, "active", true},
		{1, "note", nil},
		{1, "score", nil},
		{2, "id", "12345678901234567890"},
		{2, "name", "x"},
		{2, "tags", "[1, 2]"},
	}
	for _, c := range checks {
		if got, _ := rows[c.row].Get(c.col); got != c.want {
			t.Errorf("row %d %s = %#v, want %#v", c.row, c.col, got, c.want)
		}
	}
}

func TestFromBytes_JSONErrors(t *testing.T) {
	for _, data := range []string{`{"id": 1}`, `[1, 2]`, `[{"id": 1}`, `[]`} {
		if _, err := FromBytes("bad.json", []byte(data), FormatJSON, Options{}); err == nil {
			t.Errorf("%s: expected error", data)
		}
	}
}

func TestChecksum_RawBytes(t *testing.T) {
	a, err := FromBytes("a.csv", []byte("id\n1\n"), FormatCSV, Options{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := FromBytes("b.csv", []byte("\xEF\xBB\xBFid\n1\n"), FormatCSV, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if a.Checksum() == b.Checksum() {
		t.Error("checksum should cover the raw bytes, BOM included")
	}
}

func TestOpenAndRead_SizeLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.csv")
	if err := os.WriteFile(path, []byte("id\n1\n2\n3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(path, Options{MaxSize: 4}); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Open: err = %v, want ErrTooLarge", err)
	}
	f, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if f.Name() != "big.csv" || f.Len() != 3 {
		t.Errorf("name=%q len=%d", f.Name(), f.Len())
	}

	if _, err := Read("big.csv", strings.NewReader("id\n1\n"), FormatCSV, Options{MaxSize: 3}); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Read: err = %v, want ErrTooLarge", err)
	}
}
