package source

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/JonMunkholm/tabload/internal/core"
)

// parseDelimited reads a header line followed by data rows. Short rows are
// padded with missing values; rows longer than the header are rejected.
func parseDelimited(text []byte, comma rune) ([]string, []core.SourceRow, error) {
	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, ErrNoHeader
	}
	if err != nil {
		return nil, nil, err
	}
	// Header names are compared with the table's columns exactly as written.
	cols := append([]string(nil), header...)
	if err := checkHeader(cols); err != nil {
		return nil, nil, err
	}

	var rows []core.SourceRow
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if len(rec) > len(cols) {
			line, _ := r.FieldPos(0)
			return nil, nil, fmt.Errorf("line %d: %d fields, header has %d", line, len(rec), len(cols))
		}

		row := make(core.SourceRow, len(cols))
		for i, name := range cols {
			row[i].Name = name
			if i < len(rec) {
				row[i].Value = CleanCell(rec[i])
			}
		}
		rows = append(rows, row)
	}
	return cols, rows, nil
}
