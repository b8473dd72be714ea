package source

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/JonMunkholm/tabload/internal/core"
)

var errNotArray = errors.New("json source must be an array of objects")

// parseJSON reads an array of flat objects. The column order is the order in
// which keys first appear across all objects; keys an object lacks are missing
// values in its row.
func parseJSON(text []byte) ([]string, []core.SourceRow, error) {
	if !gjson.ValidBytes(text) {
		return nil, nil, errors.New("invalid json")
	}
	doc := gjson.ParseBytes(text)
	if !doc.IsArray() {
		return nil, nil, errNotArray
	}

	var (
		cols    []string
		seen    = map[string]bool{}
		objects []map[string]gjson.Result
		bad     error
	)
	doc.ForEach(func(_, obj gjson.Result) bool {
		if !obj.IsObject() {
			bad = fmt.Errorf("element %d: %w", len(objects)+1, errNotArray)
			return false
		}
		fields := map[string]gjson.Result{}
		obj.ForEach(func(key, val gjson.Result) bool {
			name := key.String()
			if !seen[name] {
				seen[name] = true
				cols = append(cols, name)
			}
			fields[name] = val
			return true
		})
		objects = append(objects, fields)
		return true
	})
	if bad != nil {
		return nil, nil, bad
	}
	if err := checkHeader(cols); err != nil {
		return nil, nil, err
	}

	rows := make([]core.SourceRow, 0, len(objects))
	for _, fields := range objects {
		row := make(core.SourceRow, len(cols))
		for i, name := range cols {
			row[i].Name = name
			if v, ok := fields[name]; ok {
				row[i].Value = jsonValue(v)
			}
		}
		rows = append(rows, row)
	}
	return cols, rows, nil
}

func jsonValue(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Number:
		// Integers keep their literal text so large values survive intact.
		if !strings.ContainsAny(v.Raw, ".eE") {
			return v.Raw
		}
		return v.Float()
	case gjson.String:
		return CleanCell(v.Str)
	default:
		return v.Raw
	}
}
