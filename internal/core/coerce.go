package core

// coerce.go is the type coercion engine: raw text in, typed value out.
//
// The rules are narrow: dates accept only YYYY-MM-DD, booleans
// only a fixed literal set, and numbers only plain decimal or exponent
// notation. Nothing here performs I/O.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// numericRegex validates that a string is a plain decimal number.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// DateLayout is the only accepted date format, for Date and DateTime columns alike.
const DateLayout = "2006-01-02"

const dateTimeLayout = "2006-01-02 15:04:05"

var (
	trueLiterals  = []string{"1", "true", "sí", "si"}
	falseLiterals = []string{"0", "false", "no"}
)

// Coerce parses raw under category cat. Text is returned exactly as given;
// other categories ignore surrounding whitespace and reject blank input.
func Coerce(raw string, cat TypeCategory) (any, error) {
	if cat == CategoryText {
		return raw, nil
	}
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, &CoercionError{Category: cat, Value: raw, Blank: true, Reason: "value is blank"}
	}

	switch cat {
	case CategoryInteger:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, &CoercionError{Category: cat, Value: raw, Reason: fmt.Sprintf("invalid integer %q", s)}
		}
		return n, nil

	case CategoryReal:
		if !numericRegex.MatchString(s) {
			return nil, &CoercionError{Category: cat, Value: raw, Reason: fmt.Sprintf("invalid number %q", s)}
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, &CoercionError{Category: cat, Value: raw, Reason: fmt.Sprintf("number out of range %q", s)}
		}
		return f, nil

	case CategoryBoolean:
		return coerceBool(raw, s)

	case CategoryDate, CategoryDateTime:
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return nil, &CoercionError{Category: cat, Value: raw, Reason: fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s)}
		}
		return t, nil

	default:
		return raw, nil
	}
}

func coerceBool(raw, s string) (any, error) {
	// A Caser is stateful, so each call gets its own.
	key := cases.Fold().String(norm.NFC.String(s))
	for _, lit := range trueLiterals {
		if key == lit {
			return true, nil
		}
	}
	for _, lit := range falseLiterals {
		if key == lit {
			return false, nil
		}
	}
	return nil, &CoercionError{
		Category: CategoryBoolean,
		Value:    raw,
		Reason: fmt.Sprintf("invalid boolean %q, expected one of %s (true) or %s (false)",
			s, strings.Join(trueLiterals, "/"), strings.Join(falseLiterals, "/")),
	}
}

// CoerceField coerces raw for col, naming the column in any error.
func CoerceField(col ColumnSpec, raw string) (any, error) {
	v, err := Coerce(raw, col.Category)
	if err != nil {
		if ce, ok := err.(*CoercionError); ok {
			ce.Column = col.Name
		}
		return nil, err
	}
	return v, nil
}

// Render returns the canonical string form of a coerced value.
// Coerce(Render(v), cat) yields v again.
func Render(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(DateLayout)
		}
		return x.Format(dateTimeLayout)
	default:
		return fmt.Sprint(x)
	}
}

// RawString renders a raw source value as text for coercion. The second
// result is false when the value is missing: nil, empty text, or NaN.
// Text is not trimmed.
func RawString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, x != ""
	case float64:
		if x != x {
			return "", false
		}
		// Whole floats from JSON sources render as integers so they coerce into Integer columns.
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case bool:
		if x {
			return "1", true
		}
		return "0", true
	case time.Time:
		return x.Format(DateLayout), true
	default:
		s := fmt.Sprint(x)
		return s, s != ""
	}
}
