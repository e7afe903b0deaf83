package resource

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Record is one backend object as decoded from JSON. Numbers arrive as
// json.Number so money and quantities keep their exact text.
type Record map[string]any

// ID returns the server-assigned id.
func (r Record) ID() (int64, bool) {
	return r.Int("id")
}

// Int reads an integer field (ids, references). Missing, null and
// non-integral values report false.
func (r Record) Int(field string) (int64, bool) {
	return toInt(r[field])
}

// Decimal reads a money or quantity field. Numbers and numeric strings
// are accepted; anything else reports false.
func (r Record) Decimal(field string) (decimal.Decimal, bool) {
	if s, ok := r[field].(string); ok {
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		return d, err == nil
	}
	return toDecimal(r[field])
}

// Text renders a field for display. Null and missing fields are "".
func (r Record) Text(field string) string {
	return Format(r[field])
}

// Clone makes the shallow copy used as a Form Draft.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Lines returns the object elements of a list field, e.g. document items.
func (r Record) Lines(field string) []Record {
	raw, ok := r[field].([]any)
	if !ok {
		if typed, ok := r[field].([]Record); ok {
			return typed
		}
		return nil
	}
	out := make([]Record, 0, len(raw))
	for _, e := range raw {
		switch m := e.(type) {
		case map[string]any:
			out = append(out, Record(m))
		case Record:
			out = append(out, m)
		}
	}
	return out
}

// Diff returns the fields of r whose values differ from base.
func (r Record) Diff(base Record) Record {
	changed := Record{}
	for k, v := range r {
		if bv, ok := base[k]; !ok || !Equal(v, bv) {
			changed[k] = v
		}
	}
	for k := range base {
		if _, ok := r[k]; !ok {
			changed[k] = nil
		}
	}
	return changed
}

// Format renders any decoded JSON value for display.
func Format(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "yes"
		}
		return "no"
	case decimal.Decimal:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Equal compares two decoded values. Numbers compare by value whatever
// their Go type, so a json.Number "5" equals int64(5).
func Equal(a, b any) bool {
	if da, ok := toDecimal(a); ok {
		db, ok := toDecimal(b)
		return ok && da.Equal(db)
	}
	if _, ok := toDecimal(b); ok {
		return false
	}

	switch ta := a.(type) {
	case map[string]any:
		return equalMaps(ta, asMap(b))
	case Record:
		return equalMaps(ta, asMap(b))
	case []any:
		tb, ok := b.([]any)
		if !ok || len(ta) != len(tb) {
			return false
		}
		for i := range ta {
			if !Equal(ta[i], tb[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// IsBlank reports whether a value counts as missing for required fields.
func IsBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	}
	return false
}

func asMap(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return t
	case Record:
		return t
	}
	return nil
}

func equalMaps(a, b map[string]any) bool {
	if b == nil || len(a) != len(b) {
		return false
	}
	for k, v := range a {
		bv, ok := b[k]
		if !ok || !Equal(v, bv) {
			return false
		}
	}
	return true
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(t), true
	case float32:
		return decimal.NewFromFloat32(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int32:
		return decimal.NewFromInt32(t), true
	case int64:
		return decimal.NewFromInt(t), true
	case decimal.Decimal:
		return t, true
	}
	return decimal.Decimal{}, false
}

func toInt(v any) (int64, bool) {
	switch t := v.(type) {
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		return n, err == nil
	}
	d, ok := toDecimal(v)
	if !ok || !d.IsInteger() {
		return 0, false
	}
	return d.IntPart(), true
}
