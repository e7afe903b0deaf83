package resource

import (
	"encoding/json"
	"testing"
)

func TestEqualComparesNumbersByValue(t *testing.T) {
	cases := []struct {
		a, b any
		want bool
	}{
		{json.Number("5"), int64(5), true},
		{json.Number("5.50"), json.Number("5.5"), true},
		{json.Number("5"), "5", false},
		{nil, nil, true},
		{"a", "a", true},
		{[]any{json.Number("1")}, []any{1}, true},
		{map[string]any{"q": json.Number("2")}, Record{"q": 2}, true},
		{map[string]any{"q": 2}, map[string]any{"q": 2, "p": 1}, false},
	}
	for _, c := range cases {
		if got := Equal(c.a, c.b); got != c.want {
			t.Errorf("Equal(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestFieldParse(t *testing.T) {
	cases := []struct {
		kind  FieldKind
		input string
		want  any
	}{
		{KindText, " Oslo ", "Oslo"},
		{KindInt, "42", int64(42)},
		{KindRef, "7", int64(7)},
		{KindDecimal, "12,50", json.Number("12.5")},
		{KindBool, "Yes", true},
		{KindBool, "0", false},
		{KindText, "", nil},
	}
	for _, c := range cases {
		got, err := Field{Label: "F", Kind: c.kind}.Parse(c.input)
		if err != nil {
			t.Errorf("Parse(%q): %v", c.input, err)
			continue
		}
		if got != c.want {
			t.Errorf("Parse(%q) = %#v, want %#v", c.input, got, c.want)
		}
	}

	for _, bad := range []struct {
		kind  FieldKind
		input string
	}{{KindInt, "4.2"}, {KindDecimal, "abc"}, {KindBool, "maybe"}} {
		if _, err := (Field{Label: "F", Kind: bad.kind}).Parse(bad.input); err == nil {
			t.Errorf("Parse(%q) accepted", bad.input)
		}
	}
}

func TestRecordIntAcceptsDecodedForms(t *testing.T) {
	r := Record{"a": json.Number("12"), "b": "13", "c": 1.5, "d": nil}
	if n, ok := r.Int("a"); !ok || n != 12 {
		t.Errorf("a = %d %v", n, ok)
	}
	if n, ok := r.Int("b"); !ok || n != 13 {
		t.Errorf("b = %d %v", n, ok)
	}
	if _, ok := r.Int("c"); ok {
		t.Error("fraction accepted as id")
	}
	if _, ok := r.Int("d"); ok {
		t.Error("null accepted as id")
	}
}
