package tmpl

import (
	"errors"
	"strings"
	"testing"
)

func TestResolveFilterExpression(t *testing.T) {
	vars := map[string]any{
		"name":  " world ",
		"empty": "",
		"items": []any{"a", "b", "c"},
		"user":  map[any]any{"name": "ann", "tags": []string{"x", "y"}},
		"n":     3,
	}
	tests := []struct {
		expr string
		want string
	}{
		{"name|trim|upper", "WORLD"},
		{"missing", ""},
		{"missing|default('anon')", "anon"},
		{"empty|default(\"dflt\")", "dflt"},
		{"'lit|eral'", "lit|eral"},
		{"42", "42"},
		{"-7", "-7"},
		{"3.5", "3.5"},
		{"True", "true"},
		{"None|default(n)", "3"},
		{"user.name", "ann"},
		{"user.tags.1", "y"},
		{"user.nope.deeper", ""},
		{"items.5", ""},
		{"items|join('-')", "a-b-c"},
		{"items|length", "3"},
		{"items|first", "a"},
		{"items|last|upper", "C"},
		{"user|join", "name,tags"},
	}
	ctx := NewContext(vars)
	for _, tt := range tests {
		fe, err := ParseFilterExpression(tt.expr, nil)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.expr, err)
		}
		v, err := fe.Resolve(ctx)
		if err != nil {
			t.Fatalf("resolve %q: %v", tt.expr, err)
		}
		if v.String() != tt.want {
			t.Errorf("%q = %q, want %q", tt.expr, v.String(), tt.want)
		}
	}
}

func TestParseFilterExpressionErrors(t *testing.T) {
	tests := []struct {
		expr string
		msg  string
	}{
		{"   ", "empty expression"},
		{"'abc", "unterminated string literal 'abc"},
		{"\"salt", "unterminated string literal \"salt"},
		{"1x", "invalid number 1x"},
		{"a-b", "invalid variable name a-b"},
		{"a..b", "invalid variable name a..b"},
		{"a|nope", "unknown filter: nope"},
		{"a|default('x'", "unbalanced parentheses in filter default('x'"},
		{"a|", "empty filter"},
	}
	for _, tt := range tests {
		_, err := ParseFilterExpression(tt.expr, nil)
		var tse *TagSyntaxError
		if !errors.As(err, &tse) {
			t.Fatalf("%q: want TagSyntaxError, got %v", tt.expr, err)
		}
		if tse.Msg != tt.msg {
			t.Errorf("%q: msg = %q, want %q", tt.expr, tse.Msg, tt.msg)
		}
	}
}

func TestIsTrue(t *testing.T) {
	ctx := NewContext(map[string]any{
		"yes":   true,
		"no":    false,
		"zero":  0,
		"str":   "x",
		"empty": "",
		"list":  []int{},
		"dict":  map[string]any{"k": 1},
	})
	tests := map[string]bool{
		"yes":               true,
		"no":                false,
		"zero":              false,
		"str":               true,
		"empty":             false,
		"list":              false,
		"dict":              true,
		"missing":           false,
		"0.0":               false,
		"'0'":               true,
		"str|raise('oops')": false,
	}
	for expr, want := range tests {
		fe, err := ParseFilterExpression(expr, nil)
		if err != nil {
			t.Fatalf("parse %q: %v", expr, err)
		}
		if got := fe.IsTrue(ctx); got != want {
			t.Errorf("IsTrue(%q) = %v, want %v", expr, got, want)
		}
	}
}

func TestResolveFilterError(t *testing.T) {
	fe, err := ParseFilterExpression("x|raise('bad input')", nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = fe.Resolve(NewContext(nil))
	if err == nil || err.Error() != "filter raise: bad input" {
		t.Fatalf("got %v", err)
	}
}

func TestIsIdentifier(t *testing.T) {
	for s, want := range map[string]bool{
		"x": true, "_x1": true, "X_y": true,
		"": false, "1x": false, "a.b": false, "a-b": false, "a b": false,
	} {
		if got := IsIdentifier(s); got != want {
			t.Errorf("IsIdentifier(%q) = %v", s, got)
		}
	}
}

func TestSplitOutside(t *testing.T) {
	got := splitOutside(`a|f('x|y', "(")|g(h(1), 2)`, '|')
	want := []string{"a", `f('x|y', "(")`, "g(h(1), 2)"}
	if strings.Join(got, "#") != strings.Join(want, "#") {
		t.Fatalf("got %q", got)
	}
}
