package starlark

import (
	"testing"

	"github.com/neurodesk/tagtmpl/pkg/tmpl"
	"go.starlark.net/starlark"
)

func TestConvertToStarlark(t *testing.T) {
	tests := []struct {
		name string
		in   tmpl.Value
		want string
	}{
		{"string", tmpl.StringValue("hello"), `"hello"`},
		{"int", tmpl.IntValue(42), "42"},
		{"float", tmpl.FloatValue(1.5), "1.5"},
		{"bool", tmpl.BoolValue(true), "True"},
		{"none", tmpl.NoneValue{}, "None"},
		{"nil", nil, "None"},
		{"list", tmpl.ListValue{tmpl.StringValue("a"), tmpl.IntValue(1)}, `["a", 1]`},
		{"dict", tmpl.DictValue{"k": tmpl.BoolValue(false)}, `{"k": False}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ConvertToStarlark(tt.in).String(); got != tt.want {
				t.Fatalf("ConvertToStarlark(%v) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestConvertFromStarlark(t *testing.T) {
	dict := starlark.NewDict(1)
	dict.SetKey(starlark.String("k"), starlark.MakeInt(7))
	big, _ := starlark.Eval(&starlark.Thread{}, "big", "1 << 70", nil)

	tests := []struct {
		name string
		in   starlark.Value
		want tmpl.Value
	}{
		{"string", starlark.String("hello"), tmpl.StringValue("hello")},
		{"int", starlark.MakeInt64(42), tmpl.IntValue(42)},
		{"big int", big, tmpl.StringValue("1180591620717411303424")},
		{"float", starlark.Float(1.5), tmpl.FloatValue(1.5)},
		{"bool", starlark.False, tmpl.BoolValue(false)},
		{"none", starlark.None, tmpl.NoneValue{}},
		{"tuple", starlark.Tuple{starlark.String("a"), starlark.MakeInt(1)}, tmpl.ListValue{tmpl.StringValue("a"), tmpl.IntValue(1)}},
		{"dict", dict, tmpl.DictValue{"k": tmpl.IntValue(7)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvertFromStarlark(tt.in)
			if got.String() != tt.want.String() || got.Truth() != tt.want.Truth() {
				t.Fatalf("ConvertFromStarlark(%s) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestConvertFromStarlarkKeepsFunctions(t *testing.T) {
	fn := starlark.NewBuiltin("f", func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error) {
		return starlark.None, nil
	})
	v, ok := ConvertFromStarlark(fn).(StarlarkValue)
	if !ok || v.Value != fn {
		t.Fatalf("function not wrapped: %#v", v)
	}
	if ConvertToStarlark(v) != fn {
		t.Fatal("wrapped function not unwrapped")
	}
}

func TestExecFileSeesGlobals(t *testing.T) {
	e := NewEvaluator()
	e.SetGlobals(map[string]any{
		"user":   map[string]any{"name": "ann"},
		"tags":   []string{"if", "with"},
		"formal": true,
	})

	script := `
def greeting():
    if formal:
        return "Dear " + user["name"] + " (" + ", ".join(tags) + ")"
    return "hi " + user["name"]

message = greeting()
`
	globals, err := e.ExecFile("greeting.star", script)
	if err != nil {
		t.Fatalf("ExecFile error: %v", err)
	}
	if got := ConvertFromStarlark(globals["message"]).String(); got != "Dear ann (if, with)" {
		t.Fatalf("message = %q", got)
	}
	if _, ok := globals["user"]; ok {
		t.Fatal("predeclared globals must not be returned as script globals")
	}
}
