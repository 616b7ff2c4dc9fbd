package tmpl

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTokenize(t *testing.T) {
	toks, err := tokenize("a{{ b }}c{% d  e %}{# f #}\ng{% h %}")
	if err != nil {
		t.Fatalf("tokenize error: %v", err)
	}
	want := []Token{
		{Kind: TokenText, Content: "a", Line: 1},
		{Kind: TokenVariable, Content: "b", Line: 1},
		{Kind: TokenText, Content: "c", Line: 1},
		{Kind: TokenBlock, Content: "d  e", Line: 1},
		{Kind: TokenComment, Content: "f", Line: 1},
		{Kind: TokenText, Content: "\ng", Line: 1},
		{Kind: TokenBlock, Content: "h", Line: 2},
	}
	if diff := cmp.Diff(want, toks); diff != "" {
		t.Fatalf("tokens mismatch (-want +got):\n%s", diff)
	}
	if got := toks[3].TagName(); got != "d" {
		t.Fatalf("TagName = %q", got)
	}
	if got := toks[1].TagName(); got != "" {
		t.Fatalf("TagName of variable token = %q", got)
	}
}

func TestTokenizeUnterminated(t *testing.T) {
	_, err := tokenize("line one\n{% if x")
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("want SyntaxError, got %v", err)
	}
	if se.Line != 2 {
		t.Fatalf("line = %d, want 2", se.Line)
	}
}

func TestTokenizeLoneBrace(t *testing.T) {
	toks, err := tokenize("a { b }")
	if err != nil {
		t.Fatalf("tokenize error: %v", err)
	}
	if len(toks) != 1 || toks[0].Content != "a { b }" {
		t.Fatalf("got %#v", toks)
	}
}

func TestSmartSplit(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{`a b`, []string{"a", "b"}},
		{`  not   x  `, []string{"not", "x"}},
		{`a "b c"|upper d`, []string{"a", `"b c"|upper`, "d"}},
		{`x|default('y z')`, []string{`x|default('y z')`}},
		{`"salt and pepper"`, []string{`"salt and pepper"`}},
		{`"open`, []string{`"open`}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, SmartSplit(tt.in)); diff != "" {
			t.Errorf("SmartSplit(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
	if got := SmartSplit("   "); len(got) != 0 {
		t.Fatalf("SmartSplit of blanks = %q", got)
	}
}
