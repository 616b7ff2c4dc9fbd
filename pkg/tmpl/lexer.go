package tmpl

import (
	"fmt"
	"regexp"
	"strings"
)

// The lexer scans template source and yields tokens for literal text and the
// three delimiter forms: variables {{ }}, tags {% %}, and comments {# #}.

// TokenKind identifies the kind of a Token.
type TokenKind int

const (
	TokenText TokenKind = iota
	TokenVariable
	TokenBlock
	TokenComment
)

func (k TokenKind) String() string {
	switch k {
	case TokenText:
		return "text"
	case TokenVariable:
		return "variable"
	case TokenBlock:
		return "block"
	case TokenComment:
		return "comment"
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is one lexical unit of a template. For variable, block and comment
// tokens Content holds the trimmed text between the delimiters.
type Token struct {
	Kind    TokenKind
	Content string
	Line    int
}

// TagName returns the first word of a block token, or "" for other kinds.
func (t Token) TagName() string {
	if t.Kind != TokenBlock {
		return ""
	}
	name, _ := splitNameArgs(t.Content)
	return name
}

type lexer struct {
	src  string
	i    int
	line int
}

func tokenize(src string) ([]Token, error) {
	l := &lexer{src: src, line: 1}
	var toks []Token
	for {
		tok, ok, err := l.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return toks, nil
		}
		toks = append(toks, tok)
	}
}

func (l *lexer) advance(n int) {
	l.line += strings.Count(l.src[l.i:l.i+n], "\n")
	l.i += n
}

func openDelim(s string) (TokenKind, string, bool) {
	switch s {
	case "{{":
		return TokenVariable, "}}", true
	case "{%":
		return TokenBlock, "%}", true
	case "{#":
		return TokenComment, "#}", true
	}
	return TokenText, "", false
}

// next returns the next token: either text up to the next opening delimiter,
// or a complete delimited token.
func (l *lexer) next() (Token, bool, error) {
	if l.i >= len(l.src) {
		return Token{}, false, nil
	}
	start, line := l.i, l.line
	for l.i+1 < len(l.src) {
		kind, closer, ok := openDelim(l.src[l.i : l.i+2])
		if !ok {
			l.advance(1)
			continue
		}
		if l.i > start {
			return Token{Kind: TokenText, Content: l.src[start:l.i], Line: line}, true, nil
		}
		l.advance(2)
		end := strings.Index(l.src[l.i:], closer)
		if end < 0 {
			return Token{}, false, &SyntaxError{Line: line, Msg: fmt.Sprintf("unterminated %s tag, expected %q", kind, closer)}
		}
		content := l.src[l.i : l.i+end]
		l.advance(end + len(closer))
		return Token{Kind: kind, Content: strings.TrimSpace(content), Line: line}, true, nil
	}
	l.advance(len(l.src) - l.i)
	return Token{Kind: TokenText, Content: l.src[start:], Line: line}, true, nil
}

func splitNameArgs(stmt string) (name, args string) {
	s := strings.TrimSpace(stmt)
	i := strings.IndexFunc(s, isSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

var smartSplitRe = regexp.MustCompile(`(?:[^\s'"]*(?:"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*')[^\s'"]*)+|\S+`)

// SmartSplit splits s on whitespace, keeping quoted substrings (and the
// text glued to them) together:
//
//	SmartSplit(`a "b c"|upper d`) == []string{"a", `"b c"|upper`, "d"}
func SmartSplit(s string) []string {
	return smartSplitRe.FindAllString(s, -1)
}
