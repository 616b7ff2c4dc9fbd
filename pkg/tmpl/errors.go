package tmpl

import (
	"fmt"
	"strings"
)

// TagSyntaxError reports malformed tag arguments. Factories usually fill in
// only Msg; the parser adds the tag name and line before returning it.
type TagSyntaxError struct {
	Tag  string
	Line int
	Msg  string
	Err  error
}

// NewTagSyntaxError returns a TagSyntaxError carrying msg.
func NewTagSyntaxError(msg string) *TagSyntaxError {
	return &TagSyntaxError{Msg: msg}
}

func (e *TagSyntaxError) Error() string {
	var b strings.Builder
	b.WriteString("tag syntax error")
	if e.Tag != "" {
		fmt.Fprintf(&b, " in '%s'", e.Tag)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	}
	b.WriteString(": ")
	b.WriteString(e.Msg)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *TagSyntaxError) Unwrap() error { return e.Err }

// UnclosedTagError is returned when the input ends before the terminator of
// an open tag was found.
type UnclosedTagError struct {
	Tag      string
	Expected []string
	Line     int
}

func (e *UnclosedTagError) Error() string {
	return fmt.Sprintf("unclosed tag '%s' opened at line %d: expected one of %s",
		e.Tag, e.Line, strings.Join(e.Expected, ", "))
}

// DuplicateTagError is returned when a tag name is registered twice.
type DuplicateTagError struct {
	Name string
}

func (e *DuplicateTagError) Error() string {
	return fmt.Sprintf("tag '%s' is already registered", e.Name)
}

// UnknownTagError is returned for block tags that are neither registered nor
// an expected terminator, e.g. a stray {% endif %}. Expected lists the
// terminators the innermost open tag was waiting for, if any.
type UnknownTagError struct {
	Name     string
	Line     int
	Expected []string
}

func (e *UnknownTagError) Error() string {
	msg := fmt.Sprintf("invalid block tag '%s' at line %d", e.Name, e.Line)
	switch len(e.Expected) {
	case 0:
		return msg
	case 1:
		return fmt.Sprintf("%s, expected '%s'", msg, e.Expected[0])
	}
	return fmt.Sprintf("%s, expected one of '%s'", msg, strings.Join(e.Expected, "', '"))
}

// DepthError is returned when tag nesting exceeds the parser's limit.
type DepthError struct {
	Limit int
	Line  int
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("tag nesting deeper than %d at line %d", e.Limit, e.Line)
}

// SyntaxError reports lexical problems such as an unterminated {{ or {%.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("template syntax error at line %d: %s", e.Line, e.Msg)
}

// ErrLibraryNotFound is returned by library loaders for unknown names.
type ErrLibraryNotFound struct{ Name string }

func (e ErrLibraryNotFound) Error() string { return "tag library not found: " + e.Name }

// ErrTemplateNotFound is returned by template loaders for unknown names.
type ErrTemplateNotFound struct{ Name string }

func (e ErrTemplateNotFound) Error() string { return "template not found: " + e.Name }
