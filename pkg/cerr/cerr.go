// Package cerr defines the five Umber error kinds shared by every
// pipeline stage. Kept as its own leaf package (rather than living in
// pkg/compiler) so lexer/parser/validator/codegen can all produce and
// wrap these without an import cycle back through the top-level driver.
package cerr

import (
	"fmt"
	"strings"

	"umberlang.dev/umberc/pkg/position"
)

// Kind names one of the five error categories every pipeline stage can
// produce.
type Kind string

const (
	IllegalCharacterError  Kind = "IllegalCharacterError"
	ExpectedCharacterError Kind = "ExpectedCharacterError"
	InvalidSyntaxError     Kind = "InvalidSyntaxError"
	SemanticError          Kind = "SemanticError"
	IOError                Kind = "IOError"
)

// Error is the single error type every stage returns. InvalidSyntaxError
// and SemanticError may additionally carry a chained Cause (import
// resolution, nested argument parsing).
type Error struct {
	Kind    Kind
	Start   position.Position
	End     position.Position
	Message string
	Cause   error
}

func New(kind Kind, start, end position.Position, message string) *Error {
	return &Error{Kind: kind, Start: start, End: end, Message: message}
}

func Wrap(kind Kind, start, end position.Position, message string, cause error) *Error {
	return &Error{Kind: kind, Start: start, End: end, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Cause.Error())
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Format renders e as:
//
//	"<ErrorKind>: <details>\n  File '<path>', line <n>\n\n<source-with-arrow-highlight>\n"
//
// source is the full originating file content, used to recover the
// offending line and draw the `^` marker under e.Start.Column. Formatting
// itself belongs to the CLI/presentation layer; this helper exists so
// that boundary's implementation is trivial and consistent for every
// caller.
func (e *Error) Format(source string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", e.Kind, e.Message)
	fmt.Fprintf(&b, "  File '%s', line %d\n\n", e.Start.File, e.Start.Line)

	lines := strings.Split(source, "\n")
	if e.Start.Line >= 1 && e.Start.Line <= len(lines) {
		line := lines[e.Start.Line-1]
		b.WriteString(line)
		b.WriteString("\n")
		col := e.Start.Column
		if col < 0 {
			col = 0
		}
		b.WriteString(strings.Repeat(" ", col))
		b.WriteString("^\n")
	}

	if e.Cause != nil {
		if ce, ok := e.Cause.(*Error); ok {
			b.WriteString(ce.Format(source))
		} else {
			b.WriteString(e.Cause.Error())
			b.WriteString("\n")
		}
	}
	return b.String()
}
