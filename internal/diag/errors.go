package diag

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Stage identifies which pipeline stage raised an error.
type Stage string

const (
	StagePreprocess Stage = "preprocess"
	StageLexer      Stage = "lexer"
	StageParser     Stage = "parser"
	StageAnalyzer   Stage = "analyzer"
	StageBytecode   Stage = "bytecode"
	StageVM         Stage = "vm"
)

// Kind is the specific error variant within a stage, matching the taxonomy
// in spec.md §7.
type Kind string

const (
	KindMixedIndentation       Kind = "MixedIndentation"
	KindInvalidNumber          Kind = "InvalidNumber"
	KindInvalidString          Kind = "InvalidString"
	KindInvalidCharacter       Kind = "InvalidCharacter"
	KindSyntaxError            Kind = "SyntaxError"
	KindUnexpectedEndOfInput   Kind = "UnexpectedEndOfInput"
	KindInvalidOperand         Kind = "InvalidOperand"
	KindReadUndefinedVariable  Kind = "ReadUndefinedVariable"
	KindAssignUndefinedVar     Kind = "AssignUndefinedVariable"
	KindTypeMismatch           Kind = "TypeMismatch"
	KindUntypedVariable        Kind = "UntypedVariable"
	KindInternalCompilerError  Kind = "InternalCompilerError"
)

// Error is a single recoverable diagnostic produced by a pipeline stage.
// It plays the role of sentra's SentraError, trimmed to what spec.md's
// stages need: a kind, a message, a span for rendering, and - for internal
// compiler errors only - a captured backtrace.
type Error struct {
	Stage   Stage
	Kind    Kind
	Message string
	Span    Span
	Source  string // source line, filled in by a renderer that has the text
	cause   error  // carries the pkg/errors stack for ICEs
}

func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s (%s:%d:%d)", e.Stage, e.Message, e.Kind, e.Span.Line, e.Span.Column)
	if e.Source != "" {
		fmt.Fprintf(&sb, "\n  %d | %s", e.Span.Line, e.Source)
		if e.Span.Column > 0 {
			sb.WriteString("\n  " + strings.Repeat(" ", len(fmt.Sprintf("%d | ", e.Span.Line))+e.Span.Column-1) + "^")
		}
	}
	return sb.String()
}

// Unwrap exposes the pkg/errors-captured stack trace for internal compiler
// errors, so callers that want it (a crash reporter) can retrieve it via
// errors.As/errors.Unwrap.
func (e *Error) Unwrap() error { return e.cause }

// WithSource attaches the literal source line for rendering.
func (e *Error) WithSource(line string) *Error {
	e.Source = line
	return e
}

func newError(stage Stage, kind Kind, span Span, format string, args ...interface{}) *Error {
	return &Error{Stage: stage, Kind: kind, Message: fmt.Sprintf(format, args...), Span: span}
}

// MixedIndentation is raised by the preprocessor (§4.A).
func MixedIndentation(line int) *Error {
	return newError(StagePreprocess, KindMixedIndentation, Span{Line: line}, "line mixes tabs and spaces for indentation")
}

// InvalidNumber is raised by the lexer for a malformed numeric literal.
func InvalidNumber(span Span, text string) *Error {
	return newError(StageLexer, KindInvalidNumber, span, "invalid number literal %q", text)
}

// InvalidString is raised for an unterminated string literal.
func InvalidString(span Span) *Error {
	return newError(StageLexer, KindInvalidString, span, "unterminated string literal")
}

// InvalidCharacter is raised for an unrecognized input byte.
func InvalidCharacter(span Span, ch byte) *Error {
	return newError(StageLexer, KindInvalidCharacter, span, "invalid character %q", ch)
}

// SyntaxError is a generic recoverable parse error.
func SyntaxError(span Span, format string, args ...interface{}) *Error {
	return newError(StageParser, KindSyntaxError, span, format, args...)
}

// UnexpectedEndOfInput is raised when the parser runs out of tokens mid-construct.
func UnexpectedEndOfInput(span Span) *Error {
	return newError(StageParser, KindUnexpectedEndOfInput, span, "unexpected end of input")
}

// InvalidOperand marks a malformed sub-expression that was replaced by a
// placeholder so parsing can continue.
func InvalidOperand(span Span, text string) *Error {
	return newError(StageParser, KindInvalidOperand, span, "invalid operand %q", text)
}

// ReadUndefinedVariable is raised when a read references an unknown name.
func ReadUndefinedVariable(span Span, name string) *Error {
	return newError(StageAnalyzer, KindReadUndefinedVariable, span, "read of undefined variable %q", name)
}

// AssignUndefinedVariable is raised when an assignment targets an unknown name.
func AssignUndefinedVariable(span Span, name string) *Error {
	return newError(StageAnalyzer, KindAssignUndefinedVar, span, "assignment to undefined variable %q", name)
}

// TypeMismatch is raised when two types fail to unify.
func TypeMismatch(span Span, expected, actual string) *Error {
	return newError(StageAnalyzer, KindTypeMismatch, span, "type mismatch: expected %s, found %s", expected, actual)
}

// UntypedVariable is raised when a variable's type remains Indeterminate
// after the resolving post-pass.
func UntypedVariable(span Span, name string) *Error {
	return newError(StageAnalyzer, KindUntypedVariable, span, "variable %q never resolves to a concrete type", name)
}

// InternalCompilerError marks a mis-compilation. It captures a backtrace via
// github.com/pkg/errors at the point of construction, since these are meant
// to be reported with actionable context rather than silently recovered
// from (spec.md §7).
func InternalCompilerError(stage Stage, span Span, format string, args ...interface{}) *Error {
	e := newError(stage, KindInternalCompilerError, span, format, args...)
	e.cause = errors.Errorf("%s", e.Message)
	return e
}

// Backtrace renders the captured stack trace of an internal compiler error,
// or the empty string if this error does not carry one.
func (e *Error) Backtrace() string {
	if e.cause == nil {
		return ""
	}
	type stackTracer interface{ StackTrace() errors.StackTrace }
	if st, ok := e.cause.(stackTracer); ok {
		return fmt.Sprintf("%+v", st.StackTrace())
	}
	return ""
}

// List is an accumulating, append-friendly error list shared by every
// recoverable-error stage (preprocessor, lexer, parser, analyzer).
type List []*Error

func (l *List) Add(e *Error) { *l = append(*l, e) }

func (l List) Error() string {
	parts := make([]string, len(l))
	for i, e := range l {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "\n")
}
