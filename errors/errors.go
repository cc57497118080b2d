package errors

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseConfig    Phase = "config"    // global config loading
	PhaseRules     Phase = "rules"     // rule file loading
	PhaseParse     Phase = "parse"     // IR text parsing
	PhaseVerify    Phase = "verify"    // IR verification
	PhaseTransform Phase = "transform" // transform execution
	PhasePipeline  Phase = "pipeline"  // pipeline orchestration
	PhaseInterp    Phase = "interp"    // IR interpretation
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidData  Kind = "invalid_data"
	KindUnknownKey   Kind = "unknown_key"
	KindNotFound     Kind = "not_found"
	KindIO           Kind = "io"
	KindSyntax       Kind = "syntax"
	KindBadPattern   Kind = "bad_pattern"
	KindTypeMismatch Kind = "type_mismatch"
	KindMalformed    Kind = "malformed"
	KindDominance    Kind = "dominance"
	KindTrap         Kind = "trap"
	KindStepLimit    Kind = "step_limit"
	KindUnwind       Kind = "unwind"
	KindPanic        Kind = "panic"
	KindUnsupported  Kind = "unsupported"
)

// Error is the structured error type used throughout irobf
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
	Line   int
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "/"))
	}

	if e.Line > 0 {
		b.WriteString(" line ")
		b.WriteString(strconv.Itoa(e.Line))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the location path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Line sets the source line
func (b *Builder) Line(line int) *Builder {
	b.err.Line = line
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// UnknownKey creates an unknown configuration key error
func UnknownKey(phase Phase, key string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnknownKey,
		Detail: fmt.Sprintf("unknown config node %q", key),
		Value:  key,
	}
}

// IO creates a file access error
func IO(phase Phase, path string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindIO,
		Detail: fmt.Sprintf("cannot read %q", path),
		Cause:  cause,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// BadPattern creates an invalid match pattern error
func BadPattern(line int, pattern string, cause error) *Error {
	return &Error{
		Phase:  PhaseRules,
		Kind:   KindBadPattern,
		Line:   line,
		Detail: fmt.Sprintf("pattern %q never matches", pattern),
		Value:  pattern,
		Cause:  cause,
	}
}

// Syntax creates a text-format syntax error
func Syntax(line int, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindSyntax,
		Line:   line,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
		Value:  name,
	}
}

// Malformed creates a structural IR error
func Malformed(path []string, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Phase:  PhaseVerify,
		Kind:   KindMalformed,
		Path:   path,
		Detail: detail,
	}
}

// Trap creates an interpreter trap error
func Trap(path []string, detail string) *Error {
	return &Error{
		Phase:  PhaseInterp,
		Kind:   KindTrap,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
