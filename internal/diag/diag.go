// Package diag defines the structured diagnostics reported by the model engine.
// Every diagnostic carries a kind tag, an optional source location, a message
// and zero or more causal notes. Rendering is left to the caller.
package diag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/careweather/oneil/pkg/token"
)

// =============================================================================
// Kind
// =============================================================================

// Kind classifies a diagnostic.
type Kind int

// Diagnostic kinds.
const (
	KindSyntax Kind = iota
	KindModelLoading
	KindUnitParse
	KindUnitEvaluation
	KindParameter
	KindIdentifier
	KindDivideByZero
	KindImportedFunction
)

// String returns the kind tag shown to users.
func (k Kind) String() string {
	switch k {
	case KindSyntax:
		return "SyntaxError"
	case KindModelLoading:
		return "ModelLoadingError"
	case KindUnitParse:
		return "UnitParseError"
	case KindUnitEvaluation:
		return "UnitEvaluationError"
	case KindParameter:
		return "ParameterError"
	case KindIdentifier:
		return "IdentifierError"
	case KindDivideByZero:
		return "DivideByZeroError"
	case KindImportedFunction:
		return "ImportedFunctionError"
	default:
		return "Error"
	}
}

// =============================================================================
// Error
// =============================================================================

// Error is a single diagnostic.
type Error struct {
	Kind Kind
	// Pos locates the offending line. Zero when the location is unknown.
	Pos token.Position
	// Source is the text of the offending line, if known.
	Source string
	// Param is the qualified id of the parameter being evaluated, if any.
	Param   string
	Message string
	// Notes are causal notes, innermost first.
	Notes []string
	Cause error
}

// New creates a diagnostic of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf creates a diagnostic with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a diagnostic caused by an underlying error.
func Wrap(kind Kind, cause error, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// Clone returns a copy whose notes can be extended without touching e.
func (e *Error) Clone() *Error {
	c := *e
	c.Notes = append([]string(nil), e.Notes...)
	return &c
}

// At sets the location unless one is already recorded.
func (e *Error) At(pos token.Position, source string) *Error {
	if !e.Pos.IsValid() {
		e.Pos = pos
		e.Source = strings.TrimRight(source, "\r\n")
	}
	return e
}

// For records the originating parameter unless one is already recorded.
func (e *Error) For(param string) *Error {
	if e.Param == "" {
		e.Param = param
	}
	return e
}

// WithNote appends a causal note.
func (e *Error) WithNote(note string) *Error {
	e.Notes = append(e.Notes, note)
	return e
}

// Context renders the location part of the message, or "" when unknown.
func (e *Error) Context() string {
	var parts []string
	if e.Pos.IsValid() || e.Pos.File != "" {
		parts = append(parts, e.Pos.String())
	}
	if e.Param != "" {
		parts = append(parts, "("+e.Param+")")
	}
	return strings.Join(parts, " ")
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if ctx := e.Context(); ctx != "" {
		return fmt.Sprintf("%s %s: %s", e.Kind, ctx, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error of the same kind, so errors.Is(err, diag.New(k, ""))
// tests the kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// IsKind reports whether err is or wraps a diagnostic of the given kind.
func IsKind(err error, kind Kind) bool {
	var list List
	if errors.As(err, &list) {
		for _, e := range list {
			if e.Kind == kind {
				return true
			}
		}
	}
	var d *Error
	return errors.As(err, &d) && d.Kind == kind
}

// =============================================================================
// List
// =============================================================================

// List batches diagnostics found in one pass.
type List []*Error

func (l List) Error() string {
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// Unwrap exposes the batched diagnostics to errors.Is and errors.As.
func (l List) Unwrap() []error {
	out := make([]error, len(l))
	for i, e := range l {
		out[i] = e
	}
	return out
}

// Err returns nil for an empty list, the only element for a single-element
// list, and the list itself otherwise.
func (l List) Err() error {
	switch len(l) {
	case 0:
		return nil
	case 1:
		return l[0]
	default:
		return l
	}
}
