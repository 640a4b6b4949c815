package compiler

import (
	"fmt"

	"go.uber.org/multierr"
)

// DiagnosticKind partitions diagnostics the way the passes in this package produce them.
// It is never surfaced to users directly; Message already carries a human description.
type DiagnosticKind int

const (
	LexicalError DiagnosticKind = iota
	SyntaxError
	ResolutionError
	TypeError
	Warning
)

func (k DiagnosticKind) String() string {
	switch k {
	case LexicalError:
		return "lexical error"
	case SyntaxError:
		return "syntax error"
	case ResolutionError:
		return "resolution error"
	case TypeError:
		return "type error"
	case Warning:
		return "warning"
	default:
		return "error"
	}
}

// Diagnostic is a span-tagged error or warning produced by any pass. It implements error so
// a single diagnostic flows through ordinary Go error handling, and a pass's full diagnostic
// list is folded into one error via multierr at the pass boundary (see Compile).
type Diagnostic struct {
	Kind    DiagnosticKind
	Span    Span
	Message string
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s: %s", d.Span, d.Kind, d.Message)
}

func (d Diagnostic) IsWarning() bool {
	return d.Kind == Warning
}

func newDiagnostic(kind DiagnosticKind, span Span, format string, args ...interface{}) Diagnostic {
	return Diagnostic{Kind: kind, Span: span, Message: fmt.Sprintf(format, args...)}
}

// InternalError marks a fatal invariant violation raised by the emitter (unresolved semantic
// slot, stack-depth underflow). Per the error design, these never accumulate alongside
// ordinary diagnostics: the emitter panics with one and Compile recovers it at the top level.
type InternalError struct {
	Message string
}

func (e InternalError) Error() string {
	return "internal compiler error: " + e.Message
}

func internalErrorf(format string, args ...interface{}) InternalError {
	return InternalError{Message: fmt.Sprintf(format, args...)}
}

// diagnosticsOf filters a mixed error (possibly a multierr aggregate) back down to the
// Diagnostic values it was built from, for callers that want structured access rather than
// a formatted string.
func diagnosticsOf(err error) []Diagnostic {
	if err == nil {
		return nil
	}
	var out []Diagnostic
	for _, sub := range multierr.Errors(err) {
		if d, ok := sub.(Diagnostic); ok {
			out = append(out, d)
			continue
		}
		out = append(out, diagnosticsOf(sub)...)
	}
	return out
}

// combineDiagnostics folds a pass's diagnostic list into one error via multierr, preserving
// each Diagnostic so diagnosticsOf can recover them later.
func combineDiagnostics(diags []Diagnostic) error {
	errs := make([]error, len(diags))
	for i, d := range diags {
		errs[i] = d
	}
	return multierr.Combine(errs...)
}
