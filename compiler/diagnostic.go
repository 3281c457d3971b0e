package compiler

import (
	"errors"
	"fmt"
)

// Severity classifies a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "Error"
	case SeverityWarning:
		return "Warning"
	case SeverityInfo:
		return "Info"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// Diagnostic is a located message produced by any pipeline stage.
// A zero Pos means the message has no specific location.
type Diagnostic struct {
	Severity Severity
	Message  string
	Pos      Position
}

func (d Diagnostic) String() string {
	if d.Severity == SeverityError {
		if !d.Pos.IsValid() {
			return "Error: " + d.Message
		}
		return fmt.Sprintf("Error at line %d, column %d: %s", d.Pos.Line, d.Pos.Column, d.Message)
	}
	if !d.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: at line %d, column %d: %s", d.Severity, d.Pos.Line, d.Pos.Column, d.Message)
}

// IsError reports whether the diagnostic blocks the pipeline.
func (d Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.IsError() {
			return true
		}
	}
	return false
}

// Errorf builds an error-severity diagnostic.
func Errorf(pos Position, format string, args ...interface{}) Diagnostic {
	return Diagnostic{Severity: SeverityError, Message: fmt.Sprintf(format, args...), Pos: pos}
}

// Infof builds an info-severity diagnostic.
func Infof(pos Position, format string, args ...interface{}) Diagnostic {
	return Diagnostic{Severity: SeverityInfo, Message: fmt.Sprintf(format, args...), Pos: pos}
}

// ---------------------------------------------------------------------------
// Front-end errors
// ---------------------------------------------------------------------------

// LexError reports malformed source text.
type LexError struct {
	Msg        string
	Pos        Position
	Incomplete bool // input ended inside a string or comment
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lexical error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// Position returns where the error occurred.
func (e *LexError) Position() Position { return e.Pos }

// Diagnostic converts the error for uniform reporting.
func (e *LexError) Diagnostic() Diagnostic {
	return Diagnostic{Severity: SeverityError, Message: e.Msg, Pos: e.Pos}
}

// ParseError reports a syntax error. Parsing stops at the first one.
type ParseError struct {
	Msg        string
	Pos        Position
	Incomplete bool // input ended before the construct was closed
}

func (e *ParseError) Error() string {
	if !e.Pos.IsValid() {
		return "syntax error: " + e.Msg
	}
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// Position returns where the error occurred.
func (e *ParseError) Position() Position { return e.Pos }

// Diagnostic converts the error for uniform reporting.
func (e *ParseError) Diagnostic() Diagnostic {
	return Diagnostic{Severity: SeverityError, Message: e.Msg, Pos: e.Pos}
}

// IsIncomplete reports whether err means the source ended early, so more
// input could still make it valid.
func IsIncomplete(err error) bool {
	var lexErr *LexError
	if errors.As(err, &lexErr) {
		return lexErr.Incomplete
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Incomplete
	}
	return false
}

// ErrorDiagnostic converts a front-end error into a diagnostic. Errors of
// other types are reported without a location.
func ErrorDiagnostic(err error) Diagnostic {
	var lexErr *LexError
	if errors.As(err, &lexErr) {
		return lexErr.Diagnostic()
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Diagnostic()
	}
	return Diagnostic{Severity: SeverityError, Message: err.Error()}
}
