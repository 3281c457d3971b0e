package vm

import (
	"errors"
	"fmt"

	"github.com/chazu/javdin/compiler"
)

// ErrStackOverflow is wrapped by the runtime error raised when the call
// depth limit is exceeded.
var ErrStackOverflow = errors.New("stack overflow")

// RuntimeError is a located failure raised while evaluating a program.
type RuntimeError struct {
	Msg string
	Pos compiler.Position
	Err error // underlying cause, if any
}

func (e *RuntimeError) Error() string {
	if !e.Pos.IsValid() {
		return "runtime error: " + e.Msg
	}
	return fmt.Sprintf("runtime error at line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// Diagnostic converts the error for uniform reporting.
func (e *RuntimeError) Diagnostic() compiler.Diagnostic {
	return compiler.Diagnostic{Severity: compiler.SeverityError, Message: e.Msg, Pos: e.Pos}
}

// runtimeErrorf creates a runtime error located at node.
func runtimeErrorf(node compiler.Node, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Msg: fmt.Sprintf(format, args...), Pos: compiler.Pos(node)}
}

// locate attaches node's position to an operator error. Errors that
// already carry a position keep it.
func locate(node compiler.Node, err error) error {
	var rt *RuntimeError
	if errors.As(err, &rt) {
		return err
	}
	return &RuntimeError{Msg: err.Error(), Pos: compiler.Pos(node), Err: err}
}
