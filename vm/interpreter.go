package vm

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"

	"github.com/chazu/javdin/compiler"
)

// DefaultMaxDepth is the default limit on nested function calls.
const DefaultMaxDepth = 10000

// ---------------------------------------------------------------------------
// Interpreter: tree-walking evaluator
// ---------------------------------------------------------------------------

// Interpreter executes programs against a persistent global frame. It is
// not safe for concurrent use.
type Interpreter struct {
	out      io.Writer
	globals  *Environment
	depth    int
	maxDepth int
	echo     func(Value)
	log      commonlog.Logger
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithOutput directs print output to w. The default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(in *Interpreter) {
		in.out = w
	}
}

// WithMaxDepth sets the call depth at which a stack overflow is raised.
// Values below 1 keep the default.
func WithMaxDepth(n int) Option {
	return func(in *Interpreter) {
		if n > 0 {
			in.maxDepth = n
		}
	}
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(log commonlog.Logger) Option {
	return func(in *Interpreter) {
		in.log = log
	}
}

// WithEcho registers a callback that receives the value of every top-level
// expression statement. Interactive sessions use it to show results.
func WithEcho(fn func(Value)) Option {
	return func(in *Interpreter) {
		in.echo = fn
	}
}

// New creates an interpreter with an empty global frame.
func New(opts ...Option) *Interpreter {
	in := &Interpreter{
		out:      os.Stdout,
		globals:  NewEnvironment(nil),
		maxDepth: DefaultMaxDepth,
		log:      commonlog.GetLogger("javdin.vm"),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Globals returns the program frame. It persists across Interpret calls.
func (in *Interpreter) Globals() *Environment {
	return in.globals
}

// MaxDepth returns the configured call depth limit.
func (in *Interpreter) MaxDepth() int {
	return in.maxDepth
}

// Interpret runs prog's statements in order. A runtime error abandons the
// statement it occurred in and is reported; execution continues with the
// next top-level statement.
func (in *Interpreter) Interpret(prog *compiler.Program) []compiler.Diagnostic {
	var diags []compiler.Diagnostic
	for _, stmt := range prog.Statements {
		if err := in.runTopLevel(stmt); err != nil {
			in.log.Debugf("runtime error: %v", err)
			diags = append(diags, errorDiagnostic(err))
		}
	}
	return diags
}

func (in *Interpreter) runTopLevel(stmt compiler.Stmt) error {
	in.depth = 0

	if es, ok := stmt.(*compiler.ExprStmt); ok && in.echo != nil {
		v, err := in.eval(es.Expr, in.globals)
		if err != nil {
			return err
		}
		in.echo(v)
		return nil
	}

	ctl, err := in.exec(stmt, in.globals)
	if err != nil {
		return err
	}
	if !ctl.isNormal() {
		return runtimeErrorf(stmt, "%s statement outside %s", ctl.kind, ctl.target())
	}
	return nil
}

func (c control) target() string {
	if c.kind == ctrlReturn {
		return "function"
	}
	return "loop"
}

func errorDiagnostic(err error) compiler.Diagnostic {
	var rt *RuntimeError
	if errors.As(err, &rt) {
		return rt.Diagnostic()
	}
	return compiler.Diagnostic{Severity: compiler.SeverityError, Message: err.Error()}
}

// print writes one output line.
func (in *Interpreter) print(node *compiler.Print, vals []Value) error {
	if _, err := fmt.Fprintln(in.out, FormatValues(vals)); err != nil {
		return &RuntimeError{Msg: fmt.Sprintf("print failed: %v", err), Pos: compiler.Pos(node), Err: err}
	}
	return nil
}
