// Package optimize rewrites a checked program into an equivalent, smaller
// one. The rewrite never mutates its input: every statement and expression
// is rebuilt, including those no rule touched.
package optimize

import (
	"strings"

	"github.com/chazu/javdin/compiler"
)

const (
	msgUnreachable = "Unreachable code detected after return"
	msgUnused      = "Unused variable removal: '%s'"
	msgAlwaysTrue  = "Dead branch elimination: if condition is always true, removing else branch"
	msgElseOnly    = "Dead branch elimination: if condition is always false, removing then branch"
	msgAlwaysFalse = "Dead branch elimination: if condition is always false, removing entire if statement"
)

// Optimizer holds the state of one rewrite.
type Optimizer struct {
	keepUnused bool
	used       map[string]bool
	diags      []compiler.Diagnostic
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// KeepUnused disables unused-variable removal. Interactive sessions use it
// because later input may refer to names the current input does not.
func KeepUnused() Option {
	return func(o *Optimizer) {
		o.keepUnused = true
	}
}

// New creates an optimizer.
func New(opts ...Option) *Optimizer {
	o := &Optimizer{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Optimize rewrites prog with the default passes.
func Optimize(prog *compiler.Program) (*compiler.Program, []compiler.Diagnostic) {
	return New().Optimize(prog)
}

// Optimize returns the rewritten program and one Info diagnostic per
// applied rewrite.
//
// Removing an unused variable also discards its initializer, side effects
// included.
func (o *Optimizer) Optimize(prog *compiler.Program) (*compiler.Program, []compiler.Diagnostic) {
	o.diags = nil
	o.used = usedNames(prog)
	out := &compiler.Program{SpanVal: prog.SpanVal, Statements: o.stmts(prog.Statements)}
	return out, o.diags
}

func (o *Optimizer) infof(node compiler.Node, format string, args ...interface{}) {
	o.diags = append(o.diags, compiler.Infof(compiler.Pos(node), format, args...))
}

// stmts rewrites a statement list, dropping everything after the first
// return.
func (o *Optimizer) stmts(list []compiler.Stmt) []compiler.Stmt {
	out := make([]compiler.Stmt, 0, len(list))
	for i, s := range list {
		rewritten := o.stmt(s)
		if rewritten == nil {
			continue
		}
		out = append(out, rewritten)
		if _, ok := rewritten.(*compiler.Return); ok {
			for _, dead := range list[i+1:] {
				o.infof(dead, msgUnreachable)
			}
			break
		}
	}
	return out
}

func (o *Optimizer) block(b *compiler.Block) *compiler.Block {
	if b == nil {
		return nil
	}
	return &compiler.Block{SpanVal: b.SpanVal, Statements: o.stmts(b.Statements)}
}

// stmt rewrites one statement. It returns nil when the statement vanishes.
func (o *Optimizer) stmt(s compiler.Stmt) compiler.Stmt {
	switch n := s.(type) {
	case *compiler.Declaration:
		return o.declaration(n)

	case *compiler.Assignment:
		return &compiler.Assignment{SpanVal: n.SpanVal, Target: o.expr(n.Target), Value: o.expr(n.Value)}

	case *compiler.If:
		return o.ifStmt(n)

	case *compiler.While:
		return &compiler.While{SpanVal: n.SpanVal, Cond: o.expr(n.Cond), Body: o.block(n.Body)}

	case *compiler.For:
		return &compiler.For{
			SpanVal: n.SpanVal,
			Kind:    n.Kind,
			Var:     n.Var,
			Start:   o.expr(n.Start),
			End:     o.expr(n.End),
			Body:    o.block(n.Body),
		}

	case *compiler.Return:
		return &compiler.Return{SpanVal: n.SpanVal, Value: o.expr(n.Value)}

	case *compiler.Break:
		return &compiler.Break{SpanVal: n.SpanVal}

	case *compiler.Continue:
		return &compiler.Continue{SpanVal: n.SpanVal}

	case *compiler.Print:
		return &compiler.Print{SpanVal: n.SpanVal, Exprs: o.exprs(n.Exprs)}

	case *compiler.Block:
		return o.block(n)

	case *compiler.ExprStmt:
		return &compiler.ExprStmt{SpanVal: n.SpanVal, Expr: o.expr(n.Expr)}
	}
	return s
}

func (o *Optimizer) declaration(d *compiler.Declaration) compiler.Stmt {
	vars := make([]compiler.VarDef, 0, len(d.Vars))
	for _, v := range d.Vars {
		if !o.keepUnused && !o.used[v.Name] && !strings.HasPrefix(v.Name, "_") {
			o.infof(d, msgUnused, v.Name)
			continue
		}
		vars = append(vars, compiler.VarDef{SpanVal: v.SpanVal, Name: v.Name, Init: o.expr(v.Init)})
	}
	if len(vars) == 0 {
		return nil
	}
	return &compiler.Declaration{SpanVal: d.SpanVal, Vars: vars}
}

// ifStmt replaces an if whose condition is a boolean constant by the branch
// that always runs. The branch stays a Block so it keeps its own scope.
func (o *Optimizer) ifStmt(n *compiler.If) compiler.Stmt {
	cond := o.expr(n.Cond)
	if lit, ok := cond.(*compiler.Literal); ok && lit.Kind == compiler.LitBoolean {
		switch {
		case lit.Bool:
			o.infof(n, msgAlwaysTrue)
			return o.block(n.Then)
		case n.Else != nil:
			o.infof(n, msgElseOnly)
			return o.block(n.Else)
		default:
			o.infof(n, msgAlwaysFalse)
			return &compiler.Block{SpanVal: n.SpanVal}
		}
	}
	return &compiler.If{SpanVal: n.SpanVal, Cond: cond, Then: o.block(n.Then), Else: o.block(n.Else)}
}

func (o *Optimizer) exprs(list []compiler.Expr) []compiler.Expr {
	out := make([]compiler.Expr, len(list))
	for i, e := range list {
		out[i] = o.expr(e)
	}
	return out
}

// expr rewrites an expression bottom-up. A nil expression stays nil.
func (o *Optimizer) expr(e compiler.Expr) compiler.Expr {
	switch n := e.(type) {
	case nil:
		return nil

	case *compiler.Literal:
		lit := *n
		return &lit

	case *compiler.Reference:
		return &compiler.Reference{SpanVal: n.SpanVal, Name: n.Name}

	case *compiler.BinaryOp:
		return o.foldBinary(n, o.expr(n.Left), o.expr(n.Right))

	case *compiler.UnaryOp:
		return o.foldUnary(n, o.expr(n.Operand))

	case *compiler.Call:
		return &compiler.Call{SpanVal: n.SpanVal, Callee: o.expr(n.Callee), Args: o.exprs(n.Args)}

	case *compiler.Index:
		return &compiler.Index{SpanVal: n.SpanVal, Array: o.expr(n.Array), Index: o.expr(n.Index)}

	case *compiler.ArrayLiteral:
		return &compiler.ArrayLiteral{SpanVal: n.SpanVal, Elements: o.exprs(n.Elements)}

	case *compiler.TupleLiteral:
		elems := make([]compiler.TupleElement, len(n.Elements))
		for i, el := range n.Elements {
			elems[i] = compiler.TupleElement{Name: el.Name, Value: o.expr(el.Value)}
		}
		return &compiler.TupleLiteral{SpanVal: n.SpanVal, Elements: elems}

	case *compiler.FuncLiteral:
		fn := &compiler.FuncLiteral{
			SpanVal:    n.SpanVal,
			Params:     append([]string(nil), n.Params...),
			IsExprBody: n.IsExprBody,
		}
		if n.IsExprBody {
			fn.ExprBody = o.expr(n.ExprBody)
		} else {
			fn.Body = o.stmts(n.Body)
		}
		return fn

	case *compiler.TypeCheck:
		return &compiler.TypeCheck{SpanVal: n.SpanVal, Expr: o.expr(n.Expr), Type: n.Type}

	case *compiler.MemberAccess:
		return &compiler.MemberAccess{
			SpanVal: n.SpanVal,
			Tuple:   o.expr(n.Tuple),
			Name:    n.Name,
			Index:   n.Index,
			Numeric: n.Numeric,
		}
	}
	return e
}
