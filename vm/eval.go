package vm

import (
	"fmt"

	"github.com/chazu/javdin/compiler"
)

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (in *Interpreter) exec(stmt compiler.Stmt, env *Environment) (control, error) {
	switch s := stmt.(type) {
	case *compiler.Declaration:
		return normal, in.execDeclaration(s, env)

	case *compiler.Assignment:
		return normal, in.execAssignment(s, env)

	case *compiler.Print:
		vals := make([]Value, 0, len(s.Exprs))
		for _, e := range s.Exprs {
			v, err := in.eval(e, env)
			if err != nil {
				return normal, err
			}
			vals = append(vals, v)
		}
		return normal, in.print(s, vals)

	case *compiler.ExprStmt:
		_, err := in.eval(s.Expr, env)
		return normal, err

	case *compiler.Block:
		return in.execBlock(s, NewEnvironment(env))

	case *compiler.If:
		cond, err := in.eval(s.Cond, env)
		if err != nil {
			return normal, err
		}
		if Truthy(cond) {
			return in.execBlock(s.Then, NewEnvironment(env))
		}
		if s.Else != nil {
			return in.execBlock(s.Else, NewEnvironment(env))
		}
		return normal, nil

	case *compiler.While:
		return in.execWhile(s, env)

	case *compiler.For:
		return in.execFor(s, env)

	case *compiler.Return:
		var v Value = None
		if s.Value != nil {
			var err error
			if v, err = in.eval(s.Value, env); err != nil {
				return normal, err
			}
		}
		return control{kind: ctrlReturn, value: v}, nil

	case *compiler.Break:
		return control{kind: ctrlBreak}, nil

	case *compiler.Continue:
		return control{kind: ctrlContinue}, nil
	}
	return normal, runtimeErrorf(stmt, "unsupported statement %T", stmt)
}

// execBlock runs statements in env, which the caller has already created.
func (in *Interpreter) execBlock(b *compiler.Block, env *Environment) (control, error) {
	if b == nil {
		return normal, nil
	}
	return in.execStatements(b.Statements, env)
}

func (in *Interpreter) execStatements(stmts []compiler.Stmt, env *Environment) (control, error) {
	for _, stmt := range stmts {
		ctl, err := in.exec(stmt, env)
		if err != nil || !ctl.isNormal() {
			return ctl, err
		}
	}
	return normal, nil
}

// execDeclaration binds every name to none before evaluating any
// initializer, so a function initializer can refer to itself.
func (in *Interpreter) execDeclaration(d *compiler.Declaration, env *Environment) error {
	for _, v := range d.Vars {
		env.Define(v.Name, None)
	}
	for _, v := range d.Vars {
		if v.Init == nil {
			continue
		}
		val, err := in.eval(v.Init, env)
		if err != nil {
			return err
		}
		env.Define(v.Name, val)
	}
	return nil
}

func (in *Interpreter) execAssignment(a *compiler.Assignment, env *Environment) error {
	switch target := a.Target.(type) {
	case *compiler.Reference:
		val, err := in.eval(a.Value, env)
		if err != nil {
			return err
		}
		if !env.Assign(target.Name, val) {
			return runtimeErrorf(target, "Undefined variable '%s'", target.Name)
		}
		return nil

	case *compiler.Index:
		container, err := in.eval(target.Array, env)
		if err != nil {
			return err
		}
		idx, err := in.evalIndex(target.Index, env)
		if err != nil {
			return err
		}
		val, err := in.eval(a.Value, env)
		if err != nil {
			return err
		}
		switch c := container.(type) {
		case *Array:
			return locateErr(target, c.Set(idx, val))
		case *Tuple:
			return locateErr(target, c.Set(idx, val))
		}
		return runtimeErrorf(target, "Cannot index into %s", container.Kind())

	case *compiler.MemberAccess:
		t, err := in.evalTuple(target, env)
		if err != nil {
			return err
		}
		val, err := in.eval(a.Value, env)
		if err != nil {
			return err
		}
		if target.Numeric {
			return locateErr(target, t.Set(int64(target.Index), val))
		}
		return locateErr(target, t.SetNamed(target.Name, val))
	}
	return runtimeErrorf(a, "Invalid assignment target")
}

func locateErr(node compiler.Node, err error) error {
	if err == nil {
		return nil
	}
	return locate(node, err)
}

func (in *Interpreter) execWhile(w *compiler.While, env *Environment) (control, error) {
	for {
		cond, err := in.eval(w.Cond, env)
		if err != nil {
			return normal, err
		}
		if !Truthy(cond) {
			return normal, nil
		}
		ctl, err := in.execBlock(w.Body, NewEnvironment(env))
		if err != nil {
			return normal, err
		}
		if done, out := loopControl(ctl); done {
			return out, nil
		}
	}
}

// loopControl interprets a body's completion for the enclosing loop. It
// reports whether the loop must stop and the control to propagate.
func loopControl(ctl control) (bool, control) {
	switch ctl.kind {
	case ctrlBreak:
		return true, normal
	case ctrlReturn:
		return true, ctl
	}
	return false, normal
}

func (in *Interpreter) execFor(f *compiler.For, env *Environment) (control, error) {
	switch f.Kind {
	case compiler.ForInfinite:
		for {
			ctl, err := in.execBlock(f.Body, NewEnvironment(env))
			if err != nil {
				return normal, err
			}
			if done, out := loopControl(ctl); done {
				return out, nil
			}
		}

	case compiler.ForRange:
		from, err := in.evalRangeBound(f.Start, env)
		if err != nil {
			return normal, err
		}
		to, err := in.evalRangeBound(f.End, env)
		if err != nil {
			return normal, err
		}
		step := Integer(1)
		if from > to {
			step = -1
		}
		for i := from; ; i += step {
			ctl, err := in.iterate(f, Integer(i), env)
			if err != nil {
				return normal, err
			}
			if done, out := loopControl(ctl); done {
				return out, nil
			}
			if i == to {
				return normal, nil
			}
		}

	case compiler.ForIterable:
		src, err := in.eval(f.Start, env)
		if err != nil {
			return normal, err
		}
		var items []Value
		switch c := src.(type) {
		case *Array:
			items = c.Elements()
		case *Tuple:
			for _, e := range c.Entries() {
				items = append(items, e.Value)
			}
		default:
			return normal, runtimeErrorf(f.Start, "Cannot iterate over %s", src.Kind())
		}
		for _, item := range items {
			ctl, err := in.iterate(f, item, env)
			if err != nil {
				return normal, err
			}
			if done, out := loopControl(ctl); done {
				return out, nil
			}
		}
		return normal, nil
	}
	return normal, runtimeErrorf(f, "unsupported loop kind %s", f.Kind)
}

// iterate runs one pass of a for body. A named loop variable gets its own
// frame so closures made in the body keep this iteration's value.
func (in *Interpreter) iterate(f *compiler.For, v Value, env *Environment) (control, error) {
	frame := env
	if f.Var != "" {
		frame = NewEnvironment(env)
		frame.Define(f.Var, v)
	}
	return in.execBlock(f.Body, NewEnvironment(frame))
}

func (in *Interpreter) evalRangeBound(e compiler.Expr, env *Environment) (Integer, error) {
	v, err := in.eval(e, env)
	if err != nil {
		return 0, err
	}
	n, ok := v.(Integer)
	if !ok {
		return 0, runtimeErrorf(e, "Range bounds must be integers, got %s", v.Kind())
	}
	return n, nil
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (in *Interpreter) eval(expr compiler.Expr, env *Environment) (Value, error) {
	switch e := expr.(type) {
	case *compiler.Literal:
		return FromLiteral(e), nil

	case *compiler.Reference:
		v, ok := env.Lookup(e.Name)
		if !ok {
			return nil, runtimeErrorf(e, "Undefined variable '%s'", e.Name)
		}
		return v, nil

	case *compiler.BinaryOp:
		l, err := in.eval(e.Left, env)
		if err != nil {
			return nil, err
		}
		r, err := in.eval(e.Right, env)
		if err != nil {
			return nil, err
		}
		v, err := BinaryOp(e.Op, l, r)
		if err != nil {
			return nil, locate(e, err)
		}
		return v, nil

	case *compiler.UnaryOp:
		operand, err := in.eval(e.Operand, env)
		if err != nil {
			return nil, err
		}
		v, err := UnaryOp(e.Op, operand)
		if err != nil {
			return nil, locate(e, err)
		}
		return v, nil

	case *compiler.ArrayLiteral:
		elems := make([]Value, 0, len(e.Elements))
		for _, el := range e.Elements {
			v, err := in.eval(el, env)
			if err != nil {
				return nil, err
			}
			elems = append(elems, v)
		}
		return NewArray(elems...), nil

	case *compiler.TupleLiteral:
		entries := make([]TupleEntry, 0, len(e.Elements))
		for _, el := range e.Elements {
			v, err := in.eval(el.Value, env)
			if err != nil {
				return nil, err
			}
			entries = append(entries, TupleEntry{Name: el.Name, Value: v})
		}
		return NewTuple(entries...), nil

	case *compiler.FuncLiteral:
		return &Function{Literal: e, Closure: env}, nil

	case *compiler.Call:
		return in.evalCall(e, env)

	case *compiler.Index:
		container, err := in.eval(e.Array, env)
		if err != nil {
			return nil, err
		}
		idx, err := in.evalIndex(e.Index, env)
		if err != nil {
			return nil, err
		}
		var v Value
		switch c := container.(type) {
		case *Array:
			v, err = c.Get(idx)
		case *Tuple:
			v, err = c.Get(idx)
		default:
			return nil, runtimeErrorf(e, "Cannot index into %s", container.Kind())
		}
		if err != nil {
			return nil, locate(e, err)
		}
		return v, nil

	case *compiler.MemberAccess:
		t, err := in.evalTuple(e, env)
		if err != nil {
			return nil, err
		}
		var v Value
		if e.Numeric {
			v, err = t.Get(int64(e.Index))
		} else {
			v, err = t.GetNamed(e.Name)
		}
		if err != nil {
			return nil, locate(e, err)
		}
		return v, nil

	case *compiler.TypeCheck:
		v, err := in.eval(e.Expr, env)
		if err != nil {
			return nil, err
		}
		ok, err := IsType(v, e.Type)
		if err != nil {
			return nil, locate(e, err)
		}
		return Boolean(ok), nil
	}
	return nil, runtimeErrorf(expr, "unsupported expression %T", expr)
}

func (in *Interpreter) evalIndex(e compiler.Expr, env *Environment) (int64, error) {
	v, err := in.eval(e, env)
	if err != nil {
		return 0, err
	}
	n, ok := v.(Integer)
	if !ok {
		return 0, runtimeErrorf(e, "Index must be an integer, got %s", v.Kind())
	}
	return int64(n), nil
}

func (in *Interpreter) evalTuple(m *compiler.MemberAccess, env *Environment) (*Tuple, error) {
	v, err := in.eval(m.Tuple, env)
	if err != nil {
		return nil, err
	}
	t, ok := v.(*Tuple)
	if !ok {
		return nil, runtimeErrorf(m, "Cannot access member '%s' of %s", m.Member(), v.Kind())
	}
	return t, nil
}

func (in *Interpreter) evalCall(c *compiler.Call, env *Environment) (Value, error) {
	callee, err := in.eval(c.Callee, env)
	if err != nil {
		return nil, err
	}
	fn, ok := callee.(*Function)
	if !ok {
		return nil, runtimeErrorf(c, "Cannot call %s", callee.Kind())
	}

	args := make([]Value, 0, len(c.Args))
	for _, a := range c.Args {
		v, err := in.eval(a, env)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	if len(args) != fn.Arity() {
		return nil, runtimeErrorf(c, "Function expects %d arguments, got %d", fn.Arity(), len(args))
	}

	if in.depth >= in.maxDepth {
		return nil, &RuntimeError{
			Msg: fmt.Sprintf("stack overflow: maximum call depth %d exceeded", in.maxDepth),
			Pos: compiler.Pos(c),
			Err: ErrStackOverflow,
		}
	}
	in.depth++
	defer func() { in.depth-- }()

	frame := NewEnvironment(fn.Closure)
	for i, name := range fn.Literal.Params {
		frame.Define(name, args[i])
	}

	if fn.Literal.IsExprBody {
		return in.eval(fn.Literal.ExprBody, frame)
	}
	ctl, err := in.execStatements(fn.Literal.Body, frame)
	if err != nil {
		return nil, err
	}
	switch ctl.kind {
	case ctrlReturn:
		return ctl.value, nil
	case ctrlBreak, ctrlContinue:
		return nil, runtimeErrorf(c, "%s statement outside loop", ctl.kind)
	}
	return None, nil
}
