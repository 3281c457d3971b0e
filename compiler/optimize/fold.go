package optimize

import (
	"strconv"

	"github.com/chazu/javdin/compiler"
	"github.com/chazu/javdin/vm"
)

// foldBinary replaces an operation on two literals by its result. The
// interpreter's operator implementation computes the value, so a folded
// program prints exactly what the unfolded one would. Operations that fail
// (division by zero, mismatched operands) are left for run time to report.
func (o *Optimizer) foldBinary(n *compiler.BinaryOp, left, right compiler.Expr) compiler.Expr {
	l, lok := left.(*compiler.Literal)
	r, rok := right.(*compiler.Literal)
	if lok && rok {
		v, err := vm.BinaryOp(n.Op, vm.FromLiteral(l), vm.FromLiteral(r))
		if err == nil {
			if lit, ok := vm.ToLiteral(v, n.SpanVal); ok {
				o.infof(n, "Constant folding: %s %s %s -> %s", describe(l), n.Op, describe(r), describe(lit))
				return lit
			}
		}
	}
	return &compiler.BinaryOp{SpanVal: n.SpanVal, Left: left, Op: n.Op, Right: right}
}

func (o *Optimizer) foldUnary(n *compiler.UnaryOp, operand compiler.Expr) compiler.Expr {
	if x, ok := operand.(*compiler.Literal); ok {
		v, err := vm.UnaryOp(n.Op, vm.FromLiteral(x))
		if err == nil {
			if lit, ok := vm.ToLiteral(v, n.SpanVal); ok {
				o.infof(n, "Constant folding: %s %s -> %s", n.Op, describe(x), describe(lit))
				return lit
			}
		}
	}
	return &compiler.UnaryOp{SpanVal: n.SpanVal, Op: n.Op, Operand: operand}
}

// describe renders a literal for diagnostics. Strings are quoted so that
// "1" and 1 read differently.
func describe(lit *compiler.Literal) string {
	if lit.Kind == compiler.LitString {
		return strconv.Quote(lit.Str)
	}
	return vm.FromLiteral(lit).String()
}
