package vm

import (
	"errors"
	"fmt"
)

// ErrDivisionByZero is returned for / with a numeric zero divisor.
var ErrDivisionByZero = errors.New("Division by zero")

// BinaryOp applies a binary operator to two evaluated operands. It is
// shared by the interpreter and the constant folder so both compute the
// same results. Errors carry no position.
func BinaryOp(op string, l, r Value) (Value, error) {
	switch op {
	case "+":
		return add(l, r)
	case "-", "*", "/":
		return arith(op, l, r)
	case "<", "<=", ">", ">=":
		return compare(op, l, r)
	case "=", "==":
		eq, err := Equal(l, r, op)
		return Boolean(eq), err
	case "/=", "!=":
		eq, err := Equal(l, r, op)
		return Boolean(!eq), err
	case "and", "or", "xor":
		return logical(op, l, r)
	}
	return nil, fmt.Errorf("Unknown operator '%s'", op)
}

// UnaryOp applies a prefix operator.
func UnaryOp(op string, v Value) (Value, error) {
	switch op {
	case "-":
		switch n := v.(type) {
		case Integer:
			return -n, nil
		case Real:
			return -n, nil
		}
		return nil, fmt.Errorf("Unsupported operand type for unary '-': %s", v.Kind())
	case "+":
		switch v.(type) {
		case Integer, Real:
			return v, nil
		}
		return nil, fmt.Errorf("Unsupported operand type for unary '+': %s", v.Kind())
	case "not":
		b, ok := v.(Boolean)
		if !ok {
			return nil, fmt.Errorf("Expected boolean value for 'not', got %s", v.Kind())
		}
		return !b, nil
	}
	return nil, fmt.Errorf("Unknown operator '%s'", op)
}

func isNumeric(v Value) bool {
	switch v.(type) {
	case Integer, Real:
		return true
	}
	return false
}

func toFloat(v Value) float64 {
	switch n := v.(type) {
	case Integer:
		return float64(n)
	case Real:
		return float64(n)
	}
	return 0
}

func unsupported(op string, l, r Value) error {
	return fmt.Errorf("Unsupported operand types for '%s': %s and %s", op, l.Kind(), r.Kind())
}

// add handles numeric addition and concatenation of strings, arrays and
// tuples.
func add(l, r Value) (Value, error) {
	if isNumeric(l) && isNumeric(r) {
		return arith("+", l, r)
	}
	switch a := l.(type) {
	case String:
		if b, ok := r.(String); ok {
			return a + b, nil
		}
	case *Array:
		if b, ok := r.(*Array); ok {
			return a.Concat(b), nil
		}
	case *Tuple:
		if b, ok := r.(*Tuple); ok {
			return a.Concat(b), nil
		}
	}
	return nil, unsupported("+", l, r)
}

// arith implements + - * / over integers and reals. The result is real
// when either operand is; integer division floors.
func arith(op string, l, r Value) (Value, error) {
	if !isNumeric(l) || !isNumeric(r) {
		return nil, unsupported(op, l, r)
	}

	a, aInt := l.(Integer)
	b, bInt := r.(Integer)
	if aInt && bInt {
		switch op {
		case "+":
			return a + b, nil
		case "-":
			return a - b, nil
		case "*":
			return a * b, nil
		case "/":
			if b == 0 {
				return nil, ErrDivisionByZero
			}
			return floorDiv(a, b), nil
		}
	}

	x, y := toFloat(l), toFloat(r)
	switch op {
	case "+":
		return Real(x + y), nil
	case "-":
		return Real(x - y), nil
	case "*":
		return Real(x * y), nil
	case "/":
		if y == 0 {
			return nil, ErrDivisionByZero
		}
		return Real(x / y), nil
	}
	return nil, fmt.Errorf("Unknown operator '%s'", op)
}

// floorDiv rounds toward negative infinity: -7 / 2 = -4.
func floorDiv(a, b Integer) Integer {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func compare(op string, l, r Value) (Value, error) {
	if !isNumeric(l) || !isNumeric(r) {
		return nil, unsupported(op, l, r)
	}

	var c int
	a, aInt := l.(Integer)
	b, bInt := r.(Integer)
	if aInt && bInt {
		c = cmpOrdered(a, b)
	} else {
		c = cmpOrdered(toFloat(l), toFloat(r))
	}

	switch op {
	case "<":
		return Boolean(c < 0), nil
	case "<=":
		return Boolean(c <= 0), nil
	case ">":
		return Boolean(c > 0), nil
	}
	return Boolean(c >= 0), nil
}

func cmpOrdered[T Integer | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Equal compares two values for = and /=. Numbers compare by value across
// integer and real. Other operands must share a runtime type: strings and
// booleans compare by content, arrays and tuples element by element,
// functions by identity, and none equals none.
func Equal(l, r Value, op string) (bool, error) {
	if isNumeric(l) && isNumeric(r) {
		return numericEqual(l, r), nil
	}
	if l.Kind() != r.Kind() {
		return false, fmt.Errorf("Cannot compare %s and %s with '%s'", l.Kind(), r.Kind(), op)
	}
	return deepEqual(l, r), nil
}

func numericEqual(l, r Value) bool {
	a, aInt := l.(Integer)
	b, bInt := r.(Integer)
	if aInt && bInt {
		return a == b
	}
	return toFloat(l) == toFloat(r)
}

// deepEqual is the structural comparison used inside arrays and tuples,
// where values of different types are simply unequal.
func deepEqual(l, r Value) bool {
	return (&equalState{}).equal(l, r)
}

type valuePair struct{ l, r Value }

// equalState remembers container pairs under comparison. A pair met again
// while still being compared is assumed equal, so cyclic values terminate.
type equalState struct {
	active map[valuePair]bool
}

func (s *equalState) enter(l, r Value) bool {
	p := valuePair{l, r}
	if s.active[p] {
		return false
	}
	if s.active == nil {
		s.active = make(map[valuePair]bool)
	}
	s.active[p] = true
	return true
}

func (s *equalState) equal(l, r Value) bool {
	if isNumeric(l) && isNumeric(r) {
		return numericEqual(l, r)
	}
	switch a := l.(type) {
	case String:
		b, ok := r.(String)
		return ok && a == b
	case Boolean:
		b, ok := r.(Boolean)
		return ok && a == b
	case Void:
		_, ok := r.(Void)
		return ok
	case *Function:
		b, ok := r.(*Function)
		return ok && a == b
	case *Array:
		b, ok := r.(*Array)
		if !ok || a.Len() != b.Len() {
			return false
		}
		if a == b || !s.enter(a, b) {
			return true
		}
		defer delete(s.active, valuePair{a, b})
		for i := range a.elems {
			if !s.equal(a.elems[i], b.elems[i]) {
				return false
			}
		}
		return true
	case *Tuple:
		b, ok := r.(*Tuple)
		if !ok || a.Len() != b.Len() {
			return false
		}
		if a == b || !s.enter(a, b) {
			return true
		}
		defer delete(s.active, valuePair{a, b})
		for i := range a.entries {
			if a.entries[i].Name != b.entries[i].Name || !s.equal(a.entries[i].Value, b.entries[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

func logical(op string, l, r Value) (Value, error) {
	a, ok := l.(Boolean)
	if !ok {
		return nil, fmt.Errorf("Expected boolean value for '%s', got %s", op, l.Kind())
	}
	b, ok := r.(Boolean)
	if !ok {
		return nil, fmt.Errorf("Expected boolean value for '%s', got %s", op, r.Kind())
	}
	switch op {
	case "and":
		return a && b, nil
	case "or":
		return a || b, nil
	}
	return Boolean(a != b), nil
}
