package vm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/javdin/compiler"
)

// Kind is the runtime tag of a Value.
type Kind int

const (
	KindInteger Kind = iota
	KindReal
	KindBoolean
	KindString
	KindArray
	KindTuple
	KindFunction
	KindVoid
)

var kindNames = map[Kind]string{
	KindInteger:  "integer",
	KindReal:     "real",
	KindBoolean:  "boolean",
	KindString:   "string",
	KindArray:    "array",
	KindTuple:    "tuple",
	KindFunction: "function",
	KindVoid:     "none",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Value is a Javdin runtime value. The set of implementations is closed:
// Integer, Real, Boolean, String, *Array, *Tuple, *Function and Void.
// Scalars are copied; arrays, tuples and functions are shared by pointer.
type Value interface {
	Kind() Kind
	String() string
}

// Integer is a 64-bit signed integer.
type Integer int64

func (Integer) Kind() Kind       { return KindInteger }
func (v Integer) String() string { return strconv.FormatInt(int64(v), 10) }

// Real is a 64-bit float.
type Real float64

func (Real) Kind() Kind       { return KindReal }
func (v Real) String() string { return formatReal(float64(v)) }

// Boolean is true or false.
type Boolean bool

func (Boolean) Kind() Kind { return KindBoolean }
func (v Boolean) String() string {
	if v {
		return "true"
	}
	return "false"
}

// String is an immutable string.
type String string

func (String) Kind() Kind       { return KindString }
func (v String) String() string { return string(v) }

// Void is none: the value of uninitialized variables and of statements
// with no result.
type Void struct{}

func (Void) Kind() Kind     { return KindVoid }
func (Void) String() string { return "none" }

// None is the single Void value.
var None Value = Void{}

// Function is a closure: a function literal plus the environment that was
// active when the literal was evaluated. The environment is shared, so
// later changes to it are visible to the function.
type Function struct {
	Literal *compiler.FuncLiteral
	Closure *Environment
}

func (*Function) Kind() Kind { return KindFunction }

func (f *Function) String() string {
	return "func(" + strings.Join(f.Literal.Params, ", ") + ")"
}

// Arity returns the number of parameters.
func (f *Function) Arity() int {
	return len(f.Literal.Params)
}

// FromLiteral converts a scalar AST literal to a runtime value.
func FromLiteral(lit *compiler.Literal) Value {
	switch lit.Kind {
	case compiler.LitInteger:
		return Integer(lit.Int)
	case compiler.LitReal:
		return Real(lit.Real)
	case compiler.LitBoolean:
		return Boolean(lit.Bool)
	case compiler.LitString:
		return String(lit.Str)
	}
	return None
}

// ToLiteral converts a scalar value back to an AST literal. It reports
// false for arrays, tuples and functions, which have no literal form.
func ToLiteral(v Value, span compiler.Span) (*compiler.Literal, bool) {
	lit := &compiler.Literal{SpanVal: span}
	switch val := v.(type) {
	case Integer:
		lit.Kind, lit.Int = compiler.LitInteger, int64(val)
	case Real:
		lit.Kind, lit.Real = compiler.LitReal, float64(val)
	case Boolean:
		lit.Kind, lit.Bool = compiler.LitBoolean, bool(val)
	case String:
		lit.Kind, lit.Str = compiler.LitString, string(val)
	case Void:
		lit.Kind = compiler.LitNone
	default:
		return nil, false
	}
	return lit, true
}

// Truthy maps any value to a condition result. false, zero, the empty
// string, empty arrays and tuples, and none are falsy.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case Boolean:
		return bool(val)
	case Integer:
		return val != 0
	case Real:
		return val != 0
	case String:
		return val != ""
	case *Array:
		return val.Len() > 0
	case *Tuple:
		return val.Len() > 0
	case *Function:
		return true
	}
	return false
}

// IsType implements the is operator.
func IsType(v Value, t compiler.TypeIndicator) (bool, error) {
	switch t {
	case compiler.TypeInt:
		return v.Kind() == KindInteger, nil
	case compiler.TypeReal:
		return v.Kind() == KindReal, nil
	case compiler.TypeBool:
		return v.Kind() == KindBoolean, nil
	case compiler.TypeString:
		return v.Kind() == KindString, nil
	case compiler.TypeNone:
		return v.Kind() == KindVoid, nil
	case compiler.TypeArray:
		return v.Kind() == KindArray, nil
	case compiler.TypeTuple:
		return v.Kind() == KindTuple, nil
	case compiler.TypeFunc:
		return v.Kind() == KindFunction, nil
	}
	return false, fmt.Errorf("Unknown type indicator: %v", t)
}
