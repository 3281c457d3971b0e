package compiler

import "fmt"

// ---------------------------------------------------------------------------
// AST: Abstract Syntax Tree for Javdin
// ---------------------------------------------------------------------------

// Position represents a source location. The zero Position means "no
// specific location".
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid reports whether p names a real source location.
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Span represents a range in source code.
type Span struct {
	Start Position
	End   Position
}

// MakeSpan creates a span from start to end positions.
func MakeSpan(start, end Position) Span {
	return Span{Start: start, End: end}
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Span() Span
	node() // marker method
}

// Pos returns the start position of a node.
func Pos(n Node) Position {
	return n.Span().Start
}

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr() // marker method
}

// LiteralKind tags the value carried by a Literal.
type LiteralKind int

const (
	LitInteger LiteralKind = iota
	LitReal
	LitBoolean
	LitString
	LitNone
)

func (k LiteralKind) String() string {
	switch k {
	case LitInteger:
		return "integer"
	case LitReal:
		return "real"
	case LitBoolean:
		return "boolean"
	case LitString:
		return "string"
	case LitNone:
		return "none"
	}
	return fmt.Sprintf("LiteralKind(%d)", int(k))
}

// Literal represents a typed constant. Only the field matching Kind is
// meaningful.
type Literal struct {
	SpanVal Span
	Kind    LiteralKind
	Int     int64
	Real    float64
	Bool    bool
	Str     string
}

func (n *Literal) Span() Span { return n.SpanVal }
func (n *Literal) node()      {}
func (n *Literal) expr()      {}

// Reference represents a variable reference.
type Reference struct {
	SpanVal Span
	Name    string
}

func (n *Reference) Span() Span { return n.SpanVal }
func (n *Reference) node()      {}
func (n *Reference) expr()      {}

// BinaryOp represents a binary operation (a + b, a and b).
type BinaryOp struct {
	SpanVal Span
	Left    Expr
	Op      string
	Right   Expr
}

func (n *BinaryOp) Span() Span { return n.SpanVal }
func (n *BinaryOp) node()      {}
func (n *BinaryOp) expr()      {}

// UnaryOp represents a prefix operation (-x, +x, not x).
type UnaryOp struct {
	SpanVal Span
	Op      string
	Operand Expr
}

func (n *UnaryOp) Span() Span { return n.SpanVal }
func (n *UnaryOp) node()      {}
func (n *UnaryOp) expr()      {}

// Call represents a function call f(a, b).
type Call struct {
	SpanVal Span
	Callee  Expr
	Args    []Expr
}

func (n *Call) Span() Span { return n.SpanVal }
func (n *Call) node()      {}
func (n *Call) expr()      {}

// Index represents an element access a[i].
type Index struct {
	SpanVal Span
	Array   Expr
	Index   Expr
}

func (n *Index) Span() Span { return n.SpanVal }
func (n *Index) node()      {}
func (n *Index) expr()      {}

// ArrayLiteral represents [e1, e2, ...].
type ArrayLiteral struct {
	SpanVal  Span
	Elements []Expr
}

func (n *ArrayLiteral) Span() Span { return n.SpanVal }
func (n *ArrayLiteral) node()      {}
func (n *ArrayLiteral) expr()      {}

// TupleElement is one entry of a tuple literal. Name is empty for
// positional entries.
type TupleElement struct {
	Name  string
	Value Expr
}

// TupleLiteral represents {a := 1, 2}.
type TupleLiteral struct {
	SpanVal  Span
	Elements []TupleElement
}

func (n *TupleLiteral) Span() Span { return n.SpanVal }
func (n *TupleLiteral) node()      {}
func (n *TupleLiteral) expr()      {}

// FuncLiteral represents a function literal. IsExprBody selects between
// ExprBody (func(x) => x) and Body (func(x) is ... end).
type FuncLiteral struct {
	SpanVal    Span
	Params     []string
	Body       []Stmt
	ExprBody   Expr
	IsExprBody bool
}

func (n *FuncLiteral) Span() Span { return n.SpanVal }
func (n *FuncLiteral) node()      {}
func (n *FuncLiteral) expr()      {}

// TypeIndicator names a runtime type for the is operator.
type TypeIndicator int

const (
	TypeUnknown TypeIndicator = iota
	TypeInt
	TypeReal
	TypeBool
	TypeString
	TypeNone
	TypeArray
	TypeTuple
	TypeFunc
)

var typeIndicatorNames = map[TypeIndicator]string{
	TypeInt:    "int",
	TypeReal:   "real",
	TypeBool:   "bool",
	TypeString: "string",
	TypeNone:   "none",
	TypeArray:  "array",
	TypeTuple:  "tuple",
	TypeFunc:   "func",
}

func (t TypeIndicator) String() string {
	if name, ok := typeIndicatorNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TypeIndicator(%d)", int(t))
}

// TypeCheck represents expr is type.
type TypeCheck struct {
	SpanVal Span
	Expr    Expr
	Type    TypeIndicator
}

func (n *TypeCheck) Span() Span { return n.SpanVal }
func (n *TypeCheck) node()      {}
func (n *TypeCheck) expr()      {}

// MemberAccess represents t.name or t.N. When Numeric is set, Index holds
// the 1-based position and Name is unused.
type MemberAccess struct {
	SpanVal Span
	Tuple   Expr
	Name    string
	Index   int
	Numeric bool
}

func (n *MemberAccess) Span() Span { return n.SpanVal }
func (n *MemberAccess) node()      {}
func (n *MemberAccess) expr()      {}

// Member renders the accessed member as written.
func (n *MemberAccess) Member() string {
	if n.Numeric {
		return fmt.Sprintf("%d", n.Index)
	}
	return n.Name
}

// ---------------------------------------------------------------------------
// Statement nodes
// ---------------------------------------------------------------------------

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmt() // marker method
}

// Program is the root of a parsed source file.
type Program struct {
	SpanVal    Span
	Statements []Stmt
}

func (n *Program) Span() Span { return n.SpanVal }
func (n *Program) node()      {}

// VarDef is one name introduced by a declaration. Init is nil when the
// variable starts as none.
type VarDef struct {
	SpanVal Span
	Name    string
	Init    Expr
}

func (n *VarDef) Span() Span { return n.SpanVal }
func (n *VarDef) node()      {}

// Declaration represents var a := 1, b, c := 3.
type Declaration struct {
	SpanVal Span
	Vars    []VarDef
}

func (n *Declaration) Span() Span { return n.SpanVal }
func (n *Declaration) node()      {}
func (n *Declaration) stmt()      {}

// Assignment represents target := value. Target is a Reference, Index or
// MemberAccess.
type Assignment struct {
	SpanVal Span
	Target  Expr
	Value   Expr
}

func (n *Assignment) Span() Span { return n.SpanVal }
func (n *Assignment) node()      {}
func (n *Assignment) stmt()      {}

// If represents if C then S1 [else S2] end, and the short form if C => S.
// Else is nil when absent.
type If struct {
	SpanVal Span
	Cond    Expr
	Then    *Block
	Else    *Block
}

func (n *If) Span() Span { return n.SpanVal }
func (n *If) node()      {}
func (n *If) stmt()      {}

// While represents while C loop ... end.
type While struct {
	SpanVal Span
	Cond    Expr
	Body    *Block
}

func (n *While) Span() Span { return n.SpanVal }
func (n *While) node()      {}
func (n *While) stmt()      {}

// ForKind distinguishes the three loop shapes.
type ForKind int

const (
	ForInfinite ForKind = iota // loop ... end
	ForRange                   // for [v in] a..b loop ... end
	ForIterable                // for [v in] xs loop ... end
)

func (k ForKind) String() string {
	switch k {
	case ForInfinite:
		return "infinite"
	case ForRange:
		return "range"
	case ForIterable:
		return "iterable"
	}
	return fmt.Sprintf("ForKind(%d)", int(k))
}

// For represents every non-while loop. Var is empty for anonymous
// iteration. Start holds the range start or the iterable; End is only set
// for ranges.
type For struct {
	SpanVal Span
	Kind    ForKind
	Var     string
	Start   Expr
	End     Expr
	Body    *Block
}

func (n *For) Span() Span { return n.SpanVal }
func (n *For) node()      {}
func (n *For) stmt()      {}

// Return represents return [expr]. Value is nil for a bare return.
type Return struct {
	SpanVal Span
	Value   Expr
}

func (n *Return) Span() Span { return n.SpanVal }
func (n *Return) node()      {}
func (n *Return) stmt()      {}

// Break represents exit (or break).
type Break struct {
	SpanVal Span
}

func (n *Break) Span() Span { return n.SpanVal }
func (n *Break) node()      {}
func (n *Break) stmt()      {}

// Continue represents continue.
type Continue struct {
	SpanVal Span
}

func (n *Continue) Span() Span { return n.SpanVal }
func (n *Continue) node()      {}
func (n *Continue) stmt()      {}

// Print represents print e1, e2, ....
type Print struct {
	SpanVal Span
	Exprs   []Expr
}

func (n *Print) Span() Span { return n.SpanVal }
func (n *Print) node()      {}
func (n *Print) stmt()      {}

// Block is a statement list that opens its own scope.
type Block struct {
	SpanVal    Span
	Statements []Stmt
}

func (n *Block) Span() Span { return n.SpanVal }
func (n *Block) node()      {}
func (n *Block) stmt()      {}

// ExprStmt is an expression evaluated for its effects.
type ExprStmt struct {
	SpanVal Span
	Expr    Expr
}

func (n *ExprStmt) Span() Span { return n.SpanVal }
func (n *ExprStmt) node()      {}
func (n *ExprStmt) stmt()      {}
