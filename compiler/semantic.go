package compiler

// ---------------------------------------------------------------------------
// Semantic Analyzer: declaration and control-flow checks
// ---------------------------------------------------------------------------

// contextKind tags an enclosing construct.
type contextKind int

const (
	contextGlobal contextKind = iota
	contextFunction
	contextLoop
)

// Analyzer checks a program before it runs. Its scopes open and close
// exactly where the interpreter creates and discards environment frames:
// the program, every block, every loop iteration that binds a variable,
// and every function call.
type Analyzer struct {
	scopes      *symbolTable
	contexts    []contextKind
	diags       []Diagnostic
	predeclared []string
	symbols     []Symbol
	references  map[Position]Symbol
}

// NewAnalyzer creates a new semantic analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze checks prog with a fresh analyzer.
func Analyze(prog *Program) []Diagnostic {
	return NewAnalyzer().Analyze(prog)
}

// Predeclare marks names as already defined in the program scope, for
// sessions that keep globals between inputs.
func (a *Analyzer) Predeclare(names ...string) {
	a.predeclared = append(a.predeclared, names...)
}

// Symbols returns every declaration seen by the last Analyze call, in
// source order.
func (a *Analyzer) Symbols() []Symbol {
	return a.symbols
}

// Resolve returns the declaration a reference at pos resolved to during
// the last Analyze call.
func (a *Analyzer) Resolve(pos Position) (Symbol, bool) {
	sym, ok := a.references[pos]
	return sym, ok
}

// Analyze walks prog and returns all diagnostics found. The AST is not
// modified.
func (a *Analyzer) Analyze(prog *Program) []Diagnostic {
	a.scopes = newSymbolTable()
	a.contexts = []contextKind{contextGlobal}
	a.diags = nil
	a.symbols = nil
	a.references = make(map[Position]Symbol)

	a.scopes.push()
	for _, name := range a.predeclared {
		a.scopes.declare(name, SymbolVariable, Position{})
	}
	a.analyzeStatements(prog.Statements)
	a.scopes.pop()

	return a.diags
}

// errorAt records an error with position information.
func (a *Analyzer) errorAt(node Node, format string, args ...interface{}) {
	a.diags = append(a.diags, Errorf(Pos(node), format, args...))
}

func (a *Analyzer) declare(name string, kind SymbolKind, node Node) {
	pos := Pos(node)
	sym, ok := a.scopes.declare(name, kind, pos)
	if !ok {
		a.errorAt(node, "Variable '%s' is already declared in this scope", name)
		return
	}
	a.symbols = append(a.symbols, sym)
}

func (a *Analyzer) pushContext(k contextKind) {
	a.contexts = append(a.contexts, k)
}

func (a *Analyzer) popContext() {
	a.contexts = a.contexts[:len(a.contexts)-1]
}

// inFunction reports whether any enclosing context is a function.
func (a *Analyzer) inFunction() bool {
	for i := len(a.contexts) - 1; i >= 0; i-- {
		if a.contexts[i] == contextFunction {
			return true
		}
	}
	return false
}

// inLoop reports whether the nearest enclosing loop is inside the nearest
// enclosing function, if any.
func (a *Analyzer) inLoop() bool {
	for i := len(a.contexts) - 1; i >= 0; i-- {
		switch a.contexts[i] {
		case contextLoop:
			return true
		case contextFunction:
			return false
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (a *Analyzer) analyzeStatements(stmts []Stmt) {
	for _, stmt := range stmts {
		a.analyzeStmt(stmt)
	}
}

func (a *Analyzer) analyzeBlock(b *Block) {
	a.scopes.push()
	a.analyzeStatements(b.Statements)
	a.scopes.pop()
}

func (a *Analyzer) analyzeStmt(stmt Stmt) {
	switch s := stmt.(type) {
	case *Declaration:
		// Every name is bound before any initializer runs.
		for i := range s.Vars {
			a.declare(s.Vars[i].Name, SymbolVariable, &s.Vars[i])
		}
		for _, v := range s.Vars {
			if v.Init != nil {
				a.analyzeExpr(v.Init)
			}
		}

	case *Assignment:
		a.analyzeExpr(s.Target)
		a.analyzeExpr(s.Value)

	case *If:
		a.analyzeExpr(s.Cond)
		a.analyzeBlock(s.Then)
		if s.Else != nil {
			a.analyzeBlock(s.Else)
		}

	case *While:
		a.analyzeExpr(s.Cond)
		a.pushContext(contextLoop)
		a.analyzeBlock(s.Body)
		a.popContext()

	case *For:
		if s.Start != nil {
			a.analyzeExpr(s.Start)
		}
		if s.End != nil {
			a.analyzeExpr(s.End)
		}
		a.pushContext(contextLoop)
		if s.Var != "" {
			a.scopes.push()
			a.declare(s.Var, SymbolLoopVar, s)
			a.analyzeBlock(s.Body)
			a.scopes.pop()
		} else {
			a.analyzeBlock(s.Body)
		}
		a.popContext()

	case *Return:
		if !a.inFunction() {
			a.errorAt(s, "return statement outside function")
		}
		if s.Value != nil {
			a.analyzeExpr(s.Value)
		}

	case *Break:
		if !a.inLoop() {
			a.errorAt(s, "exit statement outside loop")
		}

	case *Continue:
		if !a.inLoop() {
			a.errorAt(s, "continue statement outside loop")
		}

	case *Print:
		for _, e := range s.Exprs {
			a.analyzeExpr(e)
		}

	case *Block:
		a.analyzeBlock(s)

	case *ExprStmt:
		a.analyzeExpr(s.Expr)
	}
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

func (a *Analyzer) analyzeExpr(expr Expr) {
	switch e := expr.(type) {
	case *Reference:
		sym, ok := a.scopes.lookup(e.Name)
		if !ok {
			a.errorAt(e, "Variable '%s' is not declared", e.Name)
			return
		}
		a.references[Pos(e)] = sym

	case *BinaryOp:
		a.analyzeExpr(e.Left)
		a.analyzeExpr(e.Right)

	case *UnaryOp:
		a.analyzeExpr(e.Operand)

	case *Call:
		a.analyzeExpr(e.Callee)
		for _, arg := range e.Args {
			a.analyzeExpr(arg)
		}

	case *Index:
		a.analyzeExpr(e.Array)
		a.analyzeExpr(e.Index)

	case *ArrayLiteral:
		for _, el := range e.Elements {
			a.analyzeExpr(el)
		}

	case *TupleLiteral:
		for _, el := range e.Elements {
			a.analyzeExpr(el.Value)
		}

	case *FuncLiteral:
		a.analyzeFunc(e)

	case *TypeCheck:
		a.analyzeExpr(e.Expr)

	case *MemberAccess:
		a.analyzeExpr(e.Tuple)

	case *Literal:
	}
}

// analyzeFunc checks a function literal in its own scope. A function body
// is never inside a loop, whatever encloses the literal.
func (a *Analyzer) analyzeFunc(fn *FuncLiteral) {
	a.pushContext(contextFunction)
	a.scopes.push()

	for _, param := range fn.Params {
		sym, ok := a.scopes.declare(param, SymbolParameter, Pos(fn))
		if !ok {
			a.errorAt(fn, "Duplicate parameter '%s'", param)
			continue
		}
		a.symbols = append(a.symbols, sym)
	}

	if fn.IsExprBody {
		a.analyzeExpr(fn.ExprBody)
	} else {
		a.analyzeStatements(fn.Body)
	}

	a.scopes.pop()
	a.popContext()
}
