package compiler

// SymbolKind says how a name was introduced.
type SymbolKind int

const (
	SymbolVariable  SymbolKind = iota // var x
	SymbolParameter                   // func(x)
	SymbolLoopVar                     // for x in ...
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolParameter:
		return "parameter"
	case SymbolLoopVar:
		return "loop variable"
	}
	return "variable"
}

// Symbol is a declared name together with where it was declared.
type Symbol struct {
	Name  string
	Kind  SymbolKind
	Pos   Position
	Depth int // scope depth; 0 is the program scope
}

// symbolTable is a stack of scopes, innermost last.
type symbolTable struct {
	scopes []map[string]Symbol
}

func newSymbolTable() *symbolTable {
	return &symbolTable{}
}

func (t *symbolTable) push() {
	t.scopes = append(t.scopes, make(map[string]Symbol))
}

func (t *symbolTable) pop() {
	t.scopes = t.scopes[:len(t.scopes)-1]
}

func (t *symbolTable) depth() int {
	return len(t.scopes) - 1
}

// declare adds name to the innermost scope. It returns false when the name
// is already declared there.
func (t *symbolTable) declare(name string, kind SymbolKind, pos Position) (Symbol, bool) {
	current := t.scopes[len(t.scopes)-1]
	if _, exists := current[name]; exists {
		return Symbol{}, false
	}
	sym := Symbol{Name: name, Kind: kind, Pos: pos, Depth: t.depth()}
	current[name] = sym
	return sym, true
}

// lookup searches from the innermost scope outward.
func (t *symbolTable) lookup(name string) (Symbol, bool) {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if sym, ok := t.scopes[i][name]; ok {
			return sym, true
		}
	}
	return Symbol{}, false
}
