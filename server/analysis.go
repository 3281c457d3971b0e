package server

import (
	"github.com/chazu/javdin/compiler"
	"github.com/chazu/javdin/compiler/optimize"
	"github.com/chazu/javdin/image"
)

// Analysis is everything the editor features need to know about one
// version of a document.
type Analysis struct {
	Hash        image.Hash
	Diagnostics []compiler.Diagnostic
	Symbols     []compiler.Symbol
	Refs        []Ref
}

// Ref is a resolved variable reference.
type Ref struct {
	Span   compiler.Span
	Symbol compiler.Symbol
}

// analyzeProgram runs the semantic checks over prog. The optimizer's notes
// are added only when there are no errors.
func analyzeProgram(prog *compiler.Program) *Analysis {
	a := &Analysis{}
	if h, err := image.HashProgram(prog); err == nil {
		a.Hash = h
	}

	checker := compiler.NewAnalyzer()
	a.Diagnostics = checker.Analyze(prog)
	a.Symbols = checker.Symbols()

	compiler.Inspect(prog, func(n compiler.Node) bool {
		if ref, ok := n.(*compiler.Reference); ok {
			if sym, ok := checker.Resolve(compiler.Pos(ref)); ok {
				a.Refs = append(a.Refs, Ref{Span: ref.Span(), Symbol: sym})
			}
		}
		return true
	})

	if !compiler.HasErrors(a.Diagnostics) {
		_, infos := optimize.Optimize(prog)
		a.Diagnostics = append(a.Diagnostics, infos...)
	}
	return a
}

// contains reports whether the 1-based line and column fall inside span.
// A span that ends on a later line covers the rest of its start line.
func contains(span compiler.Span, line, col int) bool {
	if line < span.Start.Line || line > span.End.Line {
		return false
	}
	if line == span.Start.Line && col < span.Start.Column {
		return false
	}
	if line == span.End.Line && col >= span.End.Column {
		return false
	}
	return true
}

// SymbolAt finds the symbol referenced or declared at a 1-based position.
// A declaration matches when the cursor is on its name.
func (a *Analysis) SymbolAt(line, col int) (compiler.Symbol, bool) {
	for _, r := range a.Refs {
		if contains(r.Span, line, col) {
			return r.Symbol, true
		}
	}
	for _, sym := range a.Symbols {
		if sym.Pos.Line == line && col >= sym.Pos.Column && col < sym.Pos.Column+len(sym.Name) {
			return sym, true
		}
	}
	return compiler.Symbol{}, false
}

// Uses returns every reference that resolved to sym.
func (a *Analysis) Uses(sym compiler.Symbol) []Ref {
	var uses []Ref
	for _, r := range a.Refs {
		if r.Symbol == sym {
			uses = append(uses, r)
		}
	}
	return uses
}
