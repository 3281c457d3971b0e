package compiler

import (
	"strings"
	"testing"
)

func analyzeSource(t *testing.T, input string) []Diagnostic {
	t.Helper()
	return Analyze(mustParse(t, input))
}

func TestSemanticCleanPrograms(t *testing.T) {
	tests := []string{
		"var x := 1\nprint x",
		"var x := 1\nif true then var x := 2; print x end",
		"var fact := func(n) is if n <= 1 then return 1 end\nreturn n * fact(n - 1) end",
		"var a := 1, b := a + 1",
		"for i in 1..3 loop print i end",
		"for xs in [1] loop for x in [2] loop print x, xs end end",
		"while true loop exit end",
		"loop if true => continue\nexit end",
		"var f := func(x) is for i in 1..x loop if i = 2 => return i end end",
		"var mk := func(x) => func(y) => x + y",
		"var t := {a := 1}\nt.a := 2",
	}

	for _, input := range tests {
		diags := analyzeSource(t, input)
		if len(diags) != 0 {
			t.Errorf("Analyze(%q) = %v, want no diagnostics", input, diags)
		}
	}
}

func TestSemanticErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{"print x", "Variable 'x' is not declared"},
		{"x := 1", "Variable 'x' is not declared"},
		{"var x := 1\nvar x := 2", "Variable 'x' is already declared in this scope"},
		{"var x := 1, x := 2", "Variable 'x' is already declared in this scope"},
		{"return 1", "return statement outside function"},
		{"exit", "exit statement outside loop"},
		{"continue", "continue statement outside loop"},
		{"if true then exit end", "exit statement outside loop"},
		{"loop var f := func() is exit end end", "exit statement outside loop"},
		{"var f := func(a, a) => a", "Duplicate parameter 'a'"},
		{"for i in 1..2 loop end\nprint i", "Variable 'i' is not declared"},
		{"if true then var y := 1 end\nprint y", "Variable 'y' is not declared"},
		{"var f := func(p) => p\nprint p", "Variable 'p' is not declared"},
	}

	for _, tc := range tests {
		diags := analyzeSource(t, tc.input)
		if len(diags) == 0 {
			t.Errorf("Analyze(%q): no diagnostics, want %q", tc.input, tc.msg)
			continue
		}
		if !strings.Contains(diags[0].Message, tc.msg) {
			t.Errorf("Analyze(%q) = %q, want %q", tc.input, diags[0].Message, tc.msg)
		}
		if diags[0].Severity != SeverityError {
			t.Errorf("Analyze(%q): severity = %v, want Error", tc.input, diags[0].Severity)
		}
	}
}

func TestSemanticCollectsAllErrors(t *testing.T) {
	diags := analyzeSource(t, "print a\nprint b\nreturn\nexit")
	if len(diags) != 4 {
		t.Fatalf("got %d diagnostics, want 4: %v", len(diags), diags)
	}
	if diags[1].Pos.Line != 2 || diags[1].Pos.Column != 7 {
		t.Errorf("second diagnostic at %v, want 2:7", diags[1].Pos)
	}
}

func TestSemanticPredeclare(t *testing.T) {
	prog := mustParse(t, "print counter\nvar other := 1")
	a := NewAnalyzer()
	a.Predeclare("counter")
	if diags := a.Analyze(prog); len(diags) != 0 {
		t.Errorf("Analyze with predeclared name = %v", diags)
	}

	a = NewAnalyzer()
	a.Predeclare("other")
	diags := a.Analyze(mustParse(t, "var other := 2"))
	if len(diags) != 1 || !strings.Contains(diags[0].Message, "already declared") {
		t.Errorf("redeclaring predeclared name = %v", diags)
	}
}

func TestSemanticSymbols(t *testing.T) {
	a := NewAnalyzer()
	a.Analyze(mustParse(t, "var total := 0\nfor i in 1..3 loop total := total + i end\nvar f := func(x) => x"))

	want := []struct {
		name string
		kind SymbolKind
	}{
		{"total", SymbolVariable},
		{"i", SymbolLoopVar},
		{"f", SymbolVariable},
		{"x", SymbolParameter},
	}
	syms := a.Symbols()
	if len(syms) != len(want) {
		t.Fatalf("Symbols() = %v, want %d entries", syms, len(want))
	}
	for i, w := range want {
		if syms[i].Name != w.name || syms[i].Kind != w.kind {
			t.Errorf("symbol %d = %s (%v), want %s (%v)", i, syms[i].Name, syms[i].Kind, w.name, w.kind)
		}
	}

	ref, ok := a.Resolve(Position{Offset: 43, Line: 2, Column: 29})
	if !ok || ref.Name != "total" {
		t.Errorf("Resolve(2:29) = %v, %v; want total", ref, ok)
	}
}

func TestDiagnosticString(t *testing.T) {
	tests := []struct {
		d    Diagnostic
		want string
	}{
		{Errorf(Position{Line: 3, Column: 4}, "bad %s", "thing"), "Error at line 3, column 4: bad thing"},
		{Errorf(Position{}, "no place"), "Error: no place"},
		{Infof(Position{Line: 1, Column: 2}, "fyi"), "Info: at line 1, column 2: fyi"},
	}

	for _, tc := range tests {
		if got := tc.d.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}
