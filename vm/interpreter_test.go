package vm

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/chazu/javdin/compiler"
)

func run(t *testing.T, src string, opts ...Option) (string, []compiler.Diagnostic) {
	t.Helper()
	prog, err := compiler.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	var out bytes.Buffer
	in := New(append([]Option{WithOutput(&out)}, opts...)...)
	diags := in.Interpret(prog)
	return out.String(), diags
}

func expectOutput(t *testing.T, src, want string) {
	t.Helper()
	got, diags := run(t, src)
	if len(diags) != 0 {
		t.Fatalf("Interpret(%q): unexpected diagnostics %v", src, diags)
	}
	if got != want {
		t.Errorf("Interpret(%q) output = %q, want %q", src, got, want)
	}
}

func TestInterpretPrograms(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"arithmetic", "print 1 + 2 * 3", "7\n"},
		{"promotion", "print 1 + 2.5, 2 * 1.5", "3.5 3.0\n"},
		{"floor division", "print 7 / 2, -7 / 2, 7 / -2", "3 -4 -4\n"},
		{"real division", "print 7 / 2.0", "3.5\n"},
		{"string concat", "print \"a\" + 'b'", "ab\n"},
		{"array concat", "print [1, 2] + [3]", "[1, 2, 3]\n"},
		{"tuple concat", "print {a := 1} + {2}", "{a:=1, 2}\n"},
		{"comparison", "print 1 < 2, 2.0 >= 3, 1 = 1.0, 1 /= 2", "true false true true\n"},
		{"logic", "print true and false, true or false, true xor true, not false", "false true false true\n"},
		{"none", "var x\nprint x", "none\n"},
		{"multi declaration", "var a := 1, b := a + 1\nprint a, b", "1 2\n"},
		{"assignment", "var x := 1\nx := x + 1\nprint x", "2\n"},
		{"if else", "if 1 > 2 then print 1 else print 2 end", "2\n"},
		{"short if", "if true => print \"yes\"", "yes\n"},
		{"truthiness", "if 0 then print 1 else print 0 end\nif \"s\" then print 2 end\nif [] then print 3 end", "0\n2\n"},
		{"while", "var i := 0\nwhile i < 3 loop i := i + 1 end\nprint i", "3\n"},
		{"range", "for i in 1..3 loop print i end", "1\n2\n3\n"},
		{"descending range", "var t := 0\nfor i in 3..1 loop t := t + i end\nprint t", "6\n"},
		{"anonymous range", "var n := 0\nfor 1..4 loop n := n + 1 end\nprint n", "4\n"},
		{"array iteration", "for x in [10, 20] loop print x end", "10\n20\n"},
		{"tuple iteration", "for x in {a := 1, 2} loop print x end", "1\n2\n"},
		{"break", "var i := 0\nloop i := i + 1\nif i = 3 => exit end\nprint i", "3\n"},
		{"continue", "for i in 1..4 loop if i = 2 => continue\nprint i end", "1\n3\n4\n"},
		{"expression function", "var sq := func(x) => x * x\nprint sq(4)", "16\n"},
		{"statement function", "var max := func(a, b) is if a > b then return a end\nreturn b end\nprint max(3, 9)", "9\n"},
		{"function without return", "var f := func() is var x := 1 end\nprint f()", "none\n"},
		{"recursion", "var fact := func(n) is if n <= 1 then return 1 end\nreturn n * fact(n - 1) end\nprint fact(10)", "3628800\n"},
		{"return from nested loop", "var f := func() is for i in 1..10 loop while true loop return i end end end\nprint f()", "1\n"},
		{"closure counter", "var mk := func() is var c := 0\nreturn func() is c := c + 1\nreturn c end end\nvar next := mk()\nnext()\nprint next()", "2\n"},
		{"lexical scope", "var x := 1\nvar f := func() => x\nvar g := func() is var x := 2\nreturn f() end\nprint g()", "1\n"},
		{"shadowing", "var x := 1\nif true then var x := 2\nprint x end\nprint x", "2\n1\n"},
		{"array read past end", "var a := [1]\nprint a[5]", "none\n"},
		{"array growth", "var a := [1]\na[4] := 4\nprint a", "[1, none, none, 4]\n"},
		{"tuple members", "var t := {a := 1, b := 2}\nt.b := 5\nprint t.a, t.2, t[2]", "1 5 5\n"},
		{"tuple last name wins", "var t := {a := 1, a := 2}\nprint t.a", "2\n"},
		{"nested tuple", "var t := {p := {x := 3}}\nprint t.p.x", "3\n"},
		{"type check", "print 1 is int, 1.5 is real, \"s\" is string, none is none, [] is [], {} is {}, true is bool", "true true true true true true true\n"},
		{"func type", "var f := func() => 1\nprint f is func, f", "true func()\n"},
		{"equality structural", "print [1, [2]] = [1, [2.0]], {a := 1} = {b := 1}", "true false\n"},
		{"nested mismatch unequal", "print [1] = [\"1\"]", "false\n"},
		{"real format", "print 10000000.0, 0.5", "1.0E7 0.5\n"},
		{"self reference", "var f := func(n) => n\nprint f(f(2))", "2\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			expectOutput(t, tc.src, tc.want)
		})
	}
}

func TestLoopVariableCapture(t *testing.T) {
	src := "var fs := []\nfor i in 1..3 loop fs[i] := func() => i end\nprint fs[1](), fs[2](), fs[3]()"
	expectOutput(t, src, "1 2 3\n")
}

func TestIterationSnapshot(t *testing.T) {
	src := "var a := [1, 2]\nvar n := 0\nfor x in a loop a[n + 3] := x\nn := n + 1 end\nprint n, a"
	expectOutput(t, src, "2 [1, 2, 1, 2]\n")
}

func TestAliasedArrays(t *testing.T) {
	src := "var a := [1]\nvar b := a\nb[1] := 9\nprint a"
	expectOutput(t, src, "[9]\n")
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		src string
		msg string
	}{
		{"print 1 / 0", "Division by zero"},
		{"print 1.0 / 0", "Division by zero"},
		{"print 1 + true", "Unsupported operand types for '+': integer and boolean"},
		{"print \"a\" < \"b\"", "Unsupported operand types for '<': string and string"},
		{"print 1 and true", "Expected boolean value for 'and', got integer"},
		{"print not 1", "Expected boolean value for 'not', got integer"},
		{"print 1 = \"1\"", "Cannot compare integer and string with '='"},
		{"var a := [1]\nprint a[0]", "Array index out of bounds: 0 (indices must be >= 1)"},
		{"var t := {a := 1}\nprint t.b", "Tuple has no member named 'b'"},
		{"var t := {a := 1}\nt.b := 2", "Tuple has no member named 'b'"},
		{"var t := {1}\nprint t.3", "Tuple index out of bounds: 3"},
		{"var f := func(x) => x\nprint f()", "Function expects 1 arguments, got 0"},
		{"var x := 1\nprint x()", "Cannot call integer"},
		{"var x := 1\nprint x[1]", "Cannot index into integer"},
		{"for x in 5 loop end", "Cannot iterate over integer"},
		{"for i in 1..2.5 loop end", "Range bounds must be integers, got real"},
		{"print undefined", "Undefined variable 'undefined'"},
		{"y := 1", "Undefined variable 'y'"},
	}

	for _, tc := range tests {
		_, diags := run(t, tc.src)
		if len(diags) != 1 {
			t.Errorf("Interpret(%q): got %d diagnostics %v, want 1", tc.src, len(diags), diags)
			continue
		}
		if diags[0].Message != tc.msg {
			t.Errorf("Interpret(%q) = %q, want %q", tc.src, diags[0].Message, tc.msg)
		}
		if diags[0].Severity != compiler.SeverityError {
			t.Errorf("Interpret(%q) severity = %v, want error", tc.src, diags[0].Severity)
		}
	}
}

func TestRuntimeErrorIsLocated(t *testing.T) {
	_, diags := run(t, "var x := 1\nprint x / 0")
	if len(diags) != 1 {
		t.Fatalf("got %v", diags)
	}
	if diags[0].Pos.Line != 2 {
		t.Errorf("error line = %d, want 2", diags[0].Pos.Line)
	}
}

func TestRuntimeErrorContinuesWithNextStatement(t *testing.T) {
	out, diags := run(t, "print 1\nprint 1 / 0, 5\nprint 3")
	if out != "1\n3\n" {
		t.Errorf("output = %q, want %q", out, "1\n3\n")
	}
	if len(diags) != 1 {
		t.Errorf("got %d diagnostics, want 1", len(diags))
	}
}

func TestSelfReferentialArray(t *testing.T) {
	out, diags := run(t, "var a := [1]\na[1] := a\nprint a = a\nprint a\nprint 7")
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if want := "true\n[[...]]\n7\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestStackOverflow(t *testing.T) {
	src := "var f := func(n) => f(n + 1)\nf(1)\nprint \"after\""
	out, diags := run(t, src, WithMaxDepth(50))
	if len(diags) != 1 {
		t.Fatalf("got %v, want one diagnostic", diags)
	}
	if !strings.Contains(diags[0].Message, "stack overflow: maximum call depth 50 exceeded") {
		t.Errorf("message = %q", diags[0].Message)
	}
	if out != "after\n" {
		t.Errorf("output = %q, want %q", out, "after\n")
	}
}

func TestStackOverflowIsDistinguishable(t *testing.T) {
	prog, err := compiler.Parse("var f := func() => f()\nf()")
	if err != nil {
		t.Fatal(err)
	}
	in := New(WithOutput(&bytes.Buffer{}), WithMaxDepth(10))
	if err := in.runTopLevel(prog.Statements[0]); err != nil {
		t.Fatal(err)
	}
	err = in.runTopLevel(prog.Statements[1])
	if !errors.Is(err, ErrStackOverflow) {
		t.Errorf("err = %v, want ErrStackOverflow", err)
	}
}

func TestDeepRecursionWithinLimit(t *testing.T) {
	src := "var sum := func(n) is if n = 0 then return 0 end\nreturn n + sum(n - 1) end\nprint sum(2000)"
	expectOutput(t, src, "2001000\n")
}

func TestGlobalsPersistAcrossRuns(t *testing.T) {
	var out bytes.Buffer
	in := New(WithOutput(&out))
	for _, src := range []string{"var x := 40", "x := x + 2", "print x"} {
		prog, err := compiler.Parse(src)
		if err != nil {
			t.Fatal(err)
		}
		if diags := in.Interpret(prog); len(diags) != 0 {
			t.Fatalf("Interpret(%q): %v", src, diags)
		}
	}
	if out.String() != "42\n" {
		t.Errorf("output = %q, want %q", out.String(), "42\n")
	}
	if v, ok := in.Globals().Lookup("x"); !ok || v != Integer(42) {
		t.Errorf("Globals x = %v, %v", v, ok)
	}
}

func TestEcho(t *testing.T) {
	var echoed []string
	prog, err := compiler.Parse("1 + 1\nvar x := 3\nx")
	if err != nil {
		t.Fatal(err)
	}
	in := New(WithOutput(&bytes.Buffer{}), WithEcho(func(v Value) {
		echoed = append(echoed, v.String())
	}))
	if diags := in.Interpret(prog); len(diags) != 0 {
		t.Fatal(diags)
	}
	if strings.Join(echoed, ",") != "2,3" {
		t.Errorf("echoed = %v, want [2 3]", echoed)
	}
}
