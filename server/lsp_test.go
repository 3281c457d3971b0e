package server

import (
	"strings"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/chazu/javdin/compiler"
)

// ---------------------------------------------------------------------------
// LSP text extraction helpers
// ---------------------------------------------------------------------------

func TestExtractPrefix(t *testing.T) {
	tests := []struct {
		text string
		pos  protocol.Position
		want string
	}{
		{"print count", protocol.Position{Line: 0, Character: 11}, "count"},
		{"whi", protocol.Position{Line: 0, Character: 3}, "whi"},
		{"", protocol.Position{Line: 0, Character: 0}, ""},
		{"var a := 1\nvar b := 2\nprint my_v", protocol.Position{Line: 2, Character: 10}, "my_v"},
		{"x := total", protocol.Position{Line: 0, Character: 7}, "to"},
		{"t.name", protocol.Position{Line: 0, Character: 6}, "name"},
		{"hello", protocol.Position{Line: 0, Character: 0}, ""},
		{"single line", protocol.Position{Line: 5, Character: 0}, ""},
	}

	for _, tc := range tests {
		if got := extractPrefix(tc.text, tc.pos); got != tc.want {
			t.Errorf("extractPrefix(%q, %v) = %q, want %q", tc.text, tc.pos, got, tc.want)
		}
	}
}

func TestExtractWord(t *testing.T) {
	tests := []struct {
		text string
		pos  protocol.Position
		want string
	}{
		{"hello world", protocol.Position{Line: 0, Character: 3}, "hello"},
		{"hello world", protocol.Position{Line: 0, Character: 5}, "hello"},
		{"hello world", protocol.Position{Line: 0, Character: 8}, "world"},
		{"", protocol.Position{Line: 0, Character: 0}, ""},
		{"first\nsecond_one", protocol.Position{Line: 1, Character: 2}, "second_one"},
		{"a + b", protocol.Position{Line: 0, Character: 2}, ""},
		{"x", protocol.Position{Line: 3, Character: 0}, ""},
		{"f(arg)", protocol.Position{Line: 0, Character: 40}, ""},
	}

	for _, tc := range tests {
		if got := extractWord(tc.text, tc.pos); got != tc.want {
			t.Errorf("extractWord(%q, %v) = %q, want %q", tc.text, tc.pos, got, tc.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Analysis
// ---------------------------------------------------------------------------

const doc = "var total := 0\nfor i in 1..3 loop total := total + i end\nprint total"

func mustAnalyze(t *testing.T, text string) *Analysis {
	t.Helper()
	a, _ := newStore().update("file:///doc.d", text)
	return a
}

func TestAnalysisDiagnostics(t *testing.T) {
	tests := []struct {
		text     string
		severity compiler.Severity
		msg      string
	}{
		{"print 1 +", compiler.SeverityError, "unexpected"},
		{"print \"open", compiler.SeverityError, "Unterminated string literal"},
		{"print y", compiler.SeverityError, "Variable 'y' is not declared"},
		{"var unused := 1\nprint 2", compiler.SeverityInfo, "Unused variable removal: 'unused'"},
	}

	for _, tc := range tests {
		a := mustAnalyze(t, tc.text)
		found := false
		for _, d := range a.Diagnostics {
			if d.Severity == tc.severity && strings.Contains(d.Message, tc.msg) {
				found = true
			}
		}
		if !found {
			t.Errorf("analysis of %q = %v, want %v containing %q", tc.text, a.Diagnostics, tc.severity, tc.msg)
		}
	}
}

func TestNoOptimizerNotesWithErrors(t *testing.T) {
	a := mustAnalyze(t, "var unused := 1\nprint y")
	for _, d := range a.Diagnostics {
		if d.Severity == compiler.SeverityInfo {
			t.Errorf("unexpected info %v alongside errors", d)
		}
	}
}

func TestSymbolAtAndUses(t *testing.T) {
	a := mustAnalyze(t, doc)

	// "total" in "print total", line 3 column 7
	sym, ok := a.SymbolAt(3, 8)
	if !ok {
		t.Fatal("SymbolAt(3, 8) found nothing")
	}
	if sym.Name != "total" || sym.Pos.Line != 1 {
		t.Errorf("SymbolAt = %+v, want total declared on line 1", sym)
	}

	// Declaration name itself.
	decl, ok := a.SymbolAt(1, 6)
	if !ok || decl != sym {
		t.Errorf("SymbolAt(1, 6) = %+v, %v; want %+v", decl, ok, sym)
	}

	// total := total + i, plus print total
	if uses := a.Uses(sym); len(uses) != 3 {
		t.Errorf("Uses(total) = %d references, want 3", len(uses))
	}

	if _, ok := a.SymbolAt(2, 16); ok {
		t.Error("SymbolAt on keyword found a symbol")
	}
}

func TestStoreReusesUnchangedTree(t *testing.T) {
	s := newStore()
	first, reused := s.update("u", doc)
	if reused {
		t.Error("first update reported reuse")
	}
	second, reused := s.update("u", doc)
	if !reused || second != first {
		t.Error("identical text was analyzed again")
	}
	third, reused := s.update("u", doc+"\nprint 1")
	if reused || third == first {
		t.Error("changed text reused the previous analysis")
	}
}

// ---------------------------------------------------------------------------
// Features
// ---------------------------------------------------------------------------

func labels(items []protocol.CompletionItem) []string {
	var out []string
	for _, it := range items {
		out = append(out, it.Label)
	}
	return out
}

func TestCompleteSymbolsAndKeywords(t *testing.T) {
	a := mustAnalyze(t, "var total := 1\nvar tally := 2\nprint total, tally")

	got := labels(complete(a, "t"))
	want := []string{"total", "tally", "then", "true", "tuple"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("complete(t) = %v, want %v", got, want)
	}

	if got := labels(complete(nil, "whi")); len(got) != 1 || got[0] != "while" {
		t.Errorf("complete(whi) without analysis = %v, want [while]", got)
	}
}

func TestHover(t *testing.T) {
	a := mustAnalyze(t, doc)

	h := hover(a, "total", protocol.Position{Line: 2, Character: 7})
	if h == nil {
		t.Fatal("hover on reference returned nil")
	}
	content := h.Contents.(protocol.MarkupContent).Value
	if !strings.Contains(content, "**total** variable") || !strings.Contains(content, "line 1, column 5") {
		t.Errorf("hover = %q", content)
	}

	h = hover(a, "loop", protocol.Position{Line: 1, Character: 15})
	if h == nil || !strings.Contains(h.Contents.(protocol.MarkupContent).Value, "keyword") {
		t.Errorf("hover on keyword = %v", h)
	}

	if h := hover(a, "nothing", protocol.Position{Line: 0, Character: 0}); h != nil {
		t.Errorf("hover on unknown word = %v, want nil", h)
	}
}

func TestToProtocolDiagnostics(t *testing.T) {
	diags := []compiler.Diagnostic{
		compiler.Errorf(compiler.Position{Line: 2, Column: 5}, "bad"),
		compiler.Infof(compiler.Position{Line: 1, Column: 1}, "note"),
		{Severity: compiler.SeverityError, Message: "unlocated"},
	}

	got := toProtocolDiagnostics(diags)
	if len(got) != 3 {
		t.Fatalf("got %d diagnostics, want 3", len(got))
	}
	if got[0].Range.Start.Line != 1 || got[0].Range.Start.Character != 4 {
		t.Errorf("range = %+v, want 1:4", got[0].Range.Start)
	}
	if *got[0].Severity != protocol.DiagnosticSeverityError {
		t.Errorf("severity = %v, want error", *got[0].Severity)
	}
	if *got[1].Severity != protocol.DiagnosticSeverityInformation {
		t.Errorf("severity = %v, want information", *got[1].Severity)
	}
	if got[2].Range.Start.Line != 0 || got[2].Range.Start.Character != 0 {
		t.Errorf("unlocated range = %+v, want 0:0", got[2].Range.Start)
	}
}

func TestWorker(t *testing.T) {
	w := NewWorker()
	defer w.Stop()

	a, err := w.Update("file:///a.d", "print 1")
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Diagnostics) != 0 {
		t.Errorf("diagnostics = %v", a.Diagnostics)
	}
	if got := w.Analysis("file:///a.d"); got != a {
		t.Error("Analysis did not return the stored result")
	}
	w.Forget("file:///a.d")
	if got := w.Analysis("file:///a.d"); got != nil {
		t.Error("Analysis after Forget is not nil")
	}

	_, err = w.Do(func(*store) interface{} { panic("boom") })
	if err == nil || err.Error() != "boom" {
		t.Errorf("panic error = %v, want boom", err)
	}
}

func TestWorkerStopped(t *testing.T) {
	w := NewWorker()
	w.Stop()
	w.Stop()
	if _, err := w.Do(func(*store) interface{} { return nil }); err == nil {
		t.Error("Do on stopped worker succeeded")
	}
}
