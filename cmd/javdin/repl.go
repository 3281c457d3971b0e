package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"

	"github.com/chazu/javdin/compiler"
	"github.com/chazu/javdin/compiler/optimize"
	"github.com/chazu/javdin/vm"
)

const (
	historyFile = ".javdin_history"
	promptMain  = ">> "
	promptCont  = ".. "
)

// replSession evaluates successive inputs against one interpreter, so
// declarations persist between entries.
type replSession struct {
	cfg    *config
	interp *vm.Interpreter
	stdout io.Writer
	stderr io.Writer
}

func newREPLSession(cfg *config, stdout, stderr io.Writer) *replSession {
	s := &replSession{cfg: cfg, stdout: stdout, stderr: stderr}
	s.interp = newInterpreter(cfg, stdout, vm.WithEcho(s.echo))
	return s
}

// echo shows the value of a bare expression entry.
func (s *replSession) echo(v vm.Value) {
	if v.Kind() == vm.KindVoid {
		return
	}
	fmt.Fprintln(s.stdout, vm.FormatValues([]vm.Value{v}))
}

// eval runs one complete entry. Names declared by earlier entries are
// visible to the analyzer, and unused declarations are kept because a
// later entry may use them.
func (s *replSession) eval(src string) {
	prog, err := compiler.Parse(src)
	if err != nil {
		fmt.Fprintln(s.stderr, compiler.ErrorDiagnostic(err))
		return
	}

	checker := compiler.NewAnalyzer()
	checker.Predeclare(s.interp.Globals().Names()...)
	diags := checker.Analyze(prog)
	if compiler.HasErrors(diags) {
		report(s.stderr, diags, s.cfg)
		return
	}

	if s.cfg.optimize {
		var infos []compiler.Diagnostic
		prog, infos = optimize.New(optimize.KeepUnused()).Optimize(prog)
		report(s.stderr, infos, s.cfg)
		if s.cfg.strict && len(infos) > 0 {
			return
		}
	}

	report(s.stderr, s.interp.Interpret(prog), s.cfg)
}

// command handles a REPL meta-command. It returns true when the session
// should end.
func (s *replSession) command(cmd string) bool {
	switch strings.ToLower(strings.TrimSpace(cmd)) {
	case ":help", ":h", ":?":
		fmt.Fprintln(s.stdout, "REPL Commands:")
		fmt.Fprintln(s.stdout, "  :help, :h, :?     Show this help")
		fmt.Fprintln(s.stdout, "  :globals          List declared variables")
		fmt.Fprintln(s.stdout, "  :reset            Forget all declarations")
		fmt.Fprintln(s.stdout, "  :quit, exit       Exit REPL")
	case ":globals":
		names := s.interp.Globals().Names()
		sort.Strings(names)
		for _, name := range names {
			v, _ := s.interp.Globals().Lookup(name)
			fmt.Fprintf(s.stdout, "%s = %s\n", name, vm.FormatValues([]vm.Value{v}))
		}
	case ":reset":
		s.interp = newInterpreter(s.cfg, s.stdout, vm.WithEcho(s.echo))
		fmt.Fprintln(s.stdout, "Session reset")
	case ":quit", ":q":
		return true
	default:
		fmt.Fprintf(s.stdout, "Unknown command: %s (type :help for commands)\n", cmd)
	}
	return false
}

// runREPL starts an interactive read-eval-print loop.
func runREPL(cfg *config, stdout, stderr io.Writer) int {
	fmt.Fprintf(stdout, "Javdin %s REPL (type 'exit' to quit, ':help' for commands)\n", version)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	var histPath string
	if home, err := os.UserHomeDir(); err == nil {
		histPath = filepath.Join(home, historyFile)
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}
	defer func() {
		if histPath == "" {
			return
		}
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	s := newREPLSession(cfg, stdout, stderr)
	ln.SetCompleter(func(line string) []string {
		return completeLine(line, s.interp.Globals().Names())
	})

	for {
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Fprintln(stdout)
			break
		}

		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if trimmed == "exit" || trimmed == "quit" {
			break
		}
		if strings.HasPrefix(trimmed, ":") {
			if s.command(trimmed) {
				break
			}
			continue
		}

		s.eval(code)
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}
	return 0
}

// readByParseProbe reads lines until they parse, or fail for a reason
// other than running out of input.
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		p := prompt
		if b.Len() > 0 {
			p = cont
		}
		line, err := ln.Prompt(p)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if !needsMore(src) {
			return src, true
		}
	}
}

// needsMore reports whether src is an unfinished entry.
func needsMore(src string) bool {
	if strings.HasPrefix(strings.TrimSpace(src), ":") {
		return false
	}
	_, err := compiler.Parse(src)
	return err != nil && compiler.IsIncomplete(err)
}

// completeLine completes the identifier at the end of line from the
// declared names and the keywords.
func completeLine(line string, names []string) []string {
	start := len(line)
	for start > 0 && isIdentByte(line[start-1]) {
		start--
	}
	prefix := line[start:]
	if prefix == "" {
		return nil
	}

	var out []string
	candidates := append(append([]string{}, names...), compiler.Keywords()...)
	sort.Strings(candidates)
	for _, c := range candidates {
		if strings.HasPrefix(c, prefix) {
			out = append(out, line[:start]+c)
		}
	}
	return out
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
