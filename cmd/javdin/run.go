package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/javdin/compiler"
	"github.com/chazu/javdin/compiler/optimize"
	"github.com/chazu/javdin/image"
	"github.com/chazu/javdin/vm"
)

// compileSource runs the front end and, when enabled, the optimizer. ok is
// false when the program must not run: an error was reported, or strict
// mode saw optimizer notes.
func compileSource(src string, cfg *config) (prog *compiler.Program, diags []compiler.Diagnostic, ok bool) {
	log.Debugf("parsing %d bytes", len(src))
	prog, err := compiler.Parse(src)
	if err != nil {
		return nil, []compiler.Diagnostic{compiler.ErrorDiagnostic(err)}, false
	}

	diags = compiler.Analyze(prog)
	log.Debugf("semantic analysis: %d diagnostics", len(diags))
	if compiler.HasErrors(diags) {
		return prog, diags, false
	}

	if !cfg.optimize {
		return prog, diags, true
	}
	prog, infos := optimize.Optimize(prog)
	log.Debugf("optimizer: %d notes", len(infos))
	diags = append(diags, infos...)
	if cfg.strict && len(infos) > 0 {
		return prog, diags, false
	}
	return prog, diags, true
}

// report writes diagnostics to w. Optimizer notes are shown only when
// asked for, or when strict mode turned them into failures.
func report(w io.Writer, diags []compiler.Diagnostic, cfg *config) {
	for _, d := range diags {
		if !d.IsError() && !cfg.showInfo && !cfg.strict {
			continue
		}
		fmt.Fprintln(w, d)
	}
}

func isImage(path string) bool {
	return strings.EqualFold(filepath.Ext(path), image.Ext)
}

// loadProgram reads a source file through the pipeline. A built image is
// checked again before it runs, since the file may not come from build.
func loadProgram(path string, cfg *config, stderr io.Writer) (*compiler.Program, bool) {
	if isImage(path) {
		f, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return nil, false
		}
		defer f.Close()
		img, err := image.Read(f)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %s: %v\n", path, err)
			return nil, false
		}
		if diags := compiler.Analyze(img.Program); compiler.HasErrors(diags) {
			report(stderr, errorsOnly(diags), cfg)
			return nil, false
		}
		return img.Program, true
	}

	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading file: %v\n", err)
		return nil, false
	}
	prog, diags, ok := compileSource(string(src), cfg)
	report(stderr, diags, cfg)
	return prog, ok
}

func errorsOnly(diags []compiler.Diagnostic) []compiler.Diagnostic {
	var out []compiler.Diagnostic
	for _, d := range diags {
		if d.IsError() {
			out = append(out, d)
		}
	}
	return out
}

func newInterpreter(cfg *config, stdout io.Writer, opts ...vm.Option) *vm.Interpreter {
	opts = append([]vm.Option{vm.WithOutput(stdout), vm.WithMaxDepth(cfg.maxDepth)}, opts...)
	return vm.New(opts...)
}

// runFile executes a program and returns the process exit code.
func runFile(path string, cfg *config, stdout, stderr io.Writer) int {
	prog, ok := loadProgram(path, cfg, stderr)
	if !ok {
		return 1
	}

	log.Debugf("running %s", path)
	diags := newInterpreter(cfg, stdout).Interpret(prog)
	report(stderr, diags, cfg)
	if compiler.HasErrors(diags) {
		return 1
	}
	return 0
}

// checkFile reports every diagnostic without running the program.
func checkFile(path string, cfg *config, stdout io.Writer) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdout, "Error reading file: %v\n", err)
		return 1
	}

	_, diags, ok := compileSource(string(src), cfg)
	for _, d := range diags {
		fmt.Fprintln(stdout, d)
	}
	if !ok {
		return 1
	}
	if len(diags) == 0 {
		fmt.Fprintf(stdout, "%s: ok\n", path)
	}
	return 0
}

// buildFile writes the checked program to an image. The output defaults to
// the project image path, or the source name with the image extension.
func buildFile(path, output string, cfg *config, stderr io.Writer) int {
	if isImage(path) {
		fmt.Fprintf(stderr, "Error: %s is already an image\n", path)
		return 1
	}
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading file: %v\n", err)
		return 1
	}

	prog, diags, ok := compileSource(string(src), cfg)
	report(stderr, diags, cfg)
	if !ok {
		return 1
	}

	if output == "" {
		output = cfg.imagePath
		if output == "" || path != cfg.entry {
			output = strings.TrimSuffix(path, filepath.Ext(path)) + image.Ext
		}
	}
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	f, err := os.Create(output)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if err := image.Write(f, prog, string(src)); err != nil {
		f.Close()
		fmt.Fprintf(stderr, "Error writing image: %v\n", err)
		return 1
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(stderr, "Error writing image: %v\n", err)
		return 1
	}
	log.Infof("wrote %s", output)
	return 0
}

// dumpTokens prints the token stream, one token per line.
func dumpTokens(path string, stdout, stderr io.Writer) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading file: %v\n", err)
		return 1
	}

	code := 0
	for _, tok := range compiler.Tokenize(string(src)) {
		fmt.Fprintf(stdout, "%d:%d\t%s\n", tok.Pos.Line, tok.Pos.Column, tok)
		if tok.Type == compiler.TokenError {
			code = 1
		}
	}
	return code
}
