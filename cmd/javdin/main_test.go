package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/javdin/compiler"
	"github.com/chazu/javdin/image"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// writeSource writes a source file into dir and returns its path.
func writeSource(t *testing.T, dir, name, source string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(source), 0644); err != nil {
		t.Fatalf("writing %s: %v", p, err)
	}
	return p
}

func defaultConfig() *config {
	return &config{optimize: true, maxDepth: 10000}
}

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(t.TempDir(), newCLIFlags())
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.optimize || cfg.strict || cfg.showInfo || cfg.maxDepth != 10000 {
		t.Errorf("config = %+v, want defaults", cfg)
	}
	if cfg.entry != "" {
		t.Errorf("entry = %q without a project file", cfg.entry)
	}
}

func TestLoadConfig_ManifestEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "javdin.toml", `
[source]
entry = "app.d"

[run]
optimize = false
max-depth = 300
show-info = true
`)
	t.Setenv("JAVDIN_STRICT", "true")
	t.Setenv("JAVDIN_MAX_DEPTH", "400")

	flags := newCLIFlags()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	flags.register(fs)
	if err := fs.Parse([]string{"-max-depth", "500", "-v", "-v"}); err != nil {
		t.Fatal(err)
	}
	flags.collect(fs)

	cfg, err := loadConfig(dir, flags)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.optimize {
		t.Error("optimize = true, want false from javdin.toml")
	}
	if !cfg.showInfo {
		t.Error("show-info = false, want true from javdin.toml")
	}
	if !cfg.strict {
		t.Error("strict = false, want true from environment")
	}
	if cfg.maxDepth != 500 {
		t.Errorf("max-depth = %d, want 500 from flags", cfg.maxDepth)
	}
	if cfg.verbosity != 2 {
		t.Errorf("verbosity = %d, want 2", cfg.verbosity)
	}
	if filepath.Base(cfg.entry) != "app.d" || filepath.Base(cfg.imagePath) != "app.jdi" {
		t.Errorf("entry/image = %q/%q", cfg.entry, cfg.imagePath)
	}
}

func TestLoadConfig_CommandFlagsKeepGlobalValues(t *testing.T) {
	flags := newCLIFlags()
	global := flag.NewFlagSet("javdin", flag.ContinueOnError)
	flags.register(global)
	if err := global.Parse([]string{"-O=false", "run", "x.d"}); err != nil {
		t.Fatal(err)
	}
	flags.collect(global)

	cmd := flag.NewFlagSet("run", flag.ContinueOnError)
	flags.register(cmd)
	if err := cmd.Parse([]string{"-strict", "x.d"}); err != nil {
		t.Fatal(err)
	}
	flags.collect(cmd)

	cfg, err := loadConfig(t.TempDir(), flags)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.optimize || !cfg.strict {
		t.Errorf("optimize/strict = %v/%v, want false/true", cfg.optimize, cfg.strict)
	}
}

func TestLoadConfig_RejectsBadDepth(t *testing.T) {
	flags := newCLIFlags()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	flags.register(fs)
	if err := fs.Parse([]string{"-max-depth=0"}); err != nil {
		t.Fatal(err)
	}
	flags.collect(fs)
	if _, err := loadConfig(t.TempDir(), flags); err == nil {
		t.Error("loadConfig accepted max-depth 0")
	}
}

func TestVerbosityFlag(t *testing.T) {
	var v verbosityFlag
	for _, s := range []string{"true", "true"} {
		if err := v.Set(s); err != nil {
			t.Fatal(err)
		}
	}
	if v != 2 {
		t.Errorf("after two -v, verbosity = %d, want 2", v)
	}
	if err := v.Set("4"); err != nil || v != 4 {
		t.Errorf("Set(4) = %v, verbosity %d", err, v)
	}
	if err := v.Set("loud"); err == nil {
		t.Error("Set(loud) succeeded")
	}
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "main.d", "var x := 2 + 3\nprint \"x =\", x")

	var stdout, stderr bytes.Buffer
	if code := runFile(path, defaultConfig(), &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, stderr %q", code, stderr.String())
	}
	if got := stdout.String(); got != "x = 5\n" {
		t.Errorf("output = %q, want %q", got, "x = 5\n")
	}
	if stderr.Len() != 0 {
		t.Errorf("stderr = %q, want empty", stderr.String())
	}
}

func TestRunFile_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		output string
		errMsg string
	}{
		{"syntax", "print 1 +", "", "Error at line 1"},
		{"semantic", "print y", "", "Variable 'y' is not declared"},
		{"runtime", "print 1\nprint 1 / 0\nprint 2", "1\n2\n", "Division by zero"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeSource(t, t.TempDir(), "bad.d", tc.source)
			var stdout, stderr bytes.Buffer
			if code := runFile(path, defaultConfig(), &stdout, &stderr); code != 1 {
				t.Errorf("exit code = %d, want 1", code)
			}
			if stdout.String() != tc.output {
				t.Errorf("output = %q, want %q", stdout.String(), tc.output)
			}
			if !strings.Contains(stderr.String(), tc.errMsg) {
				t.Errorf("stderr = %q, want it to contain %q", stderr.String(), tc.errMsg)
			}
		})
	}
}

func TestRunFile_Missing(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := runFile(filepath.Join(t.TempDir(), "none.d"), defaultConfig(), &stdout, &stderr); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "Error reading file") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunFile_InfoAndStrict(t *testing.T) {
	src := "var unused := 1\nprint 2 * 3"
	path := writeSource(t, t.TempDir(), "main.d", src)

	cfg := defaultConfig()
	cfg.showInfo = true
	var stdout, stderr bytes.Buffer
	if code := runFile(path, cfg, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if stdout.String() != "6\n" {
		t.Errorf("output = %q, want 6", stdout.String())
	}
	if !strings.Contains(stderr.String(), "Unused variable removal: 'unused'") {
		t.Errorf("stderr = %q, want optimizer notes", stderr.String())
	}

	cfg = defaultConfig()
	cfg.strict = true
	stdout.Reset()
	stderr.Reset()
	if code := runFile(path, cfg, &stdout, &stderr); code != 1 {
		t.Errorf("strict exit code = %d, want 1", code)
	}
	if stdout.Len() != 0 {
		t.Errorf("strict run printed %q", stdout.String())
	}

	cfg = defaultConfig()
	cfg.optimize = false
	cfg.strict = true
	stdout.Reset()
	stderr.Reset()
	if code := runFile(path, cfg, &stdout, &stderr); code != 0 || stdout.String() != "6\n" {
		t.Errorf("unoptimized strict run = %d %q", code, stdout.String())
	}
}

func TestRunFile_MaxDepth(t *testing.T) {
	src := "var f := func(n) is return f(n + 1) end\nprint f(0)"
	path := writeSource(t, t.TempDir(), "deep.d", src)

	cfg := defaultConfig()
	cfg.maxDepth = 20
	var stdout, stderr bytes.Buffer
	if code := runFile(path, cfg, &stdout, &stderr); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "maximum call depth 20 exceeded") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()

	ok := writeSource(t, dir, "ok.d", "print 1")
	var out bytes.Buffer
	if code := checkFile(ok, defaultConfig(), &out); code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if !strings.HasSuffix(out.String(), "ok.d: ok\n") {
		t.Errorf("output = %q", out.String())
	}

	notes := writeSource(t, dir, "notes.d", "if true then print 1 else print 2 end")
	out.Reset()
	if code := checkFile(notes, defaultConfig(), &out); code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if !strings.Contains(out.String(), "Dead branch elimination") {
		t.Errorf("output = %q, want optimizer notes", out.String())
	}

	bad := writeSource(t, dir, "bad.d", "return 1")
	out.Reset()
	if code := checkFile(bad, defaultConfig(), &out); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(out.String(), "Error at line 1, column 1") {
		t.Errorf("output = %q", out.String())
	}
}

func TestBuildAndRunImage(t *testing.T) {
	dir := t.TempDir()
	src := "var sq := func(x) => x * x\nfor i in 1..3 loop print sq(i) end"
	path := writeSource(t, dir, "squares.d", src)

	var stderr bytes.Buffer
	if code := buildFile(path, "", defaultConfig(), &stderr); code != 0 {
		t.Fatalf("build exit code = %d, stderr %q", code, stderr.String())
	}
	out := filepath.Join(dir, "squares"+image.Ext)
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("image not written: %v", err)
	}

	var stdout bytes.Buffer
	if code := runFile(out, defaultConfig(), &stdout, &stderr); code != 0 {
		t.Fatalf("run image exit code = %d, stderr %q", code, stderr.String())
	}
	if stdout.String() != "1\n4\n9\n" {
		t.Errorf("image output = %q, want 1 4 9", stdout.String())
	}
}

func TestBuildFile_Output(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "main.d", "print 1")
	out := filepath.Join(dir, "build", "app.jdi")

	var stderr bytes.Buffer
	if code := buildFile(path, out, defaultConfig(), &stderr); code != 0 {
		t.Fatalf("exit code = %d, stderr %q", code, stderr.String())
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	img, err := image.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if img.Source != "print 1" {
		t.Errorf("image source = %q", img.Source)
	}
}

func TestBuildFile_RefusesBrokenProgram(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "bad.d", "print nope")
	var stderr bytes.Buffer
	if code := buildFile(path, "", defaultConfig(), &stderr); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if _, err := os.Stat(filepath.Join(dir, "bad.jdi")); !os.IsNotExist(err) {
		t.Error("image written for a program with errors")
	}
}

func TestRunFile_CorruptImage(t *testing.T) {
	path := writeSource(t, t.TempDir(), "junk.jdi", "not an image")
	var stdout, stderr bytes.Buffer
	if code := runFile(path, defaultConfig(), &stdout, &stderr); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "junk.jdi") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunFile_ImageFailsAnalysis(t *testing.T) {
	src := "print 1\nexit"
	prog, err := compiler.Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	data, err := image.Encode(prog, src)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "crafted.jdi")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	if code := runFile(path, defaultConfig(), &stdout, &stderr); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want nothing run", stdout.String())
	}
	if !strings.Contains(stderr.String(), "exit statement outside loop") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestDumpTokens(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "t.d", "var x := 1")

	var stdout, stderr bytes.Buffer
	if code := dumpTokens(path, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d token lines, want 5: %q", len(lines), stdout.String())
	}
	if !strings.HasPrefix(lines[0], "1:1\t") || !strings.HasPrefix(lines[1], "1:5\t") {
		t.Errorf("token positions = %q", lines[:2])
	}
	if !strings.HasSuffix(lines[4], "EOF") {
		t.Errorf("last token = %q, want EOF", lines[4])
	}

	bad := writeSource(t, dir, "bad.d", "print \"open")
	stdout.Reset()
	if code := dumpTokens(bad, &stdout, &stderr); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stdout.String(), "ERROR") {
		t.Errorf("output = %q, want an error token", stdout.String())
	}
}
