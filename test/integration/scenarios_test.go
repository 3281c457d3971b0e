package integration_test

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/chazu/javdin/compiler"
	"github.com/chazu/javdin/compiler/optimize"
	"github.com/chazu/javdin/image"
	"github.com/chazu/javdin/vm"
)

// ---------------------------------------------------------------------------
// Scenario fixtures
// ---------------------------------------------------------------------------

type scenario struct {
	Name   string   `yaml:"name"`
	Source string   `yaml:"source"`
	Output string   `yaml:"output"`
	Errors []string `yaml:"errors"`
	Stage  string   `yaml:"stage"`
}

type scenarioFile struct {
	Scenarios []scenario `yaml:"scenarios"`
}

func loadScenarios(t *testing.T) []scenario {
	t.Helper()
	f, err := os.Open("testdata/scenarios.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)

	var file scenarioFile
	if err := decoder.Decode(&file); err != nil {
		t.Fatalf("decoding scenarios: %v", err)
	}
	if len(file.Scenarios) == 0 {
		t.Fatal("no scenarios found")
	}
	return file.Scenarios
}

// result is what one pipeline run produced.
type result struct {
	output string
	stage  string
	errors []string
}

// runPipeline takes src through parse, analysis, the optional optimizer
// and the interpreter, the same order cmd/javdin uses.
func runPipeline(src string, optimized bool) result {
	prog, err := compiler.Parse(src)
	if err != nil {
		return result{stage: "syntax", errors: []string{compiler.ErrorDiagnostic(err).String()}}
	}

	if diags := compiler.Analyze(prog); compiler.HasErrors(diags) {
		return result{stage: "semantic", errors: errorStrings(diags)}
	}

	if optimized {
		prog, _ = optimize.Optimize(prog)
	}

	var out bytes.Buffer
	diags := vm.New(vm.WithOutput(&out), vm.WithMaxDepth(1000)).Interpret(prog)
	r := result{output: out.String(), errors: errorStrings(diags)}
	if len(r.errors) > 0 {
		r.stage = "runtime"
	}
	return r
}

func errorStrings(diags []compiler.Diagnostic) []string {
	var out []string
	for _, d := range diags {
		if d.IsError() {
			out = append(out, d.String())
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestScenarios(t *testing.T) {
	for _, sc := range loadScenarios(t) {
		sc := sc
		t.Run(sc.Name, func(t *testing.T) {
			plain := runPipeline(sc.Source, false)
			checkResult(t, "unoptimized", sc, plain)

			opt := runPipeline(sc.Source, true)
			checkResult(t, "optimized", sc, opt)

			if plain.output != opt.output {
				t.Errorf("optimizer changed output: %q vs %q", plain.output, opt.output)
			}
		})
	}
}

func checkResult(t *testing.T, mode string, sc scenario, r result) {
	t.Helper()
	if r.output != sc.Output {
		t.Errorf("%s output = %q, want %q", mode, r.output, sc.Output)
	}
	if r.stage != sc.Stage {
		t.Errorf("%s stage = %q, want %q (errors %v)", mode, r.stage, sc.Stage, r.errors)
	}
	if len(r.errors) < len(sc.Errors) {
		t.Errorf("%s errors = %v, want %d matching %v", mode, r.errors, len(sc.Errors), sc.Errors)
		return
	}
	for i, want := range sc.Errors {
		if !strings.Contains(r.errors[i], want) {
			t.Errorf("%s error %d = %q, want it to contain %q", mode, i, r.errors[i], want)
		}
	}
}

// TestScenarioImages runs every passing scenario from a round-tripped
// program image.
func TestScenarioImages(t *testing.T) {
	for _, sc := range loadScenarios(t) {
		if sc.Stage == "syntax" || sc.Stage == "semantic" {
			continue
		}
		sc := sc
		t.Run(sc.Name, func(t *testing.T) {
			prog, err := compiler.Parse(sc.Source)
			if err != nil {
				t.Fatal(err)
			}
			prog, _ = optimize.Optimize(prog)

			data, err := image.Encode(prog, sc.Source)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			img, err := image.Decode(data)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}

			var out bytes.Buffer
			vm.New(vm.WithOutput(&out), vm.WithMaxDepth(1000)).Interpret(img.Program)
			if out.String() != sc.Output {
				t.Errorf("image output = %q, want %q", out.String(), sc.Output)
			}
		})
	}
}
