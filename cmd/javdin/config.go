package main

import (
	"flag"
	"fmt"
	"strconv"

	"github.com/chazu/javdin/manifest"
	"github.com/chazu/javdin/vm"
)

// config is the resolved run configuration: javdin.toml, then the
// environment, then command-line flags.
type config struct {
	entry     string
	imagePath string
	optimize  bool
	strict    bool
	showInfo  bool
	maxDepth  int
	verbosity int
	logFile   string
}

// verbosityFlag counts repeated -v flags, or takes an explicit level
// with -v=N.
type verbosityFlag int

func (v *verbosityFlag) String() string { return strconv.Itoa(int(*v)) }

func (v *verbosityFlag) Set(s string) error {
	if s == "true" {
		*v++
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid verbosity %q", s)
	}
	*v = verbosityFlag(n)
	return nil
}

func (v *verbosityFlag) IsBoolFlag() bool { return true }

// cliFlags holds the options shared by every command. Only flags given
// explicitly override the project and environment settings.
type cliFlags struct {
	optimize  bool
	strict    bool
	info      bool
	maxDepth  int
	verbosity verbosityFlag
	output    string
	set       map[string]bool
}

func newCLIFlags() *cliFlags {
	return &cliFlags{
		optimize: true,
		maxDepth: vm.DefaultMaxDepth,
		set:      make(map[string]bool),
	}
}

// register defines the shared flags on fs, using the current values as
// defaults so a command's flag set keeps what the global one parsed.
func (f *cliFlags) register(fs *flag.FlagSet) {
	fs.BoolVar(&f.optimize, "O", f.optimize, "Run the optimizer")
	fs.BoolVar(&f.strict, "strict", f.strict, "Treat optimizer notes as errors")
	fs.BoolVar(&f.info, "info", f.info, "Print optimizer notes to stderr")
	fs.IntVar(&f.maxDepth, "max-depth", f.maxDepth, "Maximum function call depth")
	fs.Var(&f.verbosity, "v", "Log verbosity (repeat or use -v=N)")
}

// collect records which flags were given on fs.
func (f *cliFlags) collect(fs *flag.FlagSet) {
	fs.Visit(func(fl *flag.Flag) {
		f.set[fl.Name] = true
	})
}

// loadConfig resolves the configuration for a run started in dir.
func loadConfig(dir string, f *cliFlags) (*config, error) {
	m, err := manifest.FindAndLoad(dir)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", manifest.FileName, err)
	}

	cfg := &config{}
	if m != nil {
		cfg.entry = m.EntryPath()
		cfg.imagePath = m.ImagePath()
		log.Debugf("using %s in %s", manifest.FileName, m.Dir)
	} else {
		m = manifest.Default()
	}
	m.ApplyEnv()

	cfg.optimize = m.Run.Optimize
	cfg.strict = m.Run.Strict
	cfg.showInfo = m.Run.ShowInfo
	cfg.maxDepth = m.Run.MaxDepth
	cfg.verbosity = m.Log.Verbosity
	cfg.logFile = m.Log.File

	if f == nil {
		return cfg, nil
	}
	if f.set["O"] {
		cfg.optimize = f.optimize
	}
	if f.set["strict"] {
		cfg.strict = f.strict
	}
	if f.set["info"] {
		cfg.showInfo = f.info
	}
	if f.set["max-depth"] {
		if f.maxDepth <= 0 {
			return nil, fmt.Errorf("max-depth must be positive, got %d", f.maxDepth)
		}
		cfg.maxDepth = f.maxDepth
	}
	if f.set["v"] {
		cfg.verbosity = int(f.verbosity)
	}
	return cfg, nil
}
