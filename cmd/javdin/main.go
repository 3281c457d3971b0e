// Javdin CLI - runs, checks and builds Javdin programs
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/javdin/server"
)

const version = "0.1.0"

var log = commonlog.GetLogger("javdin.cli")

func main() {
	flags := newCLIFlags()
	flags.register(flag.CommandLine)
	interactive := flag.Bool("i", false, "Start interactive REPL")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: javdin [options] [command] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Runs a Javdin program. With no file, the entry of the nearest javdin.toml is used,\n")
		fmt.Fprintf(os.Stderr, "and without one the REPL starts.\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  run <file>          Run a source file or a .jdi image (default)\n")
		fmt.Fprintf(os.Stderr, "  check <file>        Report diagnostics without running\n")
		fmt.Fprintf(os.Stderr, "  build [-o out] <f>  Write a program image\n")
		fmt.Fprintf(os.Stderr, "  tokens <file>       Dump the token stream\n")
		fmt.Fprintf(os.Stderr, "  repl                Start interactive REPL\n")
		fmt.Fprintf(os.Stderr, "  lsp                 Start language server on stdio\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  javdin main.d             # Run main.d\n")
		fmt.Fprintf(os.Stderr, "  javdin -O=false main.d    # Run without the optimizer\n")
		fmt.Fprintf(os.Stderr, "  javdin build -o app.jdi   # Build the project entry\n")
		fmt.Fprintf(os.Stderr, "  javdin app.jdi            # Run a built image\n")
	}
	flag.Parse()
	flags.collect(flag.CommandLine)

	args := flag.Args()
	command := "run"
	if len(args) > 0 {
		switch args[0] {
		case "run", "check", "build", "tokens", "repl", "lsp":
			command = args[0]
			fs := flag.NewFlagSet(command, flag.ExitOnError)
			flags.register(fs)
			if command == "build" {
				fs.StringVar(&flags.output, "o", "", "Output image path")
			}
			if err := fs.Parse(args[1:]); err != nil {
				os.Exit(2)
			}
			flags.collect(fs)
			args = fs.Args()
		}
	}

	cfg, err := loadConfig(".", flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	configureLogging(cfg)

	if command == "lsp" {
		srv := server.NewLSP(version)
		if err := srv.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if command == "repl" || *interactive {
		os.Exit(runREPL(cfg, os.Stdout, os.Stderr))
	}

	path := cfg.entry
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		if command != "run" {
			fmt.Fprintf(os.Stderr, "Error: %s requires a file\n", command)
			os.Exit(1)
		}
		os.Exit(runREPL(cfg, os.Stdout, os.Stderr))
	}

	var code int
	switch command {
	case "check":
		code = checkFile(path, cfg, os.Stdout)
	case "build":
		code = buildFile(path, flags.output, cfg, os.Stderr)
	case "tokens":
		code = dumpTokens(path, os.Stdout, os.Stderr)
	default:
		code = runFile(path, cfg, os.Stdout, os.Stderr)
	}
	os.Exit(code)
}

// configureLogging routes commonlog output to the configured file, or
// stderr when none is set. Program output never goes through the logger.
func configureLogging(cfg *config) {
	var path *string
	if cfg.logFile != "" {
		path = &cfg.logFile
	}
	commonlog.Configure(cfg.verbosity, path)
}
