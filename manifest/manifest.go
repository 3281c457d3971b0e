// Package manifest handles javdin.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the project file looked up by Load and FindAndLoad.
const FileName = "javdin.toml"

// Manifest represents a javdin.toml project configuration.
type Manifest struct {
	Project Project `toml:"project"`
	Source  Source  `toml:"source"`
	Run     Run     `toml:"run"`
	Log     Log     `toml:"log"`
	Image   Image   `toml:"image"`

	// Dir is the directory containing the javdin.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures the program entry file.
type Source struct {
	Entry string `toml:"entry"`
}

// Run configures the pipeline.
type Run struct {
	Optimize bool `toml:"optimize"`
	Strict   bool `toml:"strict"`
	ShowInfo bool `toml:"show-info"`
	MaxDepth int  `toml:"max-depth"`
}

// Log configures logging.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Image configures javdin build output.
type Image struct {
	Output string `toml:"output"`
}

// Default returns the configuration used when no javdin.toml exists.
func Default() *Manifest {
	return &Manifest{
		Source: Source{Entry: "main.d"},
		Run:    Run{Optimize: true, MaxDepth: 10000},
	}
}

// Load parses a javdin.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Default()
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if m.Run.MaxDepth <= 0 {
		return nil, fmt.Errorf("%s: run.max-depth must be positive, got %d", path, m.Run.MaxDepth)
	}

	return m, nil
}

// FindAndLoad walks up from startDir to find a javdin.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// EntryPath returns the absolute path of the entry source file.
func (m *Manifest) EntryPath() string {
	if filepath.IsAbs(m.Source.Entry) || m.Dir == "" {
		return m.Source.Entry
	}
	return filepath.Join(m.Dir, m.Source.Entry)
}

// ImagePath returns where javdin build writes its image. It defaults to
// the entry file name with the .jdi extension.
func (m *Manifest) ImagePath() string {
	out := m.Image.Output
	if out == "" {
		entry := m.Source.Entry
		out = entry[:len(entry)-len(filepath.Ext(entry))] + ".jdi"
	}
	if filepath.IsAbs(out) || m.Dir == "" {
		return out
	}
	return filepath.Join(m.Dir, out)
}
