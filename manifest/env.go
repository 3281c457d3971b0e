package manifest

import (
	"github.com/xyproto/env/v2"
)

// Environment variables that override javdin.toml.
const (
	EnvOptimize  = "JAVDIN_OPTIMIZE"
	EnvStrict    = "JAVDIN_STRICT"
	EnvShowInfo  = "JAVDIN_SHOW_INFO"
	EnvMaxDepth  = "JAVDIN_MAX_DEPTH"
	EnvVerbosity = "JAVDIN_VERBOSITY"
	EnvLogFile   = "JAVDIN_LOG_FILE"
)

// ApplyEnv overlays the JAVDIN_* environment variables onto m. Unset
// variables leave the loaded values alone. The environment is re-read on
// every call.
func (m *Manifest) ApplyEnv() {
	env.Load()
	if env.Has(EnvOptimize) {
		m.Run.Optimize = env.Bool(EnvOptimize)
	}
	if env.Has(EnvStrict) {
		m.Run.Strict = env.Bool(EnvStrict)
	}
	if env.Has(EnvShowInfo) {
		m.Run.ShowInfo = env.Bool(EnvShowInfo)
	}
	if depth := env.Int(EnvMaxDepth, m.Run.MaxDepth); depth > 0 {
		m.Run.MaxDepth = depth
	}
	m.Log.Verbosity = env.Int(EnvVerbosity, m.Log.Verbosity)
	m.Log.File = env.Str(EnvLogFile, m.Log.File)
}
