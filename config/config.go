// Package config loads mithras-link settings from mithras-link.toml,
// MITHRAS_LINK_* environment variables and defaults, in that order of
// precedence (env wins).
package config

import (
	"github.com/teranos/mithras-link/directive"
	"github.com/teranos/mithras-link/linkcfg"
)

// FileName is the project config file searched for from the working directory upwards
const FileName = "mithras-link.toml"

// EnvPrefix prefixes environment overrides, e.g. MITHRAS_LINK_OUTPUT_FORMAT
const EnvPrefix = "MITHRAS_LINK"

// Config represents the mithras-link configuration. The json tags mirror the
// toml keys so `config show --json` prints the same names as the file.
type Config struct {
	Link   LinkConfig   `mapstructure:"link" toml:"link" json:"link"`
	Output OutputConfig `mapstructure:"output" toml:"output" json:"output"`
	Cgo    CgoConfig    `mapstructure:"cgo" toml:"cgo" json:"cgo"`
	Watch  WatchConfig  `mapstructure:"watch" toml:"watch" json:"watch"`
	Log    LogConfig    `mapstructure:"log" toml:"log" json:"log"`
}

// LinkConfig controls how the build root is found and which directives apply
type LinkConfig struct {
	RootEnv         string `mapstructure:"root_env" toml:"root_env" json:"root_env"`                         // variable holding the build root (default: CARGO_MANIFEST_DIR)
	EnvFile         string `mapstructure:"env_file" toml:"env_file" json:"env_file"`                         // optional dotenv file consulted after the process environment
	FrameworkPolicy string `mapstructure:"framework_policy" toml:"framework_policy" json:"framework_policy"` // always | target
	Target          string `mapstructure:"target" toml:"target" json:"target"`                               // target OS for framework_policy = "target" (empty: CARGO_CFG_TARGET_OS)
}

// OutputConfig selects the directive vocabulary and destination
type OutputConfig struct {
	Format string `mapstructure:"format" toml:"format" json:"format"` // cargo | cgo | json | text
	Path   string `mapstructure:"path" toml:"path" json:"path"`       // empty = stdout
}

// CgoConfig configures generated cgo files
type CgoConfig struct {
	Package          string `mapstructure:"package" toml:"package" json:"package"`
	RelativeToSrcDir bool   `mapstructure:"relative_to_srcdir" toml:"relative_to_srcdir" json:"relative_to_srcdir"` // reference the archive via ${SRCDIR}
}

// WatchConfig configures the archive watcher
type WatchConfig struct {
	DebounceMs int `mapstructure:"debounce_ms" toml:"debounce_ms" json:"debounce_ms"`
}

// LogConfig configures logging
type LogConfig struct {
	JSON bool `mapstructure:"json" toml:"json" json:"json"`
}

// LinkOptions converts the link section for linkcfg.Configure.
// Call Validate first; an unknown policy is passed through and rejected there.
func (c *Config) LinkOptions() linkcfg.Options {
	return linkcfg.Options{
		FrameworkPolicy: linkcfg.FrameworkPolicy(c.Link.FrameworkPolicy),
		TargetOS:        c.Link.Target,
	}
}

// DirectiveOptions converts the cgo section for directive.New.
// srcDir is the directory the output is written to.
func (c *Config) DirectiveOptions(srcDir string) directive.Options {
	return directive.Options{
		Cgo: directive.CgoOptions{
			Package:          c.Cgo.Package,
			SrcDir:           srcDir,
			RelativeToSrcDir: c.Cgo.RelativeToSrcDir,
		},
	}
}
