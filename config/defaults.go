package config

import (
	"github.com/spf13/viper"

	"github.com/teranos/mithras-link/directive"
	"github.com/teranos/mithras-link/linkcfg"
)

// DefaultDebounceMs collapses the burst of events an archiver produces
const DefaultDebounceMs = 500

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("link.root_env", linkcfg.RootEnvVar)
	v.SetDefault("link.env_file", "")
	v.SetDefault("link.framework_policy", string(linkcfg.FrameworkAlways)) // unconditional, like the original build script
	v.SetDefault("link.target", "")

	v.SetDefault("output.format", string(directive.FormatCargo))
	v.SetDefault("output.path", "")

	v.SetDefault("cgo.package", directive.DefaultCgoPackage)
	v.SetDefault("cgo.relative_to_srcdir", false)

	v.SetDefault("watch.debounce_ms", DefaultDebounceMs)

	v.SetDefault("log.json", false)
}

// Default returns the configuration produced by the defaults alone
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := LoadWithViper(v)
	if err != nil {
		// Defaults always decode; reaching this is a programming error
		panic(err)
	}
	return cfg
}
