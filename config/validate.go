package config

import (
	"go/token"
	"slices"

	"github.com/teranos/mithras-link/directive"
	"github.com/teranos/mithras-link/errors"
	"github.com/teranos/mithras-link/linkcfg"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Link.RootEnv == "" {
		return errors.NewConfigurationError("link.root_env cannot be empty (omit for %s)", linkcfg.RootEnvVar)
	}

	if _, err := linkcfg.ParseFrameworkPolicy(c.Link.FrameworkPolicy); err != nil {
		return errors.Wrap(errors.ErrConfiguration, "link.framework_policy: "+err.Error())
	}

	if !slices.Contains(directive.Formats(), c.Output.Format) {
		return errors.NewConfigurationError("output.format must be one of %v, got %q", directive.Formats(), c.Output.Format)
	}

	if c.Output.Format == string(directive.FormatCgo) {
		if !token.IsIdentifier(c.Cgo.Package) {
			return errors.NewConfigurationError("cgo.package must be a Go identifier, got %q", c.Cgo.Package)
		}
		if c.Cgo.RelativeToSrcDir && c.Output.Path == "" {
			return errors.NewConfigurationError("cgo.relative_to_srcdir needs output.path")
		}
	}

	// 0 disables debouncing, negative is invalid
	if c.Watch.DebounceMs < 0 {
		return errors.NewConfigurationError("watch.debounce_ms must be >= 0, got %d", c.Watch.DebounceMs)
	}

	return nil
}
