// Package commands implements the mithras-link CLI.
package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teranos/mithras-link/config"
	"github.com/teranos/mithras-link/logger"
)

// skipConfigAnnotation marks commands that must run even when the config
// file does not parse, such as config init --force and version
const skipConfigAnnotation = "mithras-link/skip-config"

// app carries state shared by every subcommand of one invocation
type app struct {
	configPath string
	verbosity  int
	logJSON    bool

	cfg     *config.Config
	cfgFile string
	log     *zap.SugaredLogger
}

// NewRootCmd builds the command tree. Running it without a subcommand emits
// directives, which is what a build script invokes.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "mithras-link",
		Short: "Link binaries against the prebuilt mithras.a archive",
		Long: `mithras-link - Link configuration for the prebuilt mithras.a archive.

Resolves <build root>/mithras.a from the build-root variable
(CARGO_MANIFEST_DIR by default) and prints the directives that link it,
together with the CoreFoundation framework, and mark it as a rebuild trigger.

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (MITHRAS_LINK_* prefix)
3. Project config (mithras-link.toml, searched upwards)
4. Default values

Examples:
  mithras-link                                  # cargo directives (build.rs)
  mithras-link emit -f cgo -o ffi/link_gen.go   # cgo preamble for go build
  mithras-link show                             # human-readable plan
  mithras-link watch -f cgo -o ffi/link_gen.go  # regenerate on archive change`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipConfigAnnotation] == "true" {
				return a.initLogging(false)
			}
			return a.init()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmit(cmd, a, emitFlagsFrom(cmd))
		},
	}

	root.PersistentFlags().CountVarP(&a.verbosity, "verbose", "v", "Increase log verbosity on stderr (-v, -vv)")
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default: nearest "+config.FileName+")")
	root.PersistentFlags().BoolVar(&a.logJSON, "log-json", false, "Log as JSON")
	addEmitFlags(root)

	root.AddCommand(newEmitCmd(a))
	root.AddCommand(newShowCmd(a))
	root.AddCommand(newWatchCmd(a))
	root.AddCommand(newConfigCmd(a))
	root.AddCommand(newVersionCmd())

	return root
}

// init loads configuration and sets up logging
func (a *app) init() error {
	cfg, used, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.cfgFile = used

	if err := a.initLogging(cfg.Log.JSON); err != nil {
		return err
	}

	if used != "" {
		a.log.Infow("Loaded config", "path", used)
		if unknown, err := config.UnknownKeys(used); err != nil {
			a.log.Warnw("Could not check config for unknown keys", "error", err)
		} else if len(unknown) > 0 {
			a.log.Warnw("Ignoring unknown config keys", "path", used, "keys", unknown)
		}
	}
	return nil
}

// initLogging sets up logging from flags, plus log.json when a config was read
func (a *app) initLogging(configJSON bool) error {
	if err := logger.Initialize(a.logJSON || configJSON, a.verbosity); err != nil {
		return err
	}
	a.log = logger.ComponentLogger("cli")
	a.log.Debugw("Logging initialized", "verbosity", logger.LevelName(a.verbosity), "json", logger.JSONOutput)
	return nil
}
