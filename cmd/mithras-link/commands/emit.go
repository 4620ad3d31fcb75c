package commands

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/teranos/mithras-link/config"
	"github.com/teranos/mithras-link/directive"
	"github.com/teranos/mithras-link/errors"
	"github.com/teranos/mithras-link/linkcfg"
)

// targetEnvVar is set by Cargo for build scripts to the target's OS
const targetEnvVar = "CARGO_CFG_TARGET_OS"

// emitFlags are the per-invocation overrides shared by emit, show and watch
type emitFlags struct {
	format          string
	output          string
	target          string
	frameworkPolicy string
	envFile         string
	rootEnv         string
	changed         func(name string) bool
}

func addEmitFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "", "Output format: cargo, cgo, json, text (default from config: cargo)")
	cmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")
	cmd.Flags().String("target", "", "Target OS for --framework-policy=target (default: $"+targetEnvVar+")")
	cmd.Flags().String("framework-policy", "", "When to link CoreFoundation: always, target")
	cmd.Flags().String("env-file", "", "Dotenv file consulted when the build-root variable is not in the environment")
	cmd.Flags().String("root-env", "", "Name of the build-root variable (default: "+linkcfg.RootEnvVar+")")
}

func emitFlagsFrom(cmd *cobra.Command) emitFlags {
	get := func(name string) string {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return emitFlags{
		format:          get("format"),
		output:          get("output"),
		target:          get("target"),
		frameworkPolicy: get("framework-policy"),
		envFile:         get("env-file"),
		rootEnv:         get("root-env"),
		changed:         cmd.Flags().Changed,
	}
}

// apply overlays explicitly set flags on a copy of cfg
func (f emitFlags) apply(cfg *config.Config) *config.Config {
	out := *cfg
	if f.changed("format") {
		out.Output.Format = f.format
	}
	if f.changed("output") {
		out.Output.Path = f.output
	}
	if f.changed("target") {
		out.Link.Target = f.target
	}
	if f.changed("framework-policy") {
		out.Link.FrameworkPolicy = f.frameworkPolicy
	}
	if f.changed("env-file") {
		out.Link.EnvFile = f.envFile
	}
	if f.changed("root-env") {
		out.Link.RootEnv = f.rootEnv
	}
	return &out
}

func newEmitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Print linker directives for the build tool",
		Long: `Print the directives that link mithras.a and CoreFoundation.

Fails without output when the build-root variable is not set. The archive
itself is not checked; a missing archive is reported by the linker.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmit(cmd, a, emitFlagsFrom(cmd))
		},
	}
	addEmitFlags(cmd)
	return cmd
}

func runEmit(cmd *cobra.Command, a *app, flags emitFlags) error {
	cfg := flags.apply(a.cfg)
	plan, err := resolvePlan(cfg)
	if err != nil {
		return err
	}

	if err := writePlan(cmd.OutOrStdout(), cfg, plan); err != nil {
		return err
	}
	a.log.Infow("Emitted directives",
		"artifact", plan.Artifact,
		"format", cfg.Output.Format,
		"directives", len(plan.Directives))
	return nil
}

// resolvePlan validates cfg, reads the build root and runs linkcfg.Configure
func resolvePlan(cfg *config.Config) (*linkcfg.Plan, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lookup := linkcfg.LookupFunc(linkcfg.OSLookup)
	if cfg.Link.EnvFile != "" {
		fileLookup, err := linkcfg.DotenvLookup(cfg.Link.EnvFile)
		if err != nil {
			return nil, err
		}
		lookup = linkcfg.ChainLookup(linkcfg.OSLookup, fileLookup)
	}

	opts := cfg.LinkOptions()
	if opts.FrameworkPolicy == linkcfg.FrameworkTarget && opts.TargetOS == "" {
		opts.TargetOS, _ = lookup(targetEnvVar)
	}

	return linkcfg.ConfigureFromEnv(lookup, cfg.Link.RootEnv, opts)
}

// writePlan renders plan with the configured emitter to stdout or output.path
func writePlan(stdout io.Writer, cfg *config.Config, plan *linkcfg.Plan) error {
	path := cfg.Output.Path
	srcDir := ""
	if path != "" {
		srcDir = filepath.Dir(path)
	}

	emitter, err := directive.New(directive.Format(cfg.Output.Format), cfg.DirectiveOptions(srcDir))
	if err != nil {
		return err
	}

	if path == "" {
		return emitter.Emit(stdout, plan)
	}

	var buf bytes.Buffer
	if err := emitter.Emit(&buf, plan); err != nil {
		return err
	}
	return writeFileAtomic(path, buf.Bytes())
}

// writeFileAtomic replaces path via a temp file in the same directory, so
// a concurrent go build never sees a half-written file
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to write %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", tmp.Name())
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return errors.Wrapf(err, "failed to chmod %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "failed to replace %s", path)
	}
	return nil
}
