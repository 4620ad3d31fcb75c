package commands

import (
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/teranos/mithras-link/config"
	"github.com/teranos/mithras-link/display"
	"github.com/teranos/mithras-link/errors"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage " + config.FileName,
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a config file with the default settings",
		Args:  cobra.MaximumNArgs(1),

		// Runs without loading the existing file, which may be the broken one being replaced
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.FileName
			if len(args) == 1 {
				path = args[0]
			}
			force, _ := cmd.Flags().GetBool("force")

			if err := config.WriteFile(path, config.Default(), force); err != nil {
				return err
			}
			display.PrintSuccess(cmd.ErrOrStderr(), "Wrote %s", path)
			return nil
		},
	}
	initCmd.Flags().Bool("force", false, "Overwrite an existing file (kept as .back)")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if display.ShouldOutputJSON(cmd) {
				return display.OutputJSON(cmd.OutOrStdout(), a.cfg)
			}
			data, err := toml.Marshal(a.cfg)
			if err != nil {
				return errors.Wrap(err, "failed to marshal config")
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	showCmd.Flags().BoolP("json", "j", false, "Output as JSON")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfgFile != "" {
				unknown, err := config.UnknownKeys(a.cfgFile)
				if err != nil {
					return err
				}
				if len(unknown) > 0 {
					return errors.NewConfigurationError("unknown keys in %s: %v", a.cfgFile, unknown)
				}
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			source := a.cfgFile
			if source == "" {
				source = "defaults"
			}
			display.PrintSuccess(cmd.ErrOrStderr(), "Configuration valid (%s)", source)
			return nil
		},
	}

	cmd.AddCommand(initCmd, showCmd, validateCmd)
	return cmd
}
