package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/mithras-link/directive"
	"github.com/teranos/mithras-link/display"
)

func newShowCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the resolved link plan",
		Long:  "Display the build root, archive path and directives without emitting them for a build tool.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := emitFlagsFrom(cmd).apply(a.cfg)
			plan, err := resolvePlan(cfg)
			if err != nil {
				return err
			}

			if display.ShouldOutputJSON(cmd) {
				return display.OutputJSON(cmd.OutOrStdout(), plan)
			}
			return directive.TextEmitter{}.Emit(cmd.OutOrStdout(), plan)
		},
	}
	addEmitFlags(cmd)
	cmd.Flags().BoolP("json", "j", false, "Output the plan as JSON")
	return cmd
}
