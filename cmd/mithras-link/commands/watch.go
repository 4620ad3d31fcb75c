package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/mithras-link/display"
	"github.com/teranos/mithras-link/errors"
	"github.com/teranos/mithras-link/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Regenerate the output whenever mithras.a changes",
		Long: `Write the directives to --output, then rewrite them each time the archive
is created, replaced or removed. With --format cgo this keeps the
fingerprint in the generated file current, so go build relinks.

Stops on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, a, emitFlagsFrom(cmd))
		},
	}
	addEmitFlags(cmd)
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, a *app, flags emitFlags) error {
	cfg := flags.apply(a.cfg)
	if cfg.Output.Path == "" {
		return errors.WithHint(
			errors.NewInvalidRequestError("watch needs an output file"),
			"pass --output or set output.path")
	}

	plan, err := resolvePlan(cfg)
	if err != nil {
		return err
	}

	regenerate := func(string) error {
		if err := writePlan(cmd.OutOrStdout(), cfg, plan); err != nil {
			return err
		}
		a.log.Infow("Regenerated", "output", cfg.Output.Path, "artifact", plan.Artifact)
		return nil
	}
	if err := regenerate(plan.Artifact); err != nil {
		return err
	}

	w, err := watch.New(plan.Artifact, time.Duration(cfg.Watch.DebounceMs)*time.Millisecond)
	if err != nil {
		return err
	}
	w.OnChange(regenerate)

	display.PrintSuccess(cmd.ErrOrStderr(), "Watching %s, writing %s", plan.Artifact, cfg.Output.Path)
	return w.Run(ctx)
}
