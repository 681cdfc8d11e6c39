package projectcmd

import (
	"context"
	"time"

	"tug/cmd/tug/cmdutil"
	"tug/internal/lifecycle"
	"tug/internal/telemetry"

	"github.com/spf13/cobra"
)

func transitionCmds(g *cmdutil.Globals) []*cobra.Command {
	var cmds []*cobra.Command
	for _, t := range lifecycle.Transitions() {
		cmds = append(cmds, transitionCmd(g, t))
	}
	return cmds
}

func transitionCmd(g *cmdutil.Globals, t lifecycle.Transition) *cobra.Command {
	var (
		grace  time.Duration
		signal string
	)

	cmd := &cobra.Command{
		Use:   t.String() + " PROJECT [SERVICES...]",
		Short: t.Summary(),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			services := args[1:]
			if grace <= 0 {
				grace = g.GracePeriod()
			}
			phases := []string{"inventory", t.String(), "status"}

			return operation(cmd, g, t.String(), phases, func(ctx context.Context, op *telemetry.Operation, s *cmdutil.Session) error {
				if err := op.RunStep(ctx, "inventory", s.Refresh); err != nil {
					return err
				}
				runner := lifecycle.Runner{Engine: s.Engine, GracePeriod: grace, Signal: signal}
				if err := op.RunStep(ctx, t.String(), func(ctx context.Context) error {
					return runner.Run(ctx, t, s.Project, s.Inventory, services)
				}); err != nil {
					return err
				}
				return op.RunStep(ctx, "status", func(ctx context.Context) error {
					return printStatus(ctx, cmd.OutOrStdout(), s, services)
				})
			})
		},
	}

	if t != lifecycle.Remove {
		cmd.Flags().DurationVar(&grace, "grace-period", 0, "How long to wait for a container to stop (default from settings)")
	}
	if t == lifecycle.Kill {
		cmd.Flags().StringVarP(&signal, "signal", "s", lifecycle.DefaultSignal, "Signal to send")
	}
	return cmd
}
