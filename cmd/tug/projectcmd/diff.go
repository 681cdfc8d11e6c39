package projectcmd

import (
	"context"
	"fmt"

	"tug/cmd/tug/cmdutil"
	"tug/internal/report"
	"tug/internal/telemetry"

	"github.com/spf13/cobra"
)

func diffCmd(g *cmdutil.Globals) *cobra.Command {
	var flags planFlags

	cmd := &cobra.Command{
		Use:   "diff PROJECT [SERVICES...]",
		Short: "Show what up would change without changing anything",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			services := args[1:]
			return operation(cmd, g, "diff", []string{"inventory", "plan"}, func(ctx context.Context, op *telemetry.Operation, s *cmdutil.Session) error {
				plans, orphans, err := planPass(ctx, op, s, services, flags)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), report.RenderPlan(s.Project.Name, plans, orphans))
				return err
			})
		},
	}

	flags.bind(cmd)
	return cmd
}
