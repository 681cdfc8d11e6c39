package projectcmd

import (
	"context"

	"tug/cmd/tug/cmdutil"
	"tug/internal/lifecycle"
	"tug/internal/telemetry"

	"github.com/spf13/cobra"
)

func buildCmd(g *cmdutil.Globals, name, short string, noCache bool) *cobra.Command {
	return &cobra.Command{
		Use:   name + " PROJECT [SERVICES...]",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return operation(cmd, g, name, []string{"build"}, func(ctx context.Context, op *telemetry.Operation, s *cmdutil.Session) error {
				return op.RunStep(ctx, "build", func(ctx context.Context) error {
					b := lifecycle.Builder{Engine: s.Engine, Output: cmd.ErrOrStderr()}
					return b.Build(ctx, s.Project, args[1:], noCache)
				})
			})
		},
	}
}

func pullCmd(g *cmdutil.Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "pull PROJECT [SERVICES...]",
		Short: "Pull service images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return operation(cmd, g, "pull", []string{"pull"}, func(ctx context.Context, op *telemetry.Operation, s *cmdutil.Session) error {
				return op.RunStep(ctx, "pull", func(ctx context.Context) error {
					pl := lifecycle.Puller{Engine: s.Engine, Output: cmd.ErrOrStderr()}
					return pl.Pull(ctx, s.Project, args[1:])
				})
			})
		},
	}
}
