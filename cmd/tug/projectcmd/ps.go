package projectcmd

import (
	"context"
	"fmt"

	"tug/cmd/tug/cmdutil"
	"tug/internal/project"
	"tug/internal/report"
	"tug/internal/telemetry"

	"github.com/spf13/cobra"
)

func psCmd(g *cmdutil.Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "ps [PROJECT [SERVICES...]]",
		Short: "Show project status, or every project in the directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return overview(cmd, g)
			}
			return operation(cmd, g, "ps", []string{"status"}, func(ctx context.Context, op *telemetry.Operation, s *cmdutil.Session) error {
				return op.RunStep(ctx, "status", func(ctx context.Context) error {
					return printStatus(ctx, cmd.OutOrStdout(), s, args[1:])
				})
			})
		},
	}
}

// overview counts container states for every project in the directory and
// lists containers no declared service claims.
func overview(cmd *cobra.Command, g *cmdutil.Globals) error {
	ctx := cmd.Context()
	sess, err := g.OpenHost(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = sess.Close()
	}()
	if err := sess.Refresh(ctx); err != nil {
		return err
	}

	dir, err := g.ProjectDir()
	if err != nil {
		return err
	}
	projects := make([]*project.Project, 0, len(sess.Projects))
	summaries := make([]report.Summary, 0, len(sess.Projects))
	for _, name := range sess.Projects {
		p, err := project.Load(ctx, dir, name)
		if err != nil {
			return err
		}
		projects = append(projects, p)
		summaries = append(summaries, report.Summarize(p, sess.Inventory))
	}

	untracked := report.Untracked(projects, sess.Inventory)
	_, err = fmt.Fprintln(cmd.OutOrStdout(), report.RenderOverview(summaries, untracked))
	return err
}
