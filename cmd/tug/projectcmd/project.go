package projectcmd

import (
	"context"
	"fmt"
	"io"

	"tug/cmd/tug/cmdutil"
	"tug/internal/report"
	"tug/internal/telemetry"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
)

// Cmds returns every project command.
func Cmds(g *cmdutil.Globals) []*cobra.Command {
	cmds := []*cobra.Command{
		psCmd(g),
		upCmd(g),
		diffCmd(g),
	}
	cmds = append(cmds, transitionCmds(g)...)
	cmds = append(cmds,
		buildCmd(g, "build", "Build service images", false),
		buildCmd(g, "rebuild", "Build service images without the layer cache", true),
		pullCmd(g),
		logsCmd(g),
		execCmd(g),
	)
	return cmds
}

// operation opens a session on args[0] and runs fn inside a traced
// operation whose phases are announced up front.
func operation(cmd *cobra.Command, g *cmdutil.Globals, name string, phases []string, fn func(ctx context.Context, op *telemetry.Operation, s *cmdutil.Session) error) (err error) {
	sess, err := g.Open(cmd.Context(), cmd.Flags().Arg(0))
	if err != nil {
		return err
	}
	defer func() {
		_ = sess.Close()
	}()

	op, err := telemetry.Start(cmd.Context(), g.Tracer(), name, phases, attribute.String(telemetry.ProjectKey, sess.Project.Name))
	if err != nil {
		return err
	}
	defer func() { op.End(err) }()

	return fn(op.Context(), op, sess)
}

// printStatus refreshes the inventory and prints the status table of
// services.
func printStatus(ctx context.Context, w io.Writer, s *cmdutil.Session, services []string) error {
	if err := s.Refresh(ctx); err != nil {
		return err
	}
	out, err := report.RenderStatus(s.Project, s.Inventory, services)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}
