package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tug/cmd/tug/cmdutil"
	"tug/cmd/tug/projectcmd"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd(g *cmdutil.Globals) *cobra.Command {
	root := &cobra.Command{
		Use:           "tug",
		Short:         "Converge Docker containers to compose project files",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.Setup()
		},
	}
	g.Bind(root)
	root.AddCommand(projectcmd.Cmds(g)...)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	g := &cmdutil.Globals{}
	err := newRootCmd(g).ExecuteContext(ctx)
	aborted := ctx.Err() != nil
	stop()

	if shutdownErr := g.Shutdown(context.Background()); shutdownErr != nil {
		fmt.Fprintf(os.Stderr, "flush traces: %v\n", shutdownErr)
	}
	msg, code := cmdutil.Outcome(err, aborted)
	if msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}
	if code != 0 {
		os.Exit(code)
	}
}
