package projectcmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"tug/cmd/tug/cmdutil"
	"tug/internal/telemetry"

	"github.com/spf13/cobra"
)

const defaultShell = "/bin/bash"

// runInteractive runs argv with the terminal attached. Tests replace it.
var runInteractive = func(ctx context.Context, env []string, argv []string) error {
	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	c.Env = append(os.Environ(), env...)
	return c.Run()
}

func execCmd(g *cmdutil.Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec PROJECT SERVICE [COMMAND...]",
		Short: "Open an interactive session in the first replica of a service",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return operation(cmd, g, "exec", []string{"inventory"}, func(ctx context.Context, op *telemetry.Operation, s *cmdutil.Session) error {
				if err := op.RunStep(ctx, "inventory", s.Refresh); err != nil {
					return err
				}
				svc, err := s.Project.Service(args[1])
				if err != nil {
					return err
				}
				replicas := s.Inventory.ForService(s.Project.Name, svc.Name)
				if len(replicas) == 0 {
					return fmt.Errorf("service %s has no containers", svc.Name)
				}

				command := args[2:]
				if len(command) == 0 {
					command = []string{defaultShell}
				}
				argv := append([]string{"docker", "exec", "-it", replicas[0].Name}, command...)
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(argv, " "))

				var env []string
				if host := g.Settings.DockerHost; host != "" {
					env = append(env, "DOCKER_HOST="+host)
				}
				err = runInteractive(ctx, env, argv)
				var exitErr *exec.ExitError
				if errors.As(err, &exitErr) {
					code := exitErr.ExitCode()
					if code < 0 {
						// Killed by a signal.
						code = 1
					}
					return &cmdutil.ExitCodeError{Code: code}
				}
				return err
			})
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}
