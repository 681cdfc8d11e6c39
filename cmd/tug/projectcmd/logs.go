package projectcmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"tug/cmd/tug/cmdutil"
	"tug/cmd/tug/ui"
	"tug/internal/engine"
	"tug/internal/inventory"
	"tug/internal/telemetry"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func logsCmd(g *cmdutil.Globals) *cobra.Command {
	var (
		follow bool
		tail   int
	)

	cmd := &cobra.Command{
		Use:   "logs PROJECT [SERVICES...]",
		Short: "Print container logs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := engine.LogOptions{Follow: follow, Tail: "all"}
			if tail >= 0 {
				opts.Tail = strconv.Itoa(tail)
			}

			return operation(cmd, g, "logs", []string{"inventory", "logs"}, func(ctx context.Context, op *telemetry.Operation, s *cmdutil.Session) error {
				if err := op.RunStep(ctx, "inventory", s.Refresh); err != nil {
					return err
				}
				selected, err := s.Project.Select(args[1:], false)
				if err != nil {
					return err
				}
				var containers []inventory.Container
				for _, svc := range selected {
					containers = append(containers, s.Inventory.ForService(s.Project.Name, svc.Name)...)
				}
				return op.RunStep(ctx, "logs", func(ctx context.Context) error {
					return streamLogs(ctx, s.Engine, containers, opts, cmd.OutOrStdout())
				})
			})
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep streaming new output")
	cmd.Flags().IntVar(&tail, "tail", -1, "Number of lines to show from the end of each log (-1 for all)")
	return cmd
}

// streamLogs copies the logs of every container to w concurrently, each line
// prefixed with its container name.
func streamLogs(ctx context.Context, eng engine.Engine, containers []inventory.Container, opts engine.LogOptions, w io.Writer) error {
	if len(containers) == 0 {
		return nil
	}
	names := make([]string, 0, len(containers))
	width := 0
	for _, c := range containers {
		names = append(names, c.Name)
		width = max(width, len(c.Name))
	}
	if _, err := fmt.Fprintf(w, "Attaching to %s\n", strings.Join(names, ", ")); err != nil {
		return err
	}

	out := &lockedWriter{w: w}
	grp, ctx := errgroup.WithContext(ctx)
	for _, c := range containers {
		prefix := ui.Accent(fmt.Sprintf("%-*s", width, c.Name)) + " | "
		grp.Go(func() error {
			pw := &prefixWriter{out: out, prefix: prefix}
			if err := eng.ContainerLogs(ctx, c.ID, opts, pw, pw); err != nil {
				return fmt.Errorf("logs %s: %w", c.Name, err)
			}
			return pw.Flush()
		})
	}
	return grp.Wait()
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// prefixWriter emits whole lines only, so concurrent streams never
// interleave within a line.
type prefixWriter struct {
	out    io.Writer
	prefix string
	buf    []byte
}

func (p *prefixWriter) Write(b []byte) (int, error) {
	p.buf = append(p.buf, b...)
	for {
		i := bytes.IndexByte(p.buf, '\n')
		if i < 0 {
			return len(b), nil
		}
		if _, err := io.WriteString(p.out, p.prefix+string(p.buf[:i+1])); err != nil {
			return 0, err
		}
		p.buf = p.buf[i+1:]
	}
}

// Flush writes a trailing partial line.
func (p *prefixWriter) Flush() error {
	if len(p.buf) == 0 {
		return nil
	}
	_, err := io.WriteString(p.out, p.prefix+string(p.buf)+"\n")
	p.buf = nil
	return err
}
