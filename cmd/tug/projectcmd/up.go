package projectcmd

import (
	"context"
	"fmt"
	"time"

	"tug/cmd/tug/cmdutil"
	"tug/cmd/tug/ui"
	"tug/internal/converge"
	"tug/internal/inventory"
	"tug/internal/progress"
	"tug/internal/reclaim"
	"tug/internal/telemetry"

	"github.com/spf13/cobra"
)

var upPhases = []string{"inventory", "plan", "apply", "reclaim", "status"}

type planFlags struct {
	forceRecreate bool
	noRecreate    bool
	keepOrphans   bool
}

func (f *planFlags) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.forceRecreate, "force-recreate", false, "Recreate containers even if their configuration is unchanged")
	cmd.Flags().BoolVar(&f.noRecreate, "no-recreate", false, "Never recreate existing containers")
	cmd.Flags().BoolVar(&f.keepOrphans, "keep-orphans", false, "Leave containers the project no longer declares")
	cmd.MarkFlagsMutuallyExclusive("force-recreate", "no-recreate")
}

func (f planFlags) policy() converge.RecreatePolicy {
	switch {
	case f.forceRecreate:
		return converge.ForceRecreate
	case f.noRecreate:
		return converge.NoRecreate
	default:
		return converge.SmartRecreate
	}
}

// reclaims reports whether orphans are torn down. Scoped runs never touch
// containers outside their services.
func (f planFlags) reclaims(services []string) bool {
	return len(services) == 0 && !f.keepOrphans
}

// planPass inventories the host and computes plans and orphans for services.
func planPass(ctx context.Context, op *telemetry.Operation, s *cmdutil.Session, services []string, f planFlags) (converge.Plans, []inventory.Container, error) {
	if err := op.RunStep(ctx, "inventory", s.Refresh); err != nil {
		return nil, nil, err
	}

	var (
		plans   converge.Plans
		orphans []inventory.Container
	)
	err := op.RunStep(ctx, "plan", func(context.Context) error {
		var err error
		plans, err = converge.ComputePlans(s.Project, s.Inventory, services, f.policy())
		if err != nil {
			return err
		}
		if f.reclaims(services) {
			orphans = converge.Orphans(s.Inventory, s.Project, plans)
		}
		return nil
	})
	return plans, orphans, err
}

func upCmd(g *cmdutil.Globals) *cobra.Command {
	var (
		flags planFlags
		grace time.Duration
	)

	cmd := &cobra.Command{
		Use:   "up PROJECT [SERVICES...]",
		Short: "Create, recreate or start services to match the project file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			services := args[1:]
			if grace <= 0 {
				grace = g.GracePeriod()
			}

			return operation(cmd, g, "up", upPhases, func(ctx context.Context, op *telemetry.Operation, s *cmdutil.Session) error {
				plans, orphans, err := planPass(ctx, op, s, services, flags)
				if err != nil {
					return err
				}

				msg := fmt.Sprintf("Converging %s", s.Project.Name)
				err = ui.RunWithProgress(ctx, msg, func(ctx context.Context, tracker *progress.Tracker) error {
					if err := op.RunStep(ctx, "apply", func(ctx context.Context) error {
						return converge.Apply(ctx, s.Engine, s.Project, plans, converge.ApplyOptions{
							GracePeriod: grace,
							Progress:    tracker,
						})
					}); err != nil {
						return err
					}
					return op.RunStep(ctx, "reclaim", func(ctx context.Context) error {
						r := reclaim.Reclaimer{Engine: s.Engine, GracePeriod: grace, Progress: tracker}
						return r.Reclaim(ctx, orphans)
					})
				})
				if err != nil {
					return err
				}

				return op.RunStep(ctx, "status", func(ctx context.Context) error {
					return printStatus(ctx, cmd.OutOrStdout(), s, services)
				})
			})
		},
	}

	flags.bind(cmd)
	cmd.Flags().DurationVar(&grace, "grace-period", 0, "How long to wait for a container to stop (default from settings)")
	return cmd
}
