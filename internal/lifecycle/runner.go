package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tug/internal/engine"
	"tug/internal/inventory"
	"tug/internal/project"
)

// Runner applies transitions to the replicas of selected services.
type Runner struct {
	Engine      engine.Engine
	GracePeriod time.Duration
	// Signal is sent by Kill. Down and Cull always send DefaultSignal.
	Signal string
}

// Run applies t to the managed replicas of services, or of every service
// when none are named. One-off containers are left alone.
func (r Runner) Run(ctx context.Context, t Transition, p *project.Project, inv *inventory.Inventory, services []string) error {
	selected, err := p.Select(services, false)
	if err != nil {
		return err
	}

	var containers []inventory.Container
	for _, svc := range selected {
		containers = append(containers, inv.ForService(p.Name, svc.Name)...)
	}

	log := slog.With("component", "lifecycle", "project", p.Name, "transition", t.String())
	log.Debug("running transition", "containers", len(containers))

	switch t {
	case Kill:
		sig, err := NormalizeSignal(r.Signal)
		if err != nil {
			return err
		}
		return r.kill(ctx, containers, sig)
	case Down:
		if err := r.kill(ctx, containers, DefaultSignal); err != nil {
			return err
		}
		return r.stop(ctx, containers)
	case Remove:
		return r.removeStopped(ctx, containers)
	case Cull:
		if err := r.kill(ctx, containers, DefaultSignal); err != nil {
			return err
		}
		if err := r.stop(ctx, containers); err != nil {
			return err
		}
		return r.removeAll(ctx, containers)
	case Recreate:
		return r.restart(ctx, containers)
	default:
		return fmt.Errorf("unknown transition %s", t)
	}
}

func (r Runner) kill(ctx context.Context, containers []inventory.Container, signal string) error {
	for _, c := range containers {
		if !c.Running {
			continue
		}
		if err := r.Engine.ContainerKill(ctx, c.ID, signal); err != nil {
			return fmt.Errorf("kill %s: %w", c.Name, err)
		}
	}
	return nil
}

// stop stops every replica that was running at inventory time. Stopping a
// container the kill already ended is a no-op for the engine.
func (r Runner) stop(ctx context.Context, containers []inventory.Container) error {
	for _, c := range containers {
		if !c.Running {
			continue
		}
		if err := r.Engine.ContainerStop(ctx, c.ID, r.grace()); err != nil {
			return fmt.Errorf("stop %s: %w", c.Name, err)
		}
	}
	return nil
}

func (r Runner) removeStopped(ctx context.Context, containers []inventory.Container) error {
	for _, c := range containers {
		if c.Running {
			continue
		}
		if err := r.Engine.ContainerRemove(ctx, c.ID); err != nil {
			return fmt.Errorf("remove %s: %w", c.Name, err)
		}
	}
	return nil
}

func (r Runner) removeAll(ctx context.Context, containers []inventory.Container) error {
	for _, c := range containers {
		if err := r.Engine.ContainerRemove(ctx, c.ID); err != nil {
			return fmt.Errorf("remove %s: %w", c.Name, err)
		}
	}
	return nil
}

func (r Runner) restart(ctx context.Context, containers []inventory.Container) error {
	for _, c := range containers {
		if err := r.Engine.ContainerRestart(ctx, c.ID, r.grace()); err != nil {
			return fmt.Errorf("restart %s: %w", c.Name, err)
		}
	}
	return nil
}

func (r Runner) grace() time.Duration {
	if r.GracePeriod <= 0 {
		return 10 * time.Second
	}
	return r.GracePeriod
}
