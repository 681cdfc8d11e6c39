package converge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tug/internal/check"
	"tug/internal/engine"
	"tug/internal/inventory"
	"tug/internal/progress"
	"tug/internal/project"
)

// DefaultGracePeriod bounds each wait for a container to stop.
const DefaultGracePeriod = 10 * time.Second

// ApplyOptions tunes plan application.
type ApplyOptions struct {
	GracePeriod time.Duration
	Progress    *progress.Tracker
}

// Apply executes plans in order through the engine. It stops at the first
// failure; containers already changed stay changed.
func Apply(ctx context.Context, eng engine.Engine, p *project.Project, plans Plans, opts ApplyOptions) error {
	check.Assert(eng != nil, "converge.Apply: engine must not be nil")
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = DefaultGracePeriod
	}
	a := applier{
		eng:     eng,
		project: p,
		opts:    opts,
		log:     slog.With("component", "converge", "project", p.Name),
	}

	for _, plan := range plans {
		svc, err := p.Service(plan.Service)
		if err != nil {
			return err
		}
		title := fmt.Sprintf("%s %s", actionVerb(plan), plan.Service)
		if err := opts.Progress.Do("apply/"+plan.Service, title, func() error {
			return a.applyPlan(ctx, svc, plan)
		}); err != nil {
			return err
		}
	}
	return nil
}

type applier struct {
	eng     engine.Engine
	project *project.Project
	opts    ApplyOptions
	log     *slog.Logger
}

func (a applier) applyPlan(ctx context.Context, svc project.Service, plan Plan) error {
	log := a.log.With("service", plan.Service, "action", plan.Action, "reason", plan.Reason)
	log.Debug("applying plan", "kept", len(plan.Containers), "surplus", len(plan.Surplus), "missing", plan.Missing)

	for _, c := range plan.Surplus {
		if err := a.teardown(ctx, c); err != nil {
			return fmt.Errorf("scale down %s: %w", plan.Service, err)
		}
		log.Info("removed surplus container", "container", c.Name)
	}

	switch plan.Action {
	case ActionRecreate:
		for _, c := range plan.Containers {
			if err := a.recreate(ctx, svc, c); err != nil {
				return fmt.Errorf("recreate %s: %w", c.Name, err)
			}
			log.Info("recreated container", "container", c.Name)
		}
	case ActionStart:
		for _, c := range plan.Containers {
			if c.Running {
				continue
			}
			if err := a.eng.ContainerStart(ctx, c.ID); err != nil {
				return fmt.Errorf("start %s: %w", c.Name, err)
			}
			log.Info("started container", "container", c.Name)
		}
	case ActionCreate, ActionNoop:
	default:
		return fmt.Errorf("service %s: unknown action %q", plan.Service, plan.Action)
	}

	for _, index := range plan.NewIndexes() {
		owner := project.Ownership{Project: a.project.Name, Service: svc.Name, Index: index}
		if err := a.createAndStart(ctx, svc, owner); err != nil {
			return fmt.Errorf("create %s: %w", owner.ContainerName(), err)
		}
		log.Info("created container", "container", owner.ContainerName())
	}
	return nil
}

func (a applier) recreate(ctx context.Context, svc project.Service, c inventory.Container) error {
	if err := a.teardown(ctx, c); err != nil {
		return err
	}
	owner := project.Ownership{Project: a.project.Name, Service: svc.Name, Index: 1}
	if c.Owner != nil {
		owner.Index = c.Owner.Index
	}
	return a.createAndStart(ctx, svc, owner)
}

func (a applier) teardown(ctx context.Context, c inventory.Container) error {
	if c.Running || c.Paused || c.Restarting {
		if err := a.eng.ContainerStop(ctx, c.ID, a.opts.GracePeriod); err != nil {
			return err
		}
	}
	return a.eng.ContainerRemove(ctx, c.ID)
}

func (a applier) createAndStart(ctx context.Context, svc project.Service, owner project.Ownership) error {
	id, err := a.eng.ContainerCreate(ctx, svc.Spec.CreateConfig(owner))
	if err != nil {
		return err
	}
	return a.eng.ContainerStart(ctx, id)
}

func actionVerb(plan Plan) string {
	switch plan.Action {
	case ActionCreate:
		return "creating"
	case ActionRecreate:
		return "recreating"
	case ActionStart:
		return "starting"
	default:
		if plan.Missing > 0 || len(plan.Surplus) > 0 {
			return "scaling"
		}
		return "checking"
	}
}
