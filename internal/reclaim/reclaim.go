package reclaim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tug/internal/engine"
	"tug/internal/inventory"
	"tug/internal/progress"
)

// DefaultGracePeriod bounds each wait for an orphan to exit.
const DefaultGracePeriod = 10 * time.Second

// Reclaimer tears down orphaned containers: SIGTERM, a bounded wait, a
// forceful stop, a second bounded wait, then removal.
type Reclaimer struct {
	Engine      engine.Engine
	GracePeriod time.Duration
	Progress    *progress.Tracker
}

// Reclaim removes every orphan. A removal failure does not stop the others;
// all failures are joined. Wait timeouts escalate and are never returned.
func (r Reclaimer) Reclaim(ctx context.Context, orphans []inventory.Container) error {
	var errs []error
	for _, c := range orphans {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := r.Progress.Do("reclaim/"+c.ID, "removing "+c.Name, func() error {
			return r.reclaimOne(ctx, c)
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r Reclaimer) reclaimOne(ctx context.Context, c inventory.Container) error {
	log := slog.With("component", "reclaim", "container", c.Name, "id", c.ID)
	grace := r.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}

	if c.Running {
		gone, err := r.terminate(ctx, log, c, grace)
		if err != nil {
			return err
		}
		if gone {
			log.Debug("orphan disappeared during shutdown")
			return nil
		}
	}

	if err := r.Engine.ContainerRemove(ctx, c.ID); err != nil {
		if engine.IsNotFound(err) {
			log.Debug("orphan already removed")
			return nil
		}
		return fmt.Errorf("remove %s: %w", c.Name, err)
	}
	log.Info("removed orphan")
	return nil
}

// terminate runs the graceful-then-forceful shutdown. gone reports that the
// container vanished on its own.
func (r Reclaimer) terminate(ctx context.Context, log *slog.Logger, c inventory.Container, grace time.Duration) (gone bool, err error) {
	if err := r.Engine.ContainerKill(ctx, c.ID, "SIGTERM"); err != nil {
		if engine.IsNotFound(err) {
			return true, nil
		}
		// A container that exited since the inventory rejects the signal;
		// the wait below sees it stopped.
		log.Debug("SIGTERM rejected", "err", engine.Explain(err))
	}

	exited, err := r.wait(ctx, c, grace)
	if err != nil || exited {
		return false, err
	}

	log.Debug("orphan ignored SIGTERM, stopping", "grace", grace)
	if err := r.Engine.ContainerStop(ctx, c.ID, grace); err != nil {
		if engine.IsNotFound(err) {
			return true, nil
		}
		return false, fmt.Errorf("stop %s: %w", c.Name, err)
	}
	if _, err := r.wait(ctx, c, grace); err != nil {
		return false, err
	}
	return false, nil
}

// wait blocks up to grace for the container to exit. A timeout is reported as
// not exited, never as an error.
func (r Reclaimer) wait(ctx context.Context, c inventory.Container, grace time.Duration) (bool, error) {
	_, err := r.Engine.ContainerWait(ctx, c.ID, grace)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, engine.ErrWaitTimeout):
		return false, nil
	case engine.IsNotFound(err):
		return true, nil
	case ctx.Err() != nil:
		return false, ctx.Err()
	default:
		return false, fmt.Errorf("wait for %s: %w", c.Name, err)
	}
}
