package docker

import (
	"context"
	"errors"
	"time"

	"tug/internal/engine"
)

const readyPollInterval = 250 * time.Millisecond

// WaitReady pings the daemon until it answers or timeout elapses. Errors other
// than a refused connection are returned immediately.
func (r *Runtime) WaitReady(ctx context.Context, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	waiting := false
	for {
		err := r.Ping(ctx)
		if err == nil {
			if waiting {
				r.log.Debug("daemon reachable")
			}
			return nil
		}
		if !errors.Is(err, engine.ErrUnavailable) {
			r.log.Error("ping failed", "err", err)
			return err
		}
		if !waiting {
			waiting = true
			r.log.Debug("waiting for docker daemon")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return err
		case <-ticker.C:
		}
	}
}
