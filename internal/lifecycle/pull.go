package lifecycle

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"tug/internal/engine"
	"tug/internal/progress"
	"tug/internal/project"
)

// Puller fetches service images through the engine.
type Puller struct {
	Engine   engine.Engine
	Output   io.Writer
	Progress *progress.Tracker
}

// Pull pulls the image of every selected service and its dependencies.
// Services that build their own image are skipped.
func (pl Puller) Pull(ctx context.Context, p *project.Project, services []string) error {
	selected, err := p.Select(services, true)
	if err != nil {
		return err
	}

	log := slog.With("component", "pull", "project", p.Name)
	for _, svc := range selected {
		if svc.Build != nil {
			log.Debug("service builds its image, skipping pull", "service", svc.Name)
			continue
		}
		ref := svc.Spec.Image
		err := pl.Progress.Do("pull/"+svc.Name, "pulling "+ref, func() error {
			return pl.Engine.ImagePull(ctx, ref, pl.Output)
		})
		if err != nil {
			return fmt.Errorf("pull %s for %s: %w", ref, svc.Name, err)
		}
	}
	return nil
}
