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

// BuildError is an image build the engine rejected.
type BuildError struct {
	Service string
	Reason  string
	Err     error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("Service '%s' failed to build: %s", e.Service, e.Reason)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Builder builds service images through the engine.
type Builder struct {
	Engine   engine.Engine
	Output   io.Writer
	Progress *progress.Tracker
}

// Build builds every selected service that has a build section, tagging the
// result with the service image. Image-only services are skipped.
func (b Builder) Build(ctx context.Context, p *project.Project, services []string, noCache bool) error {
	selected, err := p.Select(services, false)
	if err != nil {
		return err
	}

	log := slog.With("component", "build", "project", p.Name)
	for _, svc := range selected {
		if svc.Build == nil {
			log.Info("service uses an image, skipping", "service", svc.Name, "image", svc.Spec.Image)
			continue
		}

		opts := engine.BuildOptions{
			ContextDir: svc.Build.Context,
			Dockerfile: svc.Build.Dockerfile,
			Tags:       []string{svc.Spec.Image},
			Args:       svc.Build.Args,
			Target:     svc.Build.Target,
			NoCache:    noCache,
		}
		err := b.Progress.Do("build/"+svc.Name, "building "+svc.Name, func() error {
			return b.Engine.ImageBuild(ctx, opts, b.Output)
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &BuildError{Service: svc.Name, Reason: engine.Explain(err), Err: err}
		}
		log.Info("built image", "service", svc.Name, "image", svc.Spec.Image)
	}
	return nil
}
