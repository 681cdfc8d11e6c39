package docker

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"tug/internal/engine"

	"github.com/docker/docker/api/types/build"
	"github.com/moby/go-archive"
)

// ImageBuild tars the build context, sends it to the daemon and streams the
// build output to progress. A failing build step is returned as an
// engine.APIError carrying the builder's message.
func (r *Runtime) ImageBuild(ctx context.Context, opts engine.BuildOptions, progress io.Writer) error {
	contextDir, err := filepath.Abs(opts.ContextDir)
	if err != nil {
		return fmt.Errorf("resolve build context %q: %w", opts.ContextDir, err)
	}

	buildCtx, err := archive.TarWithOptions(contextDir, &archive.TarOptions{})
	if err != nil {
		return fmt.Errorf("archive build context %q: %w", contextDir, err)
	}
	defer buildCtx.Close()

	target := contextDir
	if len(opts.Tags) > 0 {
		target = opts.Tags[0]
	}
	r.log.Info("building image", "context", contextDir, "tags", opts.Tags, "no_cache", opts.NoCache)

	resp, err := r.cli.ImageBuild(ctx, buildCtx, build.ImageBuildOptions{
		Tags:        opts.Tags,
		Dockerfile:  opts.Dockerfile,
		BuildArgs:   opts.Args,
		Target:      opts.Target,
		NoCache:     opts.NoCache,
		PullParent:  opts.Pull,
		Remove:      true,
		ForceRemove: true,
	})
	if err != nil {
		return wrapErr("build image", target, err)
	}
	defer resp.Body.Close()

	return displayStream("build image", target, resp.Body, progress)
}
