package lifecycle

import (
	"context"
	"errors"
	"testing"

	"tug/internal/adapter/fake"
	"tug/internal/engine"
	"tug/internal/project"
)

func buildProject() *project.Project {
	return &project.Project{
		Name: "web",
		Services: []project.Service{
			{Name: "cache", Replicas: 1, Spec: project.ServiceSpec{Image: "redis:7"}},
			{
				Name:     "app",
				Replicas: 1,
				Spec:     project.ServiceSpec{Image: "web_app"},
				Build:    &project.BuildSpec{Context: "/src/app", Dockerfile: "Dockerfile.prod"},
			},
		},
	}
}

func TestBuilder_SkipsImageOnlyServices(t *testing.T) {
	eng := fake.NewEngine()
	b := Builder{Engine: eng}

	if err := b.Build(t.Context(), buildProject(), nil, true); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	calls := eng.Calls("ImageBuild")
	if len(calls) != 1 {
		t.Fatalf("ImageBuild calls = %d, want 1", len(calls))
	}
	opts := calls[0].Args[0].(engine.BuildOptions)
	if opts.ContextDir != "/src/app" || opts.Dockerfile != "Dockerfile.prod" || !opts.NoCache {
		t.Fatalf("build options = %+v", opts)
	}
	if len(opts.Tags) != 1 || opts.Tags[0] != "web_app" {
		t.Fatalf("tags = %v, want [web_app]", opts.Tags)
	}
}

func TestBuilder_FailureBecomesBuildError(t *testing.T) {
	eng := fake.NewEngine()
	eng.ImageBuildErr = func(ctx context.Context, opts engine.BuildOptions) error {
		return &engine.APIError{Op: "build image", Target: "web_app", Explanation: "The command '/bin/sh -c make' returned a non-zero code: 2"}
	}
	b := Builder{Engine: eng}

	err := b.Build(t.Context(), buildProject(), []string{"app"}, false)
	var buildErr *BuildError
	if !errors.As(err, &buildErr) {
		t.Fatalf("Build() error = %v, want BuildError", err)
	}
	want := "Service 'app' failed to build: The command '/bin/sh -c make' returned a non-zero code: 2"
	if buildErr.Error() != want {
		t.Fatalf("Error() = %q, want %q", buildErr.Error(), want)
	}
}

func TestPuller_PullsImageServicesWithDeps(t *testing.T) {
	eng := fake.NewEngine()
	p := buildProject()
	p.Services = append(p.Services, project.Service{
		Name: "proxy", Replicas: 1, DependsOn: []string{"cache"}, Spec: project.ServiceSpec{Image: "nginx:1.25"},
	})

	pl := Puller{Engine: eng}
	if err := pl.Pull(t.Context(), p, []string{"proxy"}); err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if !eng.HasImage("redis:7") || !eng.HasImage("nginx:1.25") {
		t.Fatal("expected proxy and its dependency to be pulled")
	}
	if eng.HasImage("web_app") {
		t.Fatal("built service image was pulled")
	}
}
