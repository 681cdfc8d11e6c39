package cmdutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"tug/internal/adapter/fake"
	"tug/internal/engine"
	"tug/internal/lifecycle"
	"tug/internal/project"
)

func TestDescribe(t *testing.T) {
	apiErr := &engine.APIError{Op: "create", Target: "web_app_1", Explanation: "Conflict. The name is already in use"}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "interrupt", err: fmt.Errorf("apply: %w", context.Canceled), want: "Aborting."},
		{name: "configuration", err: &project.ConfigurationError{File: "web.yml", Msg: "no services defined"}, want: "web.yml: no services defined"},
		{name: "no such service", err: &project.NoSuchServiceError{Project: "web", Name: "api"}, want: "No such service: api"},
		{name: "engine", err: fmt.Errorf("create app: %w", apiErr), want: "Conflict. The name is already in use"},
		{
			name: "build",
			err:  &lifecycle.BuildError{Service: "app", Reason: "no Dockerfile", Err: apiErr},
			want: "Service 'app' failed to build: no Dockerfile",
		},
		{name: "other", err: errors.New("boom"), want: "error: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Describe(tt.err); got != tt.want {
				t.Fatalf("Describe() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	if got := ExitCode(nil); got != 0 {
		t.Fatalf("ExitCode(nil) = %d", got)
	}
	if got := ExitCode(fmt.Errorf("exec: %w", &ExitCodeError{Code: 42})); got != 42 {
		t.Fatalf("ExitCode(exit 42) = %d", got)
	}
	if got := ExitCode(errors.New("boom")); got != 1 {
		t.Fatalf("ExitCode(boom) = %d", got)
	}
	if got := ExitCode(&ExitCodeError{Code: -1}); got != 1 {
		t.Fatalf("ExitCode(signalled) = %d, want 1", got)
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		aborted  bool
		wantMsg  string
		wantCode int
	}{
		{name: "success", wantCode: 0},
		{name: "failure", err: errors.New("boom"), wantMsg: "error: boom", wantCode: 1},
		{name: "child status", err: &ExitCodeError{Code: 3}, wantCode: 3},
		{name: "interrupted command", err: context.Canceled, aborted: true, wantMsg: "Aborting.", wantCode: 1},
		{name: "interrupt after success", aborted: true, wantMsg: "Aborting.", wantCode: 1},
		{name: "interrupt beats child status", err: &ExitCodeError{Code: 3}, aborted: true, wantMsg: "Aborting.", wantCode: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, code := Outcome(tt.err, tt.aborted)
			if msg != tt.wantMsg || code != tt.wantCode {
				t.Fatalf("Outcome() = (%q, %d), want (%q, %d)", msg, code, tt.wantMsg, tt.wantCode)
			}
		})
	}
}

func TestSetupFlagsOverrideSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "docker_host: unix:///from/file.sock\ngrace_period: 4s\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DOCKER_HOST", "")
	t.Setenv("TUG_LOG_LEVEL", "")
	t.Setenv("TUG_LOG_FORMAT", "")

	g := &Globals{ConfigPath: path, DockerHost: "tcp://flag:2375", Debug: true, NoInteraction: true}
	if err := g.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	t.Cleanup(func() { _ = g.Shutdown(context.Background()) })

	if g.Settings.DockerHost != "tcp://flag:2375" {
		t.Errorf("docker host = %q, want flag value", g.Settings.DockerHost)
	}
	if g.Settings.LogLevel != "debug" {
		t.Errorf("log level = %q, want debug", g.Settings.LogLevel)
	}
	if g.GracePeriod() != 4*time.Second {
		t.Errorf("grace period = %s, want 4s", g.GracePeriod())
	}

	var dialled string
	g.Dial = func(_ context.Context, host string) (engine.Engine, error) {
		dialled = host
		return fake.NewEngine(), nil
	}
	if _, err := g.DialEngine(t.Context()); err != nil {
		t.Fatalf("DialEngine() error = %v", err)
	}
	if dialled != "tcp://flag:2375" {
		t.Errorf("dialled %q, want flag value", dialled)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"web.yml":   "services:\n  app:\n    image: nginx\n",
		"jobs.yaml": "services:\n  cron:\n    image: busybox\n",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	eng := fake.NewEngine()
	eng.Add(fake.Container{Name: "jobs_cron_1", Running: true})
	g := &Globals{Dir: dir, Dial: func(context.Context, string) (engine.Engine, error) { return eng, nil }}

	s, err := g.Open(t.Context(), "web")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if s.Project.Name != "web" || !slices.Equal(s.Projects, []string{"jobs", "web"}) {
		t.Fatalf("session project = %q, projects = %v", s.Project.Name, s.Projects)
	}
	if err := s.Refresh(t.Context()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if n := len(s.Inventory.ForProject("jobs")); n != 1 {
		t.Fatalf("jobs containers = %d, want 1", n)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	_, err = g.Open(t.Context(), "missing")
	var cfgErr *project.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Open(missing) error = %v, want ConfigurationError", err)
	}
}
