package cmdutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"tug/cmd/tug/ui"
	"tug/internal/adapter/docker"
	"tug/internal/config"
	"tug/internal/engine"
	"tug/internal/logging"
	"tug/internal/telemetry"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"
)

const dialTimeout = 3 * time.Second

// Dialer opens an engine for the given host. An empty host means the
// environment default.
type Dialer func(ctx context.Context, host string) (engine.Engine, error)

// Globals holds the root flags and everything resolved from them before a
// subcommand runs.
type Globals struct {
	Debug         bool
	Trace         bool
	DockerHost    string
	ConfigPath    string
	NoInteraction bool

	// Dir is where project files are looked up. Empty means the working
	// directory.
	Dir string
	// Dial opens the engine. Nil means the Docker daemon.
	Dial Dialer

	Settings config.Settings
	provider *telemetry.Provider
}

// Bind registers the global flags on the root command.
func (g *Globals) Bind(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.BoolVar(&g.Debug, "debug", false, "Enable debug logging")
	f.BoolVar(&g.Trace, "trace", false, "Print phase spans to stderr")
	f.StringVar(&g.DockerHost, "docker-host", "", "Docker daemon address (overrides DOCKER_HOST)")
	f.StringVar(&g.ConfigPath, "config", "", "Settings file (default $XDG_CONFIG_HOME/tug/config.yaml)")
	f.BoolVar(&g.NoInteraction, "no-interaction", false, "Disable spinners and colour")
}

// Setup loads settings and installs logging, tracing and the output mode.
// Flags take precedence over settings.
func (g *Globals) Setup() error {
	settings, err := config.Load(g.ConfigPath)
	if err != nil {
		return err
	}
	if g.DockerHost != "" {
		settings.DockerHost = g.DockerHost
	}
	if g.Debug {
		settings.LogLevel = logging.LevelDebug
	}
	g.Settings = settings

	if err := logging.Configure(settings.LogLevel, settings.LogFormat); err != nil {
		return err
	}
	ui.ConfigureInteraction(g.NoInteraction)

	provider, err := telemetry.NewProvider(g.Trace, os.Stderr)
	if err != nil {
		return err
	}
	g.provider = provider
	slog.Debug("settings loaded", "component", "cli", "docker_host", settings.DockerHost, "grace_period", settings.GracePeriod)
	return nil
}

// Shutdown flushes any pending spans.
func (g *Globals) Shutdown(ctx context.Context) error {
	if g.provider == nil {
		return nil
	}
	return g.provider.Shutdown(ctx)
}

// Tracer returns the command tracer, a no-op one before Setup.
func (g *Globals) Tracer() trace.Tracer {
	if g.provider == nil {
		p, _ := telemetry.NewProvider(false, io.Discard)
		g.provider = p
	}
	return g.provider.Tracer()
}

// ProjectDir resolves the directory holding project files.
func (g *Globals) ProjectDir() (string, error) {
	if g.Dir != "" {
		return g.Dir, nil
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	return dir, nil
}

// GracePeriod is the configured stop timeout.
func (g *Globals) GracePeriod() time.Duration {
	if g.Settings.GracePeriod > 0 {
		return g.Settings.GracePeriod
	}
	return config.DefaultGracePeriod
}

// DialEngine opens the engine named by the settings.
func (g *Globals) DialEngine(ctx context.Context) (engine.Engine, error) {
	if g.Dial != nil {
		return g.Dial(ctx, g.Settings.DockerHost)
	}
	return DialDocker(ctx, g.Settings.DockerHost)
}

// DialDocker connects to the Docker daemon and waits briefly for it to
// answer.
func DialDocker(ctx context.Context, host string) (engine.Engine, error) {
	rt, err := docker.NewRuntime(host)
	if err != nil {
		return nil, err
	}
	if err := rt.WaitReady(ctx, dialTimeout); err != nil {
		_ = rt.Close()
		return nil, err
	}
	return rt, nil
}
