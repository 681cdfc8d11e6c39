package engine

import (
	"context"
	"io"
	"time"
)

// Engine abstracts the container engine operations a reconciliation pass needs.
// Production: adapter/docker.Runtime (wrapping the Docker *client.Client)
// Testing: adapter/fake.Engine
type Engine interface {
	// Daemon health
	Ping(ctx context.Context) error

	// Inventory
	ContainerList(ctx context.Context) ([]ContainerSummary, error)
	ContainerInspect(ctx context.Context, id string) (ContainerDetail, error)

	// Container lifecycle
	ContainerCreate(ctx context.Context, cfg CreateConfig) (string, error)
	ContainerStart(ctx context.Context, id string) error
	ContainerStop(ctx context.Context, id string, timeout time.Duration) error
	ContainerKill(ctx context.Context, id string, signal string) error
	ContainerRestart(ctx context.Context, id string, timeout time.Duration) error
	ContainerRemove(ctx context.Context, id string) error

	// ContainerWait blocks until the container is no longer running and returns
	// its exit code. It returns ErrWaitTimeout when timeout elapses first.
	ContainerWait(ctx context.Context, id string, timeout time.Duration) (int64, error)
	ContainerLogs(ctx context.Context, id string, opts LogOptions, stdout, stderr io.Writer) error

	// Images
	ImagePull(ctx context.Context, ref string, progress io.Writer) error
	ImageBuild(ctx context.Context, opts BuildOptions, progress io.Writer) error

	Close() error
}

// ContainerSummary is one row of a container listing.
type ContainerSummary struct {
	ID    string
	Name  string
	Image string
	State string
}

// ContainerDetail is the inspected state of one container.
type ContainerDetail struct {
	ID          string
	Name        string
	Image       string
	Status      string
	Running     bool
	Paused      bool
	Restarting  bool
	ExitCode    int
	IPAddress   string
	NetworkMode string
	Labels      map[string]string
}

// CreateConfig holds parameters for creating a container.
type CreateConfig struct {
	Name          string
	Image         string
	Cmd           []string
	Entrypoint    []string
	Env           []string
	Labels        map[string]string
	NetworkMode   string
	RestartPolicy string
	Ports         []PortBinding
	Mounts        []Mount
}

// PortBinding publishes a container port on the host.
type PortBinding struct {
	HostIP        string
	HostPort      uint16
	ContainerPort uint16
	Protocol      string
}

// Mount describes a bind or volume mount for a container.
type Mount struct {
	Type     string
	Source   string
	Target   string
	ReadOnly bool
}

// LogOptions selects which part of a container log to read.
type LogOptions struct {
	Follow bool
	Tail   string
}

// BuildOptions describes one image build.
type BuildOptions struct {
	ContextDir string
	Dockerfile string
	Tags       []string
	Args       map[string]*string
	Target     string
	NoCache    bool
	Pull       bool
}
