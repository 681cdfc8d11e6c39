package fake

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"tug/internal/engine"
)

var _ engine.Engine = (*Engine)(nil)

// Container is the seedable state of one fake container.
type Container struct {
	ID          string
	Name        string
	Image       string
	Running     bool
	Paused      bool
	// Fresh marks a container that was created but never started.
	Fresh       bool
	ExitCode    int
	IPAddress   string
	NetworkMode string
	Labels      map[string]string
	Config      engine.CreateConfig

	// IgnoreSIGTERM keeps the container running after a SIGTERM kill, so only
	// a stop or SIGKILL ends it.
	IgnoreSIGTERM bool
	// Wedged keeps the container running through SIGTERM and stop; only
	// SIGKILL ends it.
	Wedged bool
	// Logs is written line by line to stdout by ContainerLogs.
	Logs []string
}

// Engine is an in-memory implementation of engine.Engine.
type Engine struct {
	CallRecorder
	mu          sync.Mutex
	unavailable bool
	containers  map[string]*Container
	order       []string
	images      map[string]bool
	nextID      int
	nextIP      int

	ContainerInspectErr func(ctx context.Context, id string) error
	ContainerCreateErr  func(ctx context.Context, cfg engine.CreateConfig) error
	ContainerStartErr   func(ctx context.Context, id string) error
	ContainerStopErr    func(ctx context.Context, id string) error
	ContainerKillErr    func(ctx context.Context, id, signal string) error
	ContainerRemoveErr  func(ctx context.Context, id string) error
	ImagePullErr        func(ctx context.Context, ref string) error
	ImageBuildErr       func(ctx context.Context, opts engine.BuildOptions) error
}

// NewEngine creates an empty, reachable Engine.
func NewEngine() *Engine {
	return &Engine{
		containers: make(map[string]*Container),
		images:     make(map[string]bool),
	}
}

// Add seeds a container and returns its ID. A missing ID is generated.
func (e *Engine) Add(c Container) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if c.ID == "" {
		e.nextID++
		c.ID = fmt.Sprintf("c%04d", e.nextID)
	}
	if c.Labels == nil {
		c.Labels = map[string]string{}
	}
	stored := c
	e.containers[c.ID] = &stored
	e.order = append(e.order, c.ID)
	return c.ID
}

// Get returns a copy of the container with the given ID or name.
func (e *Engine) Get(ref string) (Container, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.lookup(ref)
	if !ok {
		return Container{}, false
	}
	return *c, true
}

// Names lists the names of all containers in creation order.
func (e *Engine) Names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.containers[id].Name)
	}
	return out
}

// SetUnavailable makes every call fail as if the daemon were unreachable.
func (e *Engine) SetUnavailable(unavailable bool) {
	e.mu.Lock()
	e.unavailable = unavailable
	e.mu.Unlock()
}

// HasImage reports whether ref was pulled or built.
func (e *Engine) HasImage(ref string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.images[ref]
}

func (e *Engine) Ping(ctx context.Context) error {
	e.record("Ping")
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reachable("ping")
}

func (e *Engine) ContainerList(ctx context.Context) ([]engine.ContainerSummary, error) {
	e.record("ContainerList")
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.reachable("list containers"); err != nil {
		return nil, err
	}
	out := make([]engine.ContainerSummary, 0, len(e.order))
	for _, id := range e.order {
		c := e.containers[id]
		out = append(out, engine.ContainerSummary{ID: c.ID, Name: c.Name, Image: c.Image, State: stateOf(c)})
	}
	return out, nil
}

func (e *Engine) ContainerInspect(ctx context.Context, id string) (engine.ContainerDetail, error) {
	e.record("ContainerInspect", id)
	if e.ContainerInspectErr != nil {
		if err := e.ContainerInspectErr(ctx, id); err != nil {
			return engine.ContainerDetail{}, err
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.reachable("inspect container"); err != nil {
		return engine.ContainerDetail{}, err
	}
	c, ok := e.lookup(id)
	if !ok {
		return engine.ContainerDetail{}, notFound("inspect container", id)
	}
	labels := make(map[string]string, len(c.Labels))
	for k, v := range c.Labels {
		labels[k] = v
	}
	return engine.ContainerDetail{
		ID:          c.ID,
		Name:        c.Name,
		Image:       c.Image,
		Status:      stateOf(c),
		Running:     c.Running,
		Paused:      c.Paused,
		ExitCode:    c.ExitCode,
		IPAddress:   c.IPAddress,
		NetworkMode: c.NetworkMode,
		Labels:      labels,
	}, nil
}

func (e *Engine) ContainerCreate(ctx context.Context, cfg engine.CreateConfig) (string, error) {
	e.record("ContainerCreate", cfg)
	if e.ContainerCreateErr != nil {
		if err := e.ContainerCreateErr(ctx, cfg); err != nil {
			return "", err
		}
	}
	e.mu.Lock()
	if err := e.reachable("create container"); err != nil {
		e.mu.Unlock()
		return "", err
	}
	if _, exists := e.lookup(cfg.Name); exists {
		e.mu.Unlock()
		return "", &engine.APIError{
			Op:          "create container",
			Target:      cfg.Name,
			Explanation: fmt.Sprintf("Conflict. The container name %q is already in use", "/"+cfg.Name),
		}
	}
	e.images[cfg.Image] = true
	ip := ""
	if cfg.NetworkMode != "host" {
		e.nextIP++
		ip = fmt.Sprintf("172.17.0.%d", e.nextIP+1)
	}
	e.mu.Unlock()

	labels := make(map[string]string, len(cfg.Labels))
	for k, v := range cfg.Labels {
		labels[k] = v
	}
	return e.Add(Container{
		Name:        cfg.Name,
		Image:       cfg.Image,
		IPAddress:   ip,
		NetworkMode: cfg.NetworkMode,
		Labels:      labels,
		Config:      cfg,
		Fresh:       true,
	}), nil
}

func (e *Engine) ContainerStart(ctx context.Context, id string) error {
	e.record("ContainerStart", id)
	if e.ContainerStartErr != nil {
		if err := e.ContainerStartErr(ctx, id); err != nil {
			return err
		}
	}
	return e.mutate("start container", id, func(c *Container) error {
		c.Running = true
		c.Paused = false
		c.Fresh = false
		c.ExitCode = 0
		return nil
	})
}

func (e *Engine) ContainerStop(ctx context.Context, id string, timeout time.Duration) error {
	e.record("ContainerStop", id, timeout)
	if e.ContainerStopErr != nil {
		if err := e.ContainerStopErr(ctx, id); err != nil {
			return err
		}
	}
	return e.mutate("stop container", id, func(c *Container) error {
		if !c.Running || c.Wedged {
			return nil
		}
		c.Running = false
		c.Paused = false
		if c.IgnoreSIGTERM {
			c.ExitCode = 137
		} else {
			c.ExitCode = 0
		}
		return nil
	})
}

func (e *Engine) ContainerKill(ctx context.Context, id string, signal string) error {
	e.record("ContainerKill", id, signal)
	if e.ContainerKillErr != nil {
		if err := e.ContainerKillErr(ctx, id, signal); err != nil {
			return err
		}
	}
	return e.mutate("kill container", id, func(c *Container) error {
		if !c.Running {
			return &engine.APIError{
				Op:          "kill container",
				Target:      id,
				Explanation: fmt.Sprintf("Cannot kill container: %s: container %s is not running", id, c.ID),
			}
		}
		switch signal {
		case "SIGTERM", "TERM", "15":
			if c.IgnoreSIGTERM || c.Wedged {
				return nil
			}
			c.ExitCode = 143
		default:
			c.ExitCode = 137
		}
		c.Running = false
		c.Paused = false
		return nil
	})
}

func (e *Engine) ContainerRestart(ctx context.Context, id string, timeout time.Duration) error {
	e.record("ContainerRestart", id, timeout)
	return e.mutate("restart container", id, func(c *Container) error {
		c.Running = true
		c.Paused = false
		c.Fresh = false
		c.ExitCode = 0
		return nil
	})
}

func (e *Engine) ContainerRemove(ctx context.Context, id string) error {
	e.record("ContainerRemove", id)
	if e.ContainerRemoveErr != nil {
		if err := e.ContainerRemoveErr(ctx, id); err != nil {
			return err
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.reachable("remove container"); err != nil {
		return err
	}
	c, ok := e.lookup(id)
	if !ok {
		return notFound("remove container", id)
	}
	if c.Running {
		return &engine.APIError{
			Op:          "remove container",
			Target:      id,
			Explanation: fmt.Sprintf("cannot remove container %q: container is running: stop the container before removing or force remove", "/"+c.Name),
		}
	}
	delete(e.containers, c.ID)
	e.order = slices.DeleteFunc(e.order, func(v string) bool { return v == c.ID })
	return nil
}

// ContainerWait returns immediately: a container that is still running is
// reported as a timeout without sleeping.
func (e *Engine) ContainerWait(ctx context.Context, id string, timeout time.Duration) (int64, error) {
	e.record("ContainerWait", id, timeout)
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.reachable("wait container"); err != nil {
		return 0, err
	}
	c, ok := e.lookup(id)
	if !ok {
		return 0, notFound("wait container", id)
	}
	if c.Running {
		return 0, engine.ErrWaitTimeout
	}
	return int64(c.ExitCode), nil
}

func (e *Engine) ContainerLogs(ctx context.Context, id string, opts engine.LogOptions, stdout, stderr io.Writer) error {
	e.record("ContainerLogs", id, opts)
	e.mu.Lock()
	c, ok := e.lookup(id)
	var lines []string
	if ok {
		lines = slices.Clone(c.Logs)
	}
	e.mu.Unlock()

	if !ok {
		return notFound("container logs", id)
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(stdout, line); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) ImagePull(ctx context.Context, ref string, progress io.Writer) error {
	e.record("ImagePull", ref)
	if e.ImagePullErr != nil {
		if err := e.ImagePullErr(ctx, ref); err != nil {
			return err
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.reachable("pull image"); err != nil {
		return err
	}
	e.images[ref] = true
	return nil
}

func (e *Engine) ImageBuild(ctx context.Context, opts engine.BuildOptions, progress io.Writer) error {
	e.record("ImageBuild", opts)
	if e.ImageBuildErr != nil {
		if err := e.ImageBuildErr(ctx, opts); err != nil {
			return err
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.reachable("build image"); err != nil {
		return err
	}
	for _, tag := range opts.Tags {
		e.images[tag] = true
	}
	return nil
}

func (e *Engine) Close() error {
	e.record("Close")
	return nil
}

func (e *Engine) mutate(op, id string, fn func(c *Container) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.reachable(op); err != nil {
		return err
	}
	c, ok := e.lookup(id)
	if !ok {
		return notFound(op, id)
	}
	return fn(c)
}

// lookup resolves an ID or a name, like the Docker API does. Caller holds mu.
func (e *Engine) lookup(ref string) (*Container, bool) {
	if c, ok := e.containers[ref]; ok {
		return c, true
	}
	for _, id := range e.order {
		if c := e.containers[id]; c.Name == ref {
			return c, true
		}
	}
	return nil, false
}

func (e *Engine) reachable(op string) error {
	if !e.unavailable {
		return nil
	}
	return &engine.APIError{
		Op:          op,
		Explanation: "Cannot connect to the Docker daemon. Is the docker daemon running?",
		Err:         engine.ErrUnavailable,
	}
}

func notFound(op, id string) error {
	return &engine.APIError{
		Op:          op,
		Target:      id,
		Explanation: fmt.Sprintf("No such container: %s", id),
		Err:         engine.ErrNotFound,
	}
}

func stateOf(c *Container) string {
	switch {
	case c.Paused:
		return "paused"
	case c.Running:
		return "running"
	case c.Fresh:
		return "created"
	default:
		return "exited"
	}
}
