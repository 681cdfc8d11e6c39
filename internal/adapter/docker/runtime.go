package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"tug/internal/engine"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
)

var _ engine.Engine = (*Runtime)(nil)

// Runtime implements engine.Engine using the Docker Engine API.
type Runtime struct {
	cli *client.Client
	log *slog.Logger
}

// NewRuntime creates a Runtime from the environment. A non-empty host
// overrides DOCKER_HOST.
func NewRuntime(host string) (*Runtime, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host = strings.TrimSpace(host); host != "" {
		opts = append(opts, client.WithHost(host))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return NewRuntimeFromClient(cli), nil
}

// NewRuntimeFromClient wraps an existing Docker client.
func NewRuntimeFromClient(cli *client.Client) *Runtime {
	return &Runtime{cli: cli, log: slog.With("component", "docker")}
}

func (r *Runtime) Ping(ctx context.Context) error {
	if _, err := r.cli.Ping(ctx); err != nil {
		return wrapErr("ping", "", err)
	}
	return nil
}

func (r *Runtime) ContainerList(ctx context.Context) ([]engine.ContainerSummary, error) {
	containers, err := r.cli.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, wrapErr("list containers", "", err)
	}

	out := make([]engine.ContainerSummary, 0, len(containers))
	for _, c := range containers {
		name := ""
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}
		out = append(out, engine.ContainerSummary{
			ID:    c.ID,
			Name:  name,
			Image: c.Image,
			State: string(c.State),
		})
	}
	return out, nil
}

func (r *Runtime) ContainerInspect(ctx context.Context, id string) (engine.ContainerDetail, error) {
	info, err := r.cli.ContainerInspect(ctx, id)
	if err != nil {
		return engine.ContainerDetail{}, wrapErr("inspect container", id, err)
	}
	return detailFromInspect(info), nil
}

func (r *Runtime) ContainerCreate(ctx context.Context, cfg engine.CreateConfig) (string, error) {
	cc, hc := createConfigs(cfg)

	resp, err := r.cli.ContainerCreate(ctx, cc, hc, nil, nil, cfg.Name)
	if err != nil {
		if !isNotFound(err) {
			return "", wrapErr("create container", cfg.Name, err)
		}
		// Image missing locally: pull once and retry.
		if err := r.ImagePull(ctx, cfg.Image, io.Discard); err != nil {
			return "", err
		}
		resp, err = r.cli.ContainerCreate(ctx, cc, hc, nil, nil, cfg.Name)
		if err != nil {
			return "", wrapErr("create container", cfg.Name, err)
		}
	}
	for _, w := range resp.Warnings {
		r.log.Warn("create container warning", "container", cfg.Name, "warning", w)
	}
	return resp.ID, nil
}

func (r *Runtime) ContainerStart(ctx context.Context, id string) error {
	if err := r.cli.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return wrapErr("start container", id, err)
	}
	return nil
}

func (r *Runtime) ContainerStop(ctx context.Context, id string, timeout time.Duration) error {
	if err := r.cli.ContainerStop(ctx, id, stopOptions(timeout)); err != nil {
		return wrapErr("stop container", id, err)
	}
	return nil
}

func (r *Runtime) ContainerKill(ctx context.Context, id string, signal string) error {
	if err := r.cli.ContainerKill(ctx, id, signal); err != nil {
		return wrapErr("kill container", id, err)
	}
	return nil
}

func (r *Runtime) ContainerRestart(ctx context.Context, id string, timeout time.Duration) error {
	if err := r.cli.ContainerRestart(ctx, id, stopOptions(timeout)); err != nil {
		return wrapErr("restart container", id, err)
	}
	return nil
}

func (r *Runtime) ContainerRemove(ctx context.Context, id string) error {
	if err := r.cli.ContainerRemove(ctx, id, container.RemoveOptions{}); err != nil {
		return wrapErr("remove container", id, err)
	}
	return nil
}

func (r *Runtime) ContainerWait(ctx context.Context, id string, timeout time.Duration) (int64, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	respCh, errCh := r.cli.ContainerWait(waitCtx, id, container.WaitConditionNotRunning)
	select {
	case resp := <-respCh:
		if resp.Error != nil && resp.Error.Message != "" {
			return resp.StatusCode, &engine.APIError{Op: "wait container", Target: id, Explanation: resp.Error.Message}
		}
		return resp.StatusCode, nil
	case err := <-errCh:
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		if waitCtx.Err() != nil {
			return 0, engine.ErrWaitTimeout
		}
		return 0, wrapErr("wait container", id, err)
	}
}

func (r *Runtime) ContainerLogs(ctx context.Context, id string, opts engine.LogOptions, stdout, stderr io.Writer) error {
	info, err := r.cli.ContainerInspect(ctx, id)
	if err != nil {
		return wrapErr("inspect container", id, err)
	}

	rc, err := r.cli.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     opts.Follow,
		Tail:       opts.Tail,
	})
	if err != nil {
		return wrapErr("container logs", id, err)
	}
	defer rc.Close()

	// TTY containers stream raw output without the multiplexing header.
	if info.Config != nil && info.Config.Tty {
		_, err = io.Copy(stdout, rc)
	} else {
		_, err = stdcopy.StdCopy(stdout, stderr, rc)
	}
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("read logs for %s: %w", id, err)
	}
	return nil
}

func (r *Runtime) ImagePull(ctx context.Context, ref string, progress io.Writer) error {
	r.log.Info("pulling image", "image", ref)
	rc, err := r.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return wrapErr("pull image", ref, err)
	}
	defer rc.Close()
	return displayStream("pull image", ref, rc, progress)
}

func (r *Runtime) Close() error {
	return r.cli.Close()
}

func detailFromInspect(info container.InspectResponse) engine.ContainerDetail {
	out := engine.ContainerDetail{
		ID:   info.ID,
		Name: strings.TrimPrefix(info.Name, "/"),
	}
	if info.State != nil {
		out.Status = string(info.State.Status)
		out.Running = info.State.Running
		out.Paused = info.State.Paused
		out.Restarting = info.State.Restarting
		out.ExitCode = info.State.ExitCode
	}
	if info.Config != nil {
		out.Image = info.Config.Image
		if len(info.Config.Labels) > 0 {
			out.Labels = make(map[string]string, len(info.Config.Labels))
			for key, value := range info.Config.Labels {
				out.Labels[key] = value
			}
		}
	}
	if info.HostConfig != nil {
		out.NetworkMode = string(info.HostConfig.NetworkMode)
	}
	if ns := info.NetworkSettings; ns != nil {
		out.IPAddress = ns.IPAddress
		if out.IPAddress == "" {
			for _, ep := range ns.Networks {
				if ep != nil && ep.IPAddress != "" {
					out.IPAddress = ep.IPAddress
					break
				}
			}
		}
	}
	return out
}

func createConfigs(cfg engine.CreateConfig) (*container.Config, *container.HostConfig) {
	cc := &container.Config{
		Image:      cfg.Image,
		Cmd:        cfg.Cmd,
		Entrypoint: cfg.Entrypoint,
		Env:        cfg.Env,
		Labels:     cfg.Labels,
	}
	hc := &container.HostConfig{
		NetworkMode:   container.NetworkMode(cfg.NetworkMode),
		RestartPolicy: parseRestartPolicy(cfg.RestartPolicy),
	}

	if len(cfg.Ports) > 0 {
		portBindings := make(nat.PortMap, len(cfg.Ports))
		exposedPorts := make(nat.PortSet, len(cfg.Ports))
		for _, p := range cfg.Ports {
			proto := strings.ToLower(strings.TrimSpace(p.Protocol))
			if proto == "" {
				proto = "tcp"
			}
			containerPort := nat.Port(fmt.Sprintf("%d/%s", p.ContainerPort, proto))
			exposedPorts[containerPort] = struct{}{}
			if p.HostPort == 0 && p.HostIP == "" {
				continue
			}
			binding := nat.PortBinding{HostIP: p.HostIP}
			if p.HostPort != 0 {
				binding.HostPort = strconv.Itoa(int(p.HostPort))
			}
			portBindings[containerPort] = append(portBindings[containerPort], binding)
		}
		cc.ExposedPorts = exposedPorts
		hc.PortBindings = portBindings
	}

	for _, m := range cfg.Mounts {
		mountType := mount.TypeBind
		if m.Type == string(mount.TypeVolume) {
			mountType = mount.TypeVolume
		}
		hc.Mounts = append(hc.Mounts, mount.Mount{
			Type:     mountType,
			Source:   m.Source,
			Target:   m.Target,
			ReadOnly: m.ReadOnly,
		})
	}
	return cc, hc
}

func stopOptions(timeout time.Duration) container.StopOptions {
	if timeout <= 0 {
		return container.StopOptions{}
	}
	seconds := int(timeout.Round(time.Second) / time.Second)
	return container.StopOptions{Timeout: &seconds}
}

func parseRestartPolicy(policy string) container.RestartPolicy {
	switch strings.TrimSpace(policy) {
	case "always":
		return container.RestartPolicy{Name: container.RestartPolicyAlways}
	case "on-failure":
		return container.RestartPolicy{Name: container.RestartPolicyOnFailure}
	case "unless-stopped":
		return container.RestartPolicy{Name: container.RestartPolicyUnlessStopped}
	default:
		return container.RestartPolicy{Name: container.RestartPolicyDisabled}
	}
}

// displayStream drains a JSON progress stream and turns an in-stream error
// message into an APIError.
func displayStream(op, target string, in io.Reader, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if err := jsonmessage.DisplayJSONMessagesStream(in, out, 0, false, nil); err != nil {
		var jerr *jsonmessage.JSONError
		if errors.As(err, &jerr) {
			return &engine.APIError{Op: op, Target: target, Explanation: jerr.Message, Err: err}
		}
		return fmt.Errorf("%s %s: read progress: %w", op, target, err)
	}
	return nil
}
