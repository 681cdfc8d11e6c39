package docker

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"tug/internal/engine"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
)

func TestWrapErr(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		err := wrapErr("inspect container", "web_app_1", fmt.Errorf("Error response from daemon: No such container: web_app_1: %w", errdefs.ErrNotFound))
		if !engine.IsNotFound(err) {
			t.Fatalf("wrapErr() = %v, want not found", err)
		}
		if got := engine.Explain(err); !strings.HasPrefix(got, "No such container") {
			t.Fatalf("Explain() = %q, want daemon prefix stripped", got)
		}
	})

	t.Run("connection failed", func(t *testing.T) {
		err := wrapErr("ping", "", client.ErrorConnectionFailed("unix:///var/run/docker.sock"))
		if !errors.Is(err, engine.ErrUnavailable) {
			t.Fatalf("wrapErr() = %v, want ErrUnavailable", err)
		}
	})

	t.Run("nil", func(t *testing.T) {
		if err := wrapErr("ping", "", nil); err != nil {
			t.Fatalf("wrapErr(nil) = %v", err)
		}
	})
}

func TestCreateConfigs(t *testing.T) {
	cc, hc := createConfigs(engine.CreateConfig{
		Name:          "web_app_1",
		Image:         "nginx:1.25",
		Env:           []string{"A=1"},
		Labels:        map[string]string{"tug.project": "web"},
		RestartPolicy: "unless-stopped",
		Ports: []engine.PortBinding{
			{HostPort: 8080, ContainerPort: 80},
			{ContainerPort: 9000, Protocol: "UDP"},
		},
		Mounts: []engine.Mount{
			{Type: "volume", Source: "data", Target: "/data"},
			{Source: "/srv", Target: "/srv", ReadOnly: true},
		},
	})

	if cc.Image != "nginx:1.25" || cc.Labels["tug.project"] != "web" {
		t.Fatalf("container config = %+v", cc)
	}
	if _, ok := cc.ExposedPorts[nat.Port("9000/udp")]; !ok {
		t.Errorf("exposed ports = %v, want 9000/udp", cc.ExposedPorts)
	}
	bindings := hc.PortBindings[nat.Port("80/tcp")]
	if len(bindings) != 1 || bindings[0].HostPort != "8080" {
		t.Errorf("80/tcp bindings = %+v", bindings)
	}
	if _, ok := hc.PortBindings[nat.Port("9000/udp")]; ok {
		t.Error("unpublished port was bound")
	}
	if hc.RestartPolicy.Name != container.RestartPolicyUnlessStopped {
		t.Errorf("restart policy = %q", hc.RestartPolicy.Name)
	}
	if len(hc.Mounts) != 2 || hc.Mounts[0].Type != mount.TypeVolume || hc.Mounts[1].Type != mount.TypeBind || !hc.Mounts[1].ReadOnly {
		t.Errorf("mounts = %+v", hc.Mounts)
	}
}

func TestStopOptions(t *testing.T) {
	if opts := stopOptions(0); opts.Timeout != nil {
		t.Fatalf("stopOptions(0) timeout = %d, want daemon default", *opts.Timeout)
	}
	opts := stopOptions(2500 * time.Millisecond)
	if opts.Timeout == nil || *opts.Timeout != 3 {
		t.Fatalf("stopOptions(2.5s) = %+v, want 3 seconds", opts)
	}
}

func TestDetailFromInspect(t *testing.T) {
	info := container.InspectResponse{
		ContainerJSONBase: &container.ContainerJSONBase{
			ID:         "abc",
			Name:       "/web_app_1",
			State:      &container.State{Status: "exited", ExitCode: 137},
			HostConfig: &container.HostConfig{NetworkMode: "bridge"},
		},
		Config: &container.Config{Image: "nginx", Labels: map[string]string{"tug.index": "1"}},
		NetworkSettings: &container.NetworkSettings{
			Networks: map[string]*network.EndpointSettings{"web": {IPAddress: "10.0.0.5"}},
		},
	}

	got := detailFromInspect(info)
	if got.Name != "web_app_1" || got.Status != "exited" || got.ExitCode != 137 || got.Running {
		t.Fatalf("detail = %+v", got)
	}
	if got.IPAddress != "10.0.0.5" || got.NetworkMode != "bridge" || got.Labels["tug.index"] != "1" {
		t.Fatalf("detail = %+v", got)
	}
}
