package project

import (
	"testing"

	compose "github.com/compose-spec/compose-go/v2/types"
)

func TestNormalizeServiceSpec(t *testing.T) {
	envA := "1"
	envB := "2"
	svc := compose.ServiceConfig{
		Name:       "app",
		Image:      "ghcr.io/example/app:latest",
		Command:    compose.ShellCommand{"run", "server"},
		Entrypoint: compose.ShellCommand{"/entrypoint.sh"},
		Environment: compose.MappingWithEquals{
			"B": &envB,
			"A": &envA,
			"C": nil,
		},
		Volumes: []compose.ServiceVolumeConfig{
			{Type: "volume", Source: "cache", Target: "/cache"},
			{Source: "/var/lib/data", Target: "/data", ReadOnly: true},
			{Source: "ignored"},
		},
		Ports: []compose.ServicePortConfig{
			{Published: "8443", Target: 443, Protocol: "TCP"},
			{HostIP: "127.0.0.1", Published: "8080", Target: 80},
		},
		NetworkMode: "host",
		Restart:     "unless-stopped",
	}

	got := NormalizeServiceSpec(svc)

	if got.Image != "ghcr.io/example/app:latest" {
		t.Fatalf("Image = %q", got.Image)
	}
	wantEnv := []string{"A=1", "B=2", "C="}
	if len(got.Environment) != len(wantEnv) {
		t.Fatalf("Environment = %v, want %v", got.Environment, wantEnv)
	}
	for i := range wantEnv {
		if got.Environment[i] != wantEnv[i] {
			t.Fatalf("Environment = %v, want %v", got.Environment, wantEnv)
		}
	}
	if len(got.Mounts) != 2 || got.Mounts[0].Target != "/cache" || got.Mounts[1].Type != compose.VolumeTypeBind {
		t.Fatalf("Mounts = %+v", got.Mounts)
	}
	if len(got.Ports) != 2 || got.Ports[0].ContainerPort != 80 || got.Ports[0].HostIP != "127.0.0.1" || got.Ports[1].Protocol != "tcp" {
		t.Fatalf("Ports = %+v", got.Ports)
	}
	if got.NetworkMode != "host" || got.RestartPolicy != "unless-stopped" {
		t.Fatalf("NetworkMode = %q RestartPolicy = %q", got.NetworkMode, got.RestartPolicy)
	}
}

func TestConfigHash(t *testing.T) {
	base := ServiceSpec{
		Image:       "nginx:1.25",
		Command:     []string{"nginx", "-g", "daemon off;"},
		Environment: []string{"B=2", "A=1"},
	}

	t.Run("stable under env reordering", func(t *testing.T) {
		reordered := base
		reordered.Environment = []string{"A=1", "B=2"}
		if base.ConfigHash() != reordered.ConfigHash() {
			t.Fatal("expected identical hashes for reordered environment")
		}
	})

	t.Run("labels and restart policy ignored", func(t *testing.T) {
		other := base
		other.Labels = map[string]string{"team": "web"}
		other.RestartPolicy = "always"
		if base.ConfigHash() != other.ConfigHash() {
			t.Fatal("expected labels and restart policy not to affect hash")
		}
	})

	drifts := map[string]func(s *ServiceSpec){
		"image":        func(s *ServiceSpec) { s.Image = "nginx:1.26" },
		"command":      func(s *ServiceSpec) { s.Command = []string{"nginx"} },
		"entrypoint":   func(s *ServiceSpec) { s.Entrypoint = []string{"/init"} },
		"environment":  func(s *ServiceSpec) { s.Environment = []string{"A=1"} },
		"ports":        func(s *ServiceSpec) { s.Ports = []PortMapping{{HostPort: 80, ContainerPort: 80, Protocol: "tcp"}} },
		"mounts":       func(s *ServiceSpec) { s.Mounts = []Mount{{Source: "/a", Target: "/b"}} },
		"network mode": func(s *ServiceSpec) { s.NetworkMode = "host" },
	}
	for name, mutate := range drifts {
		t.Run(name+" drift changes hash", func(t *testing.T) {
			changed := base
			mutate(&changed)
			if base.ConfigHash() == changed.ConfigHash() {
				t.Fatalf("expected %s change to alter hash", name)
			}
		})
	}
}

func TestServiceSpec_CreateConfig(t *testing.T) {
	spec := ServiceSpec{
		Image:       "redis:7",
		Labels:      map[string]string{"team": "cache"},
		Ports:       []PortMapping{{HostPort: 6379, ContainerPort: 6379, Protocol: "tcp"}},
		Mounts:      []Mount{{Type: "volume", Source: "data", Target: "/data"}},
		Environment: []string{"A=1"},
	}

	cfg := spec.CreateConfig(Ownership{Project: "db", Service: "redis", Index: 2})

	if cfg.Name != "db_redis_2" {
		t.Fatalf("Name = %q, want db_redis_2", cfg.Name)
	}
	wantLabels := map[string]string{
		"team":          "cache",
		LabelProject:    "db",
		LabelService:    "redis",
		LabelIndex:      "2",
		LabelConfigHash: spec.ConfigHash(),
	}
	for k, v := range wantLabels {
		if cfg.Labels[k] != v {
			t.Errorf("label %s = %q, want %q", k, cfg.Labels[k], v)
		}
	}
	if _, ok := cfg.Labels[LabelOneOff]; ok {
		t.Error("unexpected one-off label on a managed replica")
	}
	if len(cfg.Ports) != 1 || cfg.Ports[0].HostPort != 6379 {
		t.Fatalf("Ports = %+v", cfg.Ports)
	}
	if len(cfg.Mounts) != 1 || cfg.Mounts[0].Type != "volume" {
		t.Fatalf("Mounts = %+v", cfg.Mounts)
	}
}
