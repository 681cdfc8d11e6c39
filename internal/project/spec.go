package project

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"maps"
	"slices"
	"sort"
	"strconv"
	"strings"

	"tug/internal/engine"

	compose "github.com/compose-spec/compose-go/v2/types"
)

// ServiceSpec is the comparable, normalized view of a compose service.
type ServiceSpec struct {
	Image         string            `json:"image"`
	Command       []string          `json:"command,omitempty"`
	Entrypoint    []string          `json:"entrypoint,omitempty"`
	Environment   []string          `json:"environment,omitempty"`
	Mounts        []Mount           `json:"mounts,omitempty"`
	Ports         []PortMapping     `json:"ports,omitempty"`
	Labels        map[string]string `json:"labels,omitempty"`
	NetworkMode   string            `json:"network_mode,omitempty"`
	RestartPolicy string            `json:"restart_policy,omitempty"`
}

type Mount struct {
	Type     string `json:"type,omitempty"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	ReadOnly bool   `json:"read_only,omitempty"`
}

type PortMapping struct {
	HostIP        string `json:"host_ip,omitempty"`
	HostPort      uint16 `json:"host_port"`
	ContainerPort uint16 `json:"container_port"`
	Protocol      string `json:"protocol"`
}

// hashInput lists the fields whose drift forces a recreate. Labels and the
// restart policy do not participate.
type hashInput struct {
	Image       string        `json:"image"`
	Command     []string      `json:"command,omitempty"`
	Entrypoint  []string      `json:"entrypoint,omitempty"`
	Environment []string      `json:"environment,omitempty"`
	Ports       []PortMapping `json:"ports,omitempty"`
	Mounts      []Mount       `json:"mounts,omitempty"`
	NetworkMode string        `json:"network_mode,omitempty"`
}

// NormalizeServiceSpec extracts the fields tug compares from a compose
// ServiceConfig.
func NormalizeServiceSpec(svc compose.ServiceConfig) ServiceSpec {
	spec := ServiceSpec{
		Image:         svc.Image,
		Command:       normalizeStringSlice([]string(svc.Command), false),
		Entrypoint:    normalizeStringSlice([]string(svc.Entrypoint), false),
		Environment:   normalizeEnvironment(svc.Environment),
		Mounts:        normalizeMounts(svc.Volumes),
		Ports:         normalizePorts(svc.Ports),
		Labels:        normalizeLabels(svc.Labels),
		NetworkMode:   strings.TrimSpace(svc.NetworkMode),
		RestartPolicy: normalizeRestartPolicy(svc),
	}
	return canonicalSpec(spec)
}

// ConfigHash is the hex sha256 of the canonical JSON of the fields that
// participate in drift detection.
func (s ServiceSpec) ConfigHash() string {
	c := canonicalSpec(s)
	data, err := json.Marshal(hashInput{
		Image:       c.Image,
		Command:     c.Command,
		Entrypoint:  c.Entrypoint,
		Environment: c.Environment,
		Ports:       c.Ports,
		Mounts:      c.Mounts,
		NetworkMode: c.NetworkMode,
	})
	if err != nil {
		// Only plain strings, ints and bools are marshalled.
		panic(err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// CreateConfig builds the engine request for the replica owner names.
func (s ServiceSpec) CreateConfig(owner Ownership) engine.CreateConfig {
	labels := make(map[string]string, len(s.Labels)+5)
	maps.Copy(labels, s.Labels)
	labels[LabelProject] = owner.Project
	labels[LabelService] = owner.Service
	labels[LabelIndex] = strconv.Itoa(owner.Index)
	labels[LabelConfigHash] = s.ConfigHash()
	if owner.OneOff {
		labels[LabelOneOff] = "true"
	}

	cfg := engine.CreateConfig{
		Name:          owner.ContainerName(),
		Image:         s.Image,
		Cmd:           slices.Clone(s.Command),
		Entrypoint:    slices.Clone(s.Entrypoint),
		Env:           slices.Clone(s.Environment),
		Labels:        labels,
		NetworkMode:   s.NetworkMode,
		RestartPolicy: s.RestartPolicy,
	}
	for _, p := range s.Ports {
		cfg.Ports = append(cfg.Ports, engine.PortBinding{
			HostIP:        p.HostIP,
			HostPort:      p.HostPort,
			ContainerPort: p.ContainerPort,
			Protocol:      p.Protocol,
		})
	}
	for _, m := range s.Mounts {
		cfg.Mounts = append(cfg.Mounts, engine.Mount{
			Type:     m.Type,
			Source:   m.Source,
			Target:   m.Target,
			ReadOnly: m.ReadOnly,
		})
	}
	return cfg
}

func canonicalSpec(spec ServiceSpec) ServiceSpec {
	return ServiceSpec{
		Image:         strings.TrimSpace(spec.Image),
		Command:       normalizeStringSlice(spec.Command, false),
		Entrypoint:    normalizeStringSlice(spec.Entrypoint, false),
		Environment:   normalizeStringSlice(spec.Environment, true),
		Mounts:        normalizeMountEntries(spec.Mounts),
		Ports:         normalizePortEntries(spec.Ports),
		Labels:        normalizeLabelMap(spec.Labels),
		NetworkMode:   spec.NetworkMode,
		RestartPolicy: spec.RestartPolicy,
	}
}

func normalizeEnvironment(env compose.MappingWithEquals) []string {
	if len(env) == 0 {
		return nil
	}

	keys := slices.Sorted(maps.Keys(env))
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		value := ""
		if p := env[key]; p != nil {
			value = *p
		}
		out = append(out, key+"="+value)
	}
	return out
}

func normalizeMounts(volumes []compose.ServiceVolumeConfig) []Mount {
	if len(volumes) == 0 {
		return nil
	}

	out := make([]Mount, 0, len(volumes))
	for _, v := range volumes {
		if strings.TrimSpace(v.Target) == "" {
			continue
		}
		mountType := v.Type
		if mountType == "" {
			mountType = compose.VolumeTypeBind
		}
		out = append(out, Mount{
			Type:     mountType,
			Source:   v.Source,
			Target:   v.Target,
			ReadOnly: v.ReadOnly,
		})
	}
	return normalizeMountEntries(out)
}

func normalizePorts(ports []compose.ServicePortConfig) []PortMapping {
	if len(ports) == 0 {
		return nil
	}

	out := make([]PortMapping, 0, len(ports))
	for _, p := range ports {
		protocol := strings.ToLower(strings.TrimSpace(p.Protocol))
		if protocol == "" {
			protocol = "tcp"
		}

		containerPort := uint16(0)
		if p.Target <= uint32(^uint16(0)) {
			containerPort = uint16(p.Target)
		}

		out = append(out, PortMapping{
			HostIP:        strings.TrimSpace(p.HostIP),
			HostPort:      parsePublishedPort(p.Published),
			ContainerPort: containerPort,
			Protocol:      protocol,
		})
	}
	return normalizePortEntries(out)
}

func parsePublishedPort(published string) uint16 {
	published = strings.TrimSpace(published)
	if published == "" {
		return 0
	}
	n, err := strconv.ParseUint(published, 10, 16)
	if err != nil {
		return 0
	}
	return uint16(n)
}

func normalizeLabels(labels compose.Labels) map[string]string {
	if len(labels) == 0 {
		return nil
	}
	return maps.Clone(map[string]string(labels))
}

func normalizeRestartPolicy(svc compose.ServiceConfig) string {
	if restart := strings.TrimSpace(svc.Restart); restart != "" {
		return restart
	}
	if svc.Deploy != nil && svc.Deploy.RestartPolicy != nil {
		switch cond := strings.TrimSpace(svc.Deploy.RestartPolicy.Condition); cond {
		case "any":
			return "always"
		case "none":
			return "no"
		default:
			return cond
		}
	}
	return ""
}

func normalizeStringSlice(values []string, sortValues bool) []string {
	if len(values) == 0 {
		return nil
	}
	out := slices.Clone(values)
	if sortValues {
		slices.Sort(out)
	}
	return out
}

func normalizeMountEntries(entries []Mount) []Mount {
	if len(entries) == 0 {
		return nil
	}
	out := slices.Clone(entries)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Target != out[j].Target {
			return out[i].Target < out[j].Target
		}
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return !out[i].ReadOnly && out[j].ReadOnly
	})
	return out
}

func normalizePortEntries(entries []PortMapping) []PortMapping {
	if len(entries) == 0 {
		return nil
	}
	out := slices.Clone(entries)
	sort.Slice(out, func(i, j int) bool {
		if out[i].ContainerPort != out[j].ContainerPort {
			return out[i].ContainerPort < out[j].ContainerPort
		}
		if out[i].Protocol != out[j].Protocol {
			return out[i].Protocol < out[j].Protocol
		}
		if out[i].HostPort != out[j].HostPort {
			return out[i].HostPort < out[j].HostPort
		}
		return out[i].HostIP < out[j].HostIP
	})
	return out
}

func normalizeLabelMap(labels map[string]string) map[string]string {
	if len(labels) == 0 {
		return nil
	}
	return maps.Clone(labels)
}
