package inventory

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"tug/internal/engine"
	"tug/internal/project"
)

// Container is one engine container as seen at inventory time.
type Container struct {
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
	OneOff      bool
	ConfigHash  string
	// Owner is nil for containers no known project claims.
	Owner *project.Ownership
}

// HumanState renders the container state the way status tables show it.
func (c Container) HumanState() string {
	switch {
	case c.Paused:
		return "Paused"
	case c.Restarting:
		return "Restarting"
	case c.Running:
		return "Running"
	case c.Status == "created":
		return "Created"
	default:
		return fmt.Sprintf("Exit %d", c.ExitCode)
	}
}

// DisplayIP returns the bridge address, or "(host)" for a container on the
// host network without one.
func (c Container) DisplayIP() string {
	if c.IPAddress == "" && c.NetworkMode == "host" {
		return "(host)"
	}
	return c.IPAddress
}

// ShortName is the container name without its project prefix.
func (c Container) ShortName() string {
	if c.Owner == nil {
		return c.Name
	}
	return strings.TrimPrefix(c.Name, c.Owner.Project+"_")
}

// Inventory is an immutable snapshot of every container on the host.
type Inventory struct {
	containers []Container
	byID       map[string]int
	owners     map[string]project.Ownership
	projects   []string
}

// New builds an Inventory from already-classified containers.
func New(containers []Container, knownProjects []string) *Inventory {
	inv := &Inventory{
		containers: slices.Clone(containers),
		byID:       make(map[string]int, len(containers)),
		owners:     make(map[string]project.Ownership),
		projects:   slices.Clone(knownProjects),
	}
	slices.SortStableFunc(inv.containers, compareContainers)
	for i, c := range inv.containers {
		inv.byID[c.ID] = i
		if c.Owner != nil {
			inv.owners[c.ID] = *c.Owner
		}
	}
	return inv
}

// Build lists and inspects every container, including stopped ones, and
// classifies each against the naming convention of knownProjects.
func Build(ctx context.Context, eng engine.Engine, knownProjects []string) (*Inventory, error) {
	log := slog.With("component", "inventory")

	summaries, err := eng.ContainerList(ctx)
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	containers := make([]Container, 0, len(summaries))
	for _, s := range summaries {
		detail, err := eng.ContainerInspect(ctx, s.ID)
		if err != nil {
			if engine.IsNotFound(err) {
				log.Debug("container vanished before inspect", "id", s.ID, "name", s.Name)
				continue
			}
			return nil, fmt.Errorf("inspect container %s: %w", s.Name, err)
		}
		containers = append(containers, classify(detail, knownProjects))
	}

	log.Debug("inventory built", "containers", len(containers), "projects", len(knownProjects))
	return New(containers, knownProjects), nil
}

func classify(d engine.ContainerDetail, knownProjects []string) Container {
	c := Container{
		ID:          d.ID,
		Name:        strings.TrimPrefix(d.Name, "/"),
		Image:       d.Image,
		Status:      d.Status,
		Running:     d.Running,
		Paused:      d.Paused,
		Restarting:  d.Restarting,
		ExitCode:    d.ExitCode,
		IPAddress:   d.IPAddress,
		NetworkMode: d.NetworkMode,
		ConfigHash:  d.Labels[project.LabelConfigHash],
	}
	if owner, ok := project.ParseContainerName(c.Name, knownProjects); ok {
		c.Owner = &owner
		c.OneOff = owner.OneOff
	}
	return c
}

// All returns every container.
func (inv *Inventory) All() []Container {
	return slices.Clone(inv.containers)
}

// Get returns the container with the given ID.
func (inv *Inventory) Get(id string) (Container, bool) {
	i, ok := inv.byID[id]
	if !ok {
		return Container{}, false
	}
	return inv.containers[i], true
}

// Owner looks up the ownership recorded for a container ID.
func (inv *Inventory) Owner(id string) (project.Ownership, bool) {
	o, ok := inv.owners[id]
	return o, ok
}

// Projects returns the project names the inventory was classified against.
func (inv *Inventory) Projects() []string {
	return slices.Clone(inv.projects)
}

// Tracked returns containers owned by a known project.
func (inv *Inventory) Tracked() []Container {
	return inv.filter(func(c Container) bool { return c.Owner != nil })
}

// Unknown returns containers no known project claims.
func (inv *Inventory) Unknown() []Container {
	return inv.filter(func(c Container) bool { return c.Owner == nil })
}

// ForProject returns the containers of one project, one-offs included.
func (inv *Inventory) ForProject(name string) []Container {
	return inv.filter(func(c Container) bool {
		return c.Owner != nil && c.Owner.Project == name
	})
}

// ForService returns the managed replicas of one service ordered by index.
func (inv *Inventory) ForService(projectName, service string) []Container {
	return inv.filter(func(c Container) bool {
		return c.Owner != nil && !c.Owner.OneOff && c.Owner.Project == projectName && c.Owner.Service == service
	})
}

// OneOffs returns the ad-hoc containers of one service ordered by index.
func (inv *Inventory) OneOffs(projectName, service string) []Container {
	return inv.filter(func(c Container) bool {
		return c.Owner != nil && c.Owner.OneOff && c.Owner.Project == projectName && c.Owner.Service == service
	})
}

func (inv *Inventory) filter(keep func(Container) bool) []Container {
	var out []Container
	for _, c := range inv.containers {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

// compareContainers orders owned containers by project, service, one-off
// flag and index, then unknown containers by name.
func compareContainers(a, b Container) int {
	switch {
	case a.Owner != nil && b.Owner == nil:
		return -1
	case a.Owner == nil && b.Owner != nil:
		return 1
	case a.Owner == nil:
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	}
	oa, ob := a.Owner, b.Owner
	return cmp.Or(
		cmp.Compare(oa.Project, ob.Project),
		cmp.Compare(oa.Service, ob.Service),
		compareBool(oa.OneOff, ob.OneOff),
		cmp.Compare(oa.Index, ob.Index),
		cmp.Compare(a.ID, b.ID),
	)
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
