package converge

import (
	"fmt"
	"slices"

	"tug/internal/check"
	"tug/internal/inventory"
	"tug/internal/project"
)

// Action is what a plan does to bring a service to its desired state.
type Action string

const (
	ActionCreate   Action = "create"
	ActionRecreate Action = "recreate"
	ActionStart    Action = "start"
	ActionNoop     Action = "noop"
)

// RecreatePolicy decides when drifted containers are replaced.
type RecreatePolicy int

const (
	// SmartRecreate replaces only containers whose config hash drifted.
	SmartRecreate RecreatePolicy = iota
	// ForceRecreate replaces every existing container.
	ForceRecreate
	// NoRecreate never replaces containers; drift is ignored.
	NoRecreate
)

func (p RecreatePolicy) String() string {
	switch p {
	case ForceRecreate:
		return "force"
	case NoRecreate:
		return "never"
	default:
		return "smart"
	}
}

// Plan is the convergence plan for one service.
type Plan struct {
	Service string
	Action  Action
	Reason  Reason
	// Containers are the live replicas the service keeps, by index ascending.
	Containers []inventory.Container
	// Surplus are the highest-index replicas beyond the desired count.
	Surplus []inventory.Container
	// Missing is how many replicas must be created.
	Missing int
	// ConfigHash is the desired config hash of the service.
	ConfigHash string
}

// NewIndexes returns the lowest free replica indexes the Missing replicas
// will take.
func (p Plan) NewIndexes() []int {
	if p.Missing <= 0 {
		return nil
	}
	used := make(map[int]bool, len(p.Containers))
	for _, c := range p.Containers {
		if c.Owner != nil {
			used[c.Owner.Index] = true
		}
	}
	out := make([]int, 0, p.Missing)
	for i := 1; len(out) < p.Missing; i++ {
		if !used[i] {
			out = append(out, i)
		}
	}
	return out
}

// ContainerNames lists the names of the kept containers.
func (p Plan) ContainerNames() []string {
	names := make([]string, 0, len(p.Containers))
	for _, c := range p.Containers {
		names = append(names, c.Name)
	}
	return names
}

// Plans holds one plan per target service, in target order.
type Plans []Plan

// Get returns the plan for a service.
func (ps Plans) Get(service string) (Plan, bool) {
	for _, p := range ps {
		if p.Service == service {
			return p, true
		}
	}
	return Plan{}, false
}

// Referenced returns the IDs of every container a plan keeps or drops.
func (ps Plans) Referenced() map[string]bool {
	out := make(map[string]bool)
	for _, p := range ps {
		for _, c := range p.Containers {
			out[c.ID] = true
		}
		for _, c := range p.Surplus {
			out[c.ID] = true
		}
	}
	return out
}

// ComputePlans compares every target service against its live replicas.
// Named targets are expanded with their dependencies; no targets means every
// service. It makes no engine calls.
func ComputePlans(p *project.Project, inv *inventory.Inventory, targets []string, policy RecreatePolicy) (Plans, error) {
	services, err := p.Select(targets, true)
	if err != nil {
		return nil, err
	}

	plans := make(Plans, 0, len(services))
	for _, svc := range services {
		plan, err := planService(p.Name, svc, inv.ForService(p.Name, svc.Name), policy)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func planService(projectName string, svc project.Service, live []inventory.Container, policy RecreatePolicy) (Plan, error) {
	if svc.Replicas < 1 {
		return Plan{}, fmt.Errorf("service %q: replica count must be at least 1", svc.Name)
	}

	live = slices.Clone(live)
	slices.SortStableFunc(live, func(a, b inventory.Container) int {
		return ownerIndex(a) - ownerIndex(b)
	})

	plan := Plan{
		Service:    svc.Name,
		ConfigHash: svc.Spec.ConfigHash(),
	}
	if len(live) > svc.Replicas {
		plan.Containers = live[:svc.Replicas]
		plan.Surplus = live[svc.Replicas:]
	} else {
		plan.Containers = live
		plan.Missing = svc.Replicas - len(live)
	}

	plan.Action, plan.Reason = decide(plan.Containers, plan.ConfigHash, policy)
	if plan.Action == ActionNoop && plan.Missing > 0 {
		plan.Reason = ReasonScaleUp
	}
	check.Assertf(len(plan.Containers)+len(plan.Surplus) == len(live),
		"plan for %s accounts for %d of %d live replicas", svc.Name, len(plan.Containers)+len(plan.Surplus), len(live))
	check.Assertf(len(plan.Containers)+plan.Missing == svc.Replicas,
		"plan for %s keeps %d and creates %d, want %d", svc.Name, len(plan.Containers), plan.Missing, svc.Replicas)
	return plan, nil
}

func decide(kept []inventory.Container, hash string, policy RecreatePolicy) (Action, Reason) {
	if len(kept) == 0 {
		return ActionCreate, ReasonNoContainers
	}

	switch policy {
	case ForceRecreate:
		return ActionRecreate, ReasonForced
	case SmartRecreate:
		for _, c := range kept {
			if c.ConfigHash == "" {
				return ActionRecreate, ReasonConfigHashMissing
			}
			if c.ConfigHash != hash {
				return ActionRecreate, ReasonConfigChanged
			}
		}
	}

	for _, c := range kept {
		if !c.Running {
			return ActionStart, ReasonStopped
		}
	}
	return ActionNoop, ReasonUpToDate
}

func ownerIndex(c inventory.Container) int {
	if c.Owner == nil {
		return 0
	}
	return c.Owner.Index
}
