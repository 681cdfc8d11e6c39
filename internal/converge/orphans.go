package converge

import (
	"tug/internal/check"
	"tug/internal/inventory"
	"tug/internal/project"
)

// Orphans returns the containers in scope that no plan references. Scope is
// the project's own containers plus containers no known project claims.
// Managed replicas of declared services that were not targeted are left out.
// Call it before Apply: containers created while applying must never be
// mistaken for orphans.
func Orphans(inv *inventory.Inventory, p *project.Project, plans Plans) []inventory.Container {
	referenced := plans.Referenced()

	targeted := make(map[string]bool, len(plans))
	for _, plan := range plans {
		targeted[plan.Service] = true
	}
	declared := make(map[string]bool, len(p.Services))
	for _, svc := range p.Services {
		declared[svc.Name] = true
	}

	var orphans []inventory.Container
	for _, c := range append(inv.ForProject(p.Name), inv.Unknown()...) {
		if referenced[c.ID] {
			continue
		}
		if c.Owner != nil && !c.Owner.OneOff && declared[c.Owner.Service] && !targeted[c.Owner.Service] {
			continue
		}
		check.Assertf(!referenced[c.ID], "orphan %s is referenced by a plan", c.Name)
		orphans = append(orphans, c)
	}
	return orphans
}
