package report

import (
	"fmt"
	"slices"
	"strings"

	"tug/internal/converge"
	"tug/internal/inventory"
	"tug/internal/project"
)

// UncreatedState is shown for a service with no containers at all.
const UncreatedState = "Uncreated"

// RenderPlan shows one row per planned service, then one delete row per
// orphan.
func RenderPlan(projectName string, plans converge.Plans, orphans []inventory.Container) string {
	rows := make([][]string, 0, len(plans)+len(orphans))
	for _, plan := range plans {
		rows = append(rows, []string{plan.Service, actionLabel(plan), affected(projectName, plan)})
	}
	for _, c := range orphans {
		rows = append(rows, []string{c.Name, "delete", ""})
	}
	title := fmt.Sprintf("%s convergence plan:", projectName)
	return section(title, renderTable([]string{"SERVICE", "ACTION", "CONTAINERS"}, rows, 1))
}

// actionLabel names the plan action, noting replicas a kept service still
// needs.
func actionLabel(plan converge.Plan) string {
	if plan.Missing == 0 || plan.Action == converge.ActionCreate {
		return string(plan.Action)
	}
	if plan.Action == converge.ActionNoop {
		return "scale up"
	}
	return string(plan.Action) + ", scale up"
}

func affected(projectName string, plan converge.Plan) string {
	names := plan.ContainerNames()
	for _, c := range plan.Surplus {
		names = append(names, c.Name+" (remove)")
	}
	for _, index := range plan.NewIndexes() {
		names = append(names, project.ContainerName(projectName, plan.Service, index)+" (new)")
	}
	return strings.Join(names, ", ")
}

// StatusRows returns one row per service container pair: short name, human
// state and address. A service without containers gets a single Uncreated
// row. With no services named, containers of services p no longer declares
// follow the declared ones.
func StatusRows(p *project.Project, inv *inventory.Inventory, services []string) ([][]string, error) {
	selected, err := p.Select(services, false)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for _, svc := range selected {
		containers := append(inv.ForService(p.Name, svc.Name), inv.OneOffs(p.Name, svc.Name)...)
		if len(containers) == 0 {
			rows = append(rows, []string{svc.Name, UncreatedState, ""})
			continue
		}
		for _, c := range containers {
			rows = append(rows, []string{c.ShortName(), c.HumanState(), c.DisplayIP()})
		}
	}
	if len(services) == 0 {
		for _, c := range Undeclared(p, inv) {
			rows = append(rows, []string{c.ShortName(), c.HumanState(), c.DisplayIP()})
		}
	}
	return rows, nil
}

// Undeclared returns the containers named for p whose service p does not
// declare. Convergence deletes them as orphans.
func Undeclared(p *project.Project, inv *inventory.Inventory) []inventory.Container {
	declared := p.ServiceNames()
	var out []inventory.Container
	for _, c := range inv.ForProject(p.Name) {
		if !slices.Contains(declared, c.Owner.Service) {
			out = append(out, c)
		}
	}
	return out
}

// Untracked returns every container no declared service of projects claims:
// containers of unknown projects plus the undeclared ones of each project.
func Untracked(projects []*project.Project, inv *inventory.Inventory) []inventory.Container {
	out := inv.Unknown()
	for _, p := range projects {
		out = append(out, Undeclared(p, inv)...)
	}
	slices.SortStableFunc(out, func(a, b inventory.Container) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// RenderStatus renders StatusRows as a table.
func RenderStatus(p *project.Project, inv *inventory.Inventory, services []string) (string, error) {
	rows, err := StatusRows(p, inv, services)
	if err != nil {
		return "", err
	}
	title := fmt.Sprintf("%s services:", p.Name)
	return section(title, renderTable([]string{"NAME", "STATE", "IP"}, rows, 1)), nil
}

// StateCount is how many containers of a project are in one state.
type StateCount struct {
	State string
	Count int
}

// Summary counts the container states of one project.
type Summary struct {
	Project string
	Counts  []StateCount
}

func (s Summary) String() string {
	parts := make([]string, 0, len(s.Counts))
	for _, c := range s.Counts {
		parts = append(parts, fmt.Sprintf("%d %s", c.Count, c.State))
	}
	return strings.Join(parts, ", ")
}

// Summarize counts the states of every container of p, one-offs included.
// Each service without containers counts once as Uncreated. States appear in
// the order they are first seen.
func Summarize(p *project.Project, inv *inventory.Inventory) Summary {
	sum := Summary{Project: p.Name}
	add := func(state string) {
		for i := range sum.Counts {
			if sum.Counts[i].State == state {
				sum.Counts[i].Count++
				return
			}
		}
		sum.Counts = append(sum.Counts, StateCount{State: state, Count: 1})
	}

	for _, svc := range p.Services {
		containers := append(inv.ForService(p.Name, svc.Name), inv.OneOffs(p.Name, svc.Name)...)
		if len(containers) == 0 {
			add(UncreatedState)
			continue
		}
		for _, c := range containers {
			add(c.HumanState())
		}
	}
	return sum
}

// RenderOverview lists every project with its state counts, then the
// untracked containers.
func RenderOverview(summaries []Summary, unknown []inventory.Container) string {
	var b strings.Builder

	if len(summaries) > 0 {
		rows := make([][]string, 0, len(summaries))
		for _, s := range summaries {
			rows = append(rows, []string{s.Project, s.String()})
		}
		b.WriteString(section("Projects:", renderTable([]string{"PROJECT", "CONTAINERS"}, rows, -1)))
	} else {
		b.WriteString(mutedStyle.Render("No project files in this directory."))
		b.WriteString("\n")
	}

	if len(unknown) > 0 {
		rows := make([][]string, 0, len(unknown))
		for _, c := range unknown {
			rows = append(rows, []string{c.Name, c.HumanState(), c.DisplayIP()})
		}
		b.WriteString("\n")
		b.WriteString(section("Containers not tracked by tug:", renderTable([]string{"NAME", "STATE", "IP"}, rows, 1)))
	}
	return b.String()
}
