package converge

import (
	"fmt"

	"tug/internal/inventory"
	"tug/internal/project"
)

func webProject(replicas int) *project.Project {
	return &project.Project{
		Name: "web",
		Services: []project.Service{
			{Name: "db", Replicas: 1, Spec: project.ServiceSpec{Image: "postgres:16"}},
			{Name: "app", Replicas: replicas, DependsOn: []string{"db"}, Spec: project.ServiceSpec{Image: "nginx:1.25"}},
			{Name: "worker", Replicas: 1, Spec: project.ServiceSpec{Image: "example/worker"}},
		},
	}
}

// hashOf returns the desired hash of a declared service, or "" for a service
// the project no longer declares.
func hashOf(p *project.Project, service string) string {
	svc, err := p.Service(service)
	if err != nil {
		return ""
	}
	return svc.Spec.ConfigHash()
}

// replica builds an owned, running container that matches its service spec.
func replica(p *project.Project, service string, index int) inventory.Container {
	owner := project.Ownership{Project: p.Name, Service: service, Index: index}
	return inventory.Container{
		ID:         fmt.Sprintf("%s-%d", service, index),
		Name:       owner.ContainerName(),
		Status:     "running",
		Running:    true,
		ConfigHash: hashOf(p, service),
		Owner:      &owner,
	}
}

func unmanaged(name string) inventory.Container {
	return inventory.Container{ID: "x-" + name, Name: name, Status: "running", Running: true}
}

func ids(containers []inventory.Container) []string {
	out := make([]string, 0, len(containers))
	for _, c := range containers {
		out = append(out, c.ID)
	}
	return out
}
