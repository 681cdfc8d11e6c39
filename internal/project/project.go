package project

import (
	"fmt"
	"slices"
)

// Project is one compose file: a named, ordered set of services.
type Project struct {
	Name     string
	File     string
	Services []Service
}

// Service is one declared service and its desired replica count.
type Service struct {
	Name      string
	Spec      ServiceSpec
	Replicas  int
	Build     *BuildSpec
	DependsOn []string
}

// BuildSpec is where and how to build a service image.
type BuildSpec struct {
	Context    string
	Dockerfile string
	Args       map[string]*string
	Target     string
}

// Service returns the service with the given name.
func (p *Project) Service(name string) (Service, error) {
	for _, svc := range p.Services {
		if svc.Name == name {
			return svc, nil
		}
	}
	return Service{}, &NoSuchServiceError{Project: p.Name, Name: name}
}

// ServiceNames returns every service name in project order.
func (p *Project) ServiceNames() []string {
	names := make([]string, 0, len(p.Services))
	for _, svc := range p.Services {
		names = append(names, svc.Name)
	}
	return names
}

// Select resolves names to services in project order. An empty selection
// means every service. With withDeps, the depends_on closure of the named
// services is included.
func (p *Project) Select(names []string, withDeps bool) ([]Service, error) {
	if len(names) == 0 {
		return slices.Clone(p.Services), nil
	}

	byName := make(map[string]Service, len(p.Services))
	for _, svc := range p.Services {
		byName[svc.Name] = svc
	}

	wanted := make(map[string]bool, len(names))
	var visit func(name string) error
	visit = func(name string) error {
		if wanted[name] {
			return nil
		}
		svc, ok := byName[name]
		if !ok {
			return &NoSuchServiceError{Project: p.Name, Name: name}
		}
		wanted[name] = true
		if !withDeps {
			return nil
		}
		for _, dep := range svc.DependsOn {
			if err := visit(dep); err != nil {
				return err
			}
		}
		return nil
	}
	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}

	out := make([]Service, 0, len(wanted))
	for _, svc := range p.Services {
		if wanted[svc.Name] {
			out = append(out, svc)
		}
	}
	return out, nil
}

// orderServices sorts services so every dependency precedes its dependents,
// keeping declared order among services that are otherwise unordered.
func orderServices(services []Service) ([]Service, error) {
	index := make(map[string]int, len(services))
	for i, svc := range services {
		index[svc.Name] = i
	}

	inDegree := make([]int, len(services))
	dependents := make([][]int, len(services))
	for i, svc := range services {
		for _, dep := range svc.DependsOn {
			j, ok := index[dep]
			if !ok {
				return nil, fmt.Errorf("service %q depends on undefined service %q", svc.Name, dep)
			}
			if j == i {
				return nil, fmt.Errorf("service %q depends on itself", svc.Name)
			}
			dependents[j] = append(dependents[j], i)
			inDegree[i]++
		}
	}

	var ready []int
	for i := range services {
		if inDegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	out := make([]Service, 0, len(services))
	for len(ready) > 0 {
		slices.Sort(ready)
		next := ready[0]
		ready = ready[1:]
		out = append(out, services[next])
		for _, d := range dependents[next] {
			inDegree[d]--
			if inDegree[d] == 0 {
				ready = append(ready, d)
			}
		}
	}
	if len(out) != len(services) {
		var cycle []string
		for i, degree := range inDegree {
			if degree > 0 {
				cycle = append(cycle, services[i].Name)
			}
		}
		return nil, fmt.Errorf("dependency cycle between services %v", cycle)
	}
	return out, nil
}
