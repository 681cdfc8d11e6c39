package project

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	compose "github.com/compose-spec/compose-go/v2/types"
	"gopkg.in/yaml.v3"
)

// Load reads and parses the project file for name in dir.
func Load(ctx context.Context, dir, name string) (*Project, error) {
	name = CleanName(name)
	path, err := ConfigPath(dir, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{File: path, Msg: err.Error(), Err: err}
	}
	return Parse(ctx, name, path, data)
}

// Parse builds a Project from compose YAML. Container names use name as is;
// compose itself sees the normalized form.
func Parse(ctx context.Context, name, path string, data []byte) (*Project, error) {
	details := compose.ConfigDetails{
		WorkingDir:  filepath.Dir(path),
		ConfigFiles: []compose.ConfigFile{{Filename: path, Content: data}},
		Environment: compose.NewMapping(os.Environ()),
	}

	cp, err := loader.LoadWithContext(ctx, details, func(o *loader.Options) {
		o.SetProjectName(loader.NormalizeProjectName(name), true)
		o.ResolvePaths = true
	})
	if err != nil {
		return nil, &ConfigurationError{File: path, Msg: err.Error(), Err: err}
	}
	if len(cp.Services) == 0 {
		return nil, &ConfigurationError{File: path, Msg: "no services defined"}
	}

	declared, err := declaredServiceOrder(data)
	if err != nil {
		return nil, &ConfigurationError{File: path, Msg: err.Error(), Err: err}
	}

	services := make([]Service, 0, len(cp.Services))
	for _, svcName := range mergeOrder(declared, slices.Sorted(maps.Keys(cp.Services))) {
		cfg, ok := cp.Services[svcName]
		if !ok {
			continue
		}
		svc, err := newService(name, svcName, cfg)
		if err != nil {
			return nil, &ConfigurationError{File: path, Msg: err.Error(), Err: err}
		}
		services = append(services, svc)
	}

	ordered, err := orderServices(services)
	if err != nil {
		return nil, &ConfigurationError{File: path, Msg: err.Error(), Err: err}
	}
	return &Project{Name: name, File: path, Services: ordered}, nil
}

func newService(projectName, name string, cfg compose.ServiceConfig) (Service, error) {
	cfg.Name = name
	spec := NormalizeServiceSpec(cfg)
	if spec.Image == "" {
		if cfg.Build == nil {
			return Service{}, fmt.Errorf("service %q has neither an image nor a build section", name)
		}
		spec.Image = projectName + "_" + name
	}

	replicas, err := replicaCount(cfg)
	if err != nil {
		return Service{}, fmt.Errorf("service %q: %w", name, err)
	}

	svc := Service{
		Name:      name,
		Spec:      spec,
		Replicas:  replicas,
		DependsOn: slices.Sorted(maps.Keys(cfg.DependsOn)),
	}
	if b := cfg.Build; b != nil {
		svc.Build = &BuildSpec{
			Context:    b.Context,
			Dockerfile: b.Dockerfile,
			Args:       maps.Clone(map[string]*string(b.Args)),
			Target:     b.Target,
		}
	}
	return svc, nil
}

func replicaCount(cfg compose.ServiceConfig) (int, error) {
	replicas := 1
	switch {
	case cfg.Scale != nil:
		replicas = *cfg.Scale
	case cfg.Deploy != nil && cfg.Deploy.Replicas != nil:
		replicas = *cfg.Deploy.Replicas
	}
	if replicas < 1 {
		return 0, fmt.Errorf("replica count must be at least 1, got %d", replicas)
	}
	return replicas, nil
}

// declaredServiceOrder walks the raw YAML for the keys of the top-level
// services mapping, in file order.
func declaredServiceOrder(data []byte) ([]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "services" {
			continue
		}
		services := root.Content[i+1]
		if services.Kind != yaml.MappingNode {
			return nil, nil
		}
		names := make([]string, 0, len(services.Content)/2)
		for j := 0; j+1 < len(services.Content); j += 2 {
			names = append(names, strings.TrimSpace(services.Content[j].Value))
		}
		return names, nil
	}
	return nil, nil
}

// mergeOrder appends any name in all that declared lacks, keeping declared
// first.
func mergeOrder(declared, all []string) []string {
	out := make([]string, 0, len(all))
	seen := make(map[string]bool, len(all))
	for _, name := range declared {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, name := range all {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
