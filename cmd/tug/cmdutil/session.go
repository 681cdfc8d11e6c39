package cmdutil

import (
	"context"
	"fmt"

	"tug/internal/engine"
	"tug/internal/inventory"
	"tug/internal/project"
)

// Session is one command's view of a project and the host.
type Session struct {
	Project   *project.Project
	Projects  []string
	Engine    engine.Engine
	Inventory *inventory.Inventory
}

// Open loads the named project from the project directory and connects to
// the engine. The inventory is left for Refresh so callers can trace it.
func (g *Globals) Open(ctx context.Context, name string) (*Session, error) {
	dir, err := g.ProjectDir()
	if err != nil {
		return nil, err
	}
	p, err := project.Load(ctx, dir, name)
	if err != nil {
		return nil, err
	}
	names, err := project.ListNames(dir)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	names = appendMissing(names, p.Name)

	eng, err := g.DialEngine(ctx)
	if err != nil {
		return nil, err
	}
	return &Session{Project: p, Projects: names, Engine: eng}, nil
}

// OpenHost connects to the engine for commands that span every project in
// the directory.
func (g *Globals) OpenHost(ctx context.Context) (*Session, error) {
	dir, err := g.ProjectDir()
	if err != nil {
		return nil, err
	}
	names, err := project.ListNames(dir)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	eng, err := g.DialEngine(ctx)
	if err != nil {
		return nil, err
	}
	return &Session{Projects: names, Engine: eng}, nil
}

// Refresh rebuilds the inventory from the engine.
func (s *Session) Refresh(ctx context.Context) error {
	inv, err := inventory.Build(ctx, s.Engine, s.Projects)
	if err != nil {
		return err
	}
	s.Inventory = inv
	return nil
}

func (s *Session) Close() error {
	if s == nil || s.Engine == nil {
		return nil
	}
	return s.Engine.Close()
}

func appendMissing(names []string, name string) []string {
	for _, n := range names {
		if n == name {
			return names
		}
	}
	return append(names, name)
}
