package project

import (
	"errors"
	"slices"
	"testing"
)

func testProject() *Project {
	return &Project{
		Name: "shop",
		Services: []Service{
			{Name: "db", Replicas: 1},
			{Name: "api", Replicas: 1, DependsOn: []string{"db"}},
			{Name: "web", Replicas: 2, DependsOn: []string{"api"}},
			{Name: "cache", Replicas: 1},
		},
	}
}

func names(services []Service) []string {
	out := make([]string, 0, len(services))
	for _, svc := range services {
		out = append(out, svc.Name)
	}
	return out
}

func TestProject_Select(t *testing.T) {
	p := testProject()

	tests := []struct {
		name     string
		selected []string
		withDeps bool
		want     []string
	}{
		{name: "empty selects all", want: []string{"db", "api", "web", "cache"}},
		{name: "project order kept", selected: []string{"cache", "db"}, want: []string{"db", "cache"}},
		{name: "deps expanded first", selected: []string{"web"}, withDeps: true, want: []string{"db", "api", "web"}},
		{name: "without deps", selected: []string{"web"}, want: []string{"web"}},
		{name: "duplicates collapse", selected: []string{"api", "api", "db"}, withDeps: true, want: []string{"db", "api"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Select(tt.selected, tt.withDeps)
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			if !slices.Equal(names(got), tt.want) {
				t.Fatalf("Select() = %v, want %v", names(got), tt.want)
			}
		})
	}
}

func TestProject_SelectUnknownService(t *testing.T) {
	_, err := testProject().Select([]string{"web", "ghost"}, true)
	var noSuch *NoSuchServiceError
	if !errors.As(err, &noSuch) {
		t.Fatalf("Select() error = %v, want NoSuchServiceError", err)
	}
	if noSuch.Name != "ghost" {
		t.Fatalf("Name = %q, want ghost", noSuch.Name)
	}
}

func TestOrderServices_Cycle(t *testing.T) {
	_, err := orderServices([]Service{
		{Name: "a", DependsOn: []string{"b"}},
		{Name: "b", DependsOn: []string{"a"}},
	})
	if err == nil {
		t.Fatal("expected cycle error")
	}
}
