package project

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestCleanName(t *testing.T) {
	tests := map[string]string{
		"web":       "web",
		"web.yml":   "web",
		"web.yaml":  "web",
		" api.yml ": "api",
		"x.yml.bak": "x.yml.bak",
	}
	for input, want := range tests {
		if got := CleanName(input); got != want {
			t.Errorf("CleanName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestListNames(t *testing.T) {
	dir := t.TempDir()
	for _, file := range []string{"web.yml", "db.yaml", "web.yaml", "notes.txt", ".yml"} {
		if err := os.WriteFile(filepath.Join(dir, file), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "dir.yml"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := ListNames(dir)
	if err != nil {
		t.Fatalf("ListNames() error = %v", err)
	}
	want := []string{"db", "web"}
	if !slices.Equal(got, want) {
		t.Fatalf("ListNames() = %v, want %v", got, want)
	}
}

func TestConfigPath(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "db.yaml"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	path, err := ConfigPath(dir, "db.yml")
	if err != nil {
		t.Fatalf("ConfigPath() error = %v", err)
	}
	if filepath.Base(path) != "db.yaml" {
		t.Fatalf("ConfigPath() = %q, want db.yaml", path)
	}

	_, err = ConfigPath(dir, "missing")
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("ConfigPath(missing) error = %v, want ConfigurationError", err)
	}
}
