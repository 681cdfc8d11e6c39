package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var fileExtensions = []string{".yml", ".yaml"}

// CleanName strips a trailing .yml or .yaml from a project file name.
func CleanName(name string) string {
	name = strings.TrimSpace(name)
	for _, ext := range fileExtensions {
		if trimmed, ok := strings.CutSuffix(name, ext); ok {
			return trimmed
		}
	}
	return name
}

// ListNames returns the project names of every project file in dir, sorted.
func ListNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list project files in %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		file := entry.Name()
		if !hasProjectExtension(file) {
			continue
		}
		name := CleanName(file)
		if name == "" || slices.Contains(names, name) {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// ConfigPath resolves the project file for name in dir, preferring .yml.
func ConfigPath(dir, name string) (string, error) {
	name = CleanName(name)
	if name == "" {
		return "", &ConfigurationError{Msg: "project name is required"}
	}
	for _, ext := range fileExtensions {
		path := filepath.Join(dir, name+ext)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			abs, absErr := filepath.Abs(path)
			if absErr != nil {
				return path, nil
			}
			return abs, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", &ConfigurationError{File: path, Msg: err.Error(), Err: err}
		}
	}
	return "", &ConfigurationError{
		Msg: fmt.Sprintf("Can't find %s.yml or %s.yaml in %s", name, name, dir),
		Err: fs.ErrNotExist,
	}
}

func hasProjectExtension(file string) bool {
	for _, ext := range fileExtensions {
		if strings.HasSuffix(file, ext) && len(file) > len(ext) {
			return true
		}
	}
	return false
}
