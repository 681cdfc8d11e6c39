// Package config handles tug's user settings.
//
// Settings are stored at $TUG_CONFIG, or $XDG_CONFIG_HOME/tug/config.yaml
// (defaults to ~/.config/tug/config.yaml). Environment variables override
// the file; command-line flags override both.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfig     = "TUG_CONFIG"
	EnvLogLevel   = "TUG_LOG_LEVEL"
	EnvLogFormat  = "TUG_LOG_FORMAT"
	EnvDockerHost = "DOCKER_HOST"

	DefaultGracePeriod = 10 * time.Second
	DefaultLogLevel    = "warn"
	DefaultLogFormat   = "text"
)

// Settings are the tunables shared by every command.
type Settings struct {
	DockerHost  string        `yaml:"docker_host,omitempty"`
	GracePeriod time.Duration `yaml:"grace_period,omitempty"`
	LogLevel    string        `yaml:"log_level,omitempty"`
	LogFormat   string        `yaml:"log_format,omitempty"`
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	return Settings{
		GracePeriod: DefaultGracePeriod,
		LogLevel:    DefaultLogLevel,
		LogFormat:   DefaultLogFormat,
	}
}

// Path returns the settings file location.
func Path() string {
	if p := strings.TrimSpace(os.Getenv(EnvConfig)); p != "" {
		return p
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".config", "tug", "config.yaml")
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "tug", "config.yaml")
}

// Load reads the settings file at path, or Path() when path is empty, and
// applies environment overrides. A missing file yields the defaults.
func Load(path string) (Settings, error) {
	if path == "" {
		path = Path()
	}

	s := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Settings{}, fmt.Errorf("read config: %w", err)
	default:
		var file Settings
		if err := yaml.Unmarshal(data, &file); err != nil {
			return Settings{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		s = s.merge(file)
	}

	s = s.merge(Settings{
		DockerHost: os.Getenv(EnvDockerHost),
		LogLevel:   os.Getenv(EnvLogLevel),
		LogFormat:  os.Getenv(EnvLogFormat),
	})
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate rejects settings no command can run with.
func (s Settings) Validate() error {
	if s.GracePeriod < 0 {
		return fmt.Errorf("grace_period must not be negative, got %s", s.GracePeriod)
	}
	return nil
}

// merge overlays the non-zero fields of o.
func (s Settings) merge(o Settings) Settings {
	if v := strings.TrimSpace(o.DockerHost); v != "" {
		s.DockerHost = v
	}
	if o.GracePeriod != 0 {
		s.GracePeriod = o.GracePeriod
	}
	if v := strings.TrimSpace(o.LogLevel); v != "" {
		s.LogLevel = v
	}
	if v := strings.TrimSpace(o.LogFormat); v != "" {
		s.LogFormat = v
	}
	return s
}
