// Package config loads the daemon's yaml configuration file.
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
	projectConfigName = "mcpdroid.yaml"
	homeConfigName    = "config.yaml"
)

// Config is the startup configuration for the mcpdroid daemon. Flag values
// override file values; file values override defaults.
type Config struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ADBPath          string        `yaml:"adb_path"`
	CORSOrigin       string        `yaml:"cors_origin"`
	MaxBody          int64         `yaml:"max_body"`
	HistoryPath      string        `yaml:"history_path"`
	SchedulePoll     time.Duration `yaml:"schedule_poll"`
	OTLPEndpoint     string        `yaml:"otlp_endpoint"`
	OTLPInsecure     bool          `yaml:"otlp_insecure"`
	DefaultSender    string        `yaml:"default_sender"`
	DeviceCmdTimeout time.Duration `yaml:"device_command_timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Host:             "127.0.0.1",
		Port:             8080,
		ADBPath:          "adb",
		CORSOrigin:       "*",
		MaxBody:          1 << 20,
		SchedulePoll:     5 * time.Second,
		DefaultSender:    "server",
		DeviceCmdTimeout: 30 * time.Second,
	}
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Discover resolves the config file location with first-match semantics:
// an explicit path, then mcpdroid.yaml in the working directory, then
// ~/.mcpdroid/config.yaml.
func Discover(explicitPath string) (string, bool, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false, fmt.Errorf("resolve working directory: %w", err)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("resolve user home: %w", err)
	}
	return DiscoverFrom(explicitPath, cwd, homeDir)
}

// DiscoverFrom is a testable variant of Discover.
func DiscoverFrom(explicitPath, cwd, homeDir string) (string, bool, error) {
	candidates := make([]string, 0, 2)
	if clean := strings.TrimSpace(explicitPath); clean != "" {
		candidates = append(candidates, filepath.Clean(clean))
	} else {
		candidates = append(candidates, filepath.Join(cwd, projectConfigName))
		candidates = append(candidates, filepath.Join(homeDir, ".mcpdroid", homeConfigName))
	}

	for i, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, true, nil
		}
		if errors.Is(err, os.ErrNotExist) {
			// An explicit path that does not exist is an error.
			if i == 0 && strings.TrimSpace(explicitPath) != "" {
				return "", false, fmt.Errorf("config file %q not found", candidate)
			}
			continue
		}
		if err != nil {
			return "", false, fmt.Errorf("checking config path %q: %w", candidate, err)
		}
	}
	return "", false, nil
}

// Load reads a yaml config file over the defaults. An empty path returns the
// defaults untouched.
func Load(path string) (Config, error) {
	cfg := Default()
	clean := strings.TrimSpace(path)
	if clean == "" {
		return cfg, nil
	}

	// #nosec G304 -- path resolved from explicit local config discovery.
	data, err := os.ReadFile(clean)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %q: %w", clean, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %q: %w", clean, err)
	}
	return cfg, nil
}
