package io

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/slok/inferctl/internal/model"
)

// ConfigYAMLRepository loads the client configuration from YAML files.
type ConfigYAMLRepository struct {
	fs fs.FS
}

// NewConfigYAMLRepository creates a new YAML config repository.
func NewConfigYAMLRepository(filesystem fs.FS) *ConfigYAMLRepository {
	return &ConfigYAMLRepository{fs: filesystem}
}

// GetConfig loads a client configuration from a YAML file and returns a validated domain model.
func (r *ConfigYAMLRepository) GetConfig(ctx context.Context, path string) (model.ClientConfig, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return model.ClientConfig{}, fmt.Errorf("reading config file: %w", err)
	}

	if ctx.Err() != nil {
		return model.ClientConfig{}, ctx.Err()
	}

	var cfg ClientConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return model.ClientConfig{}, fmt.Errorf("parsing YAML: %w", err)
	}

	mcfg, err := cfg.toModel()
	if err != nil {
		return model.ClientConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return mcfg, nil
}

// ClientConfig represents the YAML structure of the client configuration.
type ClientConfig struct {
	Backend        BackendConfig   `yaml:"backend"`
	DefaultProfile string          `yaml:"default_profile"`
	Profiles       []ProfileConfig `yaml:"profiles"`
}

// BackendConfig represents the YAML structure of the orchestration API access.
type BackendConfig struct {
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
}

// ProfileConfig represents the YAML structure of a service profile.
type ProfileConfig struct {
	Name     string     `yaml:"name"`
	Type     string     `yaml:"type"`
	Host     string     `yaml:"host"`
	HomeDir  string     `yaml:"home_dir"`
	CacheDir string     `yaml:"cache_dir"`
	SSH      *SSHConfig `yaml:"ssh,omitempty"`
}

// SSHConfig represents the YAML structure of the direct SSH access of a profile.
type SSHConfig struct {
	User       string `yaml:"user"`
	Port       int    `yaml:"port"`
	PrivateKey string `yaml:"private_key"`
	KnownHosts string `yaml:"known_hosts"`
}

func (c ClientConfig) toModel() (model.ClientConfig, error) {
	cfg := model.ClientConfig{
		BackendURL:     c.Backend.URL,
		DefaultProfile: c.DefaultProfile,
	}

	if c.Backend.Timeout != "" {
		d, err := time.ParseDuration(c.Backend.Timeout)
		if err != nil {
			return model.ClientConfig{}, fmt.Errorf("backend timeout: %w", err)
		}
		if d <= 0 {
			return model.ClientConfig{}, fmt.Errorf("backend timeout must be positive, got: %s", d)
		}
		cfg.BackendTimeout = d
	}

	seen := map[string]bool{}
	for i, pc := range c.Profiles {
		p := pc.toModel()
		if err := p.Validate(); err != nil {
			return model.ClientConfig{}, fmt.Errorf("profile %d: %w", i, err)
		}
		if seen[p.Name] {
			return model.ClientConfig{}, fmt.Errorf("profile %q is duplicated", p.Name)
		}
		seen[p.Name] = true
		cfg.Profiles = append(cfg.Profiles, p)
	}

	if cfg.DefaultProfile != "" && !seen[cfg.DefaultProfile] {
		return model.ClientConfig{}, fmt.Errorf("default profile %q is not defined", cfg.DefaultProfile)
	}

	return cfg, nil
}

func (c ProfileConfig) toModel() model.ServiceProfile {
	p := model.ServiceProfile{
		Name:     c.Name,
		Type:     model.ProfileType(c.Type),
		Host:     c.Host,
		HomeDir:  c.HomeDir,
		CacheDir: c.CacheDir,
	}

	if c.SSH != nil {
		port := c.SSH.Port
		if port == 0 {
			port = 22
		}
		p.SSH = &model.SSHConfig{
			User:           c.SSH.User,
			Port:           port,
			PrivateKeyPath: c.SSH.PrivateKey,
			KnownHostsPath: c.SSH.KnownHosts,
		}
	}

	return p
}
