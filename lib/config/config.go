// Copyright 2026 The XPII Chain Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for XPII Chain
// components.
//
// Configuration is loaded from a single file specified by:
//   - XPII_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures
// deterministic, auditable configuration with no hidden overrides.
//
// The config file may contain environment-specific sections
// (development, staging, production) that override base values when
// the environment matches.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for XPII Chain.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Staple configures the governed pipeline.
	Staple StapleConfig `yaml:"staple"`

	// Policy configures the policy engine.
	Policy PolicyConfig `yaml:"policy"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Paths  *PathsConfig  `yaml:"paths,omitempty"`
	Staple *StapleConfig `yaml:"staple,omitempty"`
	Policy *PolicyConfig `yaml:"policy,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for XPII Chain data.
	Root string `yaml:"root"`

	// Work is where pipeline workspaces are created. Every staple
	// extracts into a fresh directory under this path and removes it
	// when finished.
	Work string `yaml:"work"`

	// AuditExports is where audit chain exports are written when no
	// explicit path is given.
	AuditExports string `yaml:"audit_exports"`
}

// StapleConfig configures the governed pipeline.
type StapleConfig struct {
	// AgentName is the name the agent identity is created under.
	// Default: stapler
	AgentName string `yaml:"agent_name"`

	// DefaultAuthor is the dc:creator value used when the command line
	// supplies none.
	DefaultAuthor string `yaml:"default_author"`
}

// PolicyConfig configures the policy engine.
type PolicyConfig struct {
	// RulesFile is the path to an operator-authored policy rules file
	// (JSON with comments). Empty means only the builtin policies run.
	RulesFile string `yaml:"rules_file"`
}

// Default returns the default configuration. These defaults are used as
// a base before loading the config file. They exist primarily to ensure
// all fields have sensible zero-values, not as a fallback - the config
// file is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "xpii")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:         defaultRoot,
			Work:         filepath.Join(defaultRoot, "work"),
			AuditExports: filepath.Join(defaultRoot, "audit"),
		},
		Staple: StapleConfig{
			AgentName:     "stapler",
			DefaultAuthor: "",
		},
		Policy: PolicyConfig{
			RulesFile: "",
		},
	}
}

// Load loads configuration from the XPII_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults - if XPII_CONFIG is not set, this
// fails. This ensures deterministic, auditable configuration with no
// hidden overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("XPII_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("XPII_CONFIG environment variable not set; " +
			"set it to the path of your xpii.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables
// do not override config values - this ensures deterministic, auditable
// configuration. The only expansion performed is ${HOME} and similar
// path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// Apply environment-specific overrides (development/staging/production sections in the file).
	cfg.applyEnvironmentOverrides()

	// Expand ${HOME} and similar variables in paths for portability.
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		if overrides.Paths.Root != "" {
			c.Paths.Root = overrides.Paths.Root
		}
		if overrides.Paths.Work != "" {
			c.Paths.Work = overrides.Paths.Work
		}
		if overrides.Paths.AuditExports != "" {
			c.Paths.AuditExports = overrides.Paths.AuditExports
		}
	}

	if overrides.Staple != nil {
		if overrides.Staple.AgentName != "" {
			c.Staple.AgentName = overrides.Staple.AgentName
		}
		if overrides.Staple.DefaultAuthor != "" {
			c.Staple.DefaultAuthor = overrides.Staple.DefaultAuthor
		}
	}

	if overrides.Policy != nil {
		if overrides.Policy.RulesFile != "" {
			c.Policy.RulesFile = overrides.Policy.RulesFile
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"XPII_ROOT": c.Paths.Root,
		"HOME":      os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["XPII_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.Work = expandVars(c.Paths.Work, vars)
	c.Paths.AuditExports = expandVars(c.Paths.AuditExports, vars)
	c.Policy.RulesFile = expandVars(c.Policy.RulesFile, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}

	if c.Paths.Work == "" {
		errs = append(errs, fmt.Errorf("paths.work is required"))
	}

	if c.Staple.AgentName == "" {
		errs = append(errs, fmt.Errorf("staple.agent_name is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates all configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	paths := []string{
		c.Paths.Root,
		c.Paths.Work,
		c.Paths.AuditExports,
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}
