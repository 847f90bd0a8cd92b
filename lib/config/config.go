// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable [Load] reads the config path
// from.
const EnvironmentVariable = "EXECPOLICY_CONFIG"

// Config is the configuration for execpolicy.
type Config struct {
	// Paths locates the daemon's policy sources and execpolicy's own
	// working files.
	Paths PathsConfig `yaml:"paths"`

	// Daemon describes the policy daemon being managed.
	Daemon DaemonConfig `yaml:"daemon"`

	// Events configures decision log reading.
	Events EventsConfig `yaml:"events"`

	// Session configures edit sessions and autosave.
	Session SessionConfig `yaml:"session"`
}

// PathsConfig locates files and directories.
type PathsConfig struct {
	// Root is the base directory for execpolicy's own data.
	Root string `yaml:"root"`

	// TrustStore is the daemon's live trust store, read as a SQLite
	// file (trust.SQLiteStore). fapolicyd's own LMDB environment
	// cannot be opened directly; seed this file from a manifest with
	// "execpolicy store seed".
	// Default: /var/lib/fapolicyd/trust.db
	TrustStore string `yaml:"trust_store"`

	// TrustFile is the administrator trust file.
	// Default: /etc/fapolicyd/fapolicyd.trust
	TrustFile string `yaml:"trust_file"`

	// TrustDir is the trust.d directory.
	// Default: /etc/fapolicyd/trust.d
	TrustDir string `yaml:"trust_dir"`

	// RulesFile is the compiled rules file the daemon evaluates.
	// Default: /etc/fapolicyd/compiled.rules
	RulesFile string `yaml:"rules_file"`

	// Passwd and Group are the account databases.
	Passwd string `yaml:"passwd"`
	Group  string `yaml:"group"`

	// EventLog is the default decision log for analysis commands.
	EventLog string `yaml:"event_log"`

	// Sessions is where autosaved edit sessions are written.
	// Default: ${EXECPOLICY_ROOT}/sessions
	Sessions string `yaml:"sessions"`
}

// DaemonConfig describes the policy daemon.
type DaemonConfig struct {
	// Binary is the daemon executable, a path or a name looked up in
	// PATH. Default: fapolicyd
	Binary string `yaml:"binary"`

	// Version pins the daemon version instead of asking the binary.
	Version string `yaml:"version"`
}

// EventsConfig configures decision log reading.
type EventsConfig struct {
	// LinePolicy is what happens on an unparseable line: "strict"
	// aborts the read, "skip" logs and continues. Default: strict
	LinePolicy string `yaml:"line_policy"`
}

// SessionConfig configures edit sessions.
type SessionConfig struct {
	// Autosave writes the pending changes after every edit.
	Autosave bool `yaml:"autosave"`

	// AutosaveCount is how many autosave files to keep. Default: 2
	AutosaveCount int `yaml:"autosave_count"`

	// AutosaveBasename prefixes autosave file names.
	// Default: FaCurrentSession.tmp
	AutosaveBasename string `yaml:"autosave_basename"`
}

// Default returns the configuration for a stock fapolicyd host. It is
// the base that a config file is merged onto.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "execpolicy")

	return &Config{
		Paths: PathsConfig{
			Root:       defaultRoot,
			TrustStore: "/var/lib/fapolicyd/trust.db",
			TrustFile:  "/etc/fapolicyd/fapolicyd.trust",
			TrustDir:   "/etc/fapolicyd/trust.d",
			RulesFile:  "/etc/fapolicyd/compiled.rules",
			Passwd:     "/etc/passwd",
			Group:      "/etc/group",
			EventLog:   "/var/log/fapolicyd-access.log",
			Sessions:   "${EXECPOLICY_ROOT}/sessions",
		},
		Daemon: DaemonConfig{
			Binary: "fapolicyd",
		},
		Events: EventsConfig{
			LinePolicy: "strict",
		},
		Session: SessionConfig{
			Autosave:         true,
			AutosaveCount:    2,
			AutosaveBasename: "FaCurrentSession.tmp",
		},
	}
}

// Load loads configuration from the file named by EXECPOLICY_CONFIG.
// There is no fallback when the variable is unset.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your execpolicy.yaml config file, or use --config flag", EnvironmentVariable)
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from path, merged onto [Default]. The
// only expansion performed is ${VAR} and ${VAR:-default} in paths.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// Resolved returns a copy of the default configuration with variables
// expanded, for commands run without a config file.
func Resolved() *Config {
	cfg := Default()
	cfg.expandVariables()
	return cfg
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"EXECPOLICY_ROOT": c.Paths.Root,
		"HOME":            os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["EXECPOLICY_ROOT"] = c.Paths.Root

	for _, field := range []*string{
		&c.Paths.TrustStore,
		&c.Paths.TrustFile,
		&c.Paths.TrustDir,
		&c.Paths.RulesFile,
		&c.Paths.Passwd,
		&c.Paths.Group,
		&c.Paths.EventLog,
		&c.Paths.Sessions,
		&c.Daemon.Binary,
	} {
		*field = expandVars(*field, vars)
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default}, preferring vars over
// the process environment.
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

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors and reports all of
// them at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Paths.Root == "" {
		errs = append(errs, errors.New("paths.root is required"))
	}
	if c.Paths.TrustStore == "" {
		errs = append(errs, errors.New("paths.trust_store is required"))
	}
	if c.Paths.RulesFile == "" {
		errs = append(errs, errors.New("paths.rules_file is required"))
	}
	for name, path := range map[string]string{
		"paths.trust_store": c.Paths.TrustStore,
		"paths.trust_file":  c.Paths.TrustFile,
		"paths.trust_dir":   c.Paths.TrustDir,
		"paths.rules_file":  c.Paths.RulesFile,
	} {
		if path != "" && !filepath.IsAbs(path) {
			errs = append(errs, fmt.Errorf("%s must be an absolute path, got %q", name, path))
		}
	}

	if c.Events.LinePolicy != "strict" && c.Events.LinePolicy != "skip" {
		errs = append(errs, fmt.Errorf("events.line_policy must be one of: [strict skip], got %q", c.Events.LinePolicy))
	}

	if c.Session.AutosaveCount < 1 {
		errs = append(errs, fmt.Errorf("session.autosave_count must be at least 1, got %d", c.Session.AutosaveCount))
	}
	if c.Session.AutosaveBasename == "" {
		errs = append(errs, errors.New("session.autosave_basename is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates execpolicy's own directories if they don't exist.
// The daemon's paths are never created.
func (c *Config) EnsurePaths() error {
	for _, path := range []string{c.Paths.Root, c.Paths.Sessions} {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil
}

// DaemonPath resolves the daemon binary: an absolute Daemon.Binary is
// returned as is when it exists, anything else is looked up in PATH.
func (c *Config) DaemonPath() (string, error) {
	if filepath.IsAbs(c.Daemon.Binary) {
		if _, err := os.Stat(c.Daemon.Binary); err != nil {
			return "", fmt.Errorf("daemon binary: %w", err)
		}
		return c.Daemon.Binary, nil
	}

	path, err := exec.LookPath(c.Daemon.Binary)
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH", c.Daemon.Binary)
	}
	return path, nil
}
