// Package config loads the workspace-local lsptree configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const dirName = ".lsptree"

// Dir returns the workspace-local configuration directory.
func Dir(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, dirName)
}

// DefaultPath returns .lsptree/config.yaml within the workspace.
func DefaultPath(workspace string) string {
	return filepath.Join(Dir(workspace), "config.yaml")
}

// Config matches .lsptree/config.yaml.
type Config struct {
	CallSitePreferred bool                    `yaml:"call_site_preferred"`
	RequestTimeout    time.Duration           `yaml:"request_timeout"`
	TypeHierarchy     TypeHierarchyConfig     `yaml:"type_hierarchy"`
	CallHierarchy     CallHierarchyConfig     `yaml:"call_hierarchy"`
	PrintDepth        int                     `yaml:"print_depth"`
	OpenCommand       []string                `yaml:"open_command,omitempty"`
	Servers           map[string]ServerConfig `yaml:"servers"`
	Logging           LoggingConfig           `yaml:"logging"`
}

// TypeHierarchyConfig controls textDocument/typeHierarchy requests.
type TypeHierarchyConfig struct {
	Direction string `yaml:"direction"`
	Resolve   int    `yaml:"resolve"`
}

// CallHierarchyConfig selects callers (incoming) or callees (outgoing).
type CallHierarchyConfig struct {
	Direction string `yaml:"direction"`
}

// Outgoing reports whether callees are the default.
func (c CallHierarchyConfig) Outgoing() bool {
	return strings.EqualFold(c.Direction, "outgoing")
}

// ServerConfig describes how to launch one language server.
type ServerConfig struct {
	Command    string   `yaml:"command"`
	Args       []string `yaml:"args"`
	LanguageID string   `yaml:"language_id"`
	Extensions []string `yaml:"extensions"`
}

// LoggingConfig describes log output. An empty path logs to stderr.
type LoggingConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		CallSitePreferred: true,
		RequestTimeout:    10 * time.Second,
		TypeHierarchy:     TypeHierarchyConfig{Direction: "both", Resolve: 1},
		CallHierarchy:     CallHierarchyConfig{Direction: "incoming"},
		PrintDepth:        1,
		Servers: map[string]ServerConfig{
			"go": {
				Command:    "gopls",
				Args:       []string{"serve"},
				LanguageID: "go",
				Extensions: []string{".go"},
			},
		},
		Logging: LoggingConfig{Level: "error"},
	}
}

// Load reads the config at path or returns defaults when it is missing.
// Keys absent from the file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and normalizes the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to disk.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config missing")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Normalize fills zero values with defaults and validates enumerations.
func (c *Config) Normalize() error {
	def := Default()
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = def.RequestTimeout
	}
	if c.TypeHierarchy.Direction == "" {
		c.TypeHierarchy.Direction = def.TypeHierarchy.Direction
	}
	switch strings.ToLower(c.TypeHierarchy.Direction) {
	case "both", "sub", "subtypes", "children", "super", "supertypes", "parents":
	default:
		return fmt.Errorf("type_hierarchy.direction %q must be sub|super|both", c.TypeHierarchy.Direction)
	}
	if c.TypeHierarchy.Resolve <= 0 {
		c.TypeHierarchy.Resolve = def.TypeHierarchy.Resolve
	}
	if c.CallHierarchy.Direction == "" {
		c.CallHierarchy.Direction = def.CallHierarchy.Direction
	}
	switch strings.ToLower(c.CallHierarchy.Direction) {
	case "incoming", "outgoing":
	default:
		return fmt.Errorf("call_hierarchy.direction %q must be incoming|outgoing", c.CallHierarchy.Direction)
	}
	if c.PrintDepth < 0 {
		c.PrintDepth = 0
	}
	if len(c.Servers) == 0 {
		c.Servers = def.Servers
	}
	for name, srv := range c.Servers {
		if srv.Command == "" {
			return fmt.Errorf("servers.%s.command required", name)
		}
		if srv.LanguageID == "" {
			srv.LanguageID = name
		}
		c.Servers[name] = srv
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	return nil
}

// ServerFor picks the server whose extensions match path. Names are checked
// in sorted order so overlapping extensions resolve deterministically.
func (c *Config) ServerFor(path string) (string, ServerConfig, error) {
	ext := strings.ToLower(filepath.Ext(path))
	names := make([]string, 0, len(c.Servers))
	for name := range c.Servers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		srv := c.Servers[name]
		for _, candidate := range srv.Extensions {
			if strings.ToLower(candidate) == ext {
				return name, srv, nil
			}
		}
	}
	return "", ServerConfig{}, fmt.Errorf("no server configured for %q files", ext)
}
