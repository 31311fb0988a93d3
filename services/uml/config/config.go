// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads tsuml project settings.
//
// Settings come from three layers, lowest precedence first: TSUML_*
// environment variables (optionally seeded from a .env file), the project
// file tsuml.yaml, and command line flags. The CLI applies flags last.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the project file looked up in the working directory.
const FileName = "tsuml.yaml"

// EnvPrefix prefixes every environment variable read by LoadEnv.
const EnvPrefix = "TSUML_"

var (
	// ErrInvalidAlias is returned when an alias is not of the form @name=path.
	ErrInvalidAlias = errors.New("invalid alias, expected @name=path")

	// ErrInvalidValue is returned when an environment variable cannot be parsed.
	ErrInvalidValue = errors.New("invalid configuration value")
)

// Config holds the settings shared by the tsuml commands.
//
// Description:
//
//	Pointer fields distinguish "unset" from the zero value so that layers
//	can be merged without clobbering defaults. Use the accessor methods to
//	read a field with its default applied.
//
// Thread Safety: Not safe for concurrent mutation. Treat as immutable
// once loaded.
type Config struct {
	// Include lists the files or directories to diagram.
	Include []string `yaml:"include"`

	// Aliases maps import prefixes such as "@src" to directories. Relative
	// directories are resolved against the config file location.
	Aliases map[string]string `yaml:"aliases"`

	// Exclude holds doublestar patterns of files to skip.
	Exclude []string `yaml:"exclude"`

	// Out is the output file path.
	Out string `yaml:"out"`

	// Format is "graphml", "mermaid" or "json". Empty infers from Out.
	Format string `yaml:"format"`

	// WithPrivate draws private class members.
	WithPrivate *bool `yaml:"with_private"`

	// ClassNamesOnly draws boxes without members.
	ClassNamesOnly *bool `yaml:"class_names_only"`

	// Strict makes unresolvable imports fatal. Default: true.
	Strict *bool `yaml:"strict"`

	// AllowCycles continues past file import cycles instead of aborting.
	AllowCycles *bool `yaml:"allow_cycles"`

	// GroupByFolder wraps entities of each directory in a group node.
	GroupByFolder *bool `yaml:"group_by_folder"`

	// CanonicalAliases draws an aliased import under its declared name.
	// Default: true.
	CanonicalAliases *bool `yaml:"canonical_aliases"`

	// LogLevel is "debug", "info", "warn" or "error".
	LogLevel string `yaml:"log_level"`
}

// Load reads the project file at path.
//
// Description:
//
//	A missing file is not an error and yields an empty Config. Relative
//	alias targets are made relative to the directory holding the file, so
//	the file behaves the same whatever the working directory.
//
// Inputs:
//
//	path - Location of tsuml.yaml. Empty returns an empty Config.
//
// Outputs:
//
//	*Config - Never nil on success.
//	error - Non-nil only if the file exists but cannot be read or parsed.
//
// Thread Safety: Safe for concurrent use (stateless function).
func Load(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for name, target := range cfg.Aliases {
		if !strings.HasPrefix(name, "@") {
			return nil, fmt.Errorf("parsing %s: alias %q: %w", path, name, ErrInvalidAlias)
		}
		if !filepath.IsAbs(target) {
			cfg.Aliases[name] = filepath.Join(dir, target)
		}
	}
	for i, inc := range cfg.Include {
		// Alias-prefixed includes are expanded by the resolver.
		if !filepath.IsAbs(inc) && !strings.HasPrefix(inc, "@") {
			cfg.Include[i] = filepath.Join(dir, inc)
		}
	}

	return &cfg, nil
}

// LoadEnv builds a Config from TSUML_* environment variables.
//
// Description:
//
//	When envFile names an existing file it is loaded first with godotenv.
//	Variables already present in the environment win over the file.
//	Recognized variables: TSUML_OUT, TSUML_FORMAT, TSUML_LOG_LEVEL,
//	TSUML_WITH_PRIVATE, TSUML_CLASS_NAMES_ONLY, TSUML_STRICT,
//	TSUML_ALLOW_CYCLES, TSUML_GROUP_BY_FOLDER, TSUML_CANONICAL_ALIASES and
//	TSUML_ALIASES (comma separated @name=path pairs).
//
// Outputs:
//
//	*Config - Never nil on success.
//	error - Non-nil if the env file is unreadable or a value is malformed.
func LoadEnv(envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("loading %s: %w", envFile, err)
			}
		}
	}

	cfg := &Config{
		Out:      os.Getenv(EnvPrefix + "OUT"),
		Format:   os.Getenv(EnvPrefix + "FORMAT"),
		LogLevel: os.Getenv(EnvPrefix + "LOG_LEVEL"),
	}

	bools := []struct {
		name string
		dst  **bool
	}{
		{"WITH_PRIVATE", &cfg.WithPrivate},
		{"CLASS_NAMES_ONLY", &cfg.ClassNamesOnly},
		{"STRICT", &cfg.Strict},
		{"ALLOW_CYCLES", &cfg.AllowCycles},
		{"GROUP_BY_FOLDER", &cfg.GroupByFolder},
		{"CANONICAL_ALIASES", &cfg.CanonicalAliases},
	}
	for _, b := range bools {
		raw, ok := os.LookupEnv(EnvPrefix + b.name)
		if !ok || raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s%s=%q", ErrInvalidValue, EnvPrefix, b.name, raw)
		}
		*b.dst = &v
	}

	if raw := os.Getenv(EnvPrefix + "ALIASES"); raw != "" {
		cfg.Aliases = make(map[string]string)
		for _, part := range strings.Split(raw, ",") {
			name, target, err := ParseAlias(strings.TrimSpace(part))
			if err != nil {
				return nil, err
			}
			cfg.Aliases[name] = target
		}
	}

	return cfg, nil
}

// ParseAlias splits "@name=path" into its prefix and directory.
func ParseAlias(s string) (string, string, error) {
	name, target, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	target = strings.TrimSpace(target)
	if !ok || len(name) < 2 || !strings.HasPrefix(name, "@") || target == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidAlias, s)
	}
	return name, target, nil
}

// Merge overlays other onto c. Set fields of other win; lists replace
// rather than append, alias tables are combined key by key.
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}
	out := *c
	if len(other.Include) > 0 {
		out.Include = other.Include
	}
	if len(other.Exclude) > 0 {
		out.Exclude = other.Exclude
	}
	if len(other.Aliases) > 0 {
		merged := make(map[string]string, len(c.Aliases)+len(other.Aliases))
		for k, v := range c.Aliases {
			merged[k] = v
		}
		for k, v := range other.Aliases {
			merged[k] = v
		}
		out.Aliases = merged
	}
	if other.Out != "" {
		out.Out = other.Out
	}
	if other.Format != "" {
		out.Format = other.Format
	}
	if other.LogLevel != "" {
		out.LogLevel = other.LogLevel
	}
	if other.WithPrivate != nil {
		out.WithPrivate = other.WithPrivate
	}
	if other.ClassNamesOnly != nil {
		out.ClassNamesOnly = other.ClassNamesOnly
	}
	if other.Strict != nil {
		out.Strict = other.Strict
	}
	if other.AllowCycles != nil {
		out.AllowCycles = other.AllowCycles
	}
	if other.GroupByFolder != nil {
		out.GroupByFolder = other.GroupByFolder
	}
	if other.CanonicalAliases != nil {
		out.CanonicalAliases = other.CanonicalAliases
	}
	return &out
}

// IsStrict reports Strict, defaulting to true.
func (c *Config) IsStrict() bool { return boolOr(c.Strict, true) }

// IsAllowCycles reports AllowCycles, defaulting to false.
func (c *Config) IsAllowCycles() bool { return boolOr(c.AllowCycles, false) }

// IsWithPrivate reports WithPrivate, defaulting to false.
func (c *Config) IsWithPrivate() bool { return boolOr(c.WithPrivate, false) }

// IsClassNamesOnly reports ClassNamesOnly, defaulting to false.
func (c *Config) IsClassNamesOnly() bool { return boolOr(c.ClassNamesOnly, false) }

// IsGroupByFolder reports GroupByFolder, defaulting to true.
func (c *Config) IsGroupByFolder() bool { return boolOr(c.GroupByFolder, true) }

// IsCanonicalAliases reports CanonicalAliases, defaulting to true.
func (c *Config) IsCanonicalAliases() bool { return boolOr(c.CanonicalAliases, true) }

// Bool returns a pointer to v, for building a Config in code.
func Bool(v bool) *bool { return &v }

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
