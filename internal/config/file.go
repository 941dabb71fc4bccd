package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors Config in a shape suitable for TOML and YAML files.
// Named profiles and policies replace the built-in entry of the same name.
type FileConfig struct {
	Roots     []string           `toml:"roots" yaml:"roots"`
	TargetExt string             `toml:"target_ext" yaml:"target_ext"`
	Profile   string             `toml:"profile" yaml:"profile"`
	Workers   int                `toml:"workers" yaml:"workers"`
	LogDir    string             `toml:"log_dir" yaml:"log_dir"`
	Profiles  map[string]Profile `toml:"profiles" yaml:"profiles"`
	Policies  map[string]Policy  `toml:"policies" yaml:"policies"`
	Rename    RenameFileConfig   `toml:"rename" yaml:"rename"`
	Cleanup   CleanupFileConfig  `toml:"cleanup" yaml:"cleanup"`
	Reserved  ReservedFileConfig `toml:"reserved" yaml:"reserved"`
}

// RenameFileConfig configures the filename normalizer.
type RenameFileConfig struct {
	Special []SpecialName `toml:"special" yaml:"special"`
}

// CleanupFileConfig configures original deletion.
type CleanupFileConfig struct {
	Extensions []string `toml:"extensions" yaml:"extensions"`
}

// ReservedFileConfig configures stray reserved-name removal.
type ReservedFileConfig struct {
	Names []string `toml:"names" yaml:"names"`
}

// LoadFileConfig reads and parses a config file. Files ending in .yaml or
// .yml are parsed as YAML, everything else as TOML.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &fc)
	default:
		err = toml.Unmarshal(b, &fc)
	}
	if err != nil {
		return fc, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path following
// the XDG Base Directory Spec: $XDG_CONFIG_HOME/imgtidy/config.toml,
// defaulting to ~/.config/imgtidy/config.toml.
func DefaultConfigPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "imgtidy", "config.toml")
	}
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".config", "imgtidy", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) {
	s := newConfigSetter(changed)

	s.setStrings("roots", fc.Roots, &cfg.Roots)
	s.setString("target-ext", fc.TargetExt, &cfg.TargetExt)
	s.setString("profile", fc.Profile, &cfg.Profile)
	s.setInt("workers", fc.Workers, &cfg.Workers)
	s.setString("log-dir", fc.LogDir, &cfg.LogDir)

	for name, p := range fc.Policies {
		if p.Filter == "" {
			p.Filter = DefaultFilter
		}
		cfg.Policies[name] = p
	}
	for name, p := range fc.Profiles {
		for i, r := range p.Rules {
			if r.Scope == "" {
				p.Rules[i].Scope = ScopePath
			}
		}
		cfg.Profiles[name] = p
	}

	if len(fc.Rename.Special) > 0 {
		cfg.RenameSpecial = fc.Rename.Special
	}
	if len(fc.Cleanup.Extensions) > 0 {
		cfg.CleanupExtensions = fc.Cleanup.Extensions
	}
	if len(fc.Reserved.Names) > 0 {
		cfg.ReservedNames = fc.Reserved.Names
	}
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
