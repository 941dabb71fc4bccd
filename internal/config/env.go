package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Environment variable names.
const (
	EnvRoots   = "IMGTIDY_ROOTS"
	EnvProfile = "IMGTIDY_PROFILE"
	EnvWorkers = "IMGTIDY_WORKERS"
	EnvLogDir  = "IMGTIDY_LOG_DIR"
	EnvConfig  = "IMGTIDY_CONFIG"
)

// ApplyEnvConfig applies IMGTIDY_* environment variables. They override file
// config but are overridden by flags (checked via changed map).
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	if v := os.Getenv(EnvRoots); v != "" {
		s.setStrings("roots", filepath.SplitList(v), &cfg.Roots)
	}
	s.setString("profile", os.Getenv(EnvProfile), &cfg.Profile)
	s.setString("log-dir", os.Getenv(EnvLogDir), &cfg.LogDir)

	if err := s.setIntFromString("workers", os.Getenv(EnvWorkers), &cfg.Workers); err != nil {
		return err
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setStrings sets a list value if not empty and flag not changed.
func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = append([]string(nil), value...)
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setIntFromString parses and sets an int if valid and flag not changed.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = n
	return nil
}
