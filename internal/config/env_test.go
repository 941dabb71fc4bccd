package config

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		changed map[string]bool
		check   func(t *testing.T, cfg *Config)
		wantErr bool
	}{
		{
			name: "applies all env vars",
			envVars: map[string]string{
				EnvRoots:   strings.Join([]string{"public/a", "public/b"}, string(filepath.ListSeparator)),
				EnvProfile: ProfileCompress,
				EnvWorkers: "4",
				EnvLogDir:  "/tmp/imgtidy-logs",
			},
			changed: map[string]bool{},
			check: func(t *testing.T, cfg *Config) {
				if !reflect.DeepEqual(cfg.Roots, []string{"public/a", "public/b"}) {
					t.Errorf("Roots = %v", cfg.Roots)
				}
				if cfg.Profile != ProfileCompress {
					t.Errorf("Profile = %q", cfg.Profile)
				}
				if cfg.Workers != 4 {
					t.Errorf("Workers = %d", cfg.Workers)
				}
				if cfg.LogDir != "/tmp/imgtidy-logs" {
					t.Errorf("LogDir = %q", cfg.LogDir)
				}
			},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				EnvProfile: ProfileCompress,
				EnvWorkers: "8",
			},
			changed: map[string]bool{"profile": true, "workers": true},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Profile != DefaultProfile {
					t.Errorf("Profile = %q, want flag default", cfg.Profile)
				}
				if cfg.Workers != DefaultWorkers {
					t.Errorf("Workers = %d, want flag default", cfg.Workers)
				}
			},
		},
		{
			name:    "returns error for invalid workers",
			envVars: map[string]string{EnvWorkers: "many"},
			changed: map[string]bool{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{EnvRoots, EnvProfile, EnvWorkers, EnvLogDir} {
				t.Setenv(k, "")
			}
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := NewConfig()
			err := ApplyEnvConfig(cfg, tt.changed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyEnvConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}
