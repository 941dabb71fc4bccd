package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/five82/imgtidy/internal/config"
	"github.com/five82/imgtidy/internal/processing"
)

// isolate keeps the developer's own config and env out of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	for _, k := range []string{config.EnvRoots, config.EnvProfile, config.EnvWorkers, config.EnvLogDir, config.EnvConfig} {
		t.Setenv(k, "")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, exitOK},
		{fmt.Errorf("optimize: %w", processing.ErrFileFailures), exitFileFailure},
		{errors.New("bad config"), exitFatal},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestLoadConfigLayering(t *testing.T) {
	isolate(t)

	cfgPath := filepath.Join(t.TempDir(), "imgtidy.toml")
	toml := `
roots = ["from-file"]
profile = "compress"
workers = 3

[reserved]
names = ["nul", "con"]
`
	if err := os.WriteFile(cfgPath, []byte(toml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.EnvWorkers, "5")

	of := &optimizeFlags{}
	fs := pflag.NewFlagSet("optimize", pflag.ContinueOnError)
	addOptimizeFlags(fs, of)
	if err := fs.Parse([]string{"--quality", "60"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(fs, &globalFlags{configPath: cfgPath, noLog: true}, of, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Profile != config.ProfileCompress {
		t.Errorf("profile = %q, want file value", cfg.Profile)
	}
	if cfg.Workers != 5 {
		t.Errorf("workers = %d, env should override file", cfg.Workers)
	}
	if len(cfg.Roots) != 1 || cfg.Roots[0] != "from-file" {
		t.Errorf("roots = %v", cfg.Roots)
	}
	if len(cfg.ReservedNames) != 2 {
		t.Errorf("reserved = %v", cfg.ReservedNames)
	}
	if p := cfg.Policies["compress"]; p.Quality != 60 {
		t.Errorf("active policy quality = %d, want flag value", p.Quality)
	}
	if p := cfg.Policies["aggressive"]; p.Quality != config.DefaultQuality {
		t.Errorf("inactive policy changed: quality = %d", p.Quality)
	}
}

func TestLoadConfigFlagsWin(t *testing.T) {
	isolate(t)
	t.Setenv(config.EnvWorkers, "5")
	t.Setenv(config.EnvProfile, config.ProfileCompress)

	of := &optimizeFlags{}
	fs := pflag.NewFlagSet("optimize", pflag.ContinueOnError)
	addOptimizeFlags(fs, of)
	if err := fs.Parse([]string{"--workers", "2", "--profile", "high-fidelity"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(fs, &globalFlags{noLog: true}, of, true, []string{"a", "b"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Workers != 2 || cfg.Profile != config.ProfileHighFidelity {
		t.Errorf("workers=%d profile=%q, flags should win", cfg.Workers, cfg.Profile)
	}
	if len(cfg.Roots) != 2 || !cfg.DryRun {
		t.Errorf("roots=%v dryRun=%v", cfg.Roots, cfg.DryRun)
	}
}

func TestPolicyFlagsDeferToProfile(t *testing.T) {
	isolate(t)

	of := &optimizeFlags{}
	fs := pflag.NewFlagSet("optimize", pflag.ContinueOnError)
	addOptimizeFlags(fs, of)
	for _, name := range []string{"max-dimension", "quality", "effort", "filter"} {
		if def := fs.Lookup(name).DefValue; def != "0" && def != "" {
			t.Errorf("--%s default = %q, help must not imply a fixed value", name, def)
		}
	}
	if err := fs.Parse([]string{"--profile", "compress"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(fs, &globalFlags{noLog: true}, of, false, []string{"."})
	if err != nil {
		t.Fatal(err)
	}
	want := config.DefaultPolicies()["compress"]
	if got := cfg.Policies["compress"]; got != want {
		t.Errorf("compress policy = %+v, want untouched %+v", got, want)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	isolate(t)
	fs := pflag.NewFlagSet("cleanup", pflag.ContinueOnError)

	if _, err := loadConfig(fs, &globalFlags{}, nil, false, nil); err == nil || !strings.Contains(err.Error(), "no roots") {
		t.Errorf("err = %v, want missing roots", err)
	}

	missing := filepath.Join(t.TempDir(), "nope.toml")
	if _, err := loadConfig(fs, &globalFlags{configPath: missing}, nil, false, []string{"."}); err == nil {
		t.Error("explicit missing config file should fail")
	}

	t.Setenv(config.EnvWorkers, "many")
	if _, err := loadConfig(fs, &globalFlags{}, nil, false, []string{"."}); err == nil {
		t.Error("unparseable env value should fail")
	}
}

func TestRunReportToStdout(t *testing.T) {
	isolate(t)
	root := t.TempDir()

	var stdout, stderr bytes.Buffer
	code := run([]string{"report", "--no-log", root}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit = %d, stderr = %s", code, stderr.String())
	}
	if !strings.HasPrefix(stdout.String(), "File Path") {
		t.Errorf("stdout should start with the table header:\n%s", stdout.String())
	}
}

func TestRunFatalExitCodes(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no roots", []string{"cleanup", "--no-log"}},
		{"missing root", []string{"rename", "--no-log", filepath.Join(t.TempDir(), "missing")}},
		{"bad quality", []string{"optimize", "--no-log", "--quality", "200", t.TempDir()}},
		{"unknown command", []string{"shrink"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tt.args, &stdout, &stderr); code != exitFatal {
				t.Errorf("exit = %d, want %d", code, exitFatal)
			}
			if !strings.Contains(stderr.String(), "Error:") {
				t.Errorf("stderr = %q", stderr.String())
			}
		})
	}
}

func TestRunFileFailureExitCode(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "broken.png"), []byte("not a png"), 0644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	if code := run([]string{"optimize", "--no-log", root}, &stdout, &stderr); code != exitFileFailure {
		t.Errorf("exit = %d, want %d", code, exitFileFailure)
	}
}
