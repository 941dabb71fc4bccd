package processing

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/five82/imgtidy/internal/config"
)

func TestIsReservedName(t *testing.T) {
	reserved := []string{"nul"}
	tests := []struct {
		name string
		want bool
	}{
		{"nul", true},
		{"NUL", true},
		{"Nul", true},
		{"null", false},
		{"nul.txt", false},
		{"xnul", false},
	}
	for _, tt := range tests {
		if got := IsReservedName(tt.name, reserved); got != tt.want {
			t.Errorf("IsReservedName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRemoveReserved(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("reserved names cannot be created with plain paths on Windows")
	}

	root := t.TempDir()
	lower := filepath.Join(root, "nul")
	upper := filepath.Join(root, "sub", "NUL")
	null := filepath.Join(root, "null")
	txt := filepath.Join(root, "sub", "nul.txt")
	for _, p := range []string{lower, upper, null, txt} {
		writeFile(t, p, []byte("x"))
	}

	res, err := RemoveReserved(context.Background(), config.NewConfig(), []string{root}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := res.Err(); err != nil {
		t.Fatal(err)
	}

	if exists(lower) || exists(upper) {
		t.Error("nul and NUL should be removed")
	}
	if !exists(null) || !exists(txt) {
		t.Error("null and nul.txt must be untouched")
	}
	if res.Summary.Done != 2 {
		t.Errorf("done = %d, want 2", res.Summary.Done)
	}
}

func TestRemoveReservedDryRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("reserved names cannot be created with plain paths on Windows")
	}

	root := t.TempDir()
	p := filepath.Join(root, "NUL")
	writeFile(t, p, []byte("x"))

	cfg := config.NewConfig()
	cfg.DryRun = true
	res, err := RemoveReserved(context.Background(), cfg, []string{root}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !exists(p) {
		t.Error("dry run removed the file")
	}
	if o := outcomeFor(t, res, p); o.Detail != "would remove" {
		t.Errorf("outcome = %+v", o)
	}
}

func TestRemovalPathIsAbsolute(t *testing.T) {
	got, err := removalPath("nul")
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(got) && runtime.GOOS != "windows" {
		t.Errorf("removalPath = %q, want absolute", got)
	}
}
