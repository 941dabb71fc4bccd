package processing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/five82/imgtidy/internal/config"
	"github.com/five82/imgtidy/internal/naming"
	"github.com/five82/imgtidy/internal/reporter"
)

func TestRenameTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "游戏", "标题.png"), []byte("a"))
	writeFile(t, filepath.Join(root, "Game Jam", "café au lait.jpg"), []byte("b"))
	writeFile(t, filepath.Join(root, "Game Jam", "nested 目录", "my photo.webp"), []byte("c"))
	writeFile(t, filepath.Join(root, "fine.png"), []byte("d"))

	res, err := Rename(context.Background(), config.NewConfig(), []string{root}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := res.Err(); err != nil {
		t.Fatal(err)
	}

	for _, p := range []string{
		filepath.Join(root, "folder", "hero.png"),
		filepath.Join(root, "Game-Jam", "cafe-au-lait.jpg"),
		filepath.Join(root, "Game-Jam", "nested", "my-photo.webp"),
		filepath.Join(root, "fine.png"),
	} {
		if !exists(p) {
			t.Errorf("missing %s", p)
		}
	}
	for _, p := range []string{filepath.Join(root, "游戏"), filepath.Join(root, "Game Jam")} {
		if exists(p) {
			t.Errorf("%s should have been renamed", p)
		}
	}

	// 3 directories and 3 files needed renaming; fine.png produced no outcome
	if res.Summary.Done != 6 {
		t.Errorf("done = %d, want 6: %+v", res.Summary.Done, res.Outcomes)
	}
}

func TestRenameCollision(t *testing.T) {
	root := t.TempDir()
	spaced := filepath.Join(root, "a b.png")
	dashed := filepath.Join(root, "a-b.png")
	writeFile(t, spaced, []byte("spaced"))
	writeFile(t, dashed, []byte("dashed"))

	res, err := Rename(context.Background(), config.NewConfig(), []string{root}, nil)
	if err != nil {
		t.Fatal(err)
	}

	o := outcomeFor(t, res, spaced)
	if o.Status != reporter.StatusFailed || !errors.Is(o.Err, naming.ErrCollision) {
		t.Errorf("outcome = %+v, want collision", o)
	}
	data, _ := os.ReadFile(dashed)
	if string(data) != "dashed" {
		t.Error("existing target was overwritten")
	}
	if !exists(spaced) {
		t.Error("colliding source must stay in place")
	}
	if res.Err() == nil {
		t.Error("collision must fail the batch")
	}
}

func TestRenameSiblingDirectoriesCollide(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "日本", "a.png"), []byte("a"))
	writeFile(t, filepath.Join(root, "游戏", "b.png"), []byte("b"))

	res, err := Rename(context.Background(), config.NewConfig(), []string{root}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Summary.Done != 1 || res.Summary.Failed != 1 {
		t.Errorf("summary = %+v", res.Summary)
	}
	if !exists(filepath.Join(root, "folder")) {
		t.Error("first directory should be renamed to the placeholder")
	}
}

func TestRenameDryRun(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "my photo.png")
	twin := filepath.Join(root, "my photo .png")
	writeFile(t, src, []byte("a"))
	writeFile(t, twin, []byte("b"))

	cfg := config.NewConfig()
	cfg.DryRun = true
	res, err := Rename(context.Background(), cfg, []string{root}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !exists(src) || !exists(twin) || exists(filepath.Join(root, "my-photo.png")) {
		t.Error("dry run changed the tree")
	}
	// both map to my-photo.png; the second planned rename collides
	if res.Summary.Done != 1 || res.Summary.Failed != 1 {
		t.Errorf("summary = %+v", res.Summary)
	}
}

func TestRenameRootIsNeverRenamed(t *testing.T) {
	root := filepath.Join(t.TempDir(), "资源 root")
	writeFile(t, filepath.Join(root, "ok.png"), []byte("a"))

	res, err := Rename(context.Background(), config.NewConfig(), []string{root}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !exists(root) || len(res.Outcomes) != 0 {
		t.Errorf("root renamed or unexpected outcomes: %+v", res.Outcomes)
	}
}
