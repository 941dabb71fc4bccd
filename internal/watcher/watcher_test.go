package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type seen struct {
	mu    sync.Mutex
	paths map[string]int
	ch    chan string
}

func newSeen() *seen {
	return &seen{paths: make(map[string]int), ch: make(chan string, 16)}
}

func (s *seen) handle(_ context.Context, path string) {
	s.mu.Lock()
	s.paths[path]++
	s.mu.Unlock()
	s.ch <- path
}

func (s *seen) count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paths[path]
}

func pngOnly(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".png")
}

func startWatcher(t *testing.T, root string, s *seen) {
	t.Helper()
	w, err := New([]string{root}, s.handle, Options{Accept: pngOnly, Debounce: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func waitFor(t *testing.T, s *seen, want string) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case got := <-s.ch:
			if got == want {
				return
			}
		case <-timeout:
			t.Fatalf("handler never called for %s", want)
		}
	}
}

func TestWatcherHandlesNewFile(t *testing.T) {
	root := t.TempDir()
	s := newSeen()
	startWatcher(t, root, s)

	path := filepath.Join(root, "sprite.png")
	if err := os.WriteFile(path, []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, s, path)
}

func TestWatcherDebouncesRepeatedWrites(t *testing.T) {
	root := t.TempDir()
	s := newSeen()
	startWatcher(t, root, s)

	path := filepath.Join(root, "busy.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	for range 5 {
		_, _ = f.Write([]byte("chunk"))
		time.Sleep(5 * time.Millisecond)
	}
	_ = f.Close()

	waitFor(t, s, path)
	time.Sleep(200 * time.Millisecond)
	if n := s.count(path); n != 1 {
		t.Errorf("handler called %d times, want 1", n)
	}
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	root := t.TempDir()
	s := newSeen()
	startWatcher(t, root, s)

	sub := filepath.Join(root, "levels", "forest")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(sub, "tiles.png")
	if err := os.WriteFile(path, []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, s, path)
}

func TestWatcherIgnoresFilteredNames(t *testing.T) {
	root := t.TempDir()
	s := newSeen()
	startWatcher(t, root, s)

	ignored := []string{
		filepath.Join(root, "out.webp"),
		filepath.Join(root, ".imgtidy_abcd1234.png"),
		filepath.Join(root, "notes.txt"),
	}
	for _, p := range ignored {
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	marker := filepath.Join(root, "marker.png")
	if err := os.WriteFile(marker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, s, marker)

	for _, p := range ignored {
		if n := s.count(p); n != 0 {
			t.Errorf("%s handled %d times", filepath.Base(p), n)
		}
	}
}

func TestNewMissingRoot(t *testing.T) {
	_, err := New([]string{filepath.Join(t.TempDir(), "missing")}, func(context.Context, string) {}, Options{})
	if err == nil {
		t.Fatal("expected error for missing root")
	}
}
