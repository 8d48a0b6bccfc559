package watch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/panbanda/harnessprobe/pkg/config"
)

func newTestWatcher(t *testing.T, dir string, debounce time.Duration) *Watcher {
	t.Helper()
	w, err := NewWatcher(dir, config.DefaultConfig(), debounce)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.SetOutput(&bytes.Buffer{})
	t.Cleanup(func() { w.Stop() })
	return w
}

func TestNewWatcher(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		debounce time.Duration
		want     time.Duration
	}{
		{"default debounce", 0, DefaultDebounce},
		{"custom debounce", time.Second, time.Second},
		{"negative debounce defaults", -time.Second, DefaultDebounce},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWatcher(t, tmpDir, tt.debounce)
			if w.debounce != tt.want {
				t.Errorf("debounce = %v, want %v", w.debounce, tt.want)
			}
			if w.pending == nil {
				t.Error("pending map should be initialized")
			}
		})
	}
}

func TestWatcher_handleEvent(t *testing.T) {
	tmpDir := t.TempDir()
	w := newTestWatcher(t, tmpDir, time.Second)

	tests := []struct {
		name string
		path string
		op   fsnotify.Op
		want bool
	}{
		{"write source", "main.cpp", fsnotify.Write, true},
		{"create header", "sort.h", fsnotify.Create, true},
		{"c file", "legacy.c", fsnotify.Write, true},
		{"remove ignored", "gone.cpp", fsnotify.Remove, false},
		{"chmod ignored", "mode.cpp", fsnotify.Chmod, false},
		{"unknown language", "notes.txt", fsnotify.Write, false},
		{"excluded dir", filepath.Join("build", "gen.cpp"), fsnotify.Write, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.path)
			w.handleEvent(fsnotify.Event{Name: path, Op: tt.op})

			w.mu.Lock()
			_, got := w.pending[path]
			w.mu.Unlock()
			if got != tt.want {
				t.Errorf("pending[%s] = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestWatcher_processPendingBatches(t *testing.T) {
	tmpDir := t.TempDir()
	w := newTestWatcher(t, tmpDir, 10*time.Millisecond)

	var batches [][]string
	w.SetCallback(func(changed []string) {
		batches = append(batches, changed)
	})

	old := time.Now().Add(-time.Second)
	b := filepath.Join(tmpDir, "b.cpp")
	a := filepath.Join(tmpDir, "a.cpp")
	fresh := filepath.Join(tmpDir, "fresh.cpp")
	w.pending[b] = old
	w.pending[a] = old
	w.pending[fresh] = time.Now().Add(time.Hour)

	w.processPending()

	if len(batches) != 1 {
		t.Fatalf("got %d batches, want 1", len(batches))
	}
	if !reflect.DeepEqual(batches[0], []string{a, b}) {
		t.Errorf("batch = %v, want sorted [a b]", batches[0])
	}
	if _, ok := w.pending[fresh]; !ok {
		t.Error("unsettled file should stay pending")
	}

	w.processPending()
	if len(batches) != 1 {
		t.Error("nothing settled, callback should not run again")
	}
}

func TestWatcher_Start_Context(t *testing.T) {
	w := newTestWatcher(t, t.TempDir(), 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Start(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Errorf("Start() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Error("Start() did not return after context cancellation")
	}
}

func TestWatcher_Start_FileChange(t *testing.T) {
	tmpDir := t.TempDir()
	w := newTestWatcher(t, tmpDir, 50*time.Millisecond)

	var mu sync.Mutex
	var got []string
	w.SetCallback(func(changed []string) {
		mu.Lock()
		got = append(got, changed...)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	time.Sleep(100 * time.Millisecond)

	testFile := filepath.Join(tmpDir, "main.cpp")
	if err := os.WriteFile(testFile, []byte("int main() {}\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) == 0 || got[0] != testFile {
		t.Errorf("callback paths = %v, want [%s]", got, testFile)
	}
}

func TestWatcher_Start_ExcludedDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, "vendor", "lib"), 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.MkdirAll(filepath.Join(tmpDir, "src"), 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	w := newTestWatcher(t, tmpDir, 50*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	time.Sleep(100 * time.Millisecond)

	var sawSrc bool
	for _, path := range w.WatchedDirs() {
		switch filepath.Base(path) {
		case "vendor", "lib":
			t.Errorf("%s should not be watched", path)
		case "src":
			sawSrc = true
		}
	}
	if !sawSrc {
		t.Error("src should be watched")
	}
}

func TestSources(t *testing.T) {
	known := []string{"a.cpp", "b.cpp", "c.c"}
	calls := 0
	all := func() []string {
		calls++
		return known
	}

	if got := Sources([]string{"b.cpp"}, all); !reflect.DeepEqual(got, []string{"b.cpp"}) {
		t.Errorf("Sources(source) = %v", got)
	}
	if calls != 0 {
		t.Error("sources only should not list every file")
	}
	if got := Sources([]string{"b.cpp", "sort.h"}, all); !reflect.DeepEqual(got, known) {
		t.Errorf("Sources(header) = %v, want every known source", got)
	}
}
