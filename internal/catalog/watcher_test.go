package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestWatcher(t *testing.T, root string) (*FileWatcher, chan []string, chan struct{}) {
	t.Helper()

	fw, err := NewFileWatcher(root, NewExtFilter(".lox"), nil)
	if err != nil {
		t.Fatalf("NewFileWatcher failed: %v", err)
	}

	changed := make(chan []string, 4)
	fw.OnChange(func(paths []string) { changed <- paths })

	structural := make(chan struct{}, 4)
	fw.OnStructureChange(func() { structural <- struct{}{} })

	if err := fw.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { fw.Stop() })

	return fw, changed, structural
}

func TestWatcherReportsChangedFiles(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping timing-dependent watcher test in short mode")
	}

	root := t.TempDir()
	writeFile(t, root, "existing.lox", "print 1;\n")

	_, changed, structural := newTestWatcher(t, root)

	writeFile(t, root, "new.lox", "fn created() {}\n")

	select {
	case paths := <-changed:
		found := false
		for _, p := range paths {
			if p == "new.lox" {
				found = true
			}
		}
		if !found {
			t.Errorf("changed paths %v missing new.lox", paths)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change callback")
	}

	// Creating a file is a structural change too
	select {
	case <-structural:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for structural callback")
	}
}

func TestWatcherWatchesNewDirectories(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping timing-dependent watcher test in short mode")
	}

	root := t.TempDir()
	_, changed, structural := newTestWatcher(t, root)

	if err := os.Mkdir(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}

	// The structural callback fires only after the new directory is
	// already being watched, so the write below cannot be missed.
	select {
	case <-structural:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for structural callback")
	}

	writeFile(t, root, filepath.Join("sub", "inner.lox"), "fn deep() {}\n")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case paths := <-changed:
			for _, p := range paths {
				if p == filepath.Join("sub", "inner.lox") {
					return
				}
			}
		case <-deadline:
			t.Fatal("timed out waiting for change in new directory")
		}
	}
}

func TestWatcherIgnoresUnmatchedFiles(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping timing-dependent watcher test in short mode")
	}

	root := t.TempDir()
	_, changed, _ := newTestWatcher(t, root)

	writeFile(t, root, "notes.txt", "not lox\n")

	select {
	case paths := <-changed:
		t.Errorf("unexpected change callback for %v", paths)
	case <-time.After(1500 * time.Millisecond):
	}
}
