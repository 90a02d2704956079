package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func walkPaths(t *testing.T, w *Walker) []string {
	t.Helper()
	files, err := w.Walk()
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	sort.Strings(paths)
	return paths
}

func TestWalkFindsLoxFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.lox", "print 1;\n")
	writeFile(t, root, "lib/util.lox", "fn id(x) { return x; }\n")
	writeFile(t, root, "README.md", "# readme\n")
	writeFile(t, root, "script.sh", "echo hi\n")

	w, err := NewWalker(root)
	if err != nil {
		t.Fatalf("NewWalker failed: %v", err)
	}

	paths := walkPaths(t, w)
	want := []string{"lib/util.lox", "main.lox"}
	if len(paths) != len(want) {
		t.Fatalf("expected %v, got %v", want, paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("path[%d] = %q, want %q", i, paths[i], want[i])
		}
	}

	files, _ := w.Walk()
	for _, f := range files {
		if f.Hash == "" {
			t.Errorf("file %s has empty hash", f.Path)
		}
		if f.SizeBytes == 0 {
			t.Errorf("file %s has zero size", f.Path)
		}
	}
}

func TestWalkHonorsGitignore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "ignored/\nsecret.lox\n")
	writeFile(t, root, "ignored/a.lox", "print 1;\n")
	writeFile(t, root, "secret.lox", "print 2;\n")
	writeFile(t, root, "keep.lox", "print 3;\n")

	w, err := NewWalker(root)
	if err != nil {
		t.Fatalf("NewWalker failed: %v", err)
	}

	paths := walkPaths(t, w)
	if len(paths) != 1 || paths[0] != "keep.lox" {
		t.Errorf("expected only keep.lox, got %v", paths)
	}
}

func TestWalkSkipsDefaultDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "node_modules/pkg/x.lox", "print 1;\n")
	writeFile(t, root, ".loxkit/y.lox", "print 2;\n")
	writeFile(t, root, "vendor/z.lox", "print 3;\n")
	writeFile(t, root, "app.lox", "print 4;\n")

	w, err := NewWalker(root)
	if err != nil {
		t.Fatalf("NewWalker failed: %v", err)
	}

	paths := walkPaths(t, w)
	if len(paths) != 1 || paths[0] != "app.lox" {
		t.Errorf("expected only app.lox, got %v", paths)
	}
}

func TestWalkIncludePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "lib/a.lox", "print 1;\n")
	writeFile(t, root, "other/b.lox", "print 2;\n")

	w, err := NewWalkerWithConfig(root, WalkerConfig{Include: []string{"lib/**"}})
	if err != nil {
		t.Fatalf("NewWalkerWithConfig failed: %v", err)
	}

	paths := walkPaths(t, w)
	if len(paths) != 1 || paths[0] != "lib/a.lox" {
		t.Errorf("expected only lib/a.lox, got %v", paths)
	}
}

func TestWalkExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "lib/a.lox", "print 1;\n")
	writeFile(t, root, "other/b.lox", "print 2;\n")

	w, err := NewWalkerWithConfig(root, WalkerConfig{Exclude: []string{"lib"}})
	if err != nil {
		t.Fatalf("NewWalkerWithConfig failed: %v", err)
	}

	paths := walkPaths(t, w)
	if len(paths) != 1 || paths[0] != "other/b.lox" {
		t.Errorf("expected only other/b.lox, got %v", paths)
	}
}

func TestWalkFastPathReusesHash(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.lox", "print 1;\n")

	info, err := os.Stat(filepath.Join(root, "main.lox"))
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}

	existing := map[string]FileRecord{
		"main.lox": {
			Path:      "main.lox",
			Hash:      "cached-hash",
			SizeBytes: info.Size(),
			MtimeUnix: info.ModTime().Unix(),
		},
	}

	w, err := NewWalkerWithConfig(root, WalkerConfig{ExistingFiles: existing})
	if err != nil {
		t.Fatalf("NewWalkerWithConfig failed: %v", err)
	}

	files, err := w.Walk()
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
	if files[0].Hash != "cached-hash" {
		t.Errorf("expected cached hash to be reused, got %q", files[0].Hash)
	}
}

func TestWalkRecomputesChangedFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.lox", "print 1;\n")

	// Stale metadata forces a re-hash
	existing := map[string]FileRecord{
		"main.lox": {
			Path:      "main.lox",
			Hash:      "stale-hash",
			SizeBytes: 999,
			MtimeUnix: 1,
		},
	}

	w, err := NewWalkerWithConfig(root, WalkerConfig{ExistingFiles: existing})
	if err != nil {
		t.Fatalf("NewWalkerWithConfig failed: %v", err)
	}

	files, err := w.Walk()
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}
	if files[0].Hash == "stale-hash" || files[0].Hash == "" {
		t.Errorf("expected fresh hash, got %q", files[0].Hash)
	}
}

func TestCollect(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.lox", "print 1;\n")
	writeFile(t, root, "notes.txt", "hello\n")

	w, err := NewWalker(root)
	if err != nil {
		t.Fatalf("NewWalker failed: %v", err)
	}

	result := w.Collect([]string{"a.lox", "notes.txt", "missing.lox"})

	if len(result.Files) != 1 || result.Files[0].Path != "a.lox" {
		t.Errorf("expected only a.lox, got %+v", result.Files)
	}
	// notes.txt is filtered silently; missing.lox is a real error
	if len(result.Errors) != 1 || result.Errors[0].Path != "missing.lox" {
		t.Errorf("expected one error for missing.lox, got %+v", result.Errors)
	}
}
