package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadWorkspaceConfig_NotExists(t *testing.T) {
	cfg, err := LoadWorkspaceConfig(t.TempDir())
	if err != nil {
		t.Errorf("LoadWorkspaceConfig should not error when file doesn't exist: %v", err)
	}
	if cfg != nil {
		t.Error("LoadWorkspaceConfig should return nil when file doesn't exist")
	}
}

func TestSaveAndLoadWorkspaceConfig(t *testing.T) {
	root := t.TempDir()

	cfg := &WorkspaceConfig{
		IndexingEnabled: true,
		Include:         []string{"src/**"},
		Exclude:         []string{"vendor/**"},
		MaxFileSize:     "512kB",
	}
	if err := SaveWorkspaceConfig(root, cfg); err != nil {
		t.Fatalf("SaveWorkspaceConfig failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, LoxkitDir)); os.IsNotExist(err) {
		t.Error(".loxkit directory should be created")
	}
	if !WorkspaceConfigExists(root) {
		t.Error("WorkspaceConfigExists should return true after save")
	}

	loaded, err := LoadWorkspaceConfig(root)
	if err != nil {
		t.Fatalf("LoadWorkspaceConfig failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("LoadWorkspaceConfig returned nil")
	}
	if !loaded.IndexingEnabled || len(loaded.Include) != 1 || loaded.MaxFileSize != "512kB" {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestLoadWorkspaceConfigJSONC(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, LoxkitDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	raw := `{
  // keep generated code out of the index
  "indexing_enabled": true,
  "exclude": ["gen/**"], /* trailing comma is fine too */
}`
	if err := os.WriteFile(filepath.Join(dir, WorkspaceConfigFile), []byte(raw), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadWorkspaceConfig(root)
	if err != nil {
		t.Fatalf("LoadWorkspaceConfig failed on JSONC input: %v", err)
	}
	if !cfg.IndexingEnabled {
		t.Error("expected indexing_enabled=true")
	}
	if len(cfg.Exclude) != 1 || cfg.Exclude[0] != "gen/**" {
		t.Errorf("exclude = %v, want [gen/**]", cfg.Exclude)
	}
}

func TestLoadWorkspaceConfigDefaultsIndexingOn(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, LoxkitDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	raw := `{"exclude": ["gen/**"]}`
	if err := os.WriteFile(filepath.Join(dir, WorkspaceConfigFile), []byte(raw), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadWorkspaceConfig(root)
	if err != nil {
		t.Fatalf("LoadWorkspaceConfig failed: %v", err)
	}
	if !cfg.IndexingEnabled {
		t.Error("indexing_enabled should default to true when omitted")
	}
}

func TestLoadWorkspaceConfigSchemaViolation(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, LoxkitDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	// include must be an array of strings, not a bare string
	raw := `{"indexing_enabled": true, "include": "src/**"}`
	if err := os.WriteFile(filepath.Join(dir, WorkspaceConfigFile), []byte(raw), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadWorkspaceConfig(root); err == nil {
		t.Error("expected schema validation error for non-array include")
	}
}
