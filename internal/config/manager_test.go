package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingUserConfig(t *testing.T) {
	m := NewManagerAt(filepath.Join(t.TempDir(), "loxkit"))

	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load should not error when file doesn't exist: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if !cfg.AutoIndex {
		t.Error("auto_index should default to true")
	}
	if m.Exists() {
		t.Error("Exists should return false before Save")
	}
}

func TestSaveAndLoadUserConfig(t *testing.T) {
	m := NewManagerAt(filepath.Join(t.TempDir(), "loxkit"))

	cfg := &Config{
		LogLevel:    "debug",
		SymbolBoost: 1.5,
		MaxFileSize: "2MB",
		AutoIndex:   true,
	}
	if err := m.Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(m.GetConfigPath())
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file mode = %o, want 0600", perm)
	}

	loaded, err := m.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.LogLevel != "debug" || loaded.SymbolBoost != 1.5 || !loaded.AutoIndex {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
	if !m.Exists() {
		t.Error("Exists should return true after Save")
	}
}

func TestMaxFileSizeBytes(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", DefaultMaxFileSize, false},
		{"2MB", 2_000_000, false},
		{"512kB", 512_000, false},
		{"oops", 0, true},
	}
	for _, tt := range tests {
		c := &Config{MaxFileSize: tt.in}
		got, err := c.MaxFileSizeBytes()
		if tt.wantErr {
			if err == nil {
				t.Errorf("MaxFileSizeBytes(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("MaxFileSizeBytes(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("MaxFileSizeBytes(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
