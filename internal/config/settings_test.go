package config

import "testing"

func TestResolveSettingsDefaults(t *testing.T) {
	s := ResolveSettings(nil, nil)

	if s.SymbolBoost != DefaultSymbolBoost {
		t.Errorf("SymbolBoost = %v, want %v", s.SymbolBoost, DefaultSymbolBoost)
	}
	if s.MaxFileSize != DefaultMaxFileSize {
		t.Errorf("MaxFileSize = %d, want %d", s.MaxFileSize, DefaultMaxFileSize)
	}
	if !s.IndexingEnabled {
		t.Error("indexing should default to enabled")
	}
}

func TestResolveSettingsUserAutoIndex(t *testing.T) {
	s := ResolveSettings(&Config{AutoIndex: false}, nil)
	if s.IndexingEnabled {
		t.Error("auto_index: false should disable indexing")
	}

	s = ResolveSettings(&Config{AutoIndex: false}, &WorkspaceConfig{IndexingEnabled: true})
	if !s.IndexingEnabled {
		t.Error("workspace config should re-enable indexing over the user config")
	}
}

func TestResolveSettingsWorkspaceOverridesUser(t *testing.T) {
	user := &Config{LogLevel: "info", SymbolBoost: 1.5, MaxFileSize: "2MB"}
	ws := &WorkspaceConfig{
		IndexingEnabled: false,
		Include:         []string{"src/**"},
		MaxFileSize:     "512kB",
	}

	s := ResolveSettings(user, ws)

	if s.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", s.LogLevel)
	}
	if s.SymbolBoost != 1.5 {
		t.Errorf("SymbolBoost = %v, want 1.5", s.SymbolBoost)
	}
	if s.MaxFileSize != 512_000 {
		t.Errorf("MaxFileSize = %d, want 512000", s.MaxFileSize)
	}
	if s.IndexingEnabled {
		t.Error("workspace config should disable indexing")
	}
	if len(s.Include) != 1 {
		t.Errorf("Include = %v", s.Include)
	}
}

func TestResolveSettingsEnvOverrides(t *testing.T) {
	t.Setenv("LOXKIT_LOG_LEVEL", "debug")
	t.Setenv("LOXKIT_SYMBOL_BOOST", "1.8")

	s := ResolveSettings(&Config{LogLevel: "info", SymbolBoost: 1.1}, nil)

	if s.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug (env wins)", s.LogLevel)
	}
	if s.SymbolBoost != 1.8 {
		t.Errorf("SymbolBoost = %v, want 1.8 (env wins)", s.SymbolBoost)
	}
}

func TestResolveSettingsRejectsOutOfRangeBoost(t *testing.T) {
	t.Setenv("LOXKIT_SYMBOL_BOOST", "5.0")

	s := ResolveSettings(nil, nil)
	if s.SymbolBoost != DefaultSymbolBoost {
		t.Errorf("out-of-range boost should fall back to default, got %v", s.SymbolBoost)
	}

	s = ResolveSettings(&Config{SymbolBoost: 0.5}, nil)
	if s.SymbolBoost != DefaultSymbolBoost {
		t.Errorf("out-of-range user boost should fall back to default, got %v", s.SymbolBoost)
	}
}
