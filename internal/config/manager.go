package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docker/go-units"
)

// DefaultSymbolBoost is the score multiplier applied to search hits whose
// chunk carries a named declaration.
const DefaultSymbolBoost = 1.2

// DefaultMaxFileSize caps how large a source file may be before the
// indexer skips it.
const DefaultMaxFileSize = int64(units.MB)

// Config holds the user's persistent configuration preferences.
type Config struct {
	LogLevel    string  `json:"log_level,omitempty"`     // zerolog level name ("debug", "info", ...)
	SymbolBoost float64 `json:"symbol_boost,omitempty"`  // search boost for symbol-bearing chunks
	MaxFileSize string  `json:"max_file_size,omitempty"` // human-readable size ("1MB", "512kB")
	AutoIndex   bool    `json:"auto_index"`              // whether to auto-index new workspaces
}

// Manager handles loading and saving the configuration.
type Manager struct {
	configDir string
}

// NewManager creates a new configuration manager.
func NewManager() (*Manager, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user config dir: %w", err)
	}

	return &Manager{
		configDir: filepath.Join(configDir, "loxkit"),
	}, nil
}

// NewManagerAt creates a manager rooted at an explicit directory.
func NewManagerAt(dir string) *Manager {
	return &Manager{configDir: dir}
}

// GetConfigPath returns the absolute path to the config.json file.
func (m *Manager) GetConfigPath() string {
	return filepath.Join(m.configDir, "config.json")
}

// Load reads the configuration from disk.
// If the file does not exist, it returns a default Config and no error.
func (m *Manager) Load() (*Config, error) {
	path := m.GetConfigPath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{AutoIndex: true}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Auto-indexing defaults on; only an explicit "auto_index": false turns
	// it off.
	cfg := Config{AutoIndex: true}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config json: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration to disk with restricted permissions (0600).
func (m *Manager) Save(cfg *Config) error {
	if err := os.MkdirAll(m.configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := m.GetConfigPath()
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Exists checks if the configuration file has been created.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.GetConfigPath())
	return !os.IsNotExist(err)
}

// MaxFileSizeBytes parses the configured size limit, falling back to
// DefaultMaxFileSize when unset.
func (c *Config) MaxFileSizeBytes() (int64, error) {
	if c.MaxFileSize == "" {
		return DefaultMaxFileSize, nil
	}
	n, err := units.FromHumanSize(c.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("invalid max_file_size %q: %w", c.MaxFileSize, err)
	}
	return n, nil
}
