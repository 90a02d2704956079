package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"github.com/xeipuuv/gojsonschema"
)

const (
	// LoxkitDir is the directory name for per-workspace configuration
	LoxkitDir = ".loxkit"
	// WorkspaceConfigFile is the name of the workspace configuration file
	WorkspaceConfigFile = "config.json"
)

// workspaceSchema validates the shape of a workspace config file. The file
// may be JSONC, so comments are stripped before validation.
const workspaceSchema = `{
  "type": "object",
  "properties": {
    "indexing_enabled": {"type": "boolean"},
    "include": {"type": "array", "items": {"type": "string"}},
    "exclude": {"type": "array", "items": {"type": "string"}},
    "max_file_size": {"type": "string"}
  }
}`

// WorkspaceConfig holds per-workspace settings, stored under
// .loxkit/config.json inside the workspace root.
type WorkspaceConfig struct {
	IndexingEnabled bool     `json:"indexing_enabled"`
	Include         []string `json:"include,omitempty"`       // glob patterns; empty means everything
	Exclude         []string `json:"exclude,omitempty"`       // glob patterns layered on top of ignore rules
	MaxFileSize     string   `json:"max_file_size,omitempty"` // human-readable size, overrides the user config
}

// workspaceConfigPath returns the full path to the workspace config file.
func workspaceConfigPath(root string) string {
	return filepath.Join(root, LoxkitDir, WorkspaceConfigFile)
}

// WorkspaceConfigExists checks if a workspace configuration file exists.
func WorkspaceConfigExists(root string) bool {
	_, err := os.Stat(workspaceConfigPath(root))
	return !os.IsNotExist(err)
}

// LoadWorkspaceConfig reads the workspace configuration from disk.
// Returns nil and no error if the config file does not exist.
// The file is parsed as JSONC, so // and /* */ comments are allowed.
func LoadWorkspaceConfig(root string) (*WorkspaceConfig, error) {
	path := workspaceConfigPath(root)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace config: %w", err)
	}

	clean := jsonc.ToJSON(data)

	if err := validateWorkspaceConfig(clean); err != nil {
		return nil, fmt.Errorf("invalid workspace config %s: %w", path, err)
	}

	// Indexing defaults on; only an explicit "indexing_enabled": false turns
	// it off.
	cfg := WorkspaceConfig{IndexingEnabled: true}
	if err := json.Unmarshal(clean, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse workspace config: %w", err)
	}

	return &cfg, nil
}

// SaveWorkspaceConfig writes the workspace configuration to disk.
// Creates the .loxkit directory if it doesn't exist.
func SaveWorkspaceConfig(root string, cfg *WorkspaceConfig) error {
	dir := filepath.Join(root, LoxkitDir)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create .loxkit directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workspace config: %w", err)
	}

	if err := os.WriteFile(workspaceConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("failed to write workspace config: %w", err)
	}

	return nil
}

func validateWorkspaceConfig(doc []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(workspaceSchema)
	documentLoader := gojsonschema.NewBytesLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if !result.Valid() {
		var msgs []string
		for _, verr := range result.Errors() {
			msgs = append(msgs, verr.String())
		}
		return fmt.Errorf("%s", strings.Join(msgs, "; "))
	}

	return nil
}
