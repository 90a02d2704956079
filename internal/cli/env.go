package cli

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"loxkit/internal/catalog"
	"loxkit/internal/config"
	"loxkit/internal/log"
)

// catalogFile is the sqlite database name under the workspace .loxkit dir.
// The keyword index lives next to it as catalog.db.bleve.
const catalogFile = "catalog.db"

// resolveWorkspace turns the --workspace flag into an absolute directory,
// defaulting to the current directory.
func resolveWorkspace() (string, error) {
	root := workspaceFlag
	if root == "" {
		var err error
		root, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve workspace path: %w", err)
	}

	if info, err := os.Stat(absRoot); err != nil || !info.IsDir() {
		return "", fmt.Errorf("workspace path is not a directory: %s", absRoot)
	}

	return absRoot, nil
}

// loadSettings merges the user config, the workspace config, and the
// environment for a workspace root. A broken user config degrades to
// defaults; a broken workspace config is an error, since it was written
// deliberately.
func loadSettings(root string) (config.Settings, error) {
	var user *config.Config
	if mgr, err := config.NewManager(); err == nil {
		loaded, err := mgr.Load()
		if err != nil {
			logger := log.WithComponent("cli")
			logger.Warn().Str("event", "cli.user_config_failed").Err(err).Msg("failed to load user config, using defaults")
		} else {
			user = loaded
		}
	}

	ws, err := config.LoadWorkspaceConfig(root)
	if err != nil {
		return config.Settings{}, err
	}

	return config.ResolveSettings(user, ws), nil
}

// workspaceID derives a stable identifier from the workspace path.
func workspaceID(root string) string {
	hash := sha256.Sum256([]byte(root))
	return fmt.Sprintf("%x", hash[:8])
}

// catalogPath returns the sqlite path for a workspace catalog.
func catalogPath(root string) string {
	return filepath.Join(root, config.LoxkitDir, catalogFile)
}

// openCatalog opens (creating if needed) the workspace catalog.
func openCatalog(ctx context.Context, root string, settings config.Settings, enableWatcher bool) (*catalog.Manager, error) {
	dbPath := catalogPath(root)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create .loxkit directory: %w", err)
	}

	return catalog.NewManager(ctx, catalog.ManagerConfig{
		DBPath:            dbPath,
		WorkspaceID:       workspaceID(root),
		Root:              root,
		Include:           settings.Include,
		Exclude:           settings.Exclude,
		MaxFileSize:       settings.MaxFileSize,
		EnableFileWatcher: enableWatcher,
		SymbolBoost:       settings.SymbolBoost,
	})
}

// openCatalogDB opens just the catalog database of an already-indexed
// workspace, for read-only commands that do not need the keyword index.
func openCatalogDB(ctx context.Context, root string) (*catalog.DB, error) {
	dbPath := catalogPath(root)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("no catalog for this workspace, run 'loxkit index' first")
	}
	return catalog.NewDB(ctx, dbPath)
}
