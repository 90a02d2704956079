package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"

	"loxkit/internal/catalog"
	"loxkit/internal/config"
)

type indexFlags struct {
	rebuild bool
	watch   bool
}

// NewIndexCommand creates the catalog build/refresh command.
func NewIndexCommand() *cobra.Command {
	flags := &indexFlags{}

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build or refresh the workspace catalog",
		Long: `Scan the workspace, parse every eligible file and store its outline in
the catalog under .loxkit/. A second run only reindexes files whose
content changed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.rebuild, "rebuild", false, "drop the catalog and index from scratch")
	cmd.Flags().BoolVar(&flags.watch, "watch", false, "keep running and index as files change")

	return cmd
}

func runIndex(cmd *cobra.Command, flags *indexFlags) error {
	root, err := resolveWorkspace()
	if err != nil {
		return err
	}
	settings, err := loadSettings(root)
	if err != nil {
		return err
	}
	if !settings.IndexingEnabled {
		return fmt.Errorf("indexing is disabled in %s", filepath.Join(config.LoxkitDir, config.WorkspaceConfigFile))
	}

	ctx := cmd.Context()
	mgr, err := openCatalog(ctx, root, settings, flags.watch)
	if err != nil {
		return err
	}
	defer mgr.Stop()

	if flags.rebuild {
		if err := mgr.Rebuild(ctx); err != nil {
			return fmt.Errorf("failed to rebuild catalog: %w", err)
		}
	} else {
		if err := mgr.InitialScan(ctx); err != nil {
			return fmt.Errorf("failed to index workspace: %w", err)
		}
	}

	if err := printStats(cmd, mgr); err != nil {
		return err
	}

	if flags.watch {
		if err := mgr.Start(); err != nil {
			return fmt.Errorf("failed to start watcher: %w", err)
		}

		watchCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Fprintln(cmd.OutOrStdout(), "watching for changes, ctrl-c to stop")
		<-watchCtx.Done()
		fmt.Fprintln(cmd.OutOrStdout(), "stopping")
	}

	return nil
}

func printStats(cmd *cobra.Command, mgr *catalog.Manager) error {
	st, err := mgr.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read catalog stats: %w", err)
	}
	out := cmd.OutOrStdout()

	if jsonOutput {
		type statsJSON struct {
			TotalFiles  int    `json:"total_files"`
			Indexed     int    `json:"indexed"`
			Pending     int    `json:"pending"`
			Failed      int    `json:"failed"`
			Deleted     int    `json:"deleted"`
			Symbols     int    `json:"symbols"`
			Chunks      int    `json:"chunks"`
			Diagnostics int    `json:"diagnostics"`
			SizeBytes   int64  `json:"size_bytes"`
			Size        string `json:"size"`
		}
		data, err := json.MarshalIndent(statsJSON{
			TotalFiles:  st.TotalFiles,
			Indexed:     st.Indexed,
			Pending:     st.Pending,
			Failed:      st.Failed,
			Deleted:     st.Deleted,
			Symbols:     st.Symbols,
			Chunks:      st.Chunks,
			Diagnostics: st.Diagnostics,
			SizeBytes:   st.SizeBytes,
			Size:        units.HumanSize(float64(st.SizeBytes)),
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "files:       %d (%d indexed, %d pending, %d failed)\n", st.TotalFiles, st.Indexed, st.Pending, st.Failed)
	fmt.Fprintf(out, "symbols:     %d\n", st.Symbols)
	fmt.Fprintf(out, "chunks:      %d\n", st.Chunks)
	fmt.Fprintf(out, "problems:    %d\n", st.Diagnostics)
	fmt.Fprintf(out, "source size: %s\n", units.HumanSize(float64(st.SizeBytes)))
	return nil
}
