package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"loxkit/internal/catalog"
	"loxkit/internal/log"
)

type searchFlags struct {
	k     int
	paths []string
}

// NewSearchCommand creates the catalog query command.
func NewSearchCommand() *cobra.Command {
	flags := &searchFlags{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the workspace catalog",
		Long: `Run a keyword query against the indexed workspace. Results are ranked by
relevance, with declarations whose name matches the query boosted above
plain text hits.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usageError("search needs a query")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, flags, strings.Join(args, " "))
		},
	}

	cmd.Flags().IntVarP(&flags.k, "limit", "k", 10, "maximum number of results")
	cmd.Flags().StringArrayVar(&flags.paths, "path", nil, "glob to restrict results to (repeatable)")

	return cmd
}

func runSearch(cmd *cobra.Command, flags *searchFlags, query string) error {
	root, err := resolveWorkspace()
	if err != nil {
		return err
	}
	settings, err := loadSettings(root)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	mgr, err := openCatalog(ctx, root, settings, false)
	if err != nil {
		return err
	}
	defer mgr.Stop()

	// Catch up on a handful of recently changed files so results are not
	// stale, but never block the query on a full scan.
	if settings.IndexingEnabled {
		if err := mgr.QuickFreshness(ctx, 10); err != nil {
			logger := log.WithComponent("cli")
			logger.Warn().Str("event", "cli.freshness_failed").Err(err).Msg("pre-search refresh failed")
		}
	}

	spans, err := mgr.Search(ctx, query, flags.paths, flags.k)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if spans == nil {
			spans = []catalog.Span{}
		}
		data, err := json.MarshalIndent(spans, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if len(spans) == 0 {
		fmt.Fprintln(out, "no matches")
		return nil
	}
	for _, span := range spans {
		fmt.Fprintf(out, "%s:%d-%d", span.Path, span.Start, span.End)
		if span.Symbol != "" {
			fmt.Fprintf(out, "  %s", span.Symbol)
		}
		fmt.Fprintf(out, "  (score %.2f)\n", span.Score)
		if line := firstLine(span.Snippet); line != "" {
			fmt.Fprintf(out, "    %s\n", line)
		}
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
