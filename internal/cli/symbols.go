package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"loxkit/internal/catalog"
)

type symbolsFlags struct {
	kind  string
	file  string
	limit int
}

// NewSymbolsCommand creates the declaration listing command.
func NewSymbolsCommand() *cobra.Command {
	flags := &symbolsFlags{}

	cmd := &cobra.Command{
		Use:   "symbols [name]",
		Short: "List declarations from the workspace catalog",
		Long: `List the functions, classes, methods and variables recorded in the
catalog. An optional name argument filters by substring; --kind and
--file narrow the listing further.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSymbols(cmd, flags, args)
		},
	}

	cmd.Flags().StringVar(&flags.kind, "kind", "", "only declarations of this kind (fn, class, method, var)")
	cmd.Flags().StringVar(&flags.file, "file", "", "only declarations from this file (workspace-relative)")
	cmd.Flags().IntVar(&flags.limit, "limit", 100, "maximum number of declarations")

	return cmd
}

func runSymbols(cmd *cobra.Command, flags *symbolsFlags, args []string) error {
	root, err := resolveWorkspace()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	db, err := openCatalogDB(ctx, root)
	if err != nil {
		return err
	}
	defer db.Close()

	filter := catalog.SymbolFilter{
		Kind: flags.kind,
		Path: flags.file,
	}
	if len(args) == 1 {
		filter.Name = args[0]
	}

	symbols, err := db.QuerySymbols(ctx, workspaceID(root), filter, flags.limit)
	if err != nil {
		return fmt.Errorf("failed to query symbols: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if symbols == nil {
			symbols = []catalog.Symbol{}
		}
		data, err := json.MarshalIndent(symbols, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal symbols: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if len(symbols) == 0 {
		fmt.Fprintln(out, "no symbols found")
	} else {
		fmt.Fprintf(out, "%-24s %-8s %-28s %-11s %s\n", "NAME", "KIND", "FILE", "LINES", "CONTAINER")
		for _, sym := range symbols {
			lines := fmt.Sprintf("%d-%d", sym.StartLine, sym.EndLine)
			fmt.Fprintf(out, "%-24s %-8s %-28s %-11s %s\n", sym.Name, sym.Kind, sym.FilePath, lines, sym.Container)
		}
	}

	// With a single file in view, its stored parse problems are worth
	// surfacing alongside the declarations.
	if flags.file != "" {
		if err := printFileProblems(ctx, out, db, workspaceID(root), flags.file); err != nil {
			return err
		}
	}
	return nil
}

func printFileProblems(ctx context.Context, out io.Writer, db *catalog.DB, wsID, path string) error {
	file, err := db.GetFile(ctx, wsID, path)
	if errors.Is(err, sql.ErrNoRows) {
		return nil // file not in the catalog
	}
	if err != nil {
		return fmt.Errorf("failed to load file record: %w", err)
	}
	diags, err := db.FileDiagnostics(ctx, file.FileID)
	if err != nil {
		return fmt.Errorf("failed to load diagnostics: %w", err)
	}
	if len(diags) == 0 {
		return nil
	}

	fmt.Fprintln(out, "\nproblems:")
	for _, d := range diags {
		fmt.Fprintf(out, "  %s:%d:%d: %s\n", d.FilePath, d.Line, d.Col, d.Message)
	}
	return nil
}
