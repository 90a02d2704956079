package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"loxkit/internal/catalog"
	"loxkit/internal/lox"
)

// NewCheckCommand creates the batch syntax checker.
func NewCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check [paths...]",
		Short: "Parse files and report problems",
		Long: `Parse the given files, or every catalog-eligible file in the workspace
when none are given, and print each problem as path:line:col: message.
Exits 1 when any problem is found.`,
		RunE: runCheck,
	}
}

// checkTarget pairs the path used for reading with the one shown in output.
type checkTarget struct {
	display string
	full    string
}

// problem is one diagnostic with its resolved position.
type problem struct {
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	targets, err := checkTargets(args)
	if err != nil {
		return err
	}

	sort.Slice(targets, func(i, j int) bool { return targets[i].display < targets[j].display })

	reports := make([][]problem, len(targets))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			data, err := os.ReadFile(target.full)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", target.display, err)
			}

			src := string(data)
			result := lox.Parse(src)
			if result.Ok() {
				return nil
			}

			li := lox.NewLineIndex(src)
			probs := make([]problem, 0, len(result.Diagnostics()))
			for _, d := range result.Diagnostics() {
				line, col := li.Position(d.Offset)
				probs = append(probs, problem{Path: target.display, Line: line, Col: col, Message: d.Message})
			}
			reports[i] = probs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var all []problem
	for _, probs := range reports {
		all = append(all, probs...)
	}

	if jsonOutput {
		if all == nil {
			all = []problem{}
		}
		data, err := json.MarshalIndent(all, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal problems: %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		for _, p := range all {
			fmt.Fprintf(out, "%s:%d:%d: %s\n", p.Path, p.Line, p.Col, p.Message)
		}
		fmt.Fprintf(out, "%d files checked, %d problems\n", len(targets), len(all))
	}

	if len(all) > 0 {
		return diagnosticsExit()
	}
	return nil
}

// checkTargets resolves the files to check: explicit arguments, or a
// workspace walk honoring the same selection rules as the catalog.
func checkTargets(args []string) ([]checkTarget, error) {
	if len(args) > 0 {
		targets := make([]checkTarget, 0, len(args))
		for _, arg := range args {
			targets = append(targets, checkTarget{display: arg, full: arg})
		}
		return targets, nil
	}

	root, err := resolveWorkspace()
	if err != nil {
		return nil, err
	}
	settings, err := loadSettings(root)
	if err != nil {
		return nil, err
	}

	walker, err := catalog.NewWalkerWithConfig(root, catalog.WalkerConfig{
		Include: settings.Include,
		Exclude: settings.Exclude,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create walker: %w", err)
	}

	files, err := walker.Walk()
	if err != nil {
		return nil, err
	}

	targets := make([]checkTarget, 0, len(files))
	for _, f := range files {
		targets = append(targets, checkTarget{display: f.Path, full: filepath.Join(root, f.Path)})
	}
	return targets, nil
}
