package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"loxkit/internal/lox"
)

// NewTreeCommand creates the syntax tree dump command.
func NewTreeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tree [file]",
		Short: "Parse a file and print its syntax tree",
		Long: `Parse the input as a program and print the concrete syntax tree.
Problems go to stderr with line:col positions; the tree is printed either
way, since parsing never fails. Reads stdin when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runTree,
	}
}

func runTree(cmd *cobra.Command, args []string) error {
	src, name, err := readSource(cmd, args)
	if err != nil {
		return err
	}

	result := lox.Parse(src)
	out := cmd.OutOrStdout()

	if jsonOutput {
		data, err := json.MarshalIndent(treeToJSON(result.Syntax()), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal tree: %w", err)
		}
		fmt.Fprintln(out, string(data))
	} else {
		fmt.Fprint(out, lox.Dump(result.Syntax()))
	}

	if diags := result.Diagnostics(); len(diags) > 0 {
		li := lox.NewLineIndex(src)
		for _, d := range diags {
			line, col := li.Position(d.Offset)
			fmt.Fprintf(cmd.ErrOrStderr(), "%s:%d:%d: %s\n", name, line, col, d.Message)
		}
	}
	return nil
}

// treeJSON mirrors the tree shape: nodes carry children, tokens carry text.
type treeJSON struct {
	Kind     string     `json:"kind"`
	Start    int        `json:"start"`
	End      int        `json:"end"`
	Text     string     `json:"text,omitempty"`
	Children []treeJSON `json:"children,omitempty"`
}

func treeToJSON(n lox.Node) treeJSON {
	r := n.Range()
	tj := treeJSON{Kind: n.Kind().String(), Start: r.Start, End: r.End}
	for _, child := range n.Children() {
		switch e := child.(type) {
		case lox.Node:
			tj.Children = append(tj.Children, treeToJSON(e))
		case lox.SyntaxToken:
			tr := e.Range()
			tj.Children = append(tj.Children, treeJSON{
				Kind:  e.Kind().String(),
				Start: tr.Start,
				End:   tr.End,
				Text:  e.Text(),
			})
		}
	}
	return tj
}
