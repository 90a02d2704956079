package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"loxkit/internal/lox"
)

// NewTokensCommand creates the token listing command.
func NewTokensCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens [file]",
		Short: "Lex a file and print its tokens",
		Long: `Print every token in the input, one per line, including whitespace,
comments and error runs. The token texts concatenate back to the input
exactly. Reads stdin when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runTokens,
	}
}

func runTokens(cmd *cobra.Command, args []string) error {
	src, _, err := readSource(cmd, args)
	if err != nil {
		return err
	}

	toks := lox.Lex(src)
	out := cmd.OutOrStdout()

	if jsonOutput {
		type tokenJSON struct {
			Kind string `json:"kind"`
			Text string `json:"text"`
		}
		list := make([]tokenJSON, 0, len(toks))
		for _, tok := range toks {
			list = append(list, tokenJSON{Kind: tok.Kind.String(), Text: tok.Text})
		}
		data, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal tokens: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	for _, tok := range toks {
		fmt.Fprintf(out, "%s %q\n", tok.Kind, tok.Text)
	}
	return nil
}
