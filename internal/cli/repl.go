package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"loxkit/internal/log"
	"loxkit/internal/lox"
	"loxkit/internal/session"
)

type replFlags struct {
	tokens    bool
	noSession bool
}

// NewReplCommand creates the interactive read-parse-print loop.
func NewReplCommand() *cobra.Command {
	flags := &replFlags{}

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive parse loop",
		Long: `Read lines from stdin and print the syntax tree for each one, with any
problems underneath. Inputs are recorded in a session transcript unless
--no-session is given; see 'loxkit sessions'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(cmd, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.tokens, "tokens", false, "print the token listing before the tree")
	cmd.Flags().BoolVar(&flags.noSession, "no-session", false, "do not record a session transcript")

	return cmd
}

func runRepl(cmd *cobra.Command, flags *replFlags) error {
	root, err := resolveWorkspace()
	if err != nil {
		return err
	}

	logger := log.WithComponent("cli")

	var store *session.Store
	var sess *session.Session
	if !flags.noSession {
		s, err := sessionStore()
		if err != nil {
			logger.Warn().Str("event", "repl.session_disabled").Err(err).Msg("not recording a session")
		} else {
			store = s
			sess = session.New(root)
		}
	}

	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		toks := lox.Lex(line)
		if flags.tokens {
			for _, tok := range toks {
				fmt.Fprintf(out, "%s %q\n", tok.Kind, tok.Text)
			}
		}

		result := parseLine(line)
		fmt.Fprint(out, lox.Dump(result.Syntax()))
		printProblems(out, line, result.Diagnostics())

		if sess != nil {
			// Save after every input so a crash never loses the transcript
			sess.Append(line, len(toks), len(result.Diagnostics()))
			if err := store.Save(sess); err != nil {
				logger.Warn().Str("event", "repl.session_save_failed").Err(err).Msg("failed to save session")
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	fmt.Fprintln(out)
	if sess != nil && len(sess.Entries) > 0 {
		fmt.Fprintf(out, "session %s saved (%d entries)\n", sess.ID, len(sess.Entries))
	}
	return nil
}

// parseLine tries the input as a single expression first, then as a
// program. REPL lines are usually expressions; declarations and statements
// still work.
func parseLine(line string) *lox.ParseResult {
	if result := lox.ParseExpression(line); result.Ok() {
		return result
	}
	return lox.Parse(line)
}

// printProblems renders diagnostics with line:col positions.
func printProblems(out io.Writer, src string, diags []lox.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	li := lox.NewLineIndex(src)
	fmt.Fprintln(out, "errors:")
	for _, d := range diags {
		line, col := li.Position(d.Offset)
		fmt.Fprintf(out, "  %d:%d %s\n", line, col, d.Message)
	}
}
