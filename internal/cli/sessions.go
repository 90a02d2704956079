package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"loxkit/internal/session"
)

// NewSessionsCommand creates the REPL session management command group.
func NewSessionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage recorded REPL sessions",
	}

	cmd.AddCommand(newSessionsListCommand())
	cmd.AddCommand(newSessionsShowCommand())
	cmd.AddCommand(newSessionsDeleteCommand())

	return cmd
}

// sessionStore opens the user-level session store the REPL records into.
func sessionStore() (*session.Store, error) {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("no user config directory: %w", err)
	}
	return session.NewStore(filepath.Join(cfgDir, "loxkit")), nil
}

func newSessionsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sessions recorded for this workspace",
		Args:  cobra.NoArgs,
		RunE:  runSessionsList,
	}
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	root, err := resolveWorkspace()
	if err != nil {
		return err
	}
	store, err := sessionStore()
	if err != nil {
		return err
	}

	metas, err := store.List(root)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if metas == nil {
			metas = []session.SessionMeta{}
		}
		data, err := json.MarshalIndent(metas, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal sessions: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if len(metas) == 0 {
		fmt.Fprintln(out, "no sessions recorded for this workspace")
		return nil
	}
	fmt.Fprintf(out, "%-36s %-19s %-7s %s\n", "ID", "UPDATED", "ENTRIES", "TITLE")
	for _, meta := range metas {
		fmt.Fprintf(out, "%-36s %-19s %-7d %s\n",
			meta.ID, meta.UpdatedAt.Format("2006-01-02 15:04:05"), meta.Entries, meta.Title)
	}
	return nil
}

func newSessionsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a session transcript",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionsShow,
	}
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	root, err := resolveWorkspace()
	if err != nil {
		return err
	}
	store, err := sessionStore()
	if err != nil {
		return err
	}

	sess, err := store.Load(args[0], root)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		data, err := json.MarshalIndent(sess, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintln(out, sess.Title)
	fmt.Fprintln(out, session.Summarize(sess))
	fmt.Fprintln(out)
	for _, entry := range sess.Entries {
		fmt.Fprintf(out, "[%s] > %s", entry.At.Format("15:04:05"), entry.Input)
		if entry.ErrorCount > 0 {
			fmt.Fprintf(out, "   (%d errors)", entry.ErrorCount)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func newSessionsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recorded session",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionsDelete,
	}
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	root, err := resolveWorkspace()
	if err != nil {
		return err
	}
	store, err := sessionStore()
	if err != nil {
		return err
	}

	if err := store.Delete(args[0], root); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted session %s\n", args[0])
	return nil
}
