package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"loxkit/internal/catalog"
)

// runCommand executes the command tree with the given stdin and arguments.
// NewRootCommand rebinds the global flags to their defaults, so runs stay
// independent.
func runCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestTokensCommand(t *testing.T) {
	stdout, _, err := runCommand(t, "fn add() {}", "tokens")
	if err != nil {
		t.Fatalf("tokens failed: %v", err)
	}
	for _, want := range []string{`Fn "fn"`, `Identifier "add"`, `LBrace "{"`} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %s:\n%s", want, stdout)
		}
	}
}

func TestTokensCommandJSON(t *testing.T) {
	stdout, _, err := runCommand(t, "1 + 2", "tokens", "--json")
	if err != nil {
		t.Fatalf("tokens failed: %v", err)
	}

	var toks []struct {
		Kind string `json:"kind"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(stdout), &toks); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if len(toks) != 5 {
		t.Fatalf("len(toks) = %d, want 5", len(toks))
	}
	if toks[0].Kind != "Number" || toks[0].Text != "1" {
		t.Errorf("first token = %+v, want Number %q", toks[0], "1")
	}
}

func TestTreeCommand(t *testing.T) {
	stdout, stderr, err := runCommand(t, "print 1;", "tree")
	if err != nil {
		t.Fatalf("tree failed: %v", err)
	}
	if !strings.HasPrefix(stdout, "Root@0..8") {
		t.Errorf("dump does not start with the root node:\n%s", stdout)
	}
	if !strings.Contains(stdout, "PrintStmt@0..8") {
		t.Errorf("dump missing print statement:\n%s", stdout)
	}
	if stderr != "" {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestTreeCommandReportsProblems(t *testing.T) {
	// The tree is still printed and the command exits zero; gating on
	// problems is the check command's job.
	stdout, stderr, err := runCommand(t, "print 1", "tree")
	if err != nil {
		t.Fatalf("tree failed: %v", err)
	}
	if !strings.Contains(stdout, "PrintStmt@") {
		t.Errorf("dump missing print statement:\n%s", stdout)
	}
	if !strings.Contains(stderr, "<stdin>:1:8: Expected ';'") {
		t.Errorf("stderr missing diagnostic: %q", stderr)
	}
}

func TestCheckCommandClean(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "good.lox"), "print 1;\n")

	stdout, _, err := runCommand(t, "", "check", "--workspace", dir)
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !strings.Contains(stdout, "1 files checked, 0 problems") {
		t.Errorf("unexpected summary:\n%s", stdout)
	}
}

func TestCheckCommandFindsProblems(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.lox")
	writeFile(t, bad, "print 1")

	stdout, _, err := runCommand(t, "", "check", bad)

	var cliErr *CLIError
	if !errors.As(err, &cliErr) {
		t.Fatalf("err = %v, want *CLIError", err)
	}
	if cliErr.Code != ExitDiagnostics {
		t.Errorf("exit code = %d, want %d", cliErr.Code, ExitDiagnostics)
	}
	if !strings.Contains(stdout, "bad.lox:1:8: Expected ';'") {
		t.Errorf("output missing problem line:\n%s", stdout)
	}
	if !strings.Contains(stdout, "1 files checked, 1 problems") {
		t.Errorf("unexpected summary:\n%s", stdout)
	}
}

func TestReplCommand(t *testing.T) {
	stdout, _, err := runCommand(t, "1 + 2\n", "repl", "--no-session")
	if err != nil {
		t.Fatalf("repl failed: %v", err)
	}
	if !strings.Contains(stdout, "> ") {
		t.Errorf("missing prompt:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Root@0..5") {
		t.Errorf("missing expression tree:\n%s", stdout)
	}
	if !strings.Contains(stdout, "TermExpr@0..5") {
		t.Errorf("missing term expression:\n%s", stdout)
	}
}

func TestReplRecordsSession(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()

	stdout, _, err := runCommand(t, "print 1;\n", "repl", "--workspace", dir)
	if err != nil {
		t.Fatalf("repl failed: %v", err)
	}
	if !strings.Contains(stdout, "saved (1 entries)") {
		t.Errorf("missing session confirmation:\n%s", stdout)
	}

	stdout, _, err = runCommand(t, "", "sessions", "list", "--workspace", dir)
	if err != nil {
		t.Fatalf("sessions list failed: %v", err)
	}
	if !strings.Contains(stdout, "print 1;") {
		t.Errorf("listing missing session title:\n%s", stdout)
	}
}

func TestSessionsListEmpty(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()

	stdout, _, err := runCommand(t, "", "sessions", "list", "--workspace", dir)
	if err != nil {
		t.Fatalf("sessions list failed: %v", err)
	}
	if !strings.Contains(stdout, "no sessions recorded") {
		t.Errorf("unexpected output:\n%s", stdout)
	}
}

func TestIndexSearchSymbols(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "math.lox"),
		"fn fibonacci(n) {\n  if (n < 2) { return n; }\n  return fibonacci(n - 1) + fibonacci(n - 2);\n}\n")
	writeFile(t, filepath.Join(dir, "greet.lox"), "print \"hello\";\n")

	stdout, _, err := runCommand(t, "", "index", "--workspace", dir)
	if err != nil {
		t.Fatalf("index failed: %v", err)
	}
	if !strings.Contains(stdout, "2 indexed") {
		t.Errorf("unexpected stats:\n%s", stdout)
	}

	// A second run has nothing to reindex and reports the same totals.
	stdout, _, err = runCommand(t, "", "index", "--workspace", dir, "--json")
	if err != nil {
		t.Fatalf("index --json failed: %v", err)
	}
	var stats struct {
		TotalFiles int `json:"total_files"`
		Indexed    int `json:"indexed"`
	}
	if err := json.Unmarshal([]byte(stdout), &stats); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if stats.TotalFiles != 2 || stats.Indexed != 2 {
		t.Errorf("stats = %+v, want 2 total, 2 indexed", stats)
	}

	stdout, _, err = runCommand(t, "", "search", "fibonacci", "--workspace", dir)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if !strings.Contains(stdout, "math.lox:1-") || !strings.Contains(stdout, "fibonacci") {
		t.Errorf("search output missing hit:\n%s", stdout)
	}

	stdout, _, err = runCommand(t, "", "search", "hello", "--workspace", dir, "--path", "greet*")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if !strings.Contains(stdout, "greet.lox") {
		t.Errorf("glob-restricted search missing hit:\n%s", stdout)
	}

	stdout, _, err = runCommand(t, "", "symbols", "--workspace", dir, "--json")
	if err != nil {
		t.Fatalf("symbols failed: %v", err)
	}
	var syms []catalog.Symbol
	if err := json.Unmarshal([]byte(stdout), &syms); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, stdout)
	}
	if len(syms) != 1 || syms[0].Name != "fibonacci" || syms[0].Kind != "fn" {
		t.Fatalf("symbols = %+v, want one fn fibonacci", syms)
	}

	stdout, _, err = runCommand(t, "", "symbols", "--workspace", dir, "--file", "math.lox")
	if err != nil {
		t.Fatalf("symbols --file failed: %v", err)
	}
	if !strings.Contains(stdout, "fibonacci") || !strings.Contains(stdout, "math.lox") {
		t.Errorf("symbols table missing declaration:\n%s", stdout)
	}
}

func TestIndexRespectsWorkspaceConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, ".loxkit")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	writeFile(t, filepath.Join(cfgDir, "config.json"), `{"indexing_enabled": false}`)

	_, _, err := runCommand(t, "", "index", "--workspace", dir)
	if err == nil || !strings.Contains(err.Error(), "indexing is disabled") {
		t.Fatalf("err = %v, want indexing disabled error", err)
	}
}

func TestSymbolsWithoutCatalog(t *testing.T) {
	dir := t.TempDir()

	_, _, err := runCommand(t, "", "symbols", "--workspace", dir)
	if err == nil || !strings.Contains(err.Error(), "run 'loxkit index' first") {
		t.Fatalf("err = %v, want missing-catalog hint", err)
	}
}

func TestUnknownFlagIsUsageError(t *testing.T) {
	_, _, err := runCommand(t, "", "tokens", "--nope")

	var cliErr *CLIError
	if !errors.As(err, &cliErr) {
		t.Fatalf("err = %v, want *CLIError", err)
	}
	if cliErr.Code != ExitUsage {
		t.Errorf("exit code = %d, want %d", cliErr.Code, ExitUsage)
	}
}

func TestSearchWithoutQueryIsUsageError(t *testing.T) {
	_, _, err := runCommand(t, "", "search")

	var cliErr *CLIError
	if !errors.As(err, &cliErr) {
		t.Fatalf("err = %v, want *CLIError", err)
	}
	if cliErr.Code != ExitUsage {
		t.Errorf("exit code = %d, want %d", cliErr.Code, ExitUsage)
	}
}
