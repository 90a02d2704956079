package cli

import "fmt"

// ExitCode is the process exit status for a command outcome.
type ExitCode int

const (
	ExitOK          ExitCode = 0
	ExitDiagnostics ExitCode = 1 // source problems were found
	ExitUsage       ExitCode = 2 // bad invocation
)

// CLIError carries an exit code alongside an error message. Execute unwraps
// it to pick the process exit status. An empty message exits silently, for
// commands that already printed their report.
type CLIError struct {
	Code    ExitCode
	Message string
	Err     error
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		if e.Message == "" {
			return e.Err.Error()
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error { return e.Err }

// usageError reports a bad invocation.
func usageError(format string, args ...any) *CLIError {
	return &CLIError{Code: ExitUsage, Message: fmt.Sprintf(format, args...)}
}

// diagnosticsExit signals that source problems were found and already
// printed.
func diagnosticsExit() *CLIError {
	return &CLIError{Code: ExitDiagnostics}
}
