package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/xandalm/contacts-query/core/query"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rejected request (bad condition, order or pagination)
	ExitCommandError = 2 // Command error (bad configuration, database unreachable, etc.)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Error codes reported in CLI responses, one per query error kind.
var errorCodes = []struct {
	kind error
	code string
}{
	{query.ErrMalformedCondition, "E001"},
	{query.ErrUnknownOperator, "E002"},
	{query.ErrFieldNotFilterable, "E003"},
	{query.ErrFieldNotOrderable, "E004"},
	{query.ErrInvalidDateFormat, "E005"},
	{query.ErrInvalidPagination, "E006"},
	{query.ErrOperatorNotAllowed, "E007"},
	{query.ErrInvalidReference, "E008"},
	{query.ErrMalformedOrder, "E009"},
}

// ErrCodeGeneric is reported for failures that are not query errors.
const ErrCodeGeneric = "E999"

// ErrorCode maps an error to its response code.
func ErrorCode(err error) string {
	for _, c := range errorCodes {
		if errors.Is(err, c.kind) {
			return c.code
		}
	}
	return ErrCodeGeneric
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E002", etc.
	Message string `json:"message"`           // human-readable message
	Field   string `json:"field,omitempty"`   // offending field, for query errors
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result. Text output uses text, JSON output
// encodes data.
func (f *OutputFormatter) Success(data any, text string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, text)
	return err
}

// Error outputs err in the configured format and returns an ExitError carrying
// code.
func (f *OutputFormatter) Error(exitCode int, message string, err error) error {
	cliErr := &CLIError{Code: ErrorCode(err), Message: err.Error()}
	var qerr *query.Error
	if errors.As(err, &qerr) {
		cliErr.Field = qerr.Field
		if qerr.Input != "" {
			cliErr.Details = map[string]string{"input": qerr.Input}
		}
	}

	if f.Format == "json" {
		if encErr := json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "error", Error: cliErr}); encErr != nil {
			return encErr
		}
	} else {
		fmt.Fprintf(f.Writer, "Error [%s]: %s\n", cliErr.Code, cliErr.Message)
	}
	return WrapExitError(exitCode, message, err)
}

// VerboseLog outputs a message only if verbose mode is enabled.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
