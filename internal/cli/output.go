package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/ldgraph/internal/ld"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Scenario failure or record not found
	ExitCommandError = 2 // Command error (bad input, unreadable files, etc.)
)

// Error codes for structured output.
const (
	ErrCodeGeneric  = "E001" // Generic/unknown error
	ErrCodeNotFound = "E002" // Input path not found
	ErrCodeParse    = "E003" // Input could not be parsed
	ErrCodeVocab    = "E004" // Vocabulary failed to load
	ErrCodeFilter   = "E005" // Malformed filter
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (ExitFailure or ExitCommandError)
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

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
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

// Response is the JSON envelope for --format json.
type Response struct {
	Status string          `json:"status"` // "ok" or "error"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  *ResponseError  `json:"error,omitempty"`
}

// ResponseError is the error part of a Response.
type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OutputFormatter renders command results as JSON envelopes or text.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Value writes v. Text output is the value's JSON on one line, so it
// pipes into other tools; JSON output wraps it in a Response.
func (f *OutputFormatter) Value(v ld.Value) error {
	data, err := ld.Marshal(v)
	if err != nil {
		return fmt.Errorf("render output: %w", err)
	}
	return f.raw(data)
}

// Any writes plain Go data, for values that are not records (JSONPath
// selections, summaries).
func (f *OutputFormatter) Any(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("render output: %w", err)
	}
	return f.raw(data)
}

func (f *OutputFormatter) raw(data []byte) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, string(data))
	return err
}

// Error writes an error in the configured format.
func (f *OutputFormatter) Error(code, message string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{
			Status: "error",
			Error:  &ResponseError{Code: code, Message: message},
		})
	}
	_, err := fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	return err
}
