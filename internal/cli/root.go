package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/ldgraph/internal/filter"
	"github.com/roach88/ldgraph/internal/ld"
	"github.com/roach88/ldgraph/internal/vocab"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Vocab   string // CUE vocabulary file; empty = built-in default
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the ldgraph CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ldgraph",
		Short: "ldgraph - linked-data record graph",
		Long:  "Normalize JSON-LD-like records and reconcile conflicting observations of them.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Vocab, "vocab", "", "CUE vocabulary file (default: built-in)")

	cmd.AddCommand(NewFlattenCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// Execute runs the CLI with args and returns the process exit code.
// Failures are reported in the selected format: a JSON error envelope on
// stdout with --format json, an error line on stderr otherwise.
func Execute(args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}
	out := &OutputFormatter{Format: opts.Format, Writer: stderr}
	if opts.Format == "json" {
		out.Writer = stdout
	}
	_ = out.Error(errorCode(err), err.Error())
	return GetExitCode(err)
}

// errorCode maps an error to its structured output code.
func errorCode(err error) string {
	var syntaxErr *filter.SyntaxError
	var loadErr *vocab.LoadError
	var jsonErr *json.SyntaxError
	switch {
	case errors.As(err, &syntaxErr):
		return ErrCodeFilter
	case errors.As(err, &loadErr):
		return ErrCodeVocab
	case errors.Is(err, fs.ErrNotExist):
		return ErrCodeNotFound
	case errors.As(err, &jsonErr), ld.IsInvalidRecord(err):
		return ErrCodeParse
	default:
		return ErrCodeGeneric
	}
}
