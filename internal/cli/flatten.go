package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/ldgraph/internal/algebra"
	"github.com/roach88/ldgraph/internal/graph"
	"github.com/roach88/ldgraph/internal/ident"
	"github.com/roach88/ldgraph/internal/ld"
)

// FlattenOptions holds flags for the flatten command.
type FlattenOptions struct {
	*RootOptions
	Canonical bool
}

// NewFlattenCommand creates the flatten command.
func NewFlattenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FlattenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "flatten <file.json|->",
		Short: "Flatten a record into a node table",
		Long: `Flatten a nested record into a node table: every nested entity is
given an id (derived from its content when the vocabulary allows,
otherwise a blank node) and replaced by a reference.

Input is one JSON object or newline-delimited objects; each is flattened
separately and the node tables are printed one per line.

Examples:
  ldgraph flatten org.json
  cat org.json | ldgraph flatten - --canonical`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlatten(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Canonical, "canonical", false, "print canonical JSON (sorted keys)")

	return cmd
}

func runFlatten(opts *FlattenOptions, path string, cmd *cobra.Command) error {
	v, err := loadVocabulary(opts.RootOptions)
	if err != nil {
		return err
	}
	in, err := openInput(path, cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer in.Close()

	records, err := readRecords(in)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to parse input", err)
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	norm := graph.New(algebra.New(v), ident.UUIDv7Generator{})
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	for i, rec := range records {
		table, err := norm.Flatten(rec)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to flatten record", err)
		}
		logger.Debug("flattened", "record", i, "nodes", len(table))

		list := make(ld.List, len(table))
		for j, node := range table {
			list[j] = node
		}
		if opts.Canonical {
			data, err := ld.Canonical(list)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to render output", err)
			}
			if err := out.raw(data); err != nil {
				return err
			}
			continue
		}
		if err := out.Value(list); err != nil {
			return err
		}
	}
	return nil
}
