package cli

import (
	"fmt"

	"github.com/ohler55/ojg/jp"
	"github.com/spf13/cobra"

	"github.com/roach88/ldgraph/internal/ld"
	"github.com/roach88/ldgraph/internal/observe"
	"github.com/roach88/ldgraph/internal/stats"
	"github.com/roach88/ldgraph/internal/store"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Database    string  // SQLite observation log; empty = in memory
	Credibility float64 // credibility of posted records
	Source      string  // source of posted records
	Get         string  // Type:id
	Filter      string  // filter JSON
	Negative    string  // negative filter JSON
	Select      string  // JSONPath applied to the result
	Stats       bool    // with --get, print statistics instead of the record
	PerSource   bool    // with --stats, combine per source
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query [posts.ndjson|-]",
		Short: "Post records into a store and query it",
		Long: `Post newline-delimited records into a store, then read from it.

With --db the observation log is a SQLite file, so posts accumulate
across invocations; without it the store lives only for this command.

Examples:
  ldgraph query people.ndjson --get Person:p1
  ldgraph query people.ndjson --get Person:p1 --stats
  ldgraph query --db graph.db --filter '{"age":{"$gt":25}}' --select '$[*].name'
  ldgraph query more.ndjson --db graph.db --credibility 0.6 --source web`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			posts := ""
			if len(args) == 1 {
				posts = args[0]
			}
			return runQuery(opts, posts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite observation log (default: in memory)")
	cmd.Flags().Float64Var(&opts.Credibility, "credibility", 1, "credibility of posted records, in [0,1]")
	cmd.Flags().StringVar(&opts.Source, "source", "", "source name of posted records")
	cmd.Flags().StringVar(&opts.Get, "get", "", "resolve one record (Type:id)")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "search with a filter (JSON)")
	cmd.Flags().StringVar(&opts.Negative, "negative", "", "exclude records matching this filter (JSON)")
	cmd.Flags().StringVar(&opts.Select, "select", "", "JSONPath applied to the result")
	cmd.Flags().BoolVar(&opts.Stats, "stats", false, "with --get, print confidence statistics")
	cmd.Flags().BoolVar(&opts.PerSource, "per-source", false, "with --stats, count each source once")
	cmd.MarkFlagsMutuallyExclusive("get", "filter")

	return cmd
}

func runQuery(opts *QueryOptions, posts string, cmd *cobra.Command) error {
	st, err := openStore(opts.RootOptions, opts.Database, opts.PerSource, newLogger(opts.RootOptions, cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer st.Close()

	if posts != "" {
		if err := postAll(st, posts, opts, cmd); err != nil {
			return err
		}
	}

	result, err := queryResult(st, opts)
	if err != nil {
		return err
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Select == "" {
		if rv, ok := result.(ld.Value); ok {
			return out.Value(rv)
		}
		return out.Any(result)
	}

	data := result
	if rv, ok := result.(ld.Value); ok {
		if data, err = ld.ToAny(rv); err != nil {
			return WrapExitError(ExitCommandError, "failed to render result", err)
		}
	}
	x, err := jp.ParseString(opts.Select)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("invalid jsonpath %q", opts.Select), err)
	}
	return out.Any(x.Get(data))
}

func postAll(st *store.Store, path string, opts *QueryOptions, cmd *cobra.Command) error {
	in, err := openInput(path, cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer in.Close()

	records, err := readRecords(in)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to parse posts", err)
	}
	if opts.Credibility < 0 || opts.Credibility > 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("credibility %v outside [0,1]", opts.Credibility))
	}
	// The store stamps each post from its clock.
	meta := observe.Metadata{Credibility: opts.Credibility, Source: opts.Source}
	for i, rec := range records {
		if err := st.Post(rec, meta); err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to post record %d", i+1), err)
		}
	}
	return nil
}

// queryResult returns an ld.Value for records or plain data for stats and
// summaries.
func queryResult(st *store.Store, opts *QueryOptions) (any, error) {
	switch {
	case opts.Get != "":
		ref, err := parseRef(opts.Get)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid --get", err)
		}
		if opts.Stats {
			byProp, err := st.Stats(ref)
			if err != nil {
				return nil, WrapExitError(ExitCommandError, "failed to compute statistics", err)
			}
			report, err := stats.Report(byProp)
			if err != nil {
				return nil, WrapExitError(ExitCommandError, "failed to render statistics", err)
			}
			return report, nil
		}
		rec, err := st.Get(ref)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to get record", err)
		}
		if rec == nil {
			return nil, NewExitError(ExitFailure, fmt.Sprintf("no record %s", opts.Get))
		}
		return ld.Value(rec), nil

	case opts.Filter != "":
		f, err := ld.ParseJSON([]byte(opts.Filter))
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid --filter", err)
		}
		var neg ld.Value
		if opts.Negative != "" {
			if neg, err = ld.ParseJSON([]byte(opts.Negative)); err != nil {
				return nil, WrapExitError(ExitCommandError, "invalid --negative", err)
			}
		}
		results, err := st.Search(f, neg)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid filter", err)
		}
		list := make(ld.List, len(results))
		for i, r := range results {
			list[i] = r
		}
		return ld.Value(list), nil

	default:
		return map[string]any{"records": st.Len()}, nil
	}
}
