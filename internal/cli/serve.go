package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/roach88/ldgraph/internal/mcpserver"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Database  string // SQLite observation log; empty = in memory
	PerSource bool   // combine statistics per source
	HTTP      string // listen address for streamable HTTP; empty = stdio
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the store as MCP tools",
		Long: `Run a Model Context Protocol server on stdin/stdout, or over
streamable HTTP with --http.

The server exposes post_record, delete_property, replace_property,
get_record, search_records and record_stats. Logs go to stderr.

Examples:
  ldgraph serve
  ldgraph serve --db graph.db --per-source
  ldgraph serve --db graph.db --http :8081`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite observation log (default: in memory)")
	cmd.Flags().BoolVar(&opts.PerSource, "per-source", false, "count each source once in statistics")
	cmd.Flags().StringVar(&opts.HTTP, "http", "", "serve streamable HTTP on this address instead of stdio")

	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions, cmd *cobra.Command) error {
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	st, err := openStore(opts.RootOptions, opts.Database, opts.PerSource, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := mcpserver.New(st)
	if opts.HTTP == "" {
		logger.Info("serving", "transport", "stdio", "records", st.Len())
		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
			return WrapExitError(ExitFailure, "server stopped", err)
		}
		return nil
	}

	httpSrv := &http.Server{
		Addr: opts.HTTP,
		Handler: mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
			return srv
		}, nil),
	}
	go func() {
		<-ctx.Done()
		httpSrv.Shutdown(context.Background())
	}()
	logger.Info("serving", "transport", "http", "addr", opts.HTTP, "records", st.Len())
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return WrapExitError(ExitFailure, "server stopped", err)
	}
	return nil
}
