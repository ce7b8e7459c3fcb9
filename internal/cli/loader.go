package cli

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/roach88/ldgraph/internal/ld"
	"github.com/roach88/ldgraph/internal/oblog"
	"github.com/roach88/ldgraph/internal/stats"
	"github.com/roach88/ldgraph/internal/store"
	"github.com/roach88/ldgraph/internal/vocab"
)

// loadVocabulary returns the vocabulary named by --vocab, or the default.
func loadVocabulary(opts *RootOptions) (*vocab.Vocabulary, error) {
	if opts.Vocab == "" {
		return vocab.Default(), nil
	}
	v, err := vocab.Load(opts.Vocab)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load vocabulary", err)
	}
	return v, nil
}

// newLogger logs to errw at Debug when verbose, and discards otherwise.
func newLogger(opts *RootOptions, errw io.Writer) *slog.Logger {
	if !opts.Verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(errw, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// openStore opens a store over the SQLite log at db, or an in-memory log
// when db is empty. The caller closes the store.
func openStore(opts *RootOptions, db string, perSource bool, logger *slog.Logger) (*store.Store, error) {
	v, err := loadVocabulary(opts)
	if err != nil {
		return nil, err
	}

	var log oblog.Log = oblog.NewMemLog()
	if db != "" {
		if log, err = oblog.OpenSQLite(db); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open database", err)
		}
	}

	var combiner stats.Combiner = stats.Independent{}
	if perSource {
		combiner = stats.PerSource{}
	}
	st, err := store.New(
		store.WithLog(log),
		store.WithVocabulary(v),
		store.WithLogger(logger),
		store.WithCombiner(combiner),
	)
	if err != nil {
		log.Close()
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}
	return st, nil
}

// openInput opens path, or stdin for "-".
func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("input not found: %s", path), err)
		}
		return nil, WrapExitError(ExitCommandError, "failed to open input", err)
	}
	return f, nil
}

// readRecords reads one JSON object, or newline-delimited JSON objects.
// Blank lines are skipped.
func readRecords(r io.Reader) ([]*ld.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if rec, err := ld.ParseRecord(data); err == nil {
		return []*ld.Record{rec}, nil
	}

	var out []*ld.Record
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		rec, err := ld.ParseRecord([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return out, nil
}

// parseRef parses "Type:id" (the id may itself contain colons).
func parseRef(s string) (*ld.Record, error) {
	typ, id, ok := strings.Cut(s, ":")
	if !ok || typ == "" || id == "" {
		return nil, fmt.Errorf("reference %q must be Type:id", s)
	}
	return ld.Key{Type: typ, ID: id}.Ref(), nil
}
