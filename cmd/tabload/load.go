package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tabload/internal/core"
	"github.com/JonMunkholm/tabload/internal/source"
)

type loadFlags struct {
	format   string
	encoding string
}

func newLoadCmd(a *app) *cobra.Command {
	var f loadFlags
	cmd := &cobra.Command{
		Use:   "load <database> <table> <file>",
		Short: "Load every row of a CSV, TSV or JSON file into a table",
		Long: `Load checks the file's header against the table's columns, then inserts
the rows one by one, committing each. Rows that fail are recorded and the
load continues. Use "-" as the file to read standard input (needs --format).`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd.Context(), args[0], args[1], args[2], f)
		},
	}
	cmd.Flags().StringVar(&f.format, "format", "", "csv, tsv or json (default: from the file extension)")
	cmd.Flags().StringVar(&f.encoding, "encoding", "", "utf-8 or windows-1252 (overrides SOURCE_ENCODING)")
	return cmd
}

func (a *app) openSource(path string, f loadFlags) (*source.File, error) {
	opts := source.Options{
		Encoding: a.cfg.Ingest.SourceEncoding,
		MaxSize:  a.cfg.Ingest.MaxFileSize,
	}
	if f.encoding != "" {
		opts.Encoding = f.encoding
	}

	if f.format == "" {
		if path == "-" {
			return nil, fmt.Errorf("%w: --format is required when reading standard input", source.ErrUnsupportedFormat)
		}
		return source.Open(path, opts)
	}

	format, err := source.ParseFormat(f.format)
	if err != nil {
		return nil, err
	}
	if path == "-" {
		return source.Read("stdin", a.in, format, opts)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return source.Read(filepath.Base(path), file, format, opts)
}

func (a *app) load(ctx context.Context, database, table, path string, f loadFlags) error {
	src, err := a.openSource(path, f)
	if err != nil {
		return err
	}
	a.log.Info("source parsed", "source", src.Name(), "rows", src.Len(), "checksum", src.Checksum())

	conn, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer conn.Close(context.WithoutCancel(ctx))

	m := a.newRunMetrics()
	opts := a.ingestOptions(nil)
	if m != nil {
		opts.Observer = m
	}

	rep, err := core.NewIngestor(conn, opts).LoadBatch(ctx, database, table, src)
	if m != nil {
		m.ObserveRun(core.RunFile, rep)
		defer a.pushMetrics(context.WithoutCancel(ctx), m)
	}

	if core.IsFatal(err) {
		fmt.Fprintf(a.out, "Load of %s into %s.%s aborted before any row was attempted.\n", src.Name(), database, table)
	}
	var mismatch *core.ColumnMismatchError
	if errors.As(err, &mismatch) {
		if len(mismatch.Missing) > 0 {
			fmt.Fprintf(a.out, "Columns missing from %s: %s\n", src.Name(), strings.Join(mismatch.Missing, ", "))
		}
		if len(mismatch.Extra) > 0 {
			fmt.Fprintf(a.out, "Columns in %s that %s does not have: %s\n", src.Name(), table, strings.Join(mismatch.Extra, ", "))
		}
	}
	if rep == nil {
		return err
	}

	// Row failures are reported in the artifacts, not as an exit status.
	if werr := a.finishRun(rep); werr != nil {
		return errors.Join(err, werr)
	}
	return err
}
