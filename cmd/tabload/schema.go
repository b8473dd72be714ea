package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tabload/internal/core"
	"github.com/JonMunkholm/tabload/internal/web"
)

func newSchemaCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "schema <database> <table>",
		Short: "Show a table's columns and the value category each accepts",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.schema(cmd.Context(), args[0], args[1], asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the schema as JSON")
	return cmd
}

func (a *app) schema(ctx context.Context, database, table string, asJSON bool) error {
	conn, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer conn.Close(context.WithoutCancel(ctx))

	schema, err := core.NewIngestor(conn, a.ingestOptions(nil)).Schema(ctx, database, table)
	if err != nil {
		return err
	}
	marker := a.cfg.Ingest.ManagedColumn

	if asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(web.SchemaResponse{
			Database:      schema.Database,
			Table:         schema.Table,
			ManagedColumn: managedName(schema, marker),
			Columns:       schema.Columns,
			InputColumns:  schema.InputColumnNames(marker),
		})
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tTYPE\tCATEGORY\t")
	for _, c := range schema.Columns {
		note := ""
		if strings.EqualFold(c.Name, marker) {
			note = "set by loader"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Name, c.CatalogType, c.Category, note)
	}
	return tw.Flush()
}

func managedName(schema *core.TableSchema, marker string) string {
	if c, ok := schema.ManagedColumn(marker); ok {
		return c.Name
	}
	return ""
}
