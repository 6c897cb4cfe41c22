package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/quarrydb/quarry/client"
	"github.com/quarrydb/quarry/driver"
	"github.com/quarrydb/quarry/query/sqlgen"
)

// NewQueryCommand builds the query command.
func NewQueryCommand() *cobra.Command {
	var (
		where   string
		orderBy []string
		limit   int
		offset  int
		selects []string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "query <table>",
		Short: "Run a filtered, ordered, paginated read against a table",
		Long: `Run a read against a table. Filters use a small expression language:

  quarry query users --where 'age >= 18 && name like "a%"'
  quarry query users --where 'id in (1, 2, 3)' --order age:desc --limit 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, c *client.Client) error {
				w, err := ParseWhere(where)
				if err != nil {
					return err
				}
				order, err := parseOrder(orderBy)
				if err != nil {
					return err
				}
				records, err := c.Driver().FindAll(ctx, flagDatabase, args[0], sqlgen.Query{
					Where:   w,
					OrderBy: order,
					Limit:   limit,
					Offset:  offset,
					Select:  selects,
				})
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(records)
				}
				printRecords(records)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&where, "where", "", "filter expression")
	cmd.Flags().StringSliceVar(&orderBy, "order", nil, "sort keys, column[:asc|desc]")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip after ordering")
	cmd.Flags().StringSliceVar(&selects, "select", nil, "column projection")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of a table")
	return cmd
}

// NewCountCommand builds the count command.
func NewCountCommand() *cobra.Command {
	var where string

	cmd := &cobra.Command{
		Use:   "count <table>",
		Short: "Count rows matching a filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, c *client.Client) error {
				w, err := ParseWhere(where)
				if err != nil {
					return err
				}
				n, err := c.Driver().Count(ctx, flagDatabase, args[0], w)
				if err != nil {
					return err
				}
				fmt.Println(n)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&where, "where", "", "filter expression")
	return cmd
}

func parseOrder(keys []string) ([]sqlgen.OrderBy, error) {
	order := make([]sqlgen.OrderBy, 0, len(keys))
	for _, key := range keys {
		column, dir, _ := strings.Cut(key, ":")
		switch strings.ToLower(dir) {
		case "", "asc":
			dir = "ASC"
		case "desc":
			dir = "DESC"
		default:
			return nil, fmt.Errorf("order key %q: direction must be asc or desc", key)
		}
		order = append(order, sqlgen.OrderBy{Column: column, Direction: dir})
	}
	return order, nil
}

// printRecords renders records as a pterm table using the union of the
// column names, sorted, as the header.
func printRecords(records []driver.Record) {
	if len(records) == 0 {
		pterm.Info.Println("no rows")
		return
	}

	colSet := map[string]struct{}{}
	for _, rec := range records {
		for col := range rec {
			colSet[col] = struct{}{}
		}
	}
	columns := make([]string, 0, len(colSet))
	for col := range colSet {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	rows := pterm.TableData{columns}
	for _, rec := range records {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = formatValue(rec[col])
		}
		rows = append(rows, row)
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
