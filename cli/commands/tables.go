package commands

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/quarrydb/quarry/client"
	"github.com/quarrydb/quarry/query/sqlgen"
)

// NewTablesCommand builds the tables command.
func NewTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables of a logical database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, c *client.Client) error {
				// sqlite_master is readable through the normal driver surface.
				rows, err := c.Driver().FindAll(ctx, flagDatabase, "sqlite_master", sqlgen.Query{
					Where:   sqlgen.Where{"type": sqlgen.Eq("table")},
					OrderBy: []sqlgen.OrderBy{{Column: "name"}},
					Select:  []string{"name"},
				})
				if err != nil {
					return err
				}
				if len(rows) == 0 {
					pterm.Info.Printfln("database %q has no tables", flagDatabase)
					return nil
				}
				for _, row := range rows {
					fmt.Println(row["name"])
				}
				return nil
			})
		},
	}
}
