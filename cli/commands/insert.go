package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarrydb/quarry/client"
	"github.com/quarrydb/quarry/driver"
)

// NewInsertCommand builds the insert command.
func NewInsertCommand() *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "insert <table>",
		Short: "Insert a row from a JSON object",
		Long: `Insert one row. The stored record is printed back, including the
generated key and any defaults applied by the engine:

  quarry insert users --data '{"name": "frank", "age": 30}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if data == "" {
				return fmt.Errorf("--data is required")
			}
			var row map[string]any
			if err := json.Unmarshal([]byte(data), &row); err != nil {
				return fmt.Errorf("parsing --data: %w", err)
			}
			return run(func(ctx context.Context, c *client.Client) error {
				rec, err := c.Driver().Insert(ctx, flagDatabase, args[0], row)
				if err != nil {
					return err
				}
				printRecords([]driver.Record{rec})
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "row values as a JSON object")
	return cmd
}
