package commands

import (
	"context"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/quarrydb/quarry/client"
)

// NewCreateTableCommand builds the create-table command.
func NewCreateTableCommand() *cobra.Command {
	var schemaPath string

	cmd := &cobra.Command{
		Use:   "create-table <table>",
		Short: "Create a table from a YAML schema file",
		Long: `Create a table if it does not exist. Re-declaring an existing table
is a no-op; the schema it was created with stays authoritative.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if schemaPath == "" {
				return fmt.Errorf("--schema is required")
			}
			tbl, err := LoadSchemaFile(AppFs, schemaPath)
			if err != nil {
				return err
			}
			return run(func(ctx context.Context, c *client.Client) error {
				if err := c.Driver().CreateTable(ctx, flagDatabase, args[0], tbl); err != nil {
					return err
				}
				color.Green("table %s.%s ready", flagDatabase, args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&schemaPath, "schema", "", "path to the YAML schema file")
	return cmd
}

// NewDropTableCommand builds the drop-table command.
func NewDropTableCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "drop-table <table>",
		Short: "Drop a table and its rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				confirmed := false
				prompt := &survey.Confirm{
					Message: fmt.Sprintf("Drop table %s.%s and all of its rows?", flagDatabase, args[0]),
				}
				if err := survey.AskOne(prompt, &confirmed); err != nil {
					return err
				}
				if !confirmed {
					return nil
				}
			}
			return run(func(ctx context.Context, c *client.Client) error {
				if err := c.Driver().DropTable(ctx, flagDatabase, args[0]); err != nil {
					return err
				}
				color.Green("table %s.%s dropped", flagDatabase, args[0])
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}
