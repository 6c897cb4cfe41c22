// Package commands implements the quarry CLI.
package commands

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quarrydb/quarry/client"
)

// AppFs is the filesystem used for config probing; swapped in tests.
var AppFs = afero.NewOsFs()

var (
	flagDir      string
	flagDatabase string
	flagVerbose  bool
)

// Execute runs the CLI.
func Execute() error {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		color.Red("error: %v", err)
		return err
	}
	return nil
}

// NewRootCommand builds the root command with all subcommands attached.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "quarry",
		Short: "Inspect and manipulate quarry storage directories",
		Long: `quarry is an embedded data-access layer. This CLI opens a storage
directory (one SQLite file per logical database) and runs queries and DDL
against it through the same driver contract the library exposes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig()
		},
	}

	root.PersistentFlags().StringVar(&flagDir, "dir", "", "storage directory (defaults to $QUARRY_DIR or ~/.quarry)")
	root.PersistentFlags().StringVar(&flagDatabase, "db", "main", "logical database name")
	root.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "log every executed statement")

	root.AddCommand(
		NewTablesCommand(),
		NewQueryCommand(),
		NewCountCommand(),
		NewInsertCommand(),
		NewCreateTableCommand(),
		NewDropTableCommand(),
		NewVersionCommand(),
	)
	return root
}

// loadConfig resolves configuration: flags beat environment beats config
// file beats defaults.
func loadConfig() error {
	home, err := homedir.Dir()
	if err != nil {
		return err
	}

	viper.SetConfigName(".quarry")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath(home)

	viper.SetEnvPrefix("QUARRY")
	viper.AutomaticEnv()

	viper.SetDefault("dir", filepath.Join(home, ".quarry"))
	viper.SetDefault("verbose", false)

	_ = viper.ReadInConfig()

	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}

	if flagDir == "" {
		flagDir = viper.GetString("dir")
	}
	if !flagVerbose {
		flagVerbose = viper.GetBool("verbose")
	}
	return nil
}

// openClient opens the configured storage directory.
func openClient() (*client.Client, error) {
	return client.Open(
		client.WithStorageDir(flagDir),
		client.WithVerbose(flagVerbose),
		client.WithTimeout(5*time.Second),
	)
}

// run wraps a command body with client setup and teardown.
func run(fn func(ctx context.Context, c *client.Client) error) error {
	c, err := openClient()
	if err != nil {
		return err
	}
	ctx := context.Background()
	defer c.Close(ctx)
	return fn(ctx, c)
}
