package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/quarrydb/quarry/driver/sqlite"
)

// Version is the CLI version, overridable at build time with -ldflags.
var Version = "0.1.0"

// NewVersionCommand builds the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and storage engine capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("quarry %s\n", Version)

			caps, err := sqlite.Probe()
			if err != nil {
				return err
			}
			fmt.Printf("sqlite %s\n", caps.LibraryVersion)
			if !caps.Supported {
				color.Yellow("warning: sqlite %s is older than the supported minimum %s",
					caps.LibraryVersion, sqlite.MinLibraryVersion)
			}
			return nil
		},
	}
}
