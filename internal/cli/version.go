package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const modulePath = "github.com/Ev19Coding/parktrack"

// Version is the parktrack release, overridden at link time with
// -ldflags "-X github.com/Ev19Coding/parktrack/internal/cli.Version=...".
var Version = "0.1.0"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the parktrack version",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "parktrack v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
