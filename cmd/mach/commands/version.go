package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-mach/config"
)

func newVersionCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		// version works without a valid environment
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", config.AppName, config.Version)
			if verbose {
				fmt.Fprintf(cmd.OutOrStdout(), "  go: %s\n", runtime.Version())
			}
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "include build details")
	return cmd
}
