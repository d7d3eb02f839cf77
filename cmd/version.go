package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set with -ldflags at build time.
var Version = "v0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "muhabbet %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
