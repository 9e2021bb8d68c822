package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/SentientSignals/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "signalctl "+version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
