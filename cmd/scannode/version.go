package main

import (
	"fmt"

	"github.com/reglet-dev/scannode/internal/version"
	"github.com/spf13/cobra"
)

// versionCmd implements the version command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the firmware version of scannode",
	Run: func(_ *cobra.Command, _ []string) {
		info := version.Get()
		fmt.Printf("scannode version %s\n", info.Full())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
