package main

import (
	"os"

	"github.com/spf13/cobra"
)

var statusOpts = DefaultCommonOptions()

// statusCmd prints what retention memory holds.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the node's retention memory and wake pin",
	Args:  cobra.NoArgs,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return statusOpts.ValidateFlags()
	},
	RunE: withContainer(func(ctx *CommandContext, _ *cobra.Command, _ []string) error {
		status, err := ctx.Container.Status()
		if err != nil {
			return err
		}
		formatter, err := statusOpts.Formatter(os.Stdout)
		if err != nil {
			return err
		}
		return formatter.FormatStatus(status)
	}),
}

func init() {
	statusCmd.Flags().StringVar(&statusOpts.Format, "format", statusOpts.Format, "Output format: table, json, yaml")
	rootCmd.AddCommand(statusCmd)
}
