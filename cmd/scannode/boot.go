package main

import (
	"os"

	"github.com/reglet-dev/scannode/internal/domain/execution"
	"github.com/spf13/cobra"
)

var bootOpts = DefaultCommonOptions()

// bootCmd runs a single execution of the node.
var bootCmd = &cobra.Command{
	Use:   "boot",
	Short: "Boot the node once and run it until retention sleep",
	Long: `Boot the node once. If it woke from the external trigger it scans the
frame source and reports each decoded payload; otherwise it goes straight
back to sleep. Either way the wake pin is re-armed before sleeping.

With no serial device configured the report lines are written to stdout,
so the cycle summary is written to stderr.`,
	Example: `  scannode boot
  scannode boot --format json`,
	Args: cobra.NoArgs,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return bootOpts.ValidateFlags()
	},
	RunE: withContainer(runBoot),
}

func init() {
	bootOpts.RegisterFlags(bootCmd)
	rootCmd.AddCommand(bootCmd)
}

func runBoot(ctx *CommandContext, _ *cobra.Command, _ []string) error {
	runCtx, cancel := bootOpts.ApplyToContext(ctx.Context)
	defer cancel()

	result, err := ctx.Container.RunCycle(runCtx)
	if err != nil {
		return err
	}

	formatter, err := bootOpts.Formatter(os.Stderr)
	if err != nil {
		return err
	}
	return formatter.FormatCycles([]*execution.CycleResult{result})
}
