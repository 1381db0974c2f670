package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reglet-dev/scannode/internal/infrastructure/power"
	"github.com/reglet-dev/scannode/internal/infrastructure/simulation"
	"github.com/spf13/cobra"
)

var (
	simulateOpts = DefaultCommonOptions()
	maxCycles    int
	pollInterval time.Duration
)

// simulateCmd keeps the node running across sleeps.
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the node continuously, booting again on every trigger",
	Long: `Boot the node, then wait while it sleeps. Whenever the wake pin is driven
to its trigger level (for example with "scannode trigger" from another
shell) the node boots again and scans.

Stops on interrupt or after --max-cycles executions and prints the history
of the cycles it ran.`,
	Example: `  scannode simulate
  scannode simulate --max-cycles 3 --format yaml`,
	Args: cobra.NoArgs,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return simulateOpts.ValidateFlags()
	},
	RunE: withContainer(runSimulate),
}

func init() {
	simulateOpts.RegisterFlags(simulateCmd)
	simulateCmd.Flags().IntVar(&maxCycles, "max-cycles", 0, "Stop after this many executions (0 runs until interrupted)")
	simulateCmd.Flags().DurationVar(&pollInterval, "poll", time.Second, "Fallback interval for checking the wake pin")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(ctx *CommandContext, _ *cobra.Command, _ []string) error {
	runCtx, cancel := simulateOpts.ApplyToContext(ctx.Context)
	defer cancel()
	runCtx, stop := signal.NotifyContext(runCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := ctx.Container
	runner := simulation.NewRunner(simulation.Config{
		StateDir:     c.Config().Node.StateDir,
		WatchFile:    power.RetentionFile,
		PollInterval: pollInterval,
		MaxCycles:    maxCycles,
	}, c.RunCycle, c.Pending, ctx.Logger)

	cycles, err := runner.Run(runCtx)
	ctx.Logger.Info("simulation stopped", "cycles", cycles)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	history, err := c.History(context.WithoutCancel(runCtx))
	if err != nil {
		return err
	}
	formatter, err := simulateOpts.Formatter(os.Stderr)
	if err != nil {
		return err
	}
	return formatter.FormatCycles(history)
}
