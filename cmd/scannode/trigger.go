package main

import (
	"fmt"

	"github.com/reglet-dev/scannode/internal/domain/entities"
	"github.com/spf13/cobra"
)

// triggerCmd drives the wake pin of a sleeping node.
var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Drive the wake pin",
	Long: `Set the level of the node's wake pin. By default the pin is driven to the
armed trigger level, so the next boot reports an external trigger and scans.`,
	Example: `  scannode trigger
  scannode trigger --level low`,
	Args: cobra.NoArgs,
	RunE: withContainer(runTrigger),
}

func init() {
	triggerCmd.Flags().String("level", "", "Pin level to drive: high, low (default: the armed trigger level)")
	rootCmd.AddCommand(triggerCmd)
}

func runTrigger(ctx *CommandContext, cmd *cobra.Command, _ []string) error {
	var level *entities.Level
	if raw, _ := cmd.Flags().GetString("level"); raw != "" {
		parsed, err := entities.ParseLevel(raw)
		if err != nil {
			return err
		}
		level = &parsed
	}

	triggered, err := ctx.Container.Trigger(level)
	if err != nil {
		return fmt.Errorf("failed to drive wake pin: %w", err)
	}

	status, err := ctx.Container.Status()
	if err != nil {
		return err
	}
	if status.Armed == nil {
		ctx.Logger.Warn("wake source is not armed, the node will not wake from the pin")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wake pin: %s (triggered: %t)\n", status.PinLevel, triggered)
	return nil
}
