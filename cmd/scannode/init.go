package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/reglet-dev/scannode/internal/infrastructure/sensor"
	"github.com/reglet-dev/scannode/internal/infrastructure/system"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a node configuration file",
	Long: `Write a node configuration file and create the state and frames
directories. Values not given as flags are asked for interactively unless
--no-interactive is set.`,
	Example: `  scannode init
  scannode init --no-interactive --id dock-7 --device /dev/ttyUSB0`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().String("id", "", "Node identifier")
	initCmd.Flags().String("variant", "", "Sensor variant: ov2640, ov3660")
	initCmd.Flags().String("device", "", "Serial device for report lines (empty for stdout)")
	initCmd.Flags().String("state-dir", "", "State directory for retention memory")
	initCmd.Flags().String("wake-level", "", "Wake pin trigger level: high, low")
	initCmd.Flags().String("output", "", "Output file path (default: --config or $HOME/.scannode.yaml)")
	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")
	initCmd.Flags().Bool("no-interactive", false, "Disable interactive prompts")

	rootCmd.AddCommand(initCmd)
}

// InitOptions holds the answers for a new node config.
type InitOptions struct {
	ID            string
	Variant       string
	Device        string
	StateDir      string
	WakeLevel     string
	Output        string
	Force         bool
	NoInteractive bool
}

func runInit(cmd *cobra.Command, _ []string) error {
	opts := InitOptions{}
	opts.ID, _ = cmd.Flags().GetString("id")
	opts.Variant, _ = cmd.Flags().GetString("variant")
	opts.Device, _ = cmd.Flags().GetString("device")
	opts.StateDir, _ = cmd.Flags().GetString("state-dir")
	opts.WakeLevel, _ = cmd.Flags().GetString("wake-level")
	opts.Output, _ = cmd.Flags().GetString("output")
	opts.Force, _ = cmd.Flags().GetBool("force")
	opts.NoInteractive, _ = cmd.Flags().GetBool("no-interactive")

	if opts.Output == "" {
		opts.Output = cfgFile
	}
	if opts.Output == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to find home directory: %w", err)
		}
		opts.Output = filepath.Join(home, ".scannode.yaml")
	}

	if _, err := os.Stat(opts.Output); err == nil && !opts.Force {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", opts.Output)
	}

	if !opts.NoInteractive {
		if err := promptInit(&opts); err != nil {
			return err
		}
	}

	cfg, err := buildInitConfig(opts)
	if err != nil {
		return err
	}

	if err := system.NewConfigLoader().Write(opts.Output, cfg); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.FramesPath(), 0o750); err != nil {
		return fmt.Errorf("failed to create frames directory: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\nPut frames in %s or run 'scannode render <payload>'.\n", opts.Output, cfg.FramesPath())
	return nil
}

func promptInit(opts *InitOptions) error {
	if opts.ID == "" {
		opts.ID = "node-1"
		if err := huh.NewInput().
			Title("Node ID").
			Value(&opts.ID).
			Run(); err != nil {
			return err
		}
	}

	if opts.Variant == "" {
		options := make([]huh.Option[string], 0, len(sensor.Variants()))
		for _, v := range sensor.Variants() {
			options = append(options, huh.NewOption(string(v), string(v)))
		}
		if err := huh.NewSelect[string]().
			Title("Camera sensor").
			Options(options...).
			Value(&opts.Variant).
			Run(); err != nil {
			return err
		}
	}

	if opts.Device == "" {
		if err := huh.NewInput().
			Title("Serial device").
			Description("Leave empty to write report lines to stdout").
			Value(&opts.Device).
			Run(); err != nil {
			return err
		}
	}

	if opts.WakeLevel == "" {
		if err := huh.NewSelect[string]().
			Title("Wake pin trigger level").
			Options(
				huh.NewOption("High (pulled down at rest)", "high"),
				huh.NewOption("Low (pulled up at rest)", "low"),
			).
			Value(&opts.WakeLevel).
			Run(); err != nil {
			return err
		}
	}
	return nil
}

// buildInitConfig applies the answers to the defaults and validates the result.
func buildInitConfig(opts InitOptions) (*system.Config, error) {
	cfg := system.DefaultConfig()
	if opts.ID != "" {
		cfg.Node.ID = opts.ID
	}
	if opts.Variant != "" {
		cfg.Sensor.Variant = opts.Variant
	}
	if opts.StateDir != "" {
		cfg.Node.StateDir = opts.StateDir
	}
	cfg.Serial.Device = opts.Device
	if opts.WakeLevel != "" {
		cfg.Wake.Level = opts.WakeLevel
		// Resting pull follows the trigger level.
		cfg.Wake.Pull = ""
	}

	if err := system.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid node config: %w", err)
	}
	if _, err := cfg.WakeArmSpec(); err != nil {
		return nil, fmt.Errorf("invalid wake level %q: %w", cfg.Wake.Level, err)
	}
	return cfg, nil
}
