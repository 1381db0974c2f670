package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/reglet-dev/scannode/internal/infrastructure/output"
	"github.com/reglet-dev/scannode/internal/infrastructure/system"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// envOverrides are the config keys that SCANNODE_* variables may set,
// e.g. SCANNODE_SERIAL_DEVICE=/dev/ttyUSB0.
var envOverrides = []string{"state_dir", "serial.device", "sensor.frames_dir"}

// CommonOptions contains flags shared by the commands that print results.
type CommonOptions struct {
	// Output
	Format string

	// Execution
	Timeout time.Duration
}

// DefaultCommonOptions returns sensible defaults.
func DefaultCommonOptions() CommonOptions {
	return CommonOptions{
		Format: "table",
	}
}

// RegisterFlags adds common flags to a cobra command.
func (opts *CommonOptions) RegisterFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", opts.Timeout,
		"Global timeout for the command (0 to disable)")
	cmd.Flags().StringVar(&opts.Format, "format", opts.Format,
		"Output format: table, json, yaml")
}

// ApplyToContext applies timeout to context.
// Returns new context and cancel function.
func (opts *CommonOptions) ApplyToContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if opts.Timeout > 0 {
		return context.WithTimeout(ctx, opts.Timeout)
	}
	// No timeout - return no-op cancel
	return ctx, func() {}
}

// ValidateFlags validates common options.
func (opts *CommonOptions) ValidateFlags() error {
	formats := output.NewFormatterFactory().SupportedFormats()
	if !slices.Contains(formats, opts.Format) {
		return fmt.Errorf("invalid format: %s (valid: table, json, yaml)", opts.Format)
	}
	if opts.Timeout < 0 {
		return fmt.Errorf("--timeout must not be negative")
	}
	return nil
}

// Formatter creates the formatter for the selected format. Color is only
// used when w is a terminal.
func (opts *CommonOptions) Formatter(w *os.File) (output.Formatter, error) {
	formatter, err := output.NewFormatterFactory().Create(opts.Format, w, true)
	if err != nil {
		return nil, err
	}
	if table, ok := formatter.(*output.TableFormatter); ok {
		table.EnableColor = isTerminal(w)
	}
	return formatter, nil
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// loadNodeConfig loads the node config file and applies environment overrides.
func loadNodeConfig(v *viper.Viper) (*system.Config, error) {
	path := v.ConfigFileUsed()
	if path == "" {
		path = cfgFile
	}

	cfg := system.DefaultConfig()
	if path != "" {
		loaded, err := system.NewConfigLoader().Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyOverrides(v, cfg)
	return cfg, nil
}

// applyOverrides copies environment overrides onto cfg.
func applyOverrides(v *viper.Viper, cfg *system.Config) {
	if dir := v.GetString("state_dir"); dir != "" {
		cfg.Node.StateDir = dir
	}
	if device := v.GetString("serial.device"); device != "" {
		cfg.Serial.Device = device
	}
	if frames := v.GetString("sensor.frames_dir"); frames != "" {
		cfg.Sensor.FramesDir = frames
	}
}
