package main

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/reglet-dev/scannode/internal/infrastructure/decoder"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// renderCmd writes a frame for the simulated camera.
var renderCmd = &cobra.Command{
	Use:   "render <payload>...",
	Short: "Render QR symbols into a frame for the simulated camera",
	Long: `Encode each payload as a QR symbol and lay them out side by side in one
grayscale frame at the configured capture geometry. The frame is written as a
PNG into the frames directory, where the next triggered scan will pick it up.`,
	Example: `  scannode render HELLO
  scannode render SKU-1001 SKU-1002 --out /tmp/frames/shelf.png`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().String("out", "", "Output PNG path (default: <frames dir>/scene.png)")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadNodeConfig(viper.GetViper())
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = filepath.Join(cfg.FramesPath(), "scene.png")
	}

	img, err := decoder.RenderFrame(cfg.Geometry(), args...)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o750); err != nil {
		return fmt.Errorf("failed to create frames directory: %w", err)
	}
	//nolint:gosec // G304: path is user-provided output file
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create frame: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d symbol(s) to %s (%dx%d)\n", len(args), out, img.Bounds().Dx(), img.Bounds().Dy())
	return nil
}
