// Package system provides infrastructure for node configuration.
// This includes loading the node config file (~/.scannode.yaml), validating
// it against the embedded schema, and deriving the fixed cycle configuration.
package system

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/reglet-dev/scannode/internal/domain/entities"
)

// Config represents the node configuration file.
type Config struct {
	Node    NodeConfig    `yaml:"node" json:"node"`
	Sensor  SensorConfig  `yaml:"sensor" json:"sensor"`
	Decoder DecoderConfig `yaml:"decoder" json:"decoder"`
	Serial  SerialConfig  `yaml:"serial" json:"serial"`
	Wake    WakeConfig    `yaml:"wake" json:"wake"`
}

// NodeConfig identifies the node and where its persistent state lives.
type NodeConfig struct {
	ID string `yaml:"id" json:"id"`

	// StateDir holds retention memory, the execution lock and, by default, frames.
	StateDir string `yaml:"state_dir" json:"state_dir"`

	// HistorySize is how many cycle summaries retention memory keeps.
	HistorySize int `yaml:"history_size" json:"history_size"`
}

// SensorConfig configures the frame source.
type SensorConfig struct {
	// Variant selects the sensor control surface: ov2640 or ov3660.
	Variant string `yaml:"variant" json:"variant"`

	// FramesDir is where the simulated camera looks for images.
	// Empty means <state_dir>/frames.
	FramesDir        string `yaml:"frames_dir" json:"frames_dir"`
	Width            int    `yaml:"width" json:"width"`
	Height           int    `yaml:"height" json:"height"`
	CaptureTimeoutMS int    `yaml:"capture_timeout_ms" json:"capture_timeout_ms"`
}

// DecoderConfig configures the symbol decoder.
type DecoderConfig struct {
	// MaxWorkspaceBytes is the memory budget for one decode workspace.
	MaxWorkspaceBytes int `yaml:"max_workspace_bytes" json:"max_workspace_bytes"`
}

// SerialConfig configures the report link.
type SerialConfig struct {
	// Device is the UART device path. Empty writes reports to stdout.
	Device       string `yaml:"device" json:"device"`
	Parity       string `yaml:"parity" json:"parity"`
	Baud         int    `yaml:"baud" json:"baud"`
	DataBits     int    `yaml:"data_bits" json:"data_bits"`
	StopBits     int    `yaml:"stop_bits" json:"stop_bits"`
	FlushDelayMS int    `yaml:"flush_delay_ms" json:"flush_delay_ms"`
}

// WakeConfig configures the wake pin armed before every sleep.
type WakeConfig struct {
	Level string `yaml:"level" json:"level"`
	Pull  string `yaml:"pull" json:"pull"`
	Pin   int    `yaml:"pin" json:"pin"`
	Hold  bool   `yaml:"hold" json:"hold"`
}

const (
	DefaultSensorVariant     = "ov2640"
	DefaultCaptureTimeoutMS  = 2000
	DefaultMaxWorkspaceBytes = 96 * 1024
	DefaultBaud              = 115200
	DefaultFlushDelayMS      = 50
	DefaultHistorySize       = 8
)

// ConfigLoader loads node configuration from disk.
type ConfigLoader struct{}

// NewConfigLoader creates a new config loader.
func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{}
}

// DefaultStateDir returns ~/.scannode/state, or a relative directory when
// the home directory is unknown.
func DefaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".scannode", "state")
	}
	return filepath.Join(home, ".scannode", "state")
}

// DefaultConfig returns the node defaults: ov2640 at QVGA, 115200 8N1 on
// stdout, and GPIO13 waking on high.
func DefaultConfig() *Config {
	wake := entities.DefaultWakeArmSpec()
	return &Config{
		Node: NodeConfig{
			ID:          "node-1",
			StateDir:    DefaultStateDir(),
			HistorySize: DefaultHistorySize,
		},
		Sensor: SensorConfig{
			Variant:          DefaultSensorVariant,
			Width:            entities.QVGA.Width,
			Height:           entities.QVGA.Height,
			CaptureTimeoutMS: DefaultCaptureTimeoutMS,
		},
		Decoder: DecoderConfig{
			MaxWorkspaceBytes: DefaultMaxWorkspaceBytes,
		},
		Serial: SerialConfig{
			Baud:         DefaultBaud,
			DataBits:     8,
			Parity:       "none",
			StopBits:     1,
			FlushDelayMS: DefaultFlushDelayMS,
		},
		Wake: WakeConfig{
			Pin:   wake.Pin,
			Level: wake.TriggerLevel.String(),
			Pull:  string(wake.Pull),
			Hold:  wake.Hold,
		},
	}
}

// Load loads the configuration from the specified path on top of the
// defaults, so a partial file only overrides what it names.
// If the file does not exist, returns DefaultConfig().
func (l *ConfigLoader) Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	//nolint:gosec // G304: path is user-provided config file, validated to exist above
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read node config: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse node config: %w", err)
	}

	return config, nil
}

// Write saves the configuration as YAML, creating parent directories.
func (l *ConfigLoader) Write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode node config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write node config: %w", err)
	}
	return nil
}

// Geometry returns the negotiated frame geometry.
func (c *Config) Geometry() entities.Geometry {
	return entities.Geometry{Width: c.Sensor.Width, Height: c.Sensor.Height}
}

// CaptureConfig returns the fixed grayscale, single-buffer capture configuration.
func (c *Config) CaptureConfig() entities.CaptureConfig {
	cfg := entities.DefaultCaptureConfig()
	cfg.Geometry = c.Geometry()
	return cfg
}

// CaptureTimeout bounds how long one acquire may block.
func (c *Config) CaptureTimeout() time.Duration {
	return time.Duration(c.Sensor.CaptureTimeoutMS) * time.Millisecond
}

// FlushDelay is the pause after the last report line before power-down.
func (c *Config) FlushDelay() time.Duration {
	return time.Duration(c.Serial.FlushDelayMS) * time.Millisecond
}

// FramesPath resolves the simulated camera's image directory.
func (c *Config) FramesPath() string {
	if c.Sensor.FramesDir != "" {
		return c.Sensor.FramesDir
	}
	return filepath.Join(c.Node.StateDir, "frames")
}

// WakeArmSpec converts the wake section into the domain arm spec.
func (c *Config) WakeArmSpec() (entities.WakeArmSpec, error) {
	level, err := entities.ParseLevel(c.Wake.Level)
	if err != nil {
		return entities.WakeArmSpec{}, err
	}
	spec := entities.WakeArmSpec{
		Pin:          c.Wake.Pin,
		TriggerLevel: level,
		Pull:         entities.Pull(c.Wake.Pull),
		Hold:         c.Wake.Hold,
	}
	if spec.Pull == "" {
		spec.Pull = entities.PullFor(level)
	}
	return spec, nil
}
