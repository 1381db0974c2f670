// Package output renders cycle results and node status for the terminal.
package output

import (
	"fmt"
	"io"
	"time"

	"github.com/reglet-dev/scannode/internal/domain/entities"
	"github.com/reglet-dev/scannode/internal/domain/execution"
	"github.com/reglet-dev/scannode/internal/domain/values"
)

// NodeStatus is what `status` reports about a node.
type NodeStatus struct {
	SleptAt         time.Time                `json:"slept_at,omitempty" yaml:"slept_at,omitempty"`
	Armed           *entities.WakeArmSpec    `json:"armed,omitempty" yaml:"armed,omitempty"`
	NodeID          string                   `json:"node_id" yaml:"node_id"`
	StateDir        string                   `json:"state_dir" yaml:"state_dir"`
	FirmwareVersion string                   `json:"firmware_version,omitempty" yaml:"firmware_version,omitempty"`
	LastWakeCause   values.WakeCause         `json:"last_wake_cause,omitempty" yaml:"last_wake_cause,omitempty"`
	PinLevel        string                   `json:"pin_level" yaml:"pin_level"`
	History         []execution.CycleSummary `json:"history,omitempty" yaml:"history,omitempty"`
	BootCount       uint64                   `json:"boot_count" yaml:"boot_count"`
	Sleeping        bool                     `json:"sleeping" yaml:"sleeping"`
	Triggered       bool                     `json:"triggered" yaml:"triggered"`
}

// Formatter renders results in one output format.
type Formatter interface {
	FormatCycles(results []*execution.CycleResult) error
	FormatStatus(status *NodeStatus) error
}

// FormatterFactory creates formatters by name.
type FormatterFactory struct{}

// NewFormatterFactory creates a new formatter factory.
func NewFormatterFactory() *FormatterFactory {
	return &FormatterFactory{}
}

// Create returns a formatter for the given format name.
func (f *FormatterFactory) Create(format string, writer io.Writer, indent bool) (Formatter, error) {
	switch format {
	case "table":
		return NewTableFormatter(writer), nil
	case "json":
		return NewJSONFormatter(writer, indent), nil
	case "yaml":
		return NewYAMLFormatter(writer), nil
	default:
		return nil, fmt.Errorf(
			"unknown format: %s (supported: %v)",
			format, f.SupportedFormats(),
		)
	}
}

// SupportedFormats returns list of available format names.
func (f *FormatterFactory) SupportedFormats() []string {
	return []string{"table", "json", "yaml"}
}
