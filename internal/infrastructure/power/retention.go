// Package power simulates the node's power domain: retention memory that
// survives sleep, the wake pin, and the wake-cause register.
package power

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/reglet-dev/scannode/internal/domain/entities"
	"github.com/reglet-dev/scannode/internal/domain/execution"
	"github.com/reglet-dev/scannode/internal/domain/values"
	"github.com/vmihailenco/msgpack/v5"
)

// RetentionFile is the retention memory file name inside the state dir.
const RetentionFile = "retention.msgpack"

// Retention is what survives retention sleep.
type Retention struct {
	SleptAt         time.Time                `msgpack:"slept_at" json:"slept_at" yaml:"slept_at"`
	Armed           *entities.WakeArmSpec    `msgpack:"armed" json:"armed,omitempty" yaml:"armed,omitempty"`
	FirmwareVersion string                   `msgpack:"fw" json:"firmware_version" yaml:"firmware_version"`
	LastCause       values.WakeCause         `msgpack:"cause" json:"last_wake_cause" yaml:"last_wake_cause"`
	History         []execution.CycleSummary `msgpack:"history" json:"history,omitempty" yaml:"history,omitempty"`
	BootCount       uint64                   `msgpack:"boots" json:"boot_count" yaml:"boot_count"`
	PinLevel        entities.Level           `msgpack:"pin" json:"pin_level" yaml:"pin_level"`
	Sleeping        bool                     `msgpack:"sleeping" json:"sleeping" yaml:"sleeping"`
}

// Triggered reports whether the wake pin is armed and held at its trigger level.
func (r *Retention) Triggered() bool {
	return r.Armed != nil && r.PinLevel == r.Armed.TriggerLevel
}

// LastCycle returns the most recent cycle summary, if any.
func (r *Retention) LastCycle() (execution.CycleSummary, bool) {
	if len(r.History) == 0 {
		return execution.CycleSummary{}, false
	}
	return r.History[len(r.History)-1], true
}

// RetentionStore persists retention memory as a msgpack file.
type RetentionStore struct {
	path string
}

// NewRetentionStore creates a store in stateDir.
func NewRetentionStore(stateDir string) *RetentionStore {
	return &RetentionStore{path: filepath.Join(stateDir, RetentionFile)}
}

// Path returns the retention file path.
func (s *RetentionStore) Path() string {
	return s.path
}

// Load reads retention memory. A missing file returns (nil, nil): the node
// has never slept.
func (s *RetentionStore) Load() (*Retention, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read retention memory: %w", err)
	}

	var r Retention
	if err := msgpack.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to decode retention memory: %w", err)
	}
	return &r, nil
}

// Save writes retention memory atomically.
func (s *RetentionStore) Save(r *Retention) error {
	data, err := msgpack.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode retention memory: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write retention memory: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to commit retention memory: %w", err)
	}
	return nil
}
