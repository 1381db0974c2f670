// Package ports defines interfaces for infrastructure dependencies.
// These are the "ports" in hexagonal architecture - abstractions that
// the scan lifecycle depends on but doesn't implement.
//
// None of these calls take a context: nothing in the lifecycle can be
// cancelled. The only way out of a stuck blocking call is a watchdog reset,
// which is outside this module.
package ports

import (
	"context"

	"github.com/reglet-dev/scannode/internal/domain/entities"
	"github.com/reglet-dev/scannode/internal/domain/execution"
	"github.com/reglet-dev/scannode/internal/domain/values"
)

// SensorControl is the fixed set of quality overrides a sensor variant supports.
// Each concrete sensor implements it against its own registers.
type SensorControl interface {
	// SetManualGain disables automatic gain control.
	SetManualGain() error

	// SetManualExposure disables automatic exposure control.
	SetManualExposure() error

	// DisableAutoWhiteBalance turns off automatic white balance.
	DisableAutoWhiteBalance() error

	// DisableLensCorrection turns off lens shading correction.
	DisableLensCorrection() error
}

// FrameSource wraps the image sensor. At most one frame is checked out at a time.
type FrameSource interface {
	// Init brings the sensor up with the given capture configuration and
	// returns its control surface.
	Init(cfg entities.CaptureConfig) (SensorControl, error)

	// Acquire blocks until a frame is available or the source gives up.
	Acquire() (*entities.FrameBuffer, error)

	// Release returns a frame obtained from Acquire. Exactly once per frame.
	Release(frame *entities.FrameBuffer) error

	// Shutdown releases the sensor. It must not be called while a frame is out.
	Shutdown() error
}

// DecodeWorkspace is decoder state sized to one frame geometry. It is owned by
// the caller that created it and used by a single cycle.
type DecodeWorkspace interface {
	// Begin exposes the writable pixel view. Exactly width*height bytes,
	// row-major, no padding.
	Begin() (view []byte, width, height int)

	// Commit marks the pixel data complete and runs symbol detection.
	Commit() error

	// SymbolCount returns how many symbols Commit located.
	SymbolCount() int

	// ExtractAndDecode decodes the symbol at index in [0, SymbolCount).
	// A failed decode is reported in the returned symbol's status.
	ExtractAndDecode(index int) entities.DecodedSymbol

	// Destroy releases the workspace. Nothing may be called after it.
	Destroy() error
}

// SymbolDecoder allocates decode workspaces.
type SymbolDecoder interface {
	NewWorkspace(width, height int) (DecodeWorkspace, error)
}

// Reporter sends result lines over the serial link. Delivery is best effort.
type Reporter interface {
	// SendLine writes one report line for payload, truncated to a safe maximum.
	SendLine(payload string) error

	// Flush waits for the transmitter to drain and then for the fixed
	// post-send delay, so the line survives power-down.
	Flush() error
}

// WakeController owns the power and wake state of the node.
type WakeController interface {
	// WakeCause returns why this execution started. No side effects.
	WakeCause() values.WakeCause

	// ArmWakeSource configures the single wake pin. Safe to call every cycle.
	ArmWakeSource(spec entities.WakeArmSpec) error

	// EnterRetentionSleep commits the node to low-power retention. On hardware
	// it does not return; the next execution starts from boot.
	EnterRetentionSleep() error
}

// CycleRecorder keeps a record of finished cycles.
type CycleRecorder interface {
	Save(ctx context.Context, result *execution.CycleResult) error
}
