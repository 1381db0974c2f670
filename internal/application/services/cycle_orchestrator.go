// Package services contains application use cases.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	apperrors "github.com/reglet-dev/scannode/internal/application/errors"
	"github.com/reglet-dev/scannode/internal/application/ports"
	"github.com/reglet-dev/scannode/internal/domain/entities"
	"github.com/reglet-dev/scannode/internal/domain/execution"
	"github.com/reglet-dev/scannode/internal/domain/values"
)

// CycleConfig is the fixed configuration of every cycle.
type CycleConfig struct {
	FirmwareVersion string
	Capture         entities.CaptureConfig
	WakeArm         entities.WakeArmSpec
}

// DefaultCycleConfig returns grayscale QVGA capture and the GPIO13 wake pin.
func DefaultCycleConfig() CycleConfig {
	return CycleConfig{
		Capture: entities.DefaultCaptureConfig(),
		WakeArm: entities.DefaultWakeArmSpec(),
	}
}

// CycleDeps are the adapters a cycle drives.
type CycleDeps struct {
	Wake      ports.WakeController
	Frames    ports.FrameSource
	Decoder   ports.SymbolDecoder
	Reporter  ports.Reporter
	Recorders []ports.CycleRecorder
	Logger    *slog.Logger
}

// CycleOrchestrator sequences one boot-to-sleep execution:
//
//	BootCheckingCause -> IdleRearm -> Rearm -> Sleeping
//	BootCheckingCause -> ScanInit -> ScanCapture -> ScanDecode -> ScanReport
//	                  -> ScanTeardown -> Rearm -> Sleeping
//
// Any scan stage that fails jumps to ScanTeardown. Every path arms the wake
// source before sleeping. At most one Run is in flight.
type CycleOrchestrator struct {
	deps     CycleDeps
	cfg      CycleConfig
	logger   *slog.Logger
	inFlight atomic.Bool
}

// NewCycleOrchestrator creates an orchestrator with all dependencies injected.
func NewCycleOrchestrator(cfg CycleConfig, deps CycleDeps) *CycleOrchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CycleOrchestrator{
		deps:   deps,
		cfg:    cfg,
		logger: logger,
	}
}

// scanResources tracks what the scan branch currently holds so teardown can
// release exactly that, in order: frame, then sensor, then workspace.
type scanResources struct {
	workspace ports.DecodeWorkspace
	frame     *entities.FrameBuffer
	sensorUp  bool
	flushed   bool
}

// Run executes one cycle and commits the node to retention sleep.
// The context is only used to record the finished cycle.
func (o *CycleOrchestrator) Run(ctx context.Context) (*execution.CycleResult, error) {
	if !o.inFlight.CompareAndSwap(false, true) {
		return nil, apperrors.ErrCycleInFlight
	}
	defer o.inFlight.Store(false)

	res := execution.NewCycleResult(o.cfg.FirmwareVersion)
	log := o.logger.With("cycle_id", res.ID.Short())

	o.enter(res, log, values.StateBootCheckingCause)
	res.Cause = o.deps.Wake.WakeCause()
	log.Info("node awake", "wake_cause", res.Cause)

	if res.Cause.IsTrigger() {
		o.scan(res, log)
	} else {
		o.enter(res, log, values.StateIdleRearm)
	}

	o.enter(res, log, values.StateRearm)
	o.rearm(res, log)

	o.enter(res, log, values.StateSleeping)
	res.Complete()
	o.record(ctx, res, log)

	log.Info("entering retention sleep",
		"outcome", res.Outcome(),
		"lines_sent", res.LinesSent,
		"armed", res.Armed,
		"duration", res.Duration,
	)
	if err := o.deps.Wake.EnterRetentionSleep(); err != nil {
		log.Error("retention sleep failed", "error", err)
		return res, fmt.Errorf("enter retention sleep: %w", err)
	}
	return res, nil
}

// enter records a state transition. An illegal one is logged, never fatal:
// the node must still reach sleep.
func (o *CycleOrchestrator) enter(res *execution.CycleResult, log *slog.Logger, state values.CycleState) {
	if err := res.Enter(state); err != nil {
		log.Error("illegal state transition", "state", state, "error", err)
		return
	}
	log.Debug("state", "state", state)
}

// scan runs the scan branch. Whatever happens inside, it leaves through
// ScanTeardown with every held resource released.
func (o *CycleOrchestrator) scan(res *execution.CycleResult, log *slog.Logger) {
	o.enter(res, log, values.StateScanInit)

	held := &scanResources{}
	if err := o.runScanStages(res, held, log); err != nil {
		res.Fail(apperrors.KindOf(err), err)
		log.Error("scan abandoned", "state", res.Current(), "error_kind", res.ErrorKind, "error", err)
	}

	o.enter(res, log, values.StateScanTeardown)
	o.teardown(res, held, log)
}

// runScanStages converts a panic from an adapter into an error so teardown
// and re-arming still happen.
func (o *CycleOrchestrator) runScanStages(res *execution.CycleResult, held *scanResources, log *slog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during %s: %v", res.Current(), r)
		}
	}()
	return o.scanStages(res, held, log)
}

func (o *CycleOrchestrator) scanStages(res *execution.CycleResult, held *scanResources, log *slog.Logger) error {
	geometry := o.cfg.Capture.Geometry

	// ScanInit: workspace first so its lifetime contains the frame's.
	ws, err := o.deps.Decoder.NewWorkspace(geometry.Width, geometry.Height)
	if err != nil {
		return err
	}
	held.workspace = ws

	ctrl, err := o.deps.Frames.Init(o.cfg.Capture)
	if err != nil {
		return err
	}
	held.sensorUp = true
	ApplyQualityOverrides(ctrl, log)

	o.enter(res, log, values.StateScanCapture)
	frame, err := o.deps.Frames.Acquire()
	if err != nil {
		return err
	}
	res.FramesAcquired++
	held.frame = frame

	if !frame.Matches(geometry) {
		return apperrors.NewGeometryMismatchError(geometry, frame.Reported(), frame.Len())
	}

	o.enter(res, log, values.StateScanDecode)
	view, width, height := ws.Begin()
	if width != geometry.Width || height != geometry.Height || len(view) != geometry.Bytes() {
		return apperrors.NewGeometryMismatchError(geometry,
			entities.Geometry{Width: width, Height: height}, len(view))
	}
	copy(view, frame.Data)

	// The workspace owns a copy of the pixels now.
	o.releaseFrame(res, held, log)

	if err := ws.Commit(); err != nil {
		log.Warn("symbol detection failed", "error", err)
	}

	count := ws.SymbolCount()
	log.Debug("symbols located", "count", count)
	for i := 0; i < count; i++ {
		symbol := ws.ExtractAndDecode(i)
		res.DecodeCalls++
		res.AddSymbol(symbol)

		if symbol.OK() {
			log.Info("symbol decoded", "index", symbol.Index, "payload_bytes", len(symbol.Payload))
		} else {
			log.Warn("symbol skipped", "error", apperrors.NewSymbolDecodeError(symbol))
		}
	}

	o.enter(res, log, values.StateScanReport)
	o.report(res, held, log)
	return nil
}

// report sends one line per decoded symbol. Delivery failures are counted, not fatal.
func (o *CycleOrchestrator) report(res *execution.CycleResult, held *scanResources, log *slog.Logger) {
	for _, symbol := range res.Decoded() {
		if err := o.deps.Reporter.SendLine(symbol.Payload); err != nil {
			res.ReportFailures++
			log.Warn("report line not sent", "index", symbol.Index, "error", err)
			continue
		}
		res.LinesSent++
	}
	o.flush(held, log)
}

// flush runs once per scan, so every triggered cycle holds the link for the
// flush delay before power-down.
func (o *CycleOrchestrator) flush(held *scanResources, log *slog.Logger) {
	if held.flushed {
		return
	}
	held.flushed = true
	if err := o.deps.Reporter.Flush(); err != nil {
		log.Warn("serial flush failed", "error", err)
	}
}

func (o *CycleOrchestrator) releaseFrame(res *execution.CycleResult, held *scanResources, log *slog.Logger) {
	if held.frame == nil {
		return
	}
	frame := held.frame
	held.frame = nil
	res.FramesReleased++

	if err := o.deps.Frames.Release(frame); err != nil {
		log.Error("frame release failed", "seq", frame.Seq, "error", err)
	}
}

// teardown flushes the link if the scan ended before ScanReport, releases
// the frame before the sensor is shut down, and destroys the workspace last.
func (o *CycleOrchestrator) teardown(res *execution.CycleResult, held *scanResources, log *slog.Logger) {
	o.flush(held, log)
	o.releaseFrame(res, held, log)

	if held.sensorUp {
		held.sensorUp = false
		if err := o.deps.Frames.Shutdown(); err != nil {
			log.Error("sensor shutdown failed", "error", err)
		}
	}

	if held.workspace != nil {
		ws := held.workspace
		held.workspace = nil
		if err := ws.Destroy(); err != nil {
			log.Warn("workspace destroy failed", "error", err)
		}
	}
}

// rearm arms the wake source on every path. Arming is best effort: a failure
// is logged loudly and the node sleeps anyway.
func (o *CycleOrchestrator) rearm(res *execution.CycleResult, log *slog.Logger) {
	spec := o.cfg.WakeArm
	if err := o.deps.Wake.ArmWakeSource(spec); err != nil {
		res.ArmError = err.Error()
		log.Error("wake source not armed, node may not wake again", "wake_pin", spec.String(), "error", err)
		return
	}
	res.Armed = true
	log.Debug("wake source armed", "wake_pin", spec.String())
}

func (o *CycleOrchestrator) record(ctx context.Context, res *execution.CycleResult, log *slog.Logger) {
	for _, recorder := range o.deps.Recorders {
		if err := recorder.Save(ctx, res); err != nil {
			log.Warn("failed to record cycle", "error", err)
		}
	}
}
