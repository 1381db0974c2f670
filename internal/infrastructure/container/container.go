// Package container provides dependency injection for the application.
package container

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/reglet-dev/scannode/internal/application/ports"
	"github.com/reglet-dev/scannode/internal/application/services"
	"github.com/reglet-dev/scannode/internal/domain/entities"
	"github.com/reglet-dev/scannode/internal/domain/execution"
	"github.com/reglet-dev/scannode/internal/infrastructure/decoder"
	"github.com/reglet-dev/scannode/internal/infrastructure/output"
	"github.com/reglet-dev/scannode/internal/infrastructure/persistence/memory"
	"github.com/reglet-dev/scannode/internal/infrastructure/power"
	"github.com/reglet-dev/scannode/internal/infrastructure/sensor"
	"github.com/reglet-dev/scannode/internal/infrastructure/serial"
	"github.com/reglet-dev/scannode/internal/infrastructure/system"
)

// Container holds the node's configuration and the adapters shared across
// executions. Adapters that live for one execution are built per cycle.
type Container struct {
	cfg         *system.Config
	logger      *slog.Logger
	report      io.Writer
	store       *power.RetentionStore
	history     *memory.CycleResultRepository
	cycleConfig services.CycleConfig
	cameraOpts  []sensor.CameraOption
	firmware    string
}

// Options configure the container.
type Options struct {
	Config          *system.Config
	Logger          *slog.Logger
	FirmwareVersion string

	// Report receives report lines when no serial device is configured.
	// Defaults to stdout.
	Report io.Writer

	// CameraOptions are passed to the simulated camera.
	CameraOptions []sensor.CameraOption
}

// New validates the configuration and creates a new dependency injection container.
func New(opts Options) (*Container, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Config == nil {
		opts.Config = system.DefaultConfig()
	}
	if opts.Report == nil {
		opts.Report = os.Stdout
	}

	if err := system.Validate(opts.Config); err != nil {
		return nil, err
	}
	wake, err := opts.Config.WakeArmSpec()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.Config.Node.StateDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create state dir: %w", err)
	}

	return &Container{
		cfg:    opts.Config,
		logger: opts.Logger.With("node", opts.Config.Node.ID),
		report: opts.Report,
		store:  power.NewRetentionStore(opts.Config.Node.StateDir),
		// Cycle history for this process; retention keeps the summaries across boots.
		history: memory.NewCycleResultRepository(),
		cycleConfig: services.CycleConfig{
			FirmwareVersion: opts.FirmwareVersion,
			Capture:         opts.Config.CaptureConfig(),
			WakeArm:         wake,
		},
		cameraOpts: opts.CameraOptions,
		firmware:   opts.FirmwareVersion,
	}, nil
}

// RunCycle performs one execution: boot, scan if triggered, re-arm and sleep.
// It holds the node's execution lock throughout.
func (c *Container) RunCycle(ctx context.Context) (*execution.CycleResult, error) {
	lock := power.NewExecutionLock(c.cfg.Node.StateDir)
	if err := lock.TryLock(); err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			c.logger.Warn("failed to release execution lock", "error", err)
		}
	}()

	controller := power.Boot(c.store, c.firmware,
		power.WithControllerLogger(c.logger),
		power.WithHistorySize(c.cfg.Node.HistorySize),
	)

	reporter := c.openReporter()
	defer func() {
		if err := reporter.Close(); err != nil {
			c.logger.Warn("failed to close serial port", "error", err)
		}
	}()

	cameraOpts := append([]sensor.CameraOption{sensor.WithCameraLogger(c.logger)}, c.cameraOpts...)
	camera := sensor.NewFileCamera(c.cfg.FramesPath(), c.cfg.Sensor.Variant, c.cfg.CaptureTimeout(), cameraOpts...)

	orchestrator := services.NewCycleOrchestrator(c.cycleConfig, services.CycleDeps{
		Wake:      controller,
		Frames:    camera,
		Decoder:   decoder.New(c.cfg.Decoder.MaxWorkspaceBytes, decoder.WithLogger(c.logger)),
		Reporter:  reporter,
		Recorders: []ports.CycleRecorder{controller, c.history},
		Logger:    c.logger,
	})
	return orchestrator.Run(ctx)
}

// openReporter opens the configured UART. If it cannot be opened the cycle
// still runs, so the node re-arms and sleeps; report lines are dropped.
func (c *Container) openReporter() *serial.Reporter {
	if c.cfg.Serial.Device == "" {
		return serial.NewReporter(nopCloser{c.report},
			serial.WithFlushDelay(c.cfg.FlushDelay()),
			serial.WithLogger(c.logger),
		)
	}

	reporter, err := serial.OpenReporter(serial.PortConfig{
		Device:   c.cfg.Serial.Device,
		Baud:     c.cfg.Serial.Baud,
		DataBits: c.cfg.Serial.DataBits,
		Parity:   c.cfg.Serial.Parity,
		StopBits: c.cfg.Serial.StopBits,
	}, c.cfg.FlushDelay(), c.logger)
	if err != nil {
		c.logger.Error("serial port unavailable, report lines will be dropped", "error", err)
		return serial.NewReporter(io.Discard, serial.WithLogger(c.logger))
	}
	return reporter
}

// nopCloser keeps the reporter from closing a writer it does not own.
type nopCloser struct {
	io.Writer
}

// Pending reports whether the sleeping node has been triggered.
func (c *Container) Pending() (bool, error) {
	mem, err := c.store.Load()
	if err != nil {
		return false, err
	}
	return mem != nil && mem.Sleeping && mem.Triggered(), nil
}

// Trigger drives the wake pin. It waits for a running execution to finish
// and reports whether the pin is armed for the level it set.
func (c *Container) Trigger(level *entities.Level) (bool, error) {
	lock := power.NewExecutionLock(c.cfg.Node.StateDir)
	if err := lock.Lock(); err != nil {
		return false, err
	}
	defer func() { _ = lock.Unlock() }()

	return power.Trigger(c.store, level)
}

// Status reads retention memory into a status report.
func (c *Container) Status() (*output.NodeStatus, error) {
	status := &output.NodeStatus{
		NodeID:   c.cfg.Node.ID,
		StateDir: c.cfg.Node.StateDir,
		PinLevel: entities.LevelLow.String(),
	}

	mem, err := c.store.Load()
	if err != nil {
		return nil, err
	}
	if mem == nil {
		return status, nil
	}

	status.FirmwareVersion = mem.FirmwareVersion
	status.BootCount = mem.BootCount
	status.Sleeping = mem.Sleeping
	status.SleptAt = mem.SleptAt
	status.LastWakeCause = mem.LastCause
	status.Armed = mem.Armed
	status.PinLevel = mem.PinLevel.String()
	status.Triggered = mem.Sleeping && mem.Triggered()
	status.History = mem.History
	return status, nil
}

// History returns the cycles run by this process, oldest first.
func (c *Container) History(ctx context.Context) ([]*execution.CycleResult, error) {
	recent, err := c.history.Recent(ctx, 0)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return recent, nil
}

// Config returns the node configuration.
func (c *Container) Config() *system.Config {
	return c.cfg
}

// Logger returns the configured logger.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}
