package container

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/reglet-dev/scannode/internal/domain/entities"
	"github.com/reglet-dev/scannode/internal/domain/values"
	"github.com/reglet-dev/scannode/internal/infrastructure/decoder"
	"github.com/reglet-dev/scannode/internal/infrastructure/power"
	"github.com/reglet-dev/scannode/internal/infrastructure/sensor"
	"github.com/reglet-dev/scannode/internal/infrastructure/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testNode struct {
	c      *Container
	report *bytes.Buffer
	frames string
}

func newTestNode(t *testing.T, mutate func(*system.Config), camOpts ...sensor.CameraOption) *testNode {
	t.Helper()
	dir := t.TempDir()

	cfg := system.DefaultConfig()
	cfg.Node.StateDir = filepath.Join(dir, "state")
	cfg.Sensor.FramesDir = filepath.Join(dir, "frames")
	cfg.Sensor.CaptureTimeoutMS = 100
	cfg.Serial.FlushDelayMS = 0
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, os.MkdirAll(cfg.Sensor.FramesDir, 0o750))

	report := &bytes.Buffer{}
	c, err := New(Options{
		Config:          cfg,
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		FirmwareVersion: "0.1.0",
		Report:          report,
		CameraOptions:   camOpts,
	})
	require.NoError(t, err)
	return &testNode{c: c, report: report, frames: cfg.Sensor.FramesDir}
}

func (n *testNode) scene(t *testing.T, g entities.Geometry, payloads ...string) {
	t.Helper()
	img, err := decoder.RenderFrame(g, payloads...)
	require.NoError(t, err)

	f, err := os.Create(filepath.Join(n.frames, "scene.png"))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	require.NoError(t, png.Encode(f, img))
}

// powerOnAndTrigger runs the power-on cycle and raises the wake pin.
func (n *testNode) powerOnAndTrigger(t *testing.T) {
	t.Helper()
	first, err := n.c.RunCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, values.WakeCauseOther, first.Cause)

	armed, err := n.c.Trigger(nil)
	require.NoError(t, err)
	require.True(t, armed)

	pending, err := n.c.Pending()
	require.NoError(t, err)
	require.True(t, pending)
}

func TestRunCycle_PowerOnDoesNotScan(t *testing.T) {
	n := newTestNode(t, nil)
	n.scene(t, entities.QVGA, "HELLO")

	result, err := n.c.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, values.WakeCauseOther, result.Cause)
	assert.False(t, result.Scanned())
	assert.Empty(t, n.report.String())

	status, err := n.c.Status()
	require.NoError(t, err)
	assert.True(t, status.Sleeping)
	assert.NotNil(t, status.Armed)
	assert.False(t, status.Triggered)
	assert.Equal(t, uint64(1), status.BootCount)
}

func TestRunCycle_TriggeredScanReports(t *testing.T) {
	n := newTestNode(t, nil)
	n.scene(t, entities.QVGA, "HELLO")
	n.powerOnAndTrigger(t)

	result, err := n.c.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, values.WakeCauseExternalTrigger, result.Cause)
	assert.Equal(t, "QR:HELLO\r\n", n.report.String())
	assert.Equal(t, result.FramesAcquired, result.FramesReleased)
	assert.True(t, result.Armed)

	// Sleeping again re-arms with the pin at rest.
	pending, err := n.c.Pending()
	require.NoError(t, err)
	assert.False(t, pending)

	status, err := n.c.Status()
	require.NoError(t, err)
	require.Len(t, status.History, 2)
	assert.Equal(t, "reported", status.History[1].Outcome)

	history, err := n.c.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, result.ID, history[1].ID)
}

func TestRunCycle_GeometryMismatchSendsNothing(t *testing.T) {
	n := newTestNode(t, nil)
	n.scene(t, entities.Geometry{Width: 400, Height: 240}, "HELLO")
	n.powerOnAndTrigger(t)

	result, err := n.c.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, values.ErrorKindGeometry, result.ErrorKind)
	assert.Zero(t, result.DecodeCalls)
	assert.Empty(t, n.report.String())
	assert.True(t, result.Armed)
}

func TestRunCycle_MissingFramesIsInitFailure(t *testing.T) {
	n := newTestNode(t, nil)
	require.NoError(t, os.RemoveAll(n.frames))
	n.powerOnAndTrigger(t)

	result, err := n.c.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, values.ErrorKindInit, result.ErrorKind)
	assert.Empty(t, n.report.String())
	assert.Equal(t, "abandoned", result.Outcome())
}

func TestRunCycle_OverrideFaultDoesNotAbort(t *testing.T) {
	n := newTestNode(t, nil, sensor.WithOverrideFault(sensor.OverrideManualGain, errors.New("sccb nack")))
	n.scene(t, entities.QVGA, "HELLO")
	n.powerOnAndTrigger(t)

	result, err := n.c.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, values.ErrorKindNone, result.ErrorKind)
	assert.Equal(t, "QR:HELLO\r\n", n.report.String())
}

func TestRunCycle_LockedNodeRefuses(t *testing.T) {
	n := newTestNode(t, nil)

	lock := power.NewExecutionLock(n.c.Config().Node.StateDir)
	require.NoError(t, lock.TryLock())
	defer func() { _ = lock.Unlock() }()

	_, err := n.c.RunCycle(context.Background())
	assert.ErrorIs(t, err, power.ErrLocked)
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := system.DefaultConfig()
	cfg.Node.StateDir = t.TempDir()
	cfg.Sensor.Variant = "imx219"

	_, err := New(Options{Config: cfg})
	assert.Error(t, err)
}
