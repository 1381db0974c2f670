package simulation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/reglet-dev/scannode/internal/domain/execution"
	"github.com/reglet-dev/scannode/internal/domain/values"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunner_BootsOnEachTrigger(t *testing.T) {
	dir := t.TempDir()
	flag := filepath.Join(dir, "pin")

	var boots atomic.Int32
	boot := func(context.Context) (*execution.CycleResult, error) {
		// Sleeping resets the pin.
		_ = os.Remove(flag)
		boots.Add(1)
		res := execution.NewCycleResult("1.0.0")
		res.Cause = values.WakeCauseExternalTrigger
		return res, nil
	}
	pending := func() (bool, error) {
		_, err := os.Stat(flag)
		return err == nil, nil
	}

	runner := NewRunner(Config{
		StateDir:     dir,
		WatchFile:    "pin",
		PollInterval: 20 * time.Millisecond,
		MaxCycles:    3,
	}, boot, pending, quietLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan struct{})
	var (
		cycles int
		err    error
	)
	go func() {
		cycles, err = runner.Run(ctx)
		close(done)
	}()

	for i := 0; i < 2; i++ {
		want := int32(i + 1)
		require.Eventually(t, func() bool { return boots.Load() == want }, 5*time.Second, 10*time.Millisecond)
		require.NoError(t, os.WriteFile(flag, []byte("1"), 0o600))
	}

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("runner did not stop after MaxCycles")
	}
	require.NoError(t, err)
	assert.Equal(t, 3, cycles)
	assert.Equal(t, int32(3), boots.Load())
}

func TestRunner_StopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	boot := func(context.Context) (*execution.CycleResult, error) {
		return execution.NewCycleResult("1.0.0"), nil
	}
	never := func() (bool, error) { return false, nil }

	runner := NewRunner(Config{StateDir: dir, WatchFile: "x", PollInterval: 10 * time.Millisecond}, boot, never, quietLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	cycles, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cycles)
}

func TestRunner_BootErrorStops(t *testing.T) {
	boot := func(context.Context) (*execution.CycleResult, error) {
		return nil, errors.New("state dir read-only")
	}
	runner := NewRunner(Config{StateDir: t.TempDir(), WatchFile: "x"}, boot, nil, quietLogger())

	cycles, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "state dir read-only")
	assert.Zero(t, cycles)
}

func TestRunner_MissingStateDir(t *testing.T) {
	runner := NewRunner(Config{StateDir: filepath.Join(t.TempDir(), "absent")}, nil, nil, quietLogger())

	_, err := runner.Run(context.Background())
	assert.Error(t, err)
}
