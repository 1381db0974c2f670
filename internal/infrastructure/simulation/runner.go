// Package simulation runs a node continuously on a host: boot once, then
// boot again every time the wake pin is triggered.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/reglet-dev/scannode/internal/domain/execution"
	"golang.org/x/sync/errgroup"
)

// BootFunc runs one execution, from boot to retention sleep.
type BootFunc func(ctx context.Context) (*execution.CycleResult, error)

// PendingFunc reports whether a sleeping node has been triggered.
type PendingFunc func() (bool, error)

// Runner drives repeated executions of a simulated node.
type Runner struct {
	boot         BootFunc
	pending      PendingFunc
	logger       *slog.Logger
	stateDir     string
	watchFile    string
	pollInterval time.Duration
	maxCycles    int
}

// Config configures a Runner.
type Config struct {
	// StateDir is watched for retention memory changes.
	StateDir string

	// WatchFile is the file within StateDir whose changes may signal a trigger.
	WatchFile string

	// PollInterval is a fallback check in case a file event is missed.
	PollInterval time.Duration

	// MaxCycles stops the runner after that many executions. Zero runs until cancelled.
	MaxCycles int
}

// NewRunner creates a runner.
func NewRunner(cfg Config, boot BootFunc, pending PendingFunc, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	return &Runner{
		boot:         boot,
		pending:      pending,
		logger:       logger,
		stateDir:     cfg.StateDir,
		watchFile:    cfg.WatchFile,
		pollInterval: cfg.PollInterval,
		maxCycles:    cfg.MaxCycles,
	}
}

// Run performs the power-on boot, then waits for triggers and boots again
// for each one. It returns the number of executions when ctx is cancelled
// or MaxCycles is reached.
func (r *Runner) Run(ctx context.Context) (int, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return 0, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(r.stateDir); err != nil {
		return 0, fmt.Errorf("watch state dir %s: %w", r.stateDir, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wake := make(chan struct{}, 1)
	cycles := 0

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.watchLoop(gctx, watcher, wake)
	})
	g.Go(func() error {
		defer cancel()
		n, err := r.bootLoop(gctx, wake)
		cycles = n
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return cycles, err
	}
	return cycles, nil
}

func (r *Runner) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, wake chan<- struct{}) error {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	notify := func() {
		select {
		case wake <- struct{}{}:
		default:
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != r.watchFile {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				r.logger.Debug("fsnotify event", "op", event.Op.String(), "file", event.Name)
				notify()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Error("fsnotify error", "error", err)
		case <-ticker.C:
			notify()
		}
	}
}

func (r *Runner) bootLoop(ctx context.Context, wake <-chan struct{}) (int, error) {
	cycles := 0
	for {
		result, err := r.boot(ctx)
		if err != nil {
			return cycles, fmt.Errorf("execution %d: %w", cycles+1, err)
		}
		cycles++
		r.logger.Info("node asleep",
			"execution", cycles,
			"cycle_id", result.ID.Short(),
			"wake_cause", result.Cause,
			"outcome", result.Outcome(),
		)

		if r.maxCycles > 0 && cycles >= r.maxCycles {
			return cycles, nil
		}

		if err := r.waitForTrigger(ctx, wake); err != nil {
			return cycles, nil
		}
	}
}

// waitForTrigger blocks until the node has been triggered or ctx ends.
func (r *Runner) waitForTrigger(ctx context.Context, wake <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wake:
		}

		triggered, err := r.pending()
		if err != nil {
			r.logger.Warn("cannot read retention memory", "error", err)
			continue
		}
		if triggered {
			return nil
		}
	}
}
