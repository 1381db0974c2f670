package power

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/reglet-dev/scannode/internal/domain/entities"
	"github.com/reglet-dev/scannode/internal/domain/execution"
	"github.com/reglet-dev/scannode/internal/domain/values"
)

// ErrAsleep is returned by calls made after EnterRetentionSleep.
var ErrAsleep = errors.New("node is in retention sleep")

// SimController is a WakeController over file-backed retention memory.
// Constructing it is the boot: it latches the wake cause and counts the boot.
type SimController struct {
	store       *RetentionStore
	logger      *slog.Logger
	mem         *Retention
	now         func() time.Time
	cause       values.WakeCause
	historySize int
	mu          sync.Mutex
	asleep      bool
}

// ControllerOption configures a SimController.
type ControllerOption func(*SimController)

// WithControllerLogger sets the logger.
func WithControllerLogger(logger *slog.Logger) ControllerOption {
	return func(c *SimController) {
		c.logger = logger
	}
}

// WithHistorySize sets how many cycle summaries retention memory keeps.
func WithHistorySize(n int) ControllerOption {
	return func(c *SimController) {
		c.historySize = n
	}
}

// Boot loads retention memory and determines why the node woke.
//
// The wake is an external trigger only if the node entered sleep with the
// pin armed and the pin now sits at its trigger level. Anything else,
// including missing, unreadable or incompatible retention memory, is a
// power-on (cause Other).
func Boot(store *RetentionStore, firmwareVersion string, opts ...ControllerOption) *SimController {
	c := &SimController{
		store:       store,
		logger:      slog.Default(),
		now:         time.Now,
		historySize: 8,
	}
	for _, opt := range opts {
		opt(c)
	}

	mem, err := store.Load()
	if err != nil {
		c.logger.Warn("retention memory unreadable, cold boot", "error", err)
		mem = nil
	}
	if mem != nil && !Compatible(mem.FirmwareVersion, firmwareVersion) {
		c.logger.Warn("retention memory from incompatible firmware discarded",
			"stored", mem.FirmwareVersion, "running", firmwareVersion)
		mem = nil
	}

	c.cause = values.WakeCauseOther
	if mem == nil {
		mem = &Retention{}
	} else if mem.Sleeping && mem.Triggered() {
		c.cause = values.WakeCauseExternalTrigger
	}

	// The wake is latched; this execution has to arm the pin again before it sleeps.
	if mem.Armed != nil {
		mem.PinLevel = restingLevel(*mem.Armed)
		mem.Armed = nil
	}

	mem.FirmwareVersion = firmwareVersion
	mem.BootCount++
	mem.Sleeping = false
	mem.LastCause = c.cause
	c.mem = mem

	// Persist the boot so the counter survives a crash mid-cycle.
	if err := store.Save(mem); err != nil {
		c.logger.Warn("failed to persist boot", "error", err)
	}
	return c
}

// restingLevel is where the pull leaves the pin, or the non-trigger level
// when the pin floats.
func restingLevel(spec entities.WakeArmSpec) entities.Level {
	if level, ok := spec.Pull.RestingLevel(); ok {
		return level
	}
	if spec.TriggerLevel == entities.LevelHigh {
		return entities.LevelLow
	}
	return entities.LevelHigh
}

// Compatible reports whether retention written by stored firmware may be
// read by running firmware: same semver major. Versions that are not
// semver must match exactly.
func Compatible(stored, running string) bool {
	if stored == "" {
		return true
	}
	a, errA := semver.NewVersion(stored)
	b, errB := semver.NewVersion(running)
	if errA != nil || errB != nil {
		return stored == running
	}
	return a.Major() == b.Major()
}

// WakeCause returns the cause latched at boot.
func (c *SimController) WakeCause() values.WakeCause {
	return c.cause
}

// ArmWakeSource configures the wake pin. Arming again with the same spec is
// a no-op beyond resetting the pin to its resting level.
func (c *SimController) ArmWakeSource(spec entities.WakeArmSpec) error {
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("arm wake source: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.asleep {
		return ErrAsleep
	}

	armed := spec
	c.mem.Armed = &armed
	if level, ok := spec.Pull.RestingLevel(); ok {
		c.mem.PinLevel = level
	}
	c.logger.Debug("wake pin configured", "wake_pin", spec.String(), "resting", c.mem.PinLevel.String())
	return nil
}

// Save keeps the cycle summary in retention memory, bounded to the history size.
func (c *SimController) Save(_ context.Context, result *execution.CycleResult) error {
	if result == nil {
		return errors.New("cannot record nil cycle result")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.asleep {
		return ErrAsleep
	}
	if c.historySize <= 0 {
		return nil
	}

	c.mem.History = append(c.mem.History, result.Summary())
	if extra := len(c.mem.History) - c.historySize; extra > 0 {
		c.mem.History = append([]execution.CycleSummary(nil), c.mem.History[extra:]...)
	}
	return nil
}

// EnterRetentionSleep commits retention memory. After it returns the
// controller accepts no further calls; the next execution boots afresh.
func (c *SimController) EnterRetentionSleep() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.asleep {
		return ErrAsleep
	}

	c.mem.Sleeping = true
	c.mem.SleptAt = c.now()
	if err := c.store.Save(c.mem); err != nil {
		return err
	}
	c.asleep = true

	if c.mem.Armed == nil {
		c.logger.Warn("sleeping with no wake source armed, only a power cycle will wake the node")
	}
	return nil
}

// Retention returns a copy of the current retention memory.
func (c *SimController) Retention() Retention {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := *c.mem
	out.History = append([]execution.CycleSummary(nil), c.mem.History...)
	return out
}

// Trigger drives the wake pin of a sleeping node. With a nil level it uses
// the armed trigger level. It reports whether the pin is armed for that level.
func Trigger(store *RetentionStore, level *entities.Level) (bool, error) {
	mem, err := store.Load()
	if err != nil {
		return false, err
	}
	if mem == nil {
		mem = &Retention{}
	}

	target := entities.LevelHigh
	switch {
	case level != nil:
		target = *level
	case mem.Armed != nil:
		target = mem.Armed.TriggerLevel
	}

	mem.PinLevel = target
	if err := store.Save(mem); err != nil {
		return false, err
	}
	return mem.Triggered(), nil
}
