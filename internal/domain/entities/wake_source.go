package entities

import "fmt"

// Level is an electrical logic level on a pin.
type Level int

const (
	LevelLow  Level = 0
	LevelHigh Level = 1
)

func (l Level) String() string {
	if l == LevelHigh {
		return "high"
	}
	return "low"
}

// ParseLevel accepts "high"/"low" (and "1"/"0").
func ParseLevel(s string) (Level, error) {
	switch s {
	case "high", "1":
		return LevelHigh, nil
	case "low", "0":
		return LevelLow, nil
	default:
		return LevelLow, fmt.Errorf("invalid level: %q (valid: high, low)", s)
	}
}

// Pull is the internal resistor configuration of an input pin.
type Pull string

const (
	PullNone Pull = "none"
	PullDown Pull = "down"
	PullUp   Pull = "up"
)

// Validate returns an error if the pull value is invalid
func (p Pull) Validate() error {
	switch p {
	case PullNone, PullDown, PullUp:
		return nil
	default:
		return fmt.Errorf("invalid pull: %q (valid: none, down, up)", p)
	}
}

// RestingLevel returns the level the pull holds a floating input at.
func (p Pull) RestingLevel() (Level, bool) {
	switch p {
	case PullDown:
		return LevelLow, true
	case PullUp:
		return LevelHigh, true
	default:
		return LevelLow, false
	}
}

// WakeArmSpec describes the single wake source armed before every sleep.
type WakeArmSpec struct {
	Pin          int   `yaml:"pin" json:"pin" msgpack:"pin"`
	TriggerLevel Level `yaml:"level" json:"level" msgpack:"lvl"`
	Pull         Pull  `yaml:"pull" json:"pull" msgpack:"pull"`
	Hold         bool  `yaml:"hold" json:"hold" msgpack:"hold"`
}

// DefaultWakeArmSpec arms GPIO13 to wake on high, pulled down, hold latched.
func DefaultWakeArmSpec() WakeArmSpec {
	return WakeArmSpec{
		Pin:          13,
		TriggerLevel: LevelHigh,
		Pull:         PullDown,
		Hold:         true,
	}
}

// PullFor returns the pull that rests the pin at the non-trigger level.
func PullFor(trigger Level) Pull {
	if trigger == LevelHigh {
		return PullDown
	}
	return PullUp
}

// Validate checks the spec. The pull must rest the pin away from the trigger
// level, otherwise a floating input wakes the node immediately.
func (s WakeArmSpec) Validate() error {
	if s.Pin < 0 {
		return fmt.Errorf("invalid wake pin %d", s.Pin)
	}
	if s.TriggerLevel != LevelLow && s.TriggerLevel != LevelHigh {
		return fmt.Errorf("invalid trigger level %d", s.TriggerLevel)
	}
	if err := s.Pull.Validate(); err != nil {
		return err
	}
	if s.Pull != PullFor(s.TriggerLevel) {
		return fmt.Errorf("wake pin %d: pull %s does not rest away from trigger level %s",
			s.Pin, s.Pull, s.TriggerLevel)
	}
	return nil
}

func (s WakeArmSpec) String() string {
	return fmt.Sprintf("gpio%d trigger=%s pull=%s hold=%t", s.Pin, s.TriggerLevel, s.Pull, s.Hold)
}
