// Package sensor provides the frame source: a simulated camera that reads
// images from a directory, with a per-variant sensor control surface.
package sensor

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Variant identifies a supported image sensor.
type Variant string

const (
	VariantOV2640 Variant = "ov2640"
	VariantOV3660 Variant = "ov3660"
)

// Override names, in the order they are applied.
const (
	OverrideManualGain     = "manual_gain"
	OverrideManualExposure = "manual_exposure"
	OverrideAWBOff         = "awb_off"
	OverrideLensCorrection = "lens_correction_off"
)

// RegisterWrite is one simulated sensor register write.
type RegisterWrite struct {
	Override string
	Reg      uint16
	Value    uint8
}

// register tables per variant. Values clear the automatic-control bits.
var registerTables = map[Variant]map[string]RegisterWrite{
	VariantOV2640: {
		OverrideManualGain:     {Reg: 0x13, Value: 0xe1}, // COM8: AGC off
		OverrideManualExposure: {Reg: 0x13, Value: 0xe0}, // COM8: AEC off
		OverrideAWBOff:         {Reg: 0xc7, Value: 0x40}, // DSP: AWB off
		OverrideLensCorrection: {Reg: 0xc3, Value: 0xed}, // CTRL1: LENC off
	},
	VariantOV3660: {
		OverrideManualGain:     {Reg: 0x3503, Value: 0x02},
		OverrideManualExposure: {Reg: 0x3503, Value: 0x03},
		OverrideAWBOff:         {Reg: 0x3406, Value: 0x01},
		OverrideLensCorrection: {Reg: 0x5000, Value: 0x06},
	},
}

// Variants returns the supported sensor variants, sorted.
func Variants() []Variant {
	out := make([]Variant, 0, len(registerTables))
	for v := range registerTables {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseVariant validates a variant name.
func ParseVariant(s string) (Variant, error) {
	v := Variant(s)
	if _, ok := registerTables[v]; !ok {
		return "", fmt.Errorf("unknown sensor variant %q (supported: %v)", s, Variants())
	}
	return v, nil
}

// Control is the quality-override surface of one sensor. It records the
// register writes it performs.
type Control struct {
	faults  map[string]error
	logger  *slog.Logger
	table   map[string]RegisterWrite
	variant Variant
	writes  []RegisterWrite
	mu      sync.Mutex
}

func newControl(variant Variant, faults map[string]error, logger *slog.Logger) *Control {
	return &Control{
		variant: variant,
		table:   registerTables[variant],
		faults:  faults,
		logger:  logger,
	}
}

func (c *Control) write(override string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.faults[override]; err != nil {
		return fmt.Errorf("%s %s: %w", c.variant, override, err)
	}
	w, ok := c.table[override]
	if !ok {
		return fmt.Errorf("%s does not support %s", c.variant, override)
	}
	w.Override = override
	c.writes = append(c.writes, w)
	c.logger.Debug("sensor register write", "sensor", c.variant, "override", override,
		"reg", fmt.Sprintf("0x%04x", w.Reg), "value", fmt.Sprintf("0x%02x", w.Value))
	return nil
}

// SetManualGain disables automatic gain control.
func (c *Control) SetManualGain() error { return c.write(OverrideManualGain) }

// SetManualExposure disables automatic exposure control.
func (c *Control) SetManualExposure() error { return c.write(OverrideManualExposure) }

// DisableAutoWhiteBalance turns off automatic white balance.
func (c *Control) DisableAutoWhiteBalance() error { return c.write(OverrideAWBOff) }

// DisableLensCorrection turns off lens shading correction.
func (c *Control) DisableLensCorrection() error { return c.write(OverrideLensCorrection) }

// Variant returns the sensor this control drives.
func (c *Control) Variant() Variant {
	return c.variant
}

// Writes returns a copy of the register writes performed so far.
func (c *Control) Writes() []RegisterWrite {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]RegisterWrite, len(c.writes))
	copy(out, c.writes)
	return out
}
