// Package execution provides domain models for cycle results.
package execution

import (
	"fmt"
	"time"

	"github.com/reglet-dev/scannode/internal/domain/entities"
	"github.com/reglet-dev/scannode/internal/domain/values"
)

// CycleResult records everything one boot-to-sleep execution did.
type CycleResult struct {
	StartTime       time.Time                `json:"start_time" yaml:"start_time"`
	EndTime         time.Time                `json:"end_time" yaml:"end_time"`
	FirmwareVersion string                   `json:"firmware_version,omitempty" yaml:"firmware_version,omitempty"`
	Cause           values.WakeCause         `json:"wake_cause" yaml:"wake_cause"`
	States          []values.CycleState      `json:"states" yaml:"states"`
	Symbols         []entities.DecodedSymbol `json:"symbols,omitempty" yaml:"symbols,omitempty"`
	ErrorKind       values.ErrorKind         `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	ErrorMessage    string                   `json:"error,omitempty" yaml:"error,omitempty"`
	ArmError        string                   `json:"arm_error,omitempty" yaml:"arm_error,omitempty"`
	Violations      []string                 `json:"violations,omitempty" yaml:"violations,omitempty"`
	LinesSent       int                      `json:"lines_sent" yaml:"lines_sent"`
	ReportFailures  int                      `json:"report_failures,omitempty" yaml:"report_failures,omitempty"`
	FramesAcquired  int                      `json:"frames_acquired" yaml:"frames_acquired"`
	FramesReleased  int                      `json:"frames_released" yaml:"frames_released"`
	DecodeCalls     int                      `json:"decode_calls" yaml:"decode_calls"`
	Duration        time.Duration            `json:"duration" yaml:"duration"`
	Armed           bool                     `json:"armed" yaml:"armed"`
	ID              values.CycleID           `json:"cycle_id" yaml:"cycle_id"`
}

// NewCycleResult creates a result for a fresh execution.
func NewCycleResult(firmwareVersion string) *CycleResult {
	return NewCycleResultWithID(values.NewCycleID(), firmwareVersion)
}

// NewCycleResultWithID creates a result with a specific ID.
func NewCycleResultWithID(id values.CycleID, firmwareVersion string) *CycleResult {
	return &CycleResult{
		ID:              id,
		FirmwareVersion: firmwareVersion,
		StartTime:       time.Now(),
		States:          make([]values.CycleState, 0, 8),
		Cause:           values.WakeCauseOther,
	}
}

// Current returns the most recently entered state, or "" before the first.
func (r *CycleResult) Current() values.CycleState {
	if len(r.States) == 0 {
		return ""
	}
	return r.States[len(r.States)-1]
}

// Enter records a transition into next. The first state must be
// BootCheckingCause. An illegal transition is still recorded, so the trace
// shows what actually ran, and is reported as an error.
func (r *CycleResult) Enter(next values.CycleState) error {
	cur := r.Current()
	r.States = append(r.States, next)

	if cur == "" {
		if next != values.StateBootCheckingCause {
			return r.violation(fmt.Sprintf("cycle started in %s", next))
		}
		return nil
	}
	if !cur.CanTransition(next) {
		return r.violation(fmt.Sprintf("illegal transition %s -> %s", cur, next))
	}
	return nil
}

func (r *CycleResult) violation(msg string) error {
	r.Violations = append(r.Violations, msg)
	return fmt.Errorf("%s", msg)
}

// Visited reports whether the state was entered at least once.
func (r *CycleResult) Visited(s values.CycleState) bool {
	return r.Visits(s) > 0
}

// Visits counts how many times the state was entered.
func (r *CycleResult) Visits(s values.CycleState) int {
	n := 0
	for _, st := range r.States {
		if st == s {
			n++
		}
	}
	return n
}

// Fail records the error that abandoned the scan. Only the first one sticks.
func (r *CycleResult) Fail(kind values.ErrorKind, err error) {
	if r.ErrorKind.IsFatalToCycle() {
		return
	}
	r.ErrorKind = kind
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// AddSymbol appends a decoded or failed symbol in detection order.
func (r *CycleResult) AddSymbol(s entities.DecodedSymbol) {
	r.Symbols = append(r.Symbols, s)
}

// Decoded returns the symbols whose payload was recovered.
func (r *CycleResult) Decoded() []entities.DecodedSymbol {
	out := make([]entities.DecodedSymbol, 0, len(r.Symbols))
	for _, s := range r.Symbols {
		if s.OK() {
			out = append(out, s)
		}
	}
	return out
}

// Scanned reports whether the execution took the scan branch.
func (r *CycleResult) Scanned() bool {
	return r.Visited(values.StateScanInit)
}

// Complete stamps the end time and duration.
func (r *CycleResult) Complete() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
}

// Outcome is a one-word description for tables and logs.
func (r *CycleResult) Outcome() string {
	switch {
	case !r.Scanned():
		return "idle"
	case r.ErrorKind.IsFatalToCycle():
		return "abandoned"
	case len(r.Decoded()) > 0:
		return "reported"
	default:
		return "no_symbols"
	}
}

// Summary returns the compact form kept in retention memory.
func (r *CycleResult) Summary() CycleSummary {
	return CycleSummary{
		ID:         r.ID.String(),
		Cause:      r.Cause,
		Outcome:    r.Outcome(),
		ErrorKind:  r.ErrorKind,
		Symbols:    len(r.Symbols),
		Decoded:    len(r.Decoded()),
		LinesSent:  r.LinesSent,
		Armed:      r.Armed,
		StartedAt:  r.StartTime,
		DurationMS: r.Duration.Milliseconds(),
	}
}

// CycleSummary is a small, fixed-shape record of a finished cycle.
type CycleSummary struct {
	StartedAt  time.Time        `json:"started_at" yaml:"started_at" msgpack:"t"`
	ID         string           `json:"cycle_id" yaml:"cycle_id" msgpack:"id"`
	Cause      values.WakeCause `json:"wake_cause" yaml:"wake_cause" msgpack:"c"`
	Outcome    string           `json:"outcome" yaml:"outcome" msgpack:"o"`
	ErrorKind  values.ErrorKind `json:"error_kind,omitempty" yaml:"error_kind,omitempty" msgpack:"e,omitempty"`
	Symbols    int              `json:"symbols" yaml:"symbols" msgpack:"n"`
	Decoded    int              `json:"decoded" yaml:"decoded" msgpack:"ok"`
	LinesSent  int              `json:"lines_sent" yaml:"lines_sent" msgpack:"l"`
	DurationMS int64            `json:"duration_ms" yaml:"duration_ms" msgpack:"ms"`
	Armed      bool             `json:"armed" yaml:"armed" msgpack:"a"`
}
