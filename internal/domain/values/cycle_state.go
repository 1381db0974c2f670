package values

import "fmt"

// CycleState is one state of the wake-capture-decode-report-resleep lifecycle.
type CycleState string

const (
	StateBootCheckingCause CycleState = "boot_checking_cause"
	StateIdleRearm         CycleState = "idle_rearm"
	StateScanInit          CycleState = "scan_init"
	StateScanCapture       CycleState = "scan_capture"
	StateScanDecode        CycleState = "scan_decode"
	StateScanReport        CycleState = "scan_report"
	StateScanTeardown      CycleState = "scan_teardown"
	StateRearm             CycleState = "rearm"
	StateSleeping          CycleState = "sleeping"
)

// allowedTransitions lists every legal successor of each state.
// Every scan stage may fall through to ScanTeardown; only ScanTeardown and
// IdleRearm lead to Rearm, and only Rearm leads to Sleeping.
var allowedTransitions = map[CycleState][]CycleState{
	StateBootCheckingCause: {StateIdleRearm, StateScanInit},
	StateIdleRearm:         {StateRearm},
	StateScanInit:          {StateScanCapture, StateScanTeardown},
	StateScanCapture:       {StateScanDecode, StateScanTeardown},
	StateScanDecode:        {StateScanReport, StateScanTeardown},
	StateScanReport:        {StateScanTeardown},
	StateScanTeardown:      {StateRearm},
	StateRearm:             {StateSleeping},
}

// CanTransition reports whether moving from s to next is legal.
func (s CycleState) CanTransition(next CycleState) bool {
	for _, candidate := range allowedTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the state ends the execution.
func (s CycleState) IsTerminal() bool {
	return s == StateSleeping
}

// IsScan reports whether the state belongs to the scan branch.
func (s CycleState) IsScan() bool {
	switch s {
	case StateScanInit, StateScanCapture, StateScanDecode, StateScanReport, StateScanTeardown:
		return true
	default:
		return false
	}
}

// Validate returns an error if the state value is invalid
func (s CycleState) Validate() error {
	switch s {
	case StateBootCheckingCause, StateIdleRearm, StateScanInit, StateScanCapture,
		StateScanDecode, StateScanReport, StateScanTeardown, StateRearm, StateSleeping:
		return nil
	default:
		return fmt.Errorf("invalid cycle state: %s", s)
	}
}
