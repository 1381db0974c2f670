package values

import "fmt"

// WakeCause is the reason the node resumed execution, read once per boot.
type WakeCause string

const (
	// WakeCauseExternalTrigger means the armed wake pin reached its trigger level
	WakeCauseExternalTrigger WakeCause = "external_trigger"
	// WakeCauseOther covers power-on, timer, reset and anything unrecognized
	WakeCauseOther WakeCause = "other"
)

// IsTrigger returns true if the node was woken to run a scan
func (c WakeCause) IsTrigger() bool {
	return c == WakeCauseExternalTrigger
}

// Validate returns an error if the wake cause value is invalid
func (c WakeCause) Validate() error {
	switch c {
	case WakeCauseExternalTrigger, WakeCauseOther:
		return nil
	default:
		return fmt.Errorf("invalid wake cause: %s", c)
	}
}
