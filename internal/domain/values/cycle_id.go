// Package values contains domain value objects that encapsulate
// primitive types with validation and such.
package values

import (
	"fmt"

	"github.com/google/uuid"
)

// CycleID uniquely identifies one boot-to-sleep execution of the node.
// It tags every log line of a cycle and keys the cycle history.
type CycleID struct {
	value uuid.UUID
}

// NewCycleID creates a new random cycle ID
func NewCycleID() CycleID {
	return CycleID{value: uuid.New()}
}

// ParseCycleID parses a string into a CycleID
func ParseCycleID(s string) (CycleID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return CycleID{}, fmt.Errorf("invalid cycle ID: %w", err)
	}
	return CycleID{value: id}, nil
}

// MustParseCycleID parses a string or panics (for tests only)
func MustParseCycleID(s string) CycleID {
	id, err := ParseCycleID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the string representation
func (c CycleID) String() string {
	return c.value.String()
}

// Short returns the first eight hex digits, enough to tell cycles apart in a log.
func (c CycleID) Short() string {
	return c.value.String()[:8]
}

// IsZero returns true if this is the zero value
func (c CycleID) IsZero() bool {
	return c.value == uuid.Nil
}

// Equals checks if two CycleIDs are equal
func (c CycleID) Equals(other CycleID) bool {
	return c.value == other.value
}

// MarshalText implements encoding.TextMarshaler
func (c CycleID) MarshalText() ([]byte, error) {
	return []byte(c.value.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *CycleID) UnmarshalText(data []byte) error {
	id, err := ParseCycleID(string(data))
	if err != nil {
		return err
	}
	*c = id
	return nil
}
