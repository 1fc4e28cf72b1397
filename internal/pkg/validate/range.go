// Package validate holds numeric range checks shared by feeds and actuators.
package validate

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is wrapped by every Range.Check failure.
var ErrOutOfRange = errors.New("value out of range")

// Range is an inclusive integer interval.
type Range struct {
	Min int
	Max int
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Check returns an error wrapping ErrOutOfRange when v lies outside the range.
func (r Range) Check(v int) error {
	if !r.Contains(v) {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrOutOfRange, v, r.Min, r.Max)
	}
	return nil
}

// Clamp limits v to the range.
func (r Range) Clamp(v int) int {
	return max(r.Min, min(r.Max, v))
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d]", r.Min, r.Max)
}
