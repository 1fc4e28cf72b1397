// Package speed defines the vehicle speed sample shared by the speed feed and
// the status resolver.
package speed

import "strconv"

// Sample is a speed reading in km/h, or the Unavailable sentinel.
type Sample struct {
	kmh   int
	known bool
}

// Known returns a numeric sample.
func Known(kmh int) Sample {
	return Sample{kmh: kmh, known: true}
}

// Unavailable returns the sample reported when the source is unknown or
// unavailable.
func Unavailable() Sample {
	return Sample{}
}

// Value returns the reading and whether it is numeric.
func (s Sample) Value() (int, bool) {
	return s.kmh, s.known
}

// Usable reports whether the sample can decide between Idle and Driving.
// Negative readings are not a defined input and count as unavailable.
func (s Sample) Usable() bool {
	return s.known && s.kmh >= 0
}

func (s Sample) String() string {
	if !s.known {
		return "unavailable"
	}
	return strconv.Itoa(s.kmh)
}
