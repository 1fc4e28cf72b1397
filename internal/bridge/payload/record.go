package payload

import (
	"maps"
	"slices"
	"time"
)

// Record maps a field key to its parsed value. Values are time.Time, int64,
// float64, bool, Status, or nil when the marker matched but the value could
// not be converted. A missing key means the field was not reported.
type Record map[string]any

// Status returns the car_status tag.
func (r Record) Status() (Status, bool) {
	s, ok := r[KeyCarStatus].(Status)
	return s, ok
}

// Float returns a numeric field as float64.
func (r Record) Float(key string) (float64, bool) {
	switch v := r[key].(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// Time returns a timestamp field.
func (r Record) Time(key string) (time.Time, bool) {
	t, ok := r[key].(time.Time)
	return t, ok
}

// Bool returns a boolean field.
func (r Record) Bool(key string) (bool, bool) {
	b, ok := r[key].(bool)
	return b, ok
}

// Keys returns the keys of r in lexical order.
func (r Record) Keys() []string {
	return slices.Sorted(maps.Keys(r))
}
