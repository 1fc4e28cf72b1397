package validate

import (
	"errors"
	"testing"
)

func TestRange(t *testing.T) {
	r := Range{Min: 17, Max: 33}

	tests := []struct {
		v       int
		ok      bool
		clamped int
	}{
		{17, true, 17},
		{33, true, 33},
		{25, true, 25},
		{16, false, 17},
		{34, false, 33},
		{-1, false, 17},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.v); got != tt.ok {
			t.Errorf("Contains(%d) = %v, want %v", tt.v, got, tt.ok)
		}
		err := r.Check(tt.v)
		if (err == nil) != tt.ok {
			t.Errorf("Check(%d) = %v", tt.v, err)
		}
		if err != nil && !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Check(%d) error does not wrap ErrOutOfRange", tt.v)
		}
		if got := r.Clamp(tt.v); got != tt.clamped {
			t.Errorf("Clamp(%d) = %d, want %d", tt.v, got, tt.clamped)
		}
	}
}
