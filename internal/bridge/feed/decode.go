// Package feed handles the dedicated numeric MQTT feeds published next to the
// status topic.
package feed

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Rejection reasons, used as metric labels.
const (
	ReasonDecode     = "decode"
	ReasonNonNumeric = "non_numeric"
	ReasonOutOfRange = "out_of_range"
)

var errNonNumeric = errors.New("non-numeric payload")

// Decode validates payload as UTF-8 and trims surrounding whitespace.
func Decode(payload []byte) (string, bool) {
	if !utf8.Valid(payload) {
		return "", false
	}
	return strings.TrimSpace(string(payload)), true
}

// truncate parses text as a decimal number and truncates it toward zero,
// so "90.0" and "90.7" both read as 90.
func truncate(text string) (int, error) {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNonNumeric
	}
	t := math.Trunc(f)
	if t > math.MaxInt32 || t < math.MinInt32 {
		return 0, errNonNumeric
	}
	return int(t), nil
}
