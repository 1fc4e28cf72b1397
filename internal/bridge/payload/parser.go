// Package payload turns the free-text DiLink push notification into a typed
// Record.
package payload

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	markerPoweredOff = "熄火提醒"
	markerStarted    = "启动提醒"
	markerCharging   = "补能提醒"

	// TimeLayout accepts both padded and unpadded date parts.
	TimeLayout = "2006-1-2 15:4:5"
)

// Location of every timestamp in the payload (China Standard Time).
var Location = time.FixedZone("UTC+8", 8*60*60)

// ws matches the whitespace the car puts between labels, including
// full-width and non-breaking spaces.
const ws = `[\s\p{Z}\x{85}]*`

type field struct {
	key string
	re  *regexp.Regexp
}

func numberField(key, label string) field {
	return field{key: key, re: regexp.MustCompile(label + ws + `([\d\.]+)`)}
}

var generalFields = []field{
	{key: KeyChargeTime, re: regexp.MustCompile(`充能时间：` + ws + `([\d\-\s:]+)`)},
	{key: KeyDetectionTime, re: regexp.MustCompile(`检测时间：` + ws + `([\d\-\s:]+)`)},
	numberField(KeyMileageKm, `总里程\(km\)：`),
	numberField(KeyBatteryPercentReport, `电量\(%\)：`),
	numberField(KeyBatteryEnergyKWhReport, `电量\(kwh\)：`),
	numberField(KeyRemainingRangeKm, `电量剩余里程\(km\)：`),
	{key: KeyBatteryHealth, re: regexp.MustCompile(`电池健康：` + ws + `(\d+)`)},
	numberField(KeyConsumptionKWh50Km, `近50KM电耗\(kWh\)：`),
	numberField(KeyExternalTemperatureCelsius, `车外温度：`),
	{key: KeyFanSpeed, re: regexp.MustCompile(`空调风量：` + ws + `(\d)`)},
}

var chargingFields = []field{
	numberField(KeyStartBatteryPct, `起始电量\(%\)：`),
	numberField(KeyEndBatteryPct, `结束电量\(%\)：`),
	numberField(KeyChargeAmountPct, `充电量\(%\)：`),
	numberField(KeyChargeAmountKWhTotal, `充电量\(kWh\)：`),
	numberField(KeyChargeDistanceKm, `充电里程\(km\)：`),
}

// group is a set of sub-values reported under one label. Either every key of
// a group is set or none is.
type group struct {
	re      *regexp.Regexp
	keys    []string
	convert func(int64) any
}

func newGroup(label string, tags []string, keys []string, convert func(int64) any) group {
	var b strings.Builder
	b.WriteString(label)
	for _, tag := range tags {
		b.WriteString(ws + tag + `(\d+)`)
	}
	return group{re: regexp.MustCompile(b.String()), keys: keys, convert: convert}
}

var (
	wheelTags  = []string{`左前：`, `右前：`, `左后：`, `右后：`}
	windowTags = append(wheelTags[:4:4], `天窗：`)

	asInt  = func(v int64) any { return v }
	isOpen = func(v int64) any { return v == 1 }
)

var groups = []group{
	newGroup(`各项胎压\(kpa\)：`, wheelTags,
		[]string{KeyTPMSLeftFront, KeyTPMSRightFront, KeyTPMSLeftRear, KeyTPMSRightRear}, asInt),
	newGroup(`轮胎温度\(℃\)：`, wheelTags,
		[]string{KeyTireTempLeftFront, KeyTireTempRightFront, KeyTireTempLeftRear, KeyTireTempRightRear}, asInt),
	newGroup(`车窗状态：`, windowTags,
		[]string{KeyWindowLeftFrontOpen, KeyWindowRightFrontOpen, KeyWindowLeftRearOpen, KeyWindowRightRearOpen, KeySunroofOpen}, isOpen),
}

// Parse extracts every recognized field from raw. It never fails: unmatched
// fields are omitted, matched fields that do not convert are set to nil, and
// car_status is always present.
func Parse(raw string) Record {
	rec := Record{}

	switch {
	case strings.Contains(raw, markerPoweredOff):
		rec[KeyCarStatus] = StatusPoweredOff
	case strings.Contains(raw, markerStarted):
		rec[KeyCarStatus] = StatusStarted
	}
	charging := strings.Contains(raw, markerCharging)

	hasNumeric := false

	for _, f := range generalFields {
		text, ok := capture(f.re, raw)
		if !ok {
			continue
		}
		if strings.Contains(f.key, "time") {
			rec[f.key] = parseTime(text)
			continue
		}
		rec[f.key] = parseNumber(text)
		hasNumeric = hasNumeric || rec[f.key] != nil
	}

	if charging {
		for _, f := range chargingFields {
			text, ok := capture(f.re, raw)
			if !ok {
				continue
			}
			rec[f.key] = parseNumber(text)
			hasNumeric = hasNumeric || rec[f.key] != nil
		}
	}

	for _, g := range groups {
		if parseGroup(g, raw, rec) {
			hasNumeric = true
		}
	}

	if _, ok := rec[KeyCarStatus]; !ok {
		if hasNumeric {
			rec[KeyCarStatus] = StatusIdle
		} else {
			rec[KeyCarStatus] = StatusUnknown
		}
	}

	return rec
}

// capture returns the trimmed first submatch of the first occurrence.
func capture(re *regexp.Regexp, raw string) (string, bool) {
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// parseTime returns a time.Time in Location, or nil.
func parseTime(text string) any {
	t, err := time.ParseInLocation(TimeLayout, text, Location)
	if err != nil {
		return nil
	}
	return t
}

// parseNumber returns float64 when text contains a dot, int64 otherwise,
// or nil when conversion fails.
func parseNumber(text string) any {
	if strings.Contains(text, ".") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil
		}
		return f
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil
	}
	return i
}

func parseGroup(g group, raw string, rec Record) bool {
	m := g.re.FindStringSubmatch(raw)
	if m == nil {
		return false
	}

	values := make([]any, len(g.keys))
	for i := range g.keys {
		v, err := strconv.ParseInt(m[i+1], 10, 64)
		if err != nil {
			return false
		}
		values[i] = g.convert(v)
	}
	for i, key := range g.keys {
		rec[key] = values[i]
	}
	return true
}
