package fields

import (
	"github.com/autopeer-io/carbridge/internal/bridge/payload"
)

// Kind is the presentation class of a field.
type Kind string

const (
	KindSensor       Kind = "sensor"
	KindBinarySensor Kind = "binary_sensor"
	KindTimestamp    Kind = "timestamp"
	KindEnum         Kind = "enum"
)

// Descriptor describes one field of the vocabulary.
type Descriptor struct {
	Key     string   `json:"key"`
	Name    string   `json:"name"`
	Unit    string   `json:"unit,omitempty"`
	Kind    Kind     `json:"kind"`
	Options []string `json:"options,omitempty"`
}

func sensor(key, name, unit string) Descriptor {
	return Descriptor{Key: key, Name: name, Unit: unit, Kind: KindSensor}
}

func window(key, name string) Descriptor {
	return Descriptor{Key: key, Name: name, Kind: KindBinarySensor}
}

// Catalog lists every field the bridge can report, in display order.
var Catalog = []Descriptor{
	{
		Key:     payload.KeyCarStatus,
		Name:    "Car Status",
		Kind:    KindEnum,
		Options: statusOptions(),
	},
	{Key: payload.KeyChargeTime, Name: "Last Charge Timestamp", Kind: KindTimestamp},
	{Key: payload.KeyDetectionTime, Name: "Detection Timestamp", Kind: KindTimestamp},
	sensor(payload.KeyMileageKm, "Total Mileage", "km"),
	sensor(payload.KeyRemainingRangeKm, "Remaining Range", "km"),
	sensor(payload.KeyBatteryHealth, "Battery Health", "%"),
	sensor(payload.KeyBatteryPercentReport, "Status Report Battery Level", "%"),
	sensor(payload.KeyBatteryEnergyKWhReport, "Status Report Energy", "kWh"),
	sensor(payload.KeyConsumptionKWh50Km, "Energy Consumption (50km)", "kWh/50km"),
	sensor(payload.KeyExternalTemperatureCelsius, "External Temperature", "°C"),
	sensor(payload.KeyFanSpeed, "A/C Fan Level", ""),

	sensor(payload.KeyStartBatteryPct, "Charge Start Battery Level", "%"),
	sensor(payload.KeyEndBatteryPct, "Charge End Battery Level", "%"),
	sensor(payload.KeyChargeAmountPct, "Charged Amount", "%"),
	sensor(payload.KeyChargeAmountKWhTotal, "Charged Energy", "kWh"),
	sensor(payload.KeyChargeDistanceKm, "Charged Range", "km"),

	sensor(payload.KeyTPMSLeftFront, "Tire Pressure Left Front", "kPa"),
	sensor(payload.KeyTPMSRightFront, "Tire Pressure Right Front", "kPa"),
	sensor(payload.KeyTPMSLeftRear, "Tire Pressure Left Rear", "kPa"),
	sensor(payload.KeyTPMSRightRear, "Tire Pressure Right Rear", "kPa"),
	sensor(payload.KeyTireTempLeftFront, "Tire Temp Left Front", "°C"),
	sensor(payload.KeyTireTempRightFront, "Tire Temp Right Front", "°C"),
	sensor(payload.KeyTireTempLeftRear, "Tire Temp Left Rear", "°C"),
	sensor(payload.KeyTireTempRightRear, "Tire Temp Right Rear", "°C"),

	window(payload.KeyWindowLeftFrontOpen, "Window Left Front Open"),
	window(payload.KeyWindowRightFrontOpen, "Window Right Front Open"),
	window(payload.KeyWindowLeftRearOpen, "Window Left Rear Open"),
	window(payload.KeyWindowRightRearOpen, "Window Right Rear Open"),
	window(payload.KeySunroofOpen, "Sunroof Panel Open"),

	sensor(payload.KeySpeedKmh, "Vehicle Speed", "km/h"),
	sensor(payload.KeyBatteryPercent, "Battery Level", "%"),
	sensor(payload.KeyBatteryEnergyKWhNow, "Current Battery Energy", "kWh"),
}

var byKey = func() map[string]Descriptor {
	m := make(map[string]Descriptor, len(Catalog))
	for _, d := range Catalog {
		m[d.Key] = d
	}
	return m
}()

// Lookup returns the descriptor of key.
func Lookup(key string) (Descriptor, bool) {
	d, ok := byKey[key]
	return d, ok
}

func statusOptions() []string {
	out := make([]string, len(payload.Statuses))
	for i, s := range payload.Statuses {
		out[i] = s.String()
	}
	return out
}
