package control

import (
	"fmt"

	"github.com/autopeer-io/carbridge/pkg/mqtt/topic"
)

// Spec describes one level actuator.
type Spec struct {
	// Name identifies the actuator in the API and metrics.
	Name string
	// Subtopic under the status topic on which the car reports the level.
	Subtopic string

	Min int
	Max int
	// Off is the level sent by TurnOff. Meaningful only when Switchable.
	Off int
	// Switchable actuators support TurnOn, TurnOff and percentages.
	Switchable bool
	// FloatStatus accepts decimal status payloads, rounded to the nearest level.
	FloatStatus bool

	// Action renders the command text for a level.
	Action func(level int) string
}

const (
	NameACFan          = "ac_fan"
	NameDriverVent     = "driver_vent"
	NamePassengerVent  = "passenger_vent"
	NameACTemperature  = "ac_temp"
	NameSunroofBlind   = "sunroof_blind"
	seatDriver         = "主驾"
	seatPassenger      = "副驾"
	sunroofBlindOpen   = "开遮阳帘"
	sunroofBlindClosed = "关遮阳帘"
)

// ACFan is the A/C blower, levels 0-7.
var ACFan = Spec{
	Name:       NameACFan,
	Subtopic:   topic.SubFanSpeed,
	Min:        0,
	Max:        7,
	Off:        0,
	Switchable: true,
	Action:     func(level int) string { return fmt.Sprintf("风量:%d", level) },
}

// ACTemperature is the A/C target temperature in °C.
var ACTemperature = Spec{
	Name:        NameACTemperature,
	Subtopic:    topic.SubACTemp,
	Min:         17,
	Max:         33,
	FloatStatus: true,
	Action:      func(level int) string { return fmt.Sprintf("温度:%d", level) },
}

// SunroofBlind is the sunroof blind position, 0 closed to 100 open.
var SunroofBlind = Spec{
	Name:       NameSunroofBlind,
	Subtopic:   topic.SubSunroofPosition,
	Min:        0,
	Max:        100,
	Off:        0,
	Switchable: true,
	Action: func(level int) string {
		switch level {
		case 100:
			return sunroofBlindOpen
		case 0:
			return sunroofBlindClosed
		}
		return fmt.Sprintf("%s%d%%", sunroofBlindOpen, level)
	},
}

// DriverVent and PassengerVent are the seat ventilation, levels 0-2.
var (
	DriverVent    = ventSpec(NameDriverVent, topic.SubDriverVent, seatDriver)
	PassengerVent = ventSpec(NamePassengerVent, topic.SubPassengerVent, seatPassenger)
)

func ventSpec(name, subtopic, seat string) Spec {
	return Spec{
		Name:       name,
		Subtopic:   subtopic,
		Min:        0,
		Max:        2,
		Off:        0,
		Switchable: true,
		Action: func(level int) string {
			switch level {
			case 0:
				return "关" + seat
			case 1:
				return seat + "通风一档"
			}
			return seat + "通风"
		},
	}
}

// Builtin returns the specs of the car, honoring the per-seat switches.
func Builtin(driverVent, passengerVent bool) []Spec {
	specs := []Spec{ACFan}
	if driverVent {
		specs = append(specs, DriverVent)
	}
	if passengerVent {
		specs = append(specs, PassengerVent)
	}
	return append(specs, ACTemperature, SunroofBlind)
}
