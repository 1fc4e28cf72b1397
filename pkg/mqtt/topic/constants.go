package topic

// Subtopics published by the car next to the main status topic.
// Changing these values breaks compatibility with existing DiLauncher automations.
const (
	// SubSpeed carries the vehicle speed in km/h as decimal text.
	SubSpeed = "speed"

	// SubSOC carries the battery state of charge in percent.
	SubSOC = "SOC"

	// SubACTemp carries the A/C target temperature.
	SubACTemp = "actemp"

	// SubFanSpeed carries the A/C fan level (0-7).
	SubFanSpeed = "fanspeed"

	// SubDriverVent carries the driver seat ventilation level (0-2).
	SubDriverVent = "drivervent"

	// SubPassengerVent carries the passenger seat ventilation level (0-2).
	SubPassengerVent = "passengervent"

	// SubSunroofPosition carries the sunroof blind position (0-100).
	SubSunroofPosition = "sunroof/position"
)

// Standard MQTT wildcard definitions.
const (
	// Wildcard is the single-level wildcard "+".
	Wildcard = "+"

	// MultiWildcard is the multi-level wildcard "#".
	// It must be the last character in the topic filter.
	MultiWildcard = "#"
)
