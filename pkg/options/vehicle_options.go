package options

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spf13/pflag"
)

var _ IOptions = (*VehicleOptions)(nil)

const (
	MinBatteryCapacityKWh = 20.0
	MaxBatteryCapacityKWh = 100.0
)

// VehicleOptions describes the single car served by the bridge.
type VehicleOptions struct {
	// CarUniqueID is the DiLink device identifier embedded in every command.
	// Empty disables the actuators.
	CarUniqueID string `json:"car-unique-id" mapstructure:"car-unique-id"`

	// ModelName is the marketing name, with or without the "BYD " prefix.
	ModelName string `json:"model-name" mapstructure:"model-name"`

	BatteryCapacityKWh float64 `json:"battery-capacity-kwh" mapstructure:"battery-capacity-kwh"`
	MaxSpeedKmh        int     `json:"max-speed-kmh" mapstructure:"max-speed-kmh"`

	EnableDriverVent    bool `json:"enable-driver-vent" mapstructure:"enable-driver-vent"`
	EnablePassengerVent bool `json:"enable-passenger-vent" mapstructure:"enable-passenger-vent"`

	// OutputPath is where the DiLauncher automation file is written.
	OutputPath string `json:"output-path" mapstructure:"output-path"`
}

func NewVehicleOptions() *VehicleOptions {
	return &VehicleOptions{
		ModelName:           "BYD Dolphin",
		BatteryCapacityKWh:  60.48,
		MaxSpeedKmh:         300,
		EnableDriverVent:    true,
		EnablePassengerVent: true,
		OutputPath:          "dilauncher_automations.json",
	}
}

func (o *VehicleOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if o.BatteryCapacityKWh < MinBatteryCapacityKWh || o.BatteryCapacityKWh > MaxBatteryCapacityKWh {
		errors = append(errors, fmt.Errorf("--vehicle.battery-capacity-kwh %.2f must be within [%.0f, %.0f]",
			o.BatteryCapacityKWh, MinBatteryCapacityKWh, MaxBatteryCapacityKWh))
	}
	if o.modelTitle() == "" {
		errors = append(errors, fmt.Errorf("--vehicle.model-name must not be empty"))
	}
	if o.MaxSpeedKmh <= 0 {
		errors = append(errors, fmt.Errorf("--vehicle.max-speed-kmh must be positive"))
	}

	return errors
}

func (o *VehicleOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.CarUniqueID, "vehicle.car-unique-id", o.CarUniqueID, "DiLink device identifier used in commands. Empty disables actuators.")
	fs.StringVar(&o.ModelName, "vehicle.model-name", o.ModelName, "Car model name, e.g. \"BYD Dolphin\".")
	fs.Float64Var(&o.BatteryCapacityKWh, "vehicle.battery-capacity-kwh", o.BatteryCapacityKWh, "Usable battery capacity used to derive energy from SOC.")
	fs.IntVar(&o.MaxSpeedKmh, "vehicle.max-speed-kmh", o.MaxSpeedKmh, "Speed samples above this value are rejected.")
	fs.BoolVar(&o.EnableDriverVent, "vehicle.enable-driver-vent", o.EnableDriverVent, "Expose the driver seat ventilation actuator.")
	fs.BoolVar(&o.EnablePassengerVent, "vehicle.enable-passenger-vent", o.EnablePassengerVent, "Expose the passenger seat ventilation actuator.")
	fs.StringVar(&o.OutputPath, "vehicle.output-path", o.OutputPath, "Output path of the DiLauncher automation file.")
}

// DeviceName is the "BYD <Model>" prefix of every command payload.
func (o *VehicleOptions) DeviceName() string {
	return "BYD " + o.modelTitle()
}

func (o *VehicleOptions) modelTitle() string {
	name := strings.TrimSpace(o.ModelName)
	if len(name) >= 4 && strings.EqualFold(name[:4], "BYD ") {
		name = strings.TrimSpace(name[4:])
	}
	if name == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + strings.ToLower(name[size:])
}
