package payload

// Record keys. They are the public vocabulary of the bridge: HTTP clients,
// stored dashboards and automations refer to them by name.
const (
	KeyCarStatus = "car_status"

	KeyChargeTime    = "charge_time"
	KeyDetectionTime = "detection_time"

	KeyMileageKm                  = "mileage_km"
	KeyBatteryPercentReport       = "battery_percent_report"
	KeyBatteryEnergyKWhReport     = "battery_energy_kwh_report"
	KeyRemainingRangeKm           = "remaining_range_km"
	KeyBatteryHealth              = "battery_health"
	KeyConsumptionKWh50Km         = "consumption_kwh_50km"
	KeyExternalTemperatureCelsius = "external_temperature_celsius"
	KeyFanSpeed                   = "fan_speed"

	// Charging session only.
	KeyStartBatteryPct      = "start_battery_pct"
	KeyEndBatteryPct        = "end_battery_pct"
	KeyChargeAmountPct      = "charge_amount_pct"
	KeyChargeAmountKWhTotal = "charge_amount_kwh_total"
	KeyChargeDistanceKm     = "charge_distance_km"

	KeyTPMSLeftFront  = "tpms_lf_kpa"
	KeyTPMSRightFront = "tpms_rf_kpa"
	KeyTPMSLeftRear   = "tpms_lr_kpa"
	KeyTPMSRightRear  = "tpms_rr_kpa"

	KeyTireTempLeftFront  = "tt_lf_celsius"
	KeyTireTempRightFront = "tt_rf_celsius"
	KeyTireTempLeftRear   = "tt_lr_celsius"
	KeyTireTempRightRear  = "tt_rr_celsius"

	KeyWindowLeftFrontOpen  = "win_lf_open"
	KeyWindowRightFrontOpen = "win_rf_open"
	KeyWindowLeftRearOpen   = "win_lr_open"
	KeyWindowRightRearOpen  = "win_rr_open"
	KeySunroofOpen          = "sunroof_open"

	// Produced by the dedicated feeds, not by Parse.
	KeySpeedKmh            = "speed_kmh"
	KeyBatteryPercent      = "battery_percent"
	KeyBatteryEnergyKWhNow = "battery_energy_kwh_current"
)
