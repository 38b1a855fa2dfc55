package batterytwin

import "time"

// A SensorSnapshot is a single telemetry reading from a vehicle's battery
// management system. It is the only input to the twin engine.
//
// All measurement fields are pointers so that a reading may omit any of them:
// a nil field leaves the corresponding twin state untouched on update, and
// falls back to a sane default on first observation (400 V, 0 A, 25 degC,
// 50% SOC, 100% SOH, 0 cycles).
//
// The transport layer is responsible for validating ranges before handing a
// snapshot to the engine: voltage in [200, 450] V, current in [-200, 200] A,
// temperature in [-40, 80] degC, soc and soh in [0, 100] %, cycle count >= 0,
// charging rate in [0, 350] kW, ambient temperature in [-40, 50] degC,
// humidity in [0, 100] %. The engine additionally clamps every input to its
// physical range before use, so a malformed value cannot corrupt the twin.
type SensorSnapshot struct {
	VehicleID string
	// The time the reading was taken. The zero value means "now" as far as the
	// engine is concerned; it stamps history records with its own clock.
	Timestamp time.Time

	BatteryVoltage *float64 // V
	BatteryCurrent *float64 // A; negative values indicate discharge
	Temperature    *float64 // degC, pack temperature
	SOC            *float64 // %, state of charge
	SOH            *float64 // %, state of health
	CycleCount     *int     // completed charge cycles

	ChargingRate       *float64 // kW, optional
	AmbientTemperature *float64 // degC, optional
	Humidity           *float64 // %, optional
}

// Defaults used to seed a twin when the first observed snapshot omits fields.
const (
	defaultVoltage     = 400.0 // V
	defaultCurrent     = 0.0   // A
	defaultTemperature = 25.0  // degC
	defaultSOC         = 50.0  // %
	defaultSOH         = 100.0 // %
)

// voltage returns the snapshot's voltage, or the given fallback when absent.
func (s SensorSnapshot) voltage(fallback float64) float64 {
	if s.BatteryVoltage == nil {
		return fallback
	}
	return clamp(*s.BatteryVoltage, 200, 450)
}

func (s SensorSnapshot) current(fallback float64) float64 {
	if s.BatteryCurrent == nil {
		return fallback
	}
	return clamp(*s.BatteryCurrent, -200, 200)
}

func (s SensorSnapshot) temperature(fallback float64) float64 {
	if s.Temperature == nil {
		return fallback
	}
	return clamp(*s.Temperature, -40, 80)
}

func (s SensorSnapshot) soc(fallback float64) float64 {
	if s.SOC == nil {
		return fallback
	}
	return clamp(*s.SOC, 0, 100)
}

func (s SensorSnapshot) soh(fallback float64) float64 {
	if s.SOH == nil {
		return fallback
	}
	return clamp(*s.SOH, 0, 100)
}

func (s SensorSnapshot) cycleCount(fallback int) int {
	if s.CycleCount == nil {
		return fallback
	}
	if *s.CycleCount < 0 {
		return 0
	}
	return *s.CycleCount
}

// clamp bounds v to the closed interval [lo, hi].
//
// Every model input passes through clamp before use and every model output
// passes through clamp after computation. This ordering is deliberate: inputs
// are sanitised to their physical ranges so that no intermediate term can
// divide by zero or overflow a bound, and outputs are bounded last so that a
// law near its cap saturates instead of spilling over.
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
