package batterytwin

import (
	"sort"
	"strconv"
)

// hoursPerYear annualises per-update degradation rates for extrapolation.
const hoursPerYear = 8760

// ForecastHorizons are the fixed look-ahead windows, in hours, at which the
// engine projects twin state: one hour, one day, one week and one month.
var ForecastHorizons = []int{1, 24, 168, 720}

// A ForecastPoint is the projected battery state at a single horizon.
type ForecastPoint struct {
	HorizonHours int
	// PredictedSOH extrapolates state of health linearly against the
	// annualised capacity-fade rate, floored at 50%.
	PredictedSOH float64
	// PredictedResistance extrapolates internal resistance growth linearly.
	PredictedResistance float64
	// PredictedTemperature is the current temperature plus a small bounded
	// perturbation representing forecast uncertainty. The one-hour horizon
	// carries no perturbation.
	PredictedTemperature float64
	// Confidence decreases monotonically with horizon length, floored at 0.7.
	Confidence float64
}

// forecast projects the given state across all ForecastHorizons. It is
// read-only with respect to the state: the TwinState is received by value and
// never written back.
//
// The temperature perturbation is the only non-deterministic draw in the
// entire engine; it comes from the injected noise source (uniform in [0, 1))
// and never influences PredictedSOH or PredictedResistance.
func forecast(state TwinState, noise func() float64) map[string]ForecastPoint {
	points := make(map[string]ForecastPoint, len(ForecastHorizons))
	for _, h := range ForecastHorizons {
		points[horizonLabel(h)] = forecastAt(state, h, noise)
	}
	return points
}

func forecastAt(state TwinState, horizonHours int, noise func() float64) ForecastPoint {
	years := float64(horizonHours) / hoursPerYear

	soh := state.SOH - state.CapacityFade*years*100
	if soh < 50 {
		soh = 50
	}

	resistance := state.InternalResistance * (1 + years*0.1)

	// The nearest horizon reports the measured temperature verbatim; farther
	// horizons add bounded noise proportional to the horizon length.
	temperature := state.Temperature
	if horizonHours > 1 {
		spread := 2 * float64(horizonHours) / 720 // up to +-2 degC at one month
		temperature += (noise()*2 - 1) * spread
	}

	confidence := 0.95 - float64(horizonHours)/720*0.2
	if confidence < 0.7 {
		confidence = 0.7
	}

	return ForecastPoint{
		HorizonHours:         horizonHours,
		PredictedSOH:         round(soh, 2),
		PredictedResistance:  round(resistance, 4),
		PredictedTemperature: round(temperature, 1),
		Confidence:           round(confidence, 2),
	}
}

// horizonLabel names a horizon for the predictive-analytics section of the
// response, e.g. "24h".
func horizonLabel(hours int) string {
	switch hours {
	case 1:
		return "1h"
	case 24:
		return "24h"
	case 168:
		return "7d"
	case 720:
		return "30d"
	default:
		// Horizons are fixed today; keep unknown values readable should the
		// list ever grow.
		return strconv.Itoa(hours) + "h"
	}
}

// sortedHorizonLabels returns the labels of ForecastHorizons ordered by
// horizon length, for stable iteration in tests and formatted output.
func sortedHorizonLabels() []string {
	hs := append([]int(nil), ForecastHorizons...)
	sort.Ints(hs)
	labels := make([]string, len(hs))
	for i, h := range hs {
		labels[i] = horizonLabel(h)
	}
	return labels
}
