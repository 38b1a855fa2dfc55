package batterytwin

import (
	"math"
	"time"
)

// A TwinResponse is the engine's single externally visible output structure,
// assembled after every update. Serialization is the transport layer's
// concern; the engine only fixes the structure and the field-level rounding.
type TwinResponse struct {
	VehicleID string
	TwinID    string
	Outcome   Outcome
	Timestamp time.Time

	RealTimeReplica      RealTimeReplica
	PredictiveAnalytics  map[string]ForecastPoint
	FailurePrevention    FailureRisk
	LifeExtensionMetrics LifeExtension
	Recommendations      []Recommendation

	// Confidence scores the response as a whole, bounded to [0.92, 0.98]. It
	// represents aggregate model confidence and is independent of the
	// per-horizon forecast confidence.
	Confidence float64
}

// RealTimeReplica is the rounded snapshot of current twin state included in
// every response.
type RealTimeReplica struct {
	Voltage                float64 // V, 1 decimal
	Current                float64 // A, 1 decimal
	Temperature            float64 // degC, 1 decimal
	SOC                    float64 // %, 1 decimal
	SOH                    float64 // %, 2 decimals
	InternalResistance     float64 // Ohm, 4 decimals
	CapacityFade           float64 // 4 decimals
	PowerFade              float64 // 4 decimals
	ThermalRunawayRisk     float64 // 4 decimals
	DendriteGrowth         float64 // 4 decimals
	ElectrolyteDegradation float64 // 4 decimals
	// PowerCapability is the instantaneous deliverable power, in kW.
	PowerCapability float64
}

// assembleResponse packages real-time state, forecast, risk and
// recommendations into a TwinResponse. It is a pure function of its inputs
// apart from the forecast temperature noise drawn from the engine's random
// source.
func (e *Engine) assembleResponse(vehicleID string, state TwinState, outcome Outcome) TwinResponse {
	risk := failureRisk(state)
	recommendations := recommend(state, risk)

	return TwinResponse{
		VehicleID:            vehicleID,
		TwinID:               state.TwinID(),
		Outcome:              outcome,
		Timestamp:            e.now().UTC(),
		RealTimeReplica:      replicate(state),
		PredictiveAnalytics:  forecast(state, e.noise),
		FailurePrevention:    risk,
		LifeExtensionMetrics: lifeExtension(state, recommendations, e.advisory),
		Recommendations:      recommendations,
		Confidence:           responseConfidence(risk),
	}
}

func replicate(state TwinState) RealTimeReplica {
	return RealTimeReplica{
		Voltage:                round(state.Voltage, 1),
		Current:                round(state.Current, 1),
		Temperature:            round(state.Temperature, 1),
		SOC:                    round(state.SOC, 1),
		SOH:                    round(state.SOH, 2),
		InternalResistance:     round(state.InternalResistance, 4),
		CapacityFade:           round(state.CapacityFade, 4),
		PowerFade:              round(state.PowerFade, 4),
		ThermalRunawayRisk:     round(state.ThermalRunawayRisk, 4),
		DendriteGrowth:         round(state.DendriteGrowth, 4),
		ElectrolyteDegradation: round(state.ElectrolyteDegradation, 4),
		PowerCapability:        round(state.Voltage*state.Current/1000, 2),
	}
}

// responseConfidence scores aggregate model confidence: a riskier pack is a
// pack the models are less certain about. The score is bounded to
// [0.92, 0.98] by construction and involves no randomness.
func responseConfidence(risk FailureRisk) float64 {
	return round(0.98-0.06*clamp(risk.BaseRisk, 0, 1), 4)
}

// round keeps the given number of decimal places. Output rounding is for
// presentation stability only and is not load-bearing for correctness.
func round(v float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	return math.Round(v*scale) / scale
}
