package batterytwin

import "math"

// This file holds the closed-form physical and empirical models that map
// telemetry onto the latent health parameters of a battery twin. Every
// quantity has two variants: an initializer that seeds a brand-new twin from
// its first snapshot, and an incremental updater that ages an existing value
// using the prior state and the new snapshot.
//
// The updaters read only the prior state and the snapshot, never another
// field computed in the same pass, so the order in which they are applied
// does not matter.
//
// Inputs are clamped to their physical ranges before use; outputs are clamped
// to their declared bounds after computation (see clamp).

// Model tuning constants. These are empirical coefficients, not first
// principles; they set the magnitude of each law while the shape of the law
// is fixed.
const (
	// Internal resistance of a healthy pack at 25 degC, in Ohm.
	baseResistance = 0.05
	// Resistance increase per degree below 25 degC (cold electrolyte).
	resistanceColdCoeff = 0.01
	// Resistance increase per percentage point of SOH below 100.
	resistanceHealthCoeff = 0.005
	// Resistance growth per unit of accumulated capacity fade.
	resistanceFadeCoeff = 0.01

	// Capacity fade accumulated per completed cycle at 25 degC.
	fadePerCycle = 1e-4
	// Capacity fade accumulated per update at 25 degC and idle current.
	fadePerUpdate = 1e-5
	// Caps: a freshly seeded twin never starts beyond 0.3; lifetime fade
	// saturates at 0.5.
	initialFadeCap  = 0.3
	lifetimeFadeCap = 0.5

	// Power fade multipliers over capacity fade. Seeding uses the optimistic
	// factor; every subsequent update uses the aged factor.
	powerFadeInitialFactor = 1.2
	powerFadeAgedFactor    = 1.3

	// Thermal-runaway risk term weights and normalisation ceilings.
	thermalOverTemp   = 40.0  // degC above which temperature contributes
	thermalTempSpan   = 40.0  // degC from onset to full contribution
	thermalCurrentCap = 200.0 // A ceiling used to normalise current
	thermalHighSOC    = 80.0  // % above which state of charge contributes
	thermalSOCSpan    = 20.0  // % from onset to full contribution
	thermalTempWeight = 0.4
	thermalAmpWeight  = 0.3
	thermalSOCWeight  = 0.3

	// Dendrite growth: lithium plating driven by fast charging, worsened by
	// cold. Currents at or below the threshold do not grow dendrites at all.
	fastChargeThreshold = 50.0 // A
	fastChargeSpan      = 150.0
	dendriteColdOnset   = 10.0 // degC, initialization cold term
	dendriteColdSpan    = 50.0
	dendritePerCycle    = 1e-4
	dendriteGrowthStep  = 1e-3
	// Below this temperature a fast-charge increment is doubled.
	dendriteColdDoubling = 15.0 // degC

	// Electrolyte degradation: heat and voltage stress.
	electrolyteVoltageOnset = 380.0 // V above which voltage stresses the electrolyte
	electrolyteVoltageSpan  = 70.0
	electrolyteCycleSpan    = 3000.0
	electrolyteTempSpan     = 55.0 // degC from 25 to the 80 ceiling
	electrolytePerUpdate    = 1e-5
)

// initResistance seeds internal resistance from pack temperature and state of
// health: cold packs and degraded packs both present higher resistance.
//
//	base x (1 + k1 x (25 - T)) x (1 + k2 x (100 - SOH))
func initResistance(temperature, soh float64) float64 {
	cold := 1 + resistanceColdCoeff*(25-temperature)
	health := 1 + resistanceHealthCoeff*(100-soh)
	r := baseResistance * cold * health
	// Extremely hot readings could drive the cold factor negative; resistance
	// is strictly positive.
	return math.Max(r, 1e-4)
}

// updateResistance ages internal resistance: it grows with accumulated
// capacity fade and with cold operation, and never decreases.
//
//	prior x (1 + k3 x capacityFade) x (1 + k1 x max(0, 25 - T))
func updateResistance(prior, capacityFade, temperature float64) float64 {
	aging := 1 + resistanceFadeCoeff*capacityFade
	cold := 1 + resistanceColdCoeff*math.Max(0, 25-temperature)
	return prior * aging * cold
}

// initCapacityFade seeds capacity fade from odometer-style cycle count with an
// Arrhenius-style temperature scaling, capped at initialFadeCap.
func initCapacityFade(cycleCount int, temperature float64) float64 {
	fade := float64(cycleCount) * fadePerCycle * math.Exp((25-temperature)/10)
	return clamp(fade, 0, initialFadeCap)
}

// updateCapacityFade accumulates fade on top of the prior value. The increment
// grows exponentially with temperature above 25 degC and linearly with current
// magnitude; it is never negative, so fade never decreases.
//
//	prior + k5 x exp((T - 25) / 10) x (1 + |I| / 100)
func updateCapacityFade(prior, temperature, current float64) float64 {
	delta := fadePerUpdate * math.Exp((temperature-25)/10) * (1 + math.Abs(current)/100)
	return clamp(prior+delta, 0, lifetimeFadeCap)
}

// powerFade derives the loss of peak power delivery from capacity fade. It is
// recomputed on every pass and never aged independently.
func powerFade(capacityFade float64, outcome Outcome) float64 {
	if outcome == OutcomeCreated {
		return capacityFade * powerFadeInitialFactor
	}
	return capacityFade * powerFadeAgedFactor
}

// thermalRunawayRisk scores the instantaneous risk of thermal runaway as a
// weighted sum of three normalised stress terms: over-temperature, high
// current relative to the pack's ceiling, and high state of charge. Unlike
// the aging parameters it is not cumulative - it is recomputed fresh from the
// current snapshot on every update.
func thermalRunawayRisk(temperature, current, soc float64) float64 {
	overTemp := clamp((temperature-thermalOverTemp)/thermalTempSpan, 0, 1)
	highAmp := clamp(math.Abs(current)/thermalCurrentCap, 0, 1)
	highSOC := clamp((soc-thermalHighSOC)/thermalSOCSpan, 0, 1)
	risk := thermalTempWeight*overTemp + thermalAmpWeight*highAmp + thermalSOCWeight*highSOC
	return clamp(risk, 0, 1)
}

// initDendriteGrowth seeds dendrite growth from the first snapshot: fast
// charging above the threshold, cold operation, and accumulated cycles all
// contribute.
func initDendriteGrowth(current, temperature float64, cycleCount int) float64 {
	fastCharge := math.Max(0, (math.Abs(current)-fastChargeThreshold)/fastChargeSpan)
	cold := math.Max(0, (dendriteColdOnset-temperature)/dendriteColdSpan)
	cycles := float64(cycleCount) * dendritePerCycle
	return clamp(fastCharge+cold+cycles, 0, 1)
}

// updateDendriteGrowth grows dendrites only while the instantaneous current
// exceeds the fast-charge threshold; the increment is doubled in the cold,
// where lithium plating is most aggressive. Below the threshold the value is
// left exactly unchanged - dendrites never recede.
func updateDendriteGrowth(prior, current, temperature float64) float64 {
	amps := math.Abs(current)
	if amps <= fastChargeThreshold {
		return prior
	}
	delta := dendriteGrowthStep * (amps - fastChargeThreshold) / fastChargeSpan
	if temperature < dendriteColdDoubling {
		delta *= 2
	}
	return clamp(prior+delta, 0, 1)
}

// initElectrolyteDegradation seeds electrolyte degradation as an
// Arrhenius-scaled average of heat, voltage-stress and cycling terms.
func initElectrolyteDegradation(temperature, voltage float64, cycleCount int) float64 {
	heat := clamp((temperature-25)/electrolyteTempSpan, 0, 1)
	voltStress := math.Max(0, (voltage-electrolyteVoltageOnset)/electrolyteVoltageSpan)
	cycles := clamp(float64(cycleCount)/electrolyteCycleSpan, 0, 1)
	avg := (heat + voltStress + cycles) / 3
	return clamp(avg*math.Exp((temperature-25)/20), 0, 1)
}

// updateElectrolyteDegradation accumulates degradation on top of the prior
// value; heat scales the increment exponentially and over-voltage scales it
// linearly. The increment is never negative, so degradation never decreases.
//
//	prior + k6 x exp((T - 25) / 20) x (1 + max(0, (V - 380) / 70))
func updateElectrolyteDegradation(prior, temperature, voltage float64) float64 {
	stress := 1 + math.Max(0, (voltage-electrolyteVoltageOnset)/electrolyteVoltageSpan)
	delta := electrolytePerUpdate * math.Exp((temperature-25)/20) * stress
	return clamp(prior+delta, 0, 1)
}
