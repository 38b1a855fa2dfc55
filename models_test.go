package batterytwin

import (
	"math"
	"testing"
)

func TestInitializersAtNominalConditions(t *testing.T) {
	// A factory-fresh pack at rest: 25 degC, no current, half charge, full
	// health, zero cycles. Every latent stressor must start at zero.
	if got := initCapacityFade(0, 25); got != 0 {
		t.Errorf("initCapacityFade(0, 25) = %v, want 0", got)
	}
	if got := thermalRunawayRisk(25, 0, 50); got != 0 {
		t.Errorf("thermalRunawayRisk(25, 0, 50) = %v, want 0", got)
	}
	if got := initDendriteGrowth(0, 25, 0); got != 0 {
		t.Errorf("initDendriteGrowth(0, 25, 0) = %v, want 0", got)
	}
	if got := initResistance(25, 100); got != baseResistance {
		t.Errorf("initResistance(25, 100) = %v, want %v", got, baseResistance)
	}
}

func TestInitResistanceRespondsToColdAndHealth(t *testing.T) {
	nominal := initResistance(25, 100)
	if cold := initResistance(-10, 100); cold <= nominal {
		t.Errorf("initResistance(-10, 100) = %v, want > %v (cold packs resist more)", cold, nominal)
	}
	if degraded := initResistance(25, 70); degraded <= nominal {
		t.Errorf("initResistance(25, 70) = %v, want > %v (degraded packs resist more)", degraded, nominal)
	}
	// Even absurdly hot readings must not drive resistance to zero or below.
	if got := initResistance(80, 100); got <= 0 {
		t.Errorf("initResistance(80, 100) = %v, want > 0", got)
	}
}

func TestUpdateResistanceNeverDecreases(t *testing.T) {
	prior := 0.08
	for _, temperature := range []float64{-20, 0, 25, 45, 80} {
		if got := updateResistance(prior, 0.2, temperature); got < prior {
			t.Errorf("updateResistance(%v, 0.2, %v) = %v, want >= prior", prior, temperature, got)
		}
	}
}

func TestCapacityFadeCaps(t *testing.T) {
	// A pack reported with an enormous cycle count still seeds below the
	// initial cap.
	if got := initCapacityFade(1_000_000, 25); got != initialFadeCap {
		t.Errorf("initCapacityFade(1e6, 25) = %v, want cap %v", got, initialFadeCap)
	}
	// Aging from just below the lifetime cap saturates at the cap.
	if got := updateCapacityFade(lifetimeFadeCap, 80, 200); got != lifetimeFadeCap {
		t.Errorf("updateCapacityFade(cap, 80, 200) = %v, want cap %v", got, lifetimeFadeCap)
	}
}

func TestMonotonicAgingAcrossUpdates(t *testing.T) {
	// Drive one twin's latent parameters through a varied duty cycle and
	// check the irreversible ones never decrease.
	type reading struct{ temperature, current, voltage float64 }
	readings := []reading{
		{25, 0, 400},
		{45, 150, 410},
		{-5, 80, 395},
		{60, -120, 420},
		{10, 55, 380},
		{25, 0, 400},
	}

	fade, dendrite, electrolyte := 0.01, 0.05, 0.02
	for i, r := range readings {
		nextFade := updateCapacityFade(fade, r.temperature, r.current)
		nextDendrite := updateDendriteGrowth(dendrite, r.current, r.temperature)
		nextElectrolyte := updateElectrolyteDegradation(electrolyte, r.temperature, r.voltage)

		if nextFade < fade {
			t.Errorf("reading %d: capacity fade decreased %v -> %v", i, fade, nextFade)
		}
		if nextDendrite < dendrite {
			t.Errorf("reading %d: dendrite growth decreased %v -> %v", i, dendrite, nextDendrite)
		}
		if nextElectrolyte < electrolyte {
			t.Errorf("reading %d: electrolyte degradation decreased %v -> %v", i, electrolyte, nextElectrolyte)
		}
		if nextFade < 0 || nextFade > lifetimeFadeCap {
			t.Errorf("reading %d: capacity fade %v out of [0, %v]", i, nextFade, lifetimeFadeCap)
		}
		if nextDendrite < 0 || nextDendrite > 1 {
			t.Errorf("reading %d: dendrite growth %v out of [0, 1]", i, nextDendrite)
		}
		if nextElectrolyte < 0 || nextElectrolyte > 1 {
			t.Errorf("reading %d: electrolyte degradation %v out of [0, 1]", i, nextElectrolyte)
		}
		fade, dendrite, electrolyte = nextFade, nextDendrite, nextElectrolyte
	}
}

func TestThermalRunawayRiskBounds(t *testing.T) {
	// Worst case on every term saturates at 1.0, never beyond.
	if got := thermalRunawayRisk(80, 200, 100); got > 1 {
		t.Errorf("thermalRunawayRisk(80, 200, 100) = %v, want <= 1", got)
	}
	// Discharge current stresses the pack just as charge current does.
	charge := thermalRunawayRisk(25, 150, 50)
	discharge := thermalRunawayRisk(25, -150, 50)
	if charge != discharge {
		t.Errorf("thermalRunawayRisk asymmetric in current sign: %v vs %v", charge, discharge)
	}
}

func TestDendriteGrowthFastChargeThreshold(t *testing.T) {
	const prior = 0.1

	// At or below the fast-charge threshold, two consecutive updates leave
	// dendrite growth exactly unchanged.
	for _, amps := range []float64{0, 25, fastChargeThreshold} {
		if got := updateDendriteGrowth(prior, amps, 25); got != prior {
			t.Errorf("updateDendriteGrowth(%v, %v A, 25) = %v, want unchanged %v", prior, amps, got, prior)
		}
	}

	// Above the threshold growth resumes.
	warm := updateDendriteGrowth(prior, 120, 25)
	if warm <= prior {
		t.Errorf("updateDendriteGrowth(%v, 120 A, 25) = %v, want > prior", prior, warm)
	}

	// The same fast charge in the cold plates twice as much lithium.
	cold := updateDendriteGrowth(prior, 120, 10)
	if diff := (cold - prior) - 2*(warm-prior); math.Abs(diff) > 1e-12 {
		t.Errorf("cold increment = %v, want exactly double the warm increment %v", cold-prior, warm-prior)
	}
}

func TestPowerFadeDerivation(t *testing.T) {
	const fade = 0.2
	if got := powerFade(fade, OutcomeCreated); got != fade*powerFadeInitialFactor {
		t.Errorf("powerFade(%v, created) = %v, want %v", fade, got, fade*powerFadeInitialFactor)
	}
	if got := powerFade(fade, OutcomeUpdated); got != fade*powerFadeAgedFactor {
		t.Errorf("powerFade(%v, updated) = %v, want %v", fade, got, fade*powerFadeAgedFactor)
	}
}

func TestElectrolyteDegradationVoltageStress(t *testing.T) {
	// Above the onset voltage the increment grows with over-voltage.
	low := updateElectrolyteDegradation(0.1, 25, 380)
	high := updateElectrolyteDegradation(0.1, 25, 450)
	if high <= low {
		t.Errorf("over-voltage increment %v not above baseline %v", high-0.1, low-0.1)
	}
	// Below the onset voltage there is no voltage stress, but heat still
	// degrades the electrolyte.
	if got := updateElectrolyteDegradation(0.1, 25, 300); got <= 0.1 {
		t.Errorf("updateElectrolyteDegradation(0.1, 25, 300) = %v, want > prior", got)
	}
}
