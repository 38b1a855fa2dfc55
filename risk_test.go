package batterytwin

import (
	"strings"
	"testing"
)

func TestRiskBucketOrdering(t *testing.T) {
	// For fixed state, the failure probability must never shrink as the
	// window grows, whatever the underlying risk level.
	for _, base := range []float64{0, 0.01, 0.2, 0.5, 0.9, 1} {
		state := TwinState{
			ThermalRunawayRisk:     base,
			DendriteGrowth:         base,
			ElectrolyteDegradation: base,
		}
		risk := failureRisk(state)
		if risk.Within24Hours > risk.Within7Days || risk.Within7Days > risk.Within30Days {
			t.Errorf("base %v: buckets out of order: 24h=%v 7d=%v 30d=%v",
				base, risk.Within24Hours, risk.Within7Days, risk.Within30Days)
		}
	}
}

func TestRiskBucketCaps(t *testing.T) {
	// Saturated latent risk pins every bucket at its own cap.
	state := TwinState{ThermalRunawayRisk: 1, DendriteGrowth: 1, ElectrolyteDegradation: 1}
	risk := failureRisk(state)

	if risk.BaseRisk != 1 {
		t.Errorf("BaseRisk = %v, want 1", risk.BaseRisk)
	}
	if risk.Within24Hours != 0.1 {
		t.Errorf("Within24Hours = %v, want cap 0.1", risk.Within24Hours)
	}
	if risk.Within7Days != 0.3 {
		t.Errorf("Within7Days = %v, want cap 0.3", risk.Within7Days)
	}
	if risk.Within30Days != 0.5 {
		t.Errorf("Within30Days = %v, want cap 0.5", risk.Within30Days)
	}
}

func TestBaseRiskIsMeanOfLatentRisks(t *testing.T) {
	state := TwinState{ThermalRunawayRisk: 0.3, DendriteGrowth: 0.15, ElectrolyteDegradation: 0.45}
	if got := failureRisk(state).BaseRisk; got != 0.3 {
		t.Errorf("BaseRisk = %v, want 0.3 (mean of 0.3, 0.15, 0.45)", got)
	}
}

func TestRecommendationsForHealthyPack(t *testing.T) {
	state := TwinState{SOH: 100, Temperature: 25, InternalResistance: 0.05}
	got := recommend(state, failureRisk(state))
	if len(got) != 1 {
		t.Fatalf("healthy pack got %d recommendations, want the single normal-operation notice", len(got))
	}
	if got[0].Category != CategoryStatus {
		t.Errorf("healthy pack recommendation category = %v, want %v", got[0].Category, CategoryStatus)
	}
}

func TestRecommendationRulesFireIndependently(t *testing.T) {
	// A pack in trouble on every front fires every rule; the rules are not
	// mutually exclusive.
	state := TwinState{
		SOH:                    75,  // below replacement-planning threshold
		Temperature:            40,  // above thermal-management threshold
		InternalResistance:     0.2, // above charging-profile threshold
		ThermalRunawayRisk:     0.9, // above cooling threshold
		DendriteGrowth:         0.6, // above fast-charge threshold
		ElectrolyteDegradation: 0.7, // above analysis threshold
	}
	risk := failureRisk(state) // 24h bucket saturates well above 0.05

	got := recommend(state, risk)
	if len(got) != len(recommendationRules) {
		t.Fatalf("got %d recommendations, want all %d rules to fire", len(got), len(recommendationRules))
	}
	for _, r := range got {
		if r.Category == CategoryStatus {
			t.Errorf("normal-operation notice emitted alongside %d firing rules", len(got))
		}
	}
}

func TestRecommendationForShortTermRisk(t *testing.T) {
	// Elevated 24 hour failure probability triggers the immediate inspection
	// measure on top of the latent-parameter rules.
	state := TwinState{SOH: 95, Temperature: 25, ThermalRunawayRisk: 0.9, DendriteGrowth: 0.5, ElectrolyteDegradation: 0.5}
	risk := failureRisk(state)
	if risk.Within24Hours <= 0.05 {
		t.Fatalf("test fixture too mild: Within24Hours = %v", risk.Within24Hours)
	}

	var found bool
	for _, r := range recommend(state, risk) {
		if strings.Contains(r.Message, "inspection") {
			found = true
		}
	}
	if !found {
		t.Error("no inspection recommendation despite elevated short-term failure probability")
	}
}

func TestLifeExtensionEstimate(t *testing.T) {
	state := TwinState{CapacityFade: 0.25}
	mitigations := []Recommendation{
		{Message: "a", AgingMitigation: true},
		{Message: "b", AgingMitigation: true},
		{Message: "c", AgingMitigation: false},
	}

	got := lifeExtension(state, mitigations, DefaultAdvisoryConstants)

	if got.RemainingLifeYears != 6 {
		t.Errorf("RemainingLifeYears = %v, want 6 (8 x 0.75)", got.RemainingLifeYears)
	}
	// Two of the three recommendations mitigate aging: 2 x 5% of 6 years.
	if got.LifeExtensionYears != 0.6 {
		t.Errorf("LifeExtensionYears = %v, want 0.6", got.LifeExtensionYears)
	}
	if got.OptimizedRemainingYears != 7.5 {
		t.Errorf("OptimizedRemainingYears = %v, want 7.5 (6 x 1.25)", got.OptimizedRemainingYears)
	}
	if got.FailureReductionPercent != 30 {
		t.Errorf("FailureReductionPercent = %v, want the advisory constant 30", got.FailureReductionPercent)
	}
}

func TestLifeExtensionCustomAdvisoryConstants(t *testing.T) {
	advisory := AdvisoryConstants{
		RatedLifetimeYears:      10,
		MitigationFactor:        0.1,
		OptimizedUplift:         0.5,
		FailureReductionPercent: 12,
	}
	got := lifeExtension(TwinState{CapacityFade: 0.5}, []Recommendation{{AgingMitigation: true}}, advisory)

	if got.RemainingLifeYears != 5 {
		t.Errorf("RemainingLifeYears = %v, want 5", got.RemainingLifeYears)
	}
	if got.LifeExtensionYears != 0.5 {
		t.Errorf("LifeExtensionYears = %v, want 0.5", got.LifeExtensionYears)
	}
	if got.OptimizedRemainingYears != 7.5 {
		t.Errorf("OptimizedRemainingYears = %v, want 7.5", got.OptimizedRemainingYears)
	}
	if got.FailureReductionPercent != 12 {
		t.Errorf("FailureReductionPercent = %v, want 12", got.FailureReductionPercent)
	}
}

func TestAgingMitigationSubsetIsExplicit(t *testing.T) {
	// The aging-mitigation subset is declared on the rules, not inferred
	// from message text. At least one rule must be in it and at least one
	// out of it, otherwise the optimization factor degenerates.
	var in, out int
	for _, rule := range recommendationRules {
		if rule.recommendation.AgingMitigation {
			in++
		} else {
			out++
		}
	}
	if in == 0 || out == 0 {
		t.Errorf("aging-mitigation subset degenerate: %d in, %d out", in, out)
	}
}
