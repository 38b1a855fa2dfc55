package batterytwin

// A RecommendationCategory groups maintenance recommendations by the concern
// they address. The aging-mitigation categories are the explicit, named
// subset that feeds the life-extension estimate; membership is declared here
// rather than inferred from message text.
type RecommendationCategory string

const (
	CategoryThermal     RecommendationCategory = "thermal"
	CategoryCharging    RecommendationCategory = "charging"
	CategoryChemistry   RecommendationCategory = "chemistry"
	CategoryMaintenance RecommendationCategory = "maintenance"
	CategoryStatus      RecommendationCategory = "status"
)

// A Recommendation is one actionable maintenance measure emitted for a twin.
type Recommendation struct {
	Message  string
	Category RecommendationCategory
	// AgingMitigation marks measures that slow irreversible degradation when
	// followed; only these count towards the life-extension estimate.
	AgingMitigation bool
}

// A recommendationRule pairs a predicate over twin state with the measure to
// emit when it fires. Rules are evaluated independently in declaration order
// and are not mutually exclusive - any number of them can fire for one
// update. New rules are appended without touching existing ones.
type recommendationRule struct {
	applies        func(state TwinState, risk FailureRisk) bool
	recommendation Recommendation
}

var recommendationRules = []recommendationRule{
	{
		applies: func(s TwinState, _ FailureRisk) bool { return s.ThermalRunawayRisk > 0.3 },
		recommendation: Recommendation{
			Message:         "Activate active cooling to reduce thermal runaway risk",
			Category:        CategoryThermal,
			AgingMitigation: true,
		},
	},
	{
		applies: func(s TwinState, _ FailureRisk) bool { return s.DendriteGrowth > 0.2 },
		recommendation: Recommendation{
			Message:         "Reduce fast-charging frequency to slow dendrite growth",
			Category:        CategoryCharging,
			AgingMitigation: true,
		},
	},
	{
		applies: func(s TwinState, _ FailureRisk) bool { return s.ElectrolyteDegradation > 0.3 },
		recommendation: Recommendation{
			Message:         "Schedule electrolyte analysis at next service",
			Category:        CategoryChemistry,
			AgingMitigation: false,
		},
	},
	{
		applies: func(s TwinState, _ FailureRisk) bool { return s.InternalResistance > 0.15 },
		recommendation: Recommendation{
			Message:         "Optimize charging profile to compensate for increased internal resistance",
			Category:        CategoryCharging,
			AgingMitigation: true,
		},
	},
	{
		applies: func(_ TwinState, r FailureRisk) bool { return r.Within24Hours > 0.05 },
		recommendation: Recommendation{
			Message:         "Immediate inspection recommended: elevated short-term failure probability",
			Category:        CategoryMaintenance,
			AgingMitigation: false,
		},
	},
	{
		applies: func(s TwinState, _ FailureRisk) bool { return s.SOH < 80 },
		recommendation: Recommendation{
			Message:         "Begin replacement planning: state of health below 80%",
			Category:        CategoryMaintenance,
			AgingMitigation: false,
		},
	},
	{
		applies: func(s TwinState, _ FailureRisk) bool { return s.Temperature > 35 },
		recommendation: Recommendation{
			Message:         "Activate thermal management: pack temperature above 35 degC",
			Category:        CategoryThermal,
			AgingMitigation: true,
		},
	},
}

// normalOperation is emitted alone when no rule fires.
var normalOperation = Recommendation{
	Message:  "Battery operating within normal parameters",
	Category: CategoryStatus,
}

// FailureRisk buckets the aggregated failure probability by time window. Each
// bucket carries its own independent cap, chosen so that a longer window
// never reports a lower probability than a shorter one for the same
// underlying risk.
type FailureRisk struct {
	// BaseRisk is the mean of the three latent risk parameters: thermal
	// runaway risk, dendrite growth and electrolyte degradation.
	BaseRisk      float64
	Within24Hours float64 // capped at 0.1
	Within7Days   float64 // capped at 0.3
	Within30Days  float64 // capped at 0.5
}

// failureRisk aggregates the twin's latent risk parameters into time-bucketed
// failure probabilities.
func failureRisk(state TwinState) FailureRisk {
	base := (state.ThermalRunawayRisk + state.DendriteGrowth + state.ElectrolyteDegradation) / 3
	return FailureRisk{
		BaseRisk:      round(base, 4),
		Within24Hours: round(minf(base*0.1, 0.1), 4),
		Within7Days:   round(minf(base*0.3, 0.3), 4),
		Within30Days:  round(minf(base*0.6, 0.5), 4),
	}
}

// recommend evaluates every rule against the state and returns the measures
// that fired, in rule order. When nothing fires, the single "operating
// normally" recommendation is returned instead of an empty list.
func recommend(state TwinState, risk FailureRisk) []Recommendation {
	var out []Recommendation
	for _, rule := range recommendationRules {
		if rule.applies(state, risk) {
			out = append(out, rule.recommendation)
		}
	}
	if len(out) == 0 {
		out = append(out, normalOperation)
	}
	return out
}

// LifeExtension estimates how much usable life remains and how much of it
// maintenance measures could recover. These figures are advisory planning
// estimates derived from fixed business constants (see AdvisoryConstants),
// not physical predictions.
type LifeExtension struct {
	RemainingLifeYears      float64
	LifeExtensionYears      float64
	OptimizedRemainingYears float64
	FailureReductionPercent float64
}

// lifeExtension computes the advisory life-extension metrics. The
// optimization factor scales with the number of aging-mitigation measures
// currently recommended.
func lifeExtension(state TwinState, recommendations []Recommendation, advisory AdvisoryConstants) LifeExtension {
	remaining := advisory.RatedLifetimeYears * (1 - state.CapacityFade)

	mitigations := 0
	for _, r := range recommendations {
		if r.AgingMitigation {
			mitigations++
		}
	}
	factor := advisory.MitigationFactor * float64(mitigations)

	return LifeExtension{
		RemainingLifeYears:      round(remaining, 2),
		LifeExtensionYears:      round(remaining*factor, 2),
		OptimizedRemainingYears: round(remaining*(1+advisory.OptimizedUplift), 2),
		FailureReductionPercent: advisory.FailureReductionPercent,
	}
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
