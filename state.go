package batterytwin

import (
	"fmt"
	"time"
)

// TwinState is the complete latent state of a single battery twin. One
// TwinState exists per vehicle and is exclusively owned by the Engine: models
// read it, the engine mutates it, and everything handed outside the engine is
// a copy.
//
// Three of the latent parameters model irreversible aging and therefore never
// decrease across updates for a given vehicle: CapacityFade, DendriteGrowth
// and ElectrolyteDegradation. PowerFade is always recomputed as a function of
// CapacityFade and is never set independently. All percentage-like fields are
// clamped to their declared ranges after every update.
type TwinState struct {
	VehicleID string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Directly observed telemetry, overwritten from each snapshot (falling
	// back per-field to the prior value when a reading omits the field).
	Voltage     float64 // V
	Current     float64 // A
	Temperature float64 // degC
	SOC         float64 // %, [0, 100]
	SOH         float64 // %, [0, 100]
	CycleCount  int

	// Derived latent health parameters.
	InternalResistance     float64 // Ohm, > 0
	CapacityFade           float64 // [0, 0.5], monotonically non-decreasing
	PowerFade              float64 // derived, ~1.2-1.3 x CapacityFade
	ThermalRunawayRisk     float64 // [0, 1], recomputed fresh each update
	DendriteGrowth         float64 // [0, 1], monotonically non-decreasing
	ElectrolyteDegradation float64 // [0, 1], monotonically non-decreasing
}

// TwinID returns the identifier of the twin, encoding the vehicle it
// represents and the moment the twin was created. The identifier is stable
// across updates because a twin is never recreated for a known vehicle.
func (s TwinState) TwinID() string {
	return fmt.Sprintf("twin-%s-%d", s.VehicleID, s.CreatedAt.UTC().Unix())
}

// A HistoricalRecord is an immutable append-only entry in a vehicle's history
// log pairing the twin state after an update with the sensor snapshot that
// produced it. The log is capped (see DefaultHistoryCap); the oldest record is
// evicted first.
type HistoricalRecord struct {
	Timestamp time.Time
	State     TwinState
	Snapshot  SensorSnapshot
}

// Outcome tags the effect an engine operation had on a twin, so callers and
// tests can distinguish first-touch behaviour from steady-state aging.
type Outcome int

const (
	// OutcomeCreated reports that the operation observed the vehicle for the
	// first time and seeded a new twin from the snapshot.
	OutcomeCreated Outcome = iota + 1
	// OutcomeUpdated reports that the operation aged an existing twin.
	OutcomeUpdated
	// OutcomeExisting reports that the operation found an existing twin and
	// left it untouched (idempotent creation).
	OutcomeExisting
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	case OutcomeExisting:
		return "existing"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}
