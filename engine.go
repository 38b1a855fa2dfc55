package batterytwin

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// An Engine is the lifecycle manager of battery twins. It creates a twin the
// first time a vehicle is observed, ages it on every subsequent observation,
// and assembles the externally visible TwinResponse from the updated state.
//
// The engine itself performs no I/O beyond the injected TwinStore and never
// blocks; each operation is a deterministic state transition (randomness is
// confined to forecast temperature noise, behind an injectable source).
//
// An Engine is safe for concurrent use across different vehicles. It provides
// no internal locking per vehicle: concurrent updates to the same vehicle
// interleave their read-modify-write cycles and must be serialized by the
// caller, e.g. by dedicating one update stream per vehicle or wrapping
// UpdateTwin calls for a vehicle in a single mutex.
type Engine struct {
	store    TwinStore
	noise    func() float64
	now      func() time.Time
	advisory AdvisoryConstants
}

// AdvisoryConstants parameterise the life-extension estimate. They are
// advisory planning figures, not outputs of the physical model: the uplift
// and failure-reduction numbers in particular are fixed business defaults
// that should be treated as configuration, never derived mathematically.
type AdvisoryConstants struct {
	// RatedLifetimeYears is the design lifetime of a healthy pack.
	RatedLifetimeYears float64
	// MitigationFactor is the remaining-life fraction recovered per
	// aging-mitigation recommendation the operator follows.
	MitigationFactor float64
	// OptimizedUplift is the fixed ceiling uplift on remaining life assuming
	// all recommendations are followed.
	OptimizedUplift float64
	// FailureReductionPercent is the fixed advisory reduction in failure
	// likelihood assuming all recommendations are followed.
	FailureReductionPercent float64
}

// DefaultAdvisoryConstants are the stock planning figures: an 8 year rated
// lifetime, 5% of remaining life recovered per mitigation measure, a 25%
// ceiling uplift and a 30% failure reduction.
var DefaultAdvisoryConstants = AdvisoryConstants{
	RatedLifetimeYears:      8,
	MitigationFactor:        0.05,
	OptimizedUplift:         0.25,
	FailureReductionPercent: 30,
}

// An Option customises an Engine at construction.
type Option func(*Engine)

// WithRand injects the random source used for forecast temperature noise.
// Inject a seeded source to make forecasts reproducible in tests.
//
// The default source is the global math/rand source, which is safe for
// concurrent use across vehicles. An injected *rand.Rand is not synchronised
// by the engine: use this option only where updates are serialized anyway,
// such as tests or a single consumer loop.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.noise = rng.Float64 }
}

// WithClock injects the time source used to stamp twin creation and history
// records. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithAdvisoryConstants replaces the stock life-extension planning figures.
func WithAdvisoryConstants(c AdvisoryConstants) Option {
	return func(e *Engine) { e.advisory = c }
}

// NewEngine returns an Engine operating on the given store.
func NewEngine(store TwinStore, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		noise:    rand.Float64,
		now:      time.Now,
		advisory: DefaultAdvisoryConstants,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateTwin allocates a twin for the vehicle, seeded from the snapshot using
// the initializer models. Missing snapshot fields fall back to sane defaults
// (400 V, 0 A, 25 degC, 50% SOC, 100% SOH, 0 cycles).
//
// CreateTwin is idempotent in effect: when a twin already exists for the
// vehicle, its state is preserved untouched and the existing twin id is
// returned with OutcomeExisting, so the call remains usable to obtain an id.
func (e *Engine) CreateTwin(ctx context.Context, vehicleID string, snapshot SensorSnapshot) (string, Outcome, error) {
	existing, err := e.store.Get(ctx, vehicleID)
	if err == nil {
		return existing.TwinID(), OutcomeExisting, nil
	}
	if !errors.Is(err, ErrTwinNotFound) {
		return "", 0, fmt.Errorf("lookup twin: %w", err)
	}

	state := e.seedTwin(vehicleID, snapshot)
	if err := e.store.Put(ctx, &state); err != nil {
		return "", 0, fmt.Errorf("store twin: %w", err)
	}
	measureCreation(ctx)
	return state.TwinID(), OutcomeCreated, nil
}

// seedTwin builds a brand-new TwinState from the first observed snapshot
// using the initializer variant of each parameter model.
func (e *Engine) seedTwin(vehicleID string, snapshot SensorSnapshot) TwinState {
	now := e.now().UTC()
	state := TwinState{
		VehicleID:   vehicleID,
		CreatedAt:   now,
		UpdatedAt:   now,
		Voltage:     snapshot.voltage(defaultVoltage),
		Current:     snapshot.current(defaultCurrent),
		Temperature: snapshot.temperature(defaultTemperature),
		SOC:         snapshot.soc(defaultSOC),
		SOH:         snapshot.soh(defaultSOH),
		CycleCount:  snapshot.cycleCount(0),
	}
	state.InternalResistance = initResistance(state.Temperature, state.SOH)
	state.CapacityFade = initCapacityFade(state.CycleCount, state.Temperature)
	state.PowerFade = powerFade(state.CapacityFade, OutcomeCreated)
	state.ThermalRunawayRisk = thermalRunawayRisk(state.Temperature, state.Current, state.SOC)
	state.DendriteGrowth = initDendriteGrowth(state.Current, state.Temperature, state.CycleCount)
	state.ElectrolyteDegradation = initElectrolyteDegradation(state.Temperature, state.Voltage, state.CycleCount)
	return state
}

// UpdateTwin digests one telemetry snapshot for the vehicle and returns the
// assembled response. If no twin exists yet, one is created first and the
// response carries OutcomeCreated; otherwise the existing twin is aged in
// place with the incremental updater models and the response carries
// OutcomeUpdated.
//
// Each update is all-or-nothing over a single vehicle's state: the aged state
// is stored, a HistoricalRecord is appended (evicting the oldest record once
// the log is full), and the response is assembled from the stored state.
func (e *Engine) UpdateTwin(ctx context.Context, vehicleID string, snapshot SensorSnapshot) (resp *TwinResponse, err error) {
	start := time.Now()
	outcome := OutcomeUpdated
	defer func() { measureUpdate(ctx, outcome, err == nil, time.Since(start)) }()

	state, err := e.store.Get(ctx, vehicleID)
	if errors.Is(err, ErrTwinNotFound) {
		seeded := e.seedTwin(vehicleID, snapshot)
		state, err, outcome = &seeded, nil, OutcomeCreated
		measureCreation(ctx)
	} else if err != nil {
		return nil, fmt.Errorf("lookup twin: %w", err)
	} else {
		e.ageTwin(state, snapshot)
	}

	if err := e.store.Put(ctx, state); err != nil {
		return nil, fmt.Errorf("store twin: %w", err)
	}
	record := HistoricalRecord{Timestamp: e.now().UTC(), State: *state, Snapshot: snapshot}
	if err := e.store.AppendHistory(ctx, record); err != nil {
		return nil, fmt.Errorf("append history: %w", err)
	}

	response := e.assembleResponse(vehicleID, *state, outcome)
	return &response, nil
}

// ageTwin applies the six incremental updater models to the state in place.
// Each updater reads only the prior state and the snapshot, so their order is
// immaterial. The directly observed fields are overwritten from the snapshot
// afterwards, falling back per-field to the prior value when absent.
func (e *Engine) ageTwin(state *TwinState, snapshot SensorSnapshot) {
	voltage := snapshot.voltage(state.Voltage)
	current := snapshot.current(state.Current)
	temperature := snapshot.temperature(state.Temperature)

	state.InternalResistance = updateResistance(state.InternalResistance, state.CapacityFade, temperature)
	state.CapacityFade = updateCapacityFade(state.CapacityFade, temperature, current)
	state.PowerFade = powerFade(state.CapacityFade, OutcomeUpdated)
	state.ThermalRunawayRisk = thermalRunawayRisk(temperature, current, snapshot.soc(state.SOC))
	state.DendriteGrowth = updateDendriteGrowth(state.DendriteGrowth, current, temperature)
	state.ElectrolyteDegradation = updateElectrolyteDegradation(state.ElectrolyteDegradation, temperature, voltage)

	state.Voltage = voltage
	state.Current = current
	state.Temperature = temperature
	state.SOC = snapshot.soc(state.SOC)
	state.SOH = snapshot.soh(state.SOH)
	state.CycleCount = snapshot.cycleCount(state.CycleCount)
	state.UpdatedAt = e.now().UTC()
}

// GetTwin returns a copy of the latest raw state for the vehicle, without
// computing forecasts or risk. Unlike UpdateTwin it is strict: an unknown
// vehicle yields ErrTwinNotFound instead of a freshly fabricated twin.
func (e *Engine) GetTwin(ctx context.Context, vehicleID string) (*TwinState, error) {
	return e.store.Get(ctx, vehicleID)
}

// HistoryLog returns the vehicle's history, oldest record first.
func (e *Engine) HistoryLog(ctx context.Context, vehicleID string) ([]HistoricalRecord, error) {
	return e.store.History(ctx, vehicleID)
}
