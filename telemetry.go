package batterytwin

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("github.com/go-batterytwin/go-batterytwin")
var meter = otel.Meter("github.com/go-batterytwin/go-batterytwin")

const (
	// updateOutcome is the attribute key used to associate each record with
	// the lifecycle outcome of the update (created or updated). This enables
	// both collective examination across all updates and individual analysis
	// of first-touch versus steady-state aging.
	updateOutcome = "twin.outcome"
)

var (
	// updateDuration measures the duration of a single twin update, including
	// the parameter models, the store round-trip and response assembly.
	//
	// Each record is associated with the updateOutcome.
	updateDuration metric.Float64Histogram
	// updateFailures measures the number of twin updates that have failed.
	//
	// Each record is associated with the updateOutcome.
	updateFailures metric.Int64Counter
	// twinCreations counts twins created on first observation of a vehicle.
	twinCreations metric.Int64Counter
)

func init() {
	var err error
	updateDuration, err = meter.Float64Histogram(
		"twin.update.duration",
		metric.WithDescription("The duration of a single twin update, including the parameter models, the store round-trip and response assembly."),
		metric.WithUnit("ms"),
	)
	if err != nil {
		panic("batterytwin: failed to init 'twin.update.duration' instrument")
	}

	updateFailures, err = meter.Int64Counter(
		"twin.update.failures",
		metric.WithDescription("The number of twin updates that have failed."),
	)
	if err != nil {
		panic("batterytwin: failed to init 'twin.update.failures' instrument")
	}

	twinCreations, err = meter.Int64Counter(
		"twin.creations",
		metric.WithDescription("The number of twins created on first observation of a vehicle."),
	)
	if err != nil {
		panic("batterytwin: failed to init 'twin.creations' instrument")
	}
}

// measureUpdate measures a twin update using the updateDuration and
// updateFailures instruments. If the update succeeded, we record its
// duration. If it failed, we increment the failure counter.
//
// Each record is labeled with the update's lifecycle outcome so first-touch
// creations can be analysed separately from steady-state aging.
//
// According to [metric] documentation, [metric.WithAttributeSet] should be
// used instead of [metric.WithAttributes] for performance optimization.
func measureUpdate(ctx context.Context, outcome Outcome, succeeded bool, d time.Duration) {
	attrs := attribute.NewSet(attribute.String(updateOutcome, outcome.String()))
	if succeeded {
		// We use floating-point division here for higher precision (instead
		// of the Millisecond method).
		duration := float64(d) / float64(time.Millisecond)
		updateDuration.Record(ctx, duration, metric.WithAttributeSet(attrs))
	} else {
		updateFailures.Add(ctx, 1, metric.WithAttributeSet(attrs))
	}
}

// measureCreation counts a first-touch twin creation.
func measureCreation(ctx context.Context) {
	twinCreations.Add(ctx, 1)
}
