package neo4jstore

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("github.com/go-batterytwin/go-batterytwin/neo4jstore")
var meter = otel.Meter("github.com/go-batterytwin/go-batterytwin/neo4jstore")

var (
	// evictedObservations counts history records deleted by cap-triggered
	// eviction. A persistently high rate means the configured cap is small
	// relative to the telemetry frequency.
	evictedObservations metric.Int64Counter
)

func init() {
	// We're initiating the metric instruments on the otel meter. Encountering
	// an error during an instrument's initialisation triggers a panic. This
	// scenario should not occur; if it does, it is likely related to the
	// attributes applied on the instrument.
	var err error
	evictedObservations, err = meter.Int64Counter(
		"history_evicted_observations_counter",
		metric.WithDescription("how many history observations were deleted by cap-triggered eviction"),
	)
	if err != nil {
		s := fmt.Sprintf("neo4jstore: failed to init 'history_evicted_observations_counter' instrument: %v", err)
		panic(s)
	}
}
