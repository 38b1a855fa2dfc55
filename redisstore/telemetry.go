package redisstore

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var tracer = otel.Tracer("github.com/go-batterytwin/go-batterytwin/redisstore")
var meter = otel.Meter("github.com/go-batterytwin/go-batterytwin/redisstore")

var (
	// evictedRecords counts history records trimmed away by cap-triggered
	// eviction. A persistently high rate means the configured cap is small
	// relative to the telemetry frequency.
	evictedRecords metric.Int64Counter
)

func init() {
	// We're initiating the metric instruments on the otel meter. Encountering
	// an error during an instrument's initialisation triggers a panic. This
	// scenario should not occur; if it does, it is likely related to the
	// attributes applied on the instrument.
	var err error
	evictedRecords, err = meter.Int64Counter(
		"history_evicted_records_counter",
		metric.WithDescription("how many history records were trimmed by cap-triggered eviction"),
	)
	if err != nil {
		s := fmt.Sprintf("redisstore: failed to init 'history_evicted_records_counter' instrument: %v", err)
		panic(s)
	}
}
