package batterytwin

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/danielorbach/go-component"
	"gocloud.dev/pubsub/mempubsub"
)

func TestSnapshotGobMarshalling(t *testing.T) {
	voltage, current, soc := 401.5, 150.0, 85.0
	cycles := 312

	tests := []struct {
		Name  string
		Value SensorSnapshot
	}{
		{
			Name:  "AllFieldsAbsent",
			Value: SensorSnapshot{VehicleID: "V1"},
		},
		{
			Name: "PartialReading",
			Value: SensorSnapshot{
				VehicleID:      "V2",
				BatteryCurrent: &current,
				SOC:            &soc,
			},
		},
		{
			Name: "FullReading",
			Value: SensorSnapshot{
				VehicleID:      "V3",
				BatteryVoltage: &voltage,
				BatteryCurrent: &current,
				SOC:            &soc,
				CycleCount:     &cycles,
			},
		},
	}

	for _, tt := range tests {
		p, err := EncodeSnapshot(tt.Value)
		if err != nil {
			t.Errorf("Encode(%s): %s", tt.Name, err)
			continue
		}

		reconstructed, err := decodeSnapshot(p)
		if err != nil {
			t.Errorf("Decode(%s): %s", tt.Name, err)
			continue
		}

		// Absent measurements must survive the round trip as absent, not as
		// zero-valued readings: a nil SOC and an 0% SOC age a twin differently.
		if diff := cmp.Diff(tt.Value, reconstructed); diff != "" {
			t.Errorf("Reconstructed %s value differs: %s", tt.Name, diff)
			continue
		}
	}
}

func TestDecodeSnapshotGarbage(t *testing.T) {
	if _, err := decodeSnapshot([]byte("not a gob stream")); err == nil {
		t.Error("decodeSnapshot(garbage) succeeded, want error")
	}
}

// This example shows how to run telemetry ingestion as a component process
// against a pubsub subscription. The in-memory driver stands in for the
// production broker; any gocloud.dev subscription works the same way. This
// code is for illustration purposes only and is not meant to be executed
// as is.
func ExampleEngine_IngestTelemetry() {
	engine := NewEngine(NewMemoryStore(0))

	topic := mempubsub.NewTopic()
	subscription := mempubsub.NewSubscription(topic, time.Minute)

	component.RunProc(func(l *component.L) {
		l.CleanupContext(subscription.Shutdown)
		l.CleanupContext(topic.Shutdown)
		l.Fork("ingest telemetry", engine.IngestTelemetry(subscription))
	})
}
