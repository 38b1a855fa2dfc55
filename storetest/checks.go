package storetest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/go-cmp/cmp"

	batterytwin "github.com/go-batterytwin/go-batterytwin"
)

// A check is any function that returns unexpected problems with the store
// under test.
type check func(ctx context.Context, store batterytwin.TwinStore) (problem string)

// fixtureState builds a deterministic TwinState for the vehicle. The cycle
// count doubles as a version marker: consecutive fixtures for the same vehicle
// differ only in it and in the fields derived from it, so overwrites are
// observable.
func fixtureState(vehicleID string, cycle int) batterytwin.TwinState {
	return batterytwin.TwinState{
		VehicleID:          vehicleID,
		CreatedAt:          epoch,
		UpdatedAt:          epoch.Add(time.Duration(cycle) * time.Second),
		Voltage:            400,
		Temperature:        25,
		SOC:                50,
		SOH:                100,
		CycleCount:         cycle,
		InternalResistance: 0.05,
	}
}

// fixtureRecord builds a history record carrying the fixture state for the
// given cycle marker.
func fixtureRecord(vehicleID string, cycle int) batterytwin.HistoricalRecord {
	soc := 50.0
	return batterytwin.HistoricalRecord{
		Timestamp: epoch.Add(time.Duration(cycle) * time.Second),
		State:     fixtureState(vehicleID, cycle),
		Snapshot: batterytwin.SensorSnapshot{
			VehicleID: vehicleID,
			SOC:       &soc,
		},
	}
}

// Checks that the vehicle has no stored twin: Get must fail with
// [batterytwin.ErrTwinNotFound], never with fabricated state or a bare nil.
func twinAbsent(vehicleID string) check {
	return func(ctx context.Context, store batterytwin.TwinStore) string {
		state, err := store.Get(ctx, vehicleID)
		if err == nil {
			return fmt.Sprintf("Get(%q) = %+v, want ErrTwinNotFound", vehicleID, state)
		}
		if !errors.Is(err, batterytwin.ErrTwinNotFound) {
			return fmt.Sprintf("Get(%q) error = %v, want ErrTwinNotFound", vehicleID, err)
		}
		return ""
	}
}

// Checks that the stored twin for the state's vehicle equals it exactly.
//
// Timestamps are compared in UTC so stores that round-trip time values
// through a backend-native representation are not penalised for losing the
// location, only for losing the instant.
func twinEquals(want batterytwin.TwinState) check {
	return func(ctx context.Context, store batterytwin.TwinStore) string {
		got, err := store.Get(ctx, want.VehicleID)
		if err != nil {
			return fmt.Sprintf("Get(%q) failed: %v", want.VehicleID, err)
		}
		if diff := cmp.Diff(want, *got, normalizeTime); diff != "" {
			return fmt.Sprintf("Get(%q) mismatch (-want +got):\n%v", want.VehicleID, diff)
		}
		return ""
	}
}

// Checks that the vehicle's history holds exactly the records with the given
// cycle-count markers, oldest first. With no markers, the history must be
// empty (and emptiness must not be an error).
func historyMarks(vehicleID string, want ...int) check {
	return func(ctx context.Context, store batterytwin.TwinStore) string {
		log, err := store.History(ctx, vehicleID)
		if err != nil {
			return fmt.Sprintf("History(%q) failed: %v", vehicleID, err)
		}
		// A store may return either nil or an empty slice for a vehicle
		// without history; normalise both sides to nil before diffing.
		var got []int
		for _, record := range log {
			got = append(got, record.State.CycleCount)
		}
		if len(want) == 0 {
			want = nil
		}
		if diff := cmp.Diff(want, got); diff != "" {
			return fmt.Sprintf("History(%q) markers mismatch (-want +got):\n%v", vehicleID, diff)
		}
		return ""
	}
}

// normalizeTime makes cmp compare instants, not in-memory representations.
var normalizeTime = cmp.Transformer("UTC", func(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
})
