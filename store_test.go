package batterytwin_test

import (
	"context"
	"testing"

	batterytwin "github.com/go-batterytwin/go-batterytwin"
	"github.com/go-batterytwin/go-batterytwin/storetest"
)

func TestMemoryStoreConformance(t *testing.T) {
	// A small cap keeps the eviction cases cheap; the cap value itself is
	// exercised separately through the engine in TestHistoryCap.
	storetest.Run(t, batterytwin.NewMemoryStore(5), 5)
}

func TestNewMemoryStoreDefaultsCap(t *testing.T) {
	ctx := context.Background()
	store := batterytwin.NewMemoryStore(0)

	state := batterytwin.TwinState{VehicleID: "cap-default"}
	for i := 1; i <= batterytwin.DefaultHistoryCap+1; i++ {
		state.CycleCount = i
		if err := store.AppendHistory(ctx, batterytwin.HistoricalRecord{State: state}); err != nil {
			t.Fatalf("AppendHistory %d: %v", i, err)
		}
	}

	log, err := store.History(ctx, "cap-default")
	if err != nil {
		t.Fatal("History:", err)
	}
	if len(log) != batterytwin.DefaultHistoryCap {
		t.Errorf("history length = %d, want DefaultHistoryCap %d", len(log), batterytwin.DefaultHistoryCap)
	}
}

func TestNewMemoryStoreNegativeCapPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewMemoryStore(-1) did not panic")
		}
	}()
	batterytwin.NewMemoryStore(-1)
}
