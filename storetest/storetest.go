/*
Package storetest provides a conformance suite for [batterytwin.TwinStore]
implementations (e.g. in-memory, neo4j, redis).

The tests operate on the store exclusively through the TwinStore interface to
check functional correctness and compliance with the behaviours the interface
documents: strict reads, atomic capped history appends, and copy semantics.

Call storetest.Run in its own test, passing the store under test and the
history cap it was constructed with:

	func TestStore(t *testing.T) {
		store := batterytwin.NewMemoryStore(5)
		storetest.Run(t, store, 5)
	}

The suite covers only the TwinStore contract. Specific stores are encouraged
to perform additional tests for behaviours of the underlying backend, such as
reconnects or bootstrap.
*/
package storetest

import (
	"context"
	"fmt"
	"runtime"
	"testing"
	"time"

	batterytwin "github.com/go-batterytwin/go-batterytwin"
)

type testCase struct {
	// Subtest name.
	name string
	// A path leading to the test-case's file and line in the source code.
	location string
	// A step executes one or more operations on the store under test.
	step func(ctx context.Context, store batterytwin.TwinStore) error
	// A list of checks to run on the store after the step. Checks observe the
	// store through the same interface the step used.
	checks []check
}

// epoch anchors every fixture timestamp, so stores that persist and reload
// time values (as opposed to keeping them in memory) are compared against
// stable instants.
var epoch = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

// cases builds the conformance sequence for a store constructed with the
// given history cap. The cap must be at least two for the eviction cases to
// be meaningful.
func cases(historyCap int) []testCase {
	overflow := historyCap + 3

	return []testCase{
		{
			name:     "get-missing-vehicle",
			location: locateSource(),
			step:     func(context.Context, batterytwin.TwinStore) error { return nil },
			checks: []check{
				twinAbsent("never-stored"),
				historyMarks("never-stored"),
			},
		},
		{
			name:     "put-then-get",
			location: locateSource(),
			step: func(ctx context.Context, store batterytwin.TwinStore) error {
				state := fixtureState("alpha", 10)
				return store.Put(ctx, &state)
			},
			checks: []check{
				twinEquals(fixtureState("alpha", 10)),
			},
		},
		{
			name:     "overwrite-latest",
			location: locateSource(),
			step: func(ctx context.Context, store batterytwin.TwinStore) error {
				state := fixtureState("alpha", 11)
				return store.Put(ctx, &state)
			},
			checks: []check{
				twinEquals(fixtureState("alpha", 11)),
			},
		},
		{
			name:     "distinct-vehicles-isolated",
			location: locateSource(),
			step: func(ctx context.Context, store batterytwin.TwinStore) error {
				state := fixtureState("beta", 20)
				return store.Put(ctx, &state)
			},
			checks: []check{
				twinEquals(fixtureState("alpha", 11)),
				twinEquals(fixtureState("beta", 20)),
			},
		},
		{
			name:     "append-history-in-order",
			location: locateSource(),
			step: func(ctx context.Context, store batterytwin.TwinStore) error {
				for cycle := 1; cycle <= historyCap; cycle++ {
					if err := store.AppendHistory(ctx, fixtureRecord("alpha", cycle)); err != nil {
						return fmt.Errorf("append %d: %w", cycle, err)
					}
				}
				return nil
			},
			checks: []check{
				historyMarks("alpha", marks(1, historyCap)...),
				historyMarks("beta"),
			},
		},
		{
			name:     "history-cap-evicts-oldest",
			location: locateSource(),
			step: func(ctx context.Context, store batterytwin.TwinStore) error {
				for cycle := historyCap + 1; cycle <= overflow; cycle++ {
					if err := store.AppendHistory(ctx, fixtureRecord("alpha", cycle)); err != nil {
						return fmt.Errorf("append %d: %w", cycle, err)
					}
				}
				return nil
			},
			checks: []check{
				historyMarks("alpha", marks(overflow-historyCap+1, overflow)...),
			},
		},
		{
			name:     "history-caps-are-per-vehicle",
			location: locateSource(),
			step: func(ctx context.Context, store batterytwin.TwinStore) error {
				return store.AppendHistory(ctx, fixtureRecord("beta", 21))
			},
			checks: []check{
				historyMarks("beta", 21),
				historyMarks("alpha", marks(overflow-historyCap+1, overflow)...),
			},
		},
		{
			name:     "returned-values-are-copies",
			location: locateSource(),
			step: func(ctx context.Context, store batterytwin.TwinStore) error {
				// Mutate everything a read hands back; the store must not notice.
				state, err := store.Get(ctx, "alpha")
				if err != nil {
					return err
				}
				state.CycleCount = -1
				state.VehicleID = "mutated"

				log, err := store.History(ctx, "alpha")
				if err != nil {
					return err
				}
				for i := range log {
					log[i].State.CycleCount = -1
				}
				return nil
			},
			checks: []check{
				twinEquals(fixtureState("alpha", 11)),
				historyMarks("alpha", marks(overflow-historyCap+1, overflow)...),
			},
		},
	}
}

// Run executes the conformance sequence against the given store. The
// historyCap argument must match the cap the store was constructed with and
// must be at least two; small caps keep the eviction cases fast against
// remote backends.
//
// All test-cases run in-order, on the same store, because each case's checks
// depend on the state left behind by the previous steps. That is deliberate:
// the suite evaluates whether state progresses correctly over a series of
// operations, akin to the real-world use of a store over time. A case cannot
// run meaningfully if a previous case has failed, so step failures are fatal.
func Run(t *testing.T, store batterytwin.TwinStore, historyCap int) {
	t.Helper()
	if historyCap < 2 {
		t.Fatalf("storetest.Run requires a history cap of at least 2, got %d", historyCap)
	}

	// We deliberately use the background context because this suite does not
	// check performance, and store implementations should not depend on
	// specific context values.
	ctx := context.Background()

	for _, c := range cases(historyCap) {
		// We encourage developers to read the source code directly, especially
		// when failures are not clear enough.
		t.Logf("Read the source for test-case %v at %v", c.name, c.location)
		if err := c.step(ctx, store); err != nil {
			t.Fatalf("step %v failed: %v", c.name, err)
		}
		for _, check := range c.checks {
			if problem := check(ctx, store); problem != "" {
				t.Errorf("Check %v: %v", c.name, problem)
			}
		}
	}
}

// marks lists the cycle-count markers from lo to hi inclusive.
func marks(lo, hi int) []int {
	out := make([]int, 0, hi-lo+1)
	for m := lo; m <= hi; m++ {
		out = append(out, m)
	}
	return out
}

// Call this function to set the location of every test-case in the source
// file. The returned string is used to guide developers of twin stores to the
// appropriate test-case.
func locateSource() (path string) {
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		panic("runtime.Caller failed")
	}
	return fmt.Sprintf("%v:%v", file, line)
}
