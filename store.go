package batterytwin

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// DefaultHistoryCap bounds the per-vehicle history log. Once the log is full,
// appending a new record evicts the oldest one in the same operation.
const DefaultHistoryCap = 1000

// ErrTwinNotFound is returned by TwinStore.Get (and Engine.GetTwin) when no
// twin exists for the requested vehicle. Reads are strict: an unknown vehicle
// yields this error rather than fabricated default state. Updates, by
// contrast, create the twin implicitly - update is the upsert path.
var ErrTwinNotFound = errors.New("battery twin not found")

// A TwinStore keeps the latest TwinState per vehicle plus a capped history
// log. The Engine receives a TwinStore at construction, so swapping the
// in-memory map for a persistent keyed store (see the neo4jstore and
// redisstore packages) requires no change to the parameter models or the
// forecasting logic.
//
// Implementations must treat each method as an atomic operation. In
// particular AppendHistory must apply the append and any cap-triggered
// eviction as a single unit. Implementations must also return copies: a
// caller mutating a returned TwinState must not affect the stored one.
//
// A TwinStore does not serialize read-modify-write cycles. Two concurrent
// updates to the same vehicle may interleave between Get and Put; the
// single-writer-per-vehicle discipline is a caller responsibility (see
// Engine).
type TwinStore interface {
	// Get returns the latest state for the vehicle, or ErrTwinNotFound.
	Get(ctx context.Context, vehicleID string) (*TwinState, error)
	// Put stores the state as the latest for its vehicle, overwriting any
	// previous state.
	Put(ctx context.Context, state *TwinState) error
	// AppendHistory appends the record to the vehicle's history log,
	// atomically evicting the oldest record if the log would exceed the
	// store's cap.
	AppendHistory(ctx context.Context, record HistoricalRecord) error
	// History returns the vehicle's history log, oldest first. A vehicle
	// without history yields an empty log, not an error.
	History(ctx context.Context, vehicleID string) ([]HistoricalRecord, error)
}

// A MemoryStore is a process-lifetime TwinStore backed by maps. It is the
// default store and the reference implementation for the storetest
// conformance suite.
//
// A MemoryStore is safe for concurrent use. Distinct vehicles share nothing
// but the map itself, so updates to different vehicles proceed effectively in
// parallel.
type MemoryStore struct {
	mu      sync.RWMutex
	twins   map[string]TwinState
	history map[string][]HistoricalRecord
	cap     int
}

// NewMemoryStore returns an empty MemoryStore with the given history cap per
// vehicle. A cap of zero selects DefaultHistoryCap; a negative cap is a
// developer error and panics.
func NewMemoryStore(historyCap int) *MemoryStore {
	if historyCap < 0 {
		panic(fmt.Sprintf("batterytwin: negative history cap %d", historyCap))
	}
	if historyCap == 0 {
		historyCap = DefaultHistoryCap
	}
	return &MemoryStore{
		twins:   make(map[string]TwinState),
		history: make(map[string][]HistoricalRecord),
		cap:     historyCap,
	}
}

func (m *MemoryStore) Get(ctx context.Context, vehicleID string) (*TwinState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.twins[vehicleID]
	if !ok {
		return nil, fmt.Errorf("vehicle %q: %w", vehicleID, ErrTwinNotFound)
	}
	// TwinState contains no reference types, so a value copy is a deep copy.
	return &state, nil
}

func (m *MemoryStore) Put(ctx context.Context, state *TwinState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.twins[state.VehicleID] = *state
	return nil
}

func (m *MemoryStore) AppendHistory(ctx context.Context, record HistoricalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	log := append(m.history[record.State.VehicleID], record)
	// Evict oldest-first under the same lock as the append, so no reader can
	// observe a log longer than the cap.
	if len(log) > m.cap {
		log = log[len(log)-m.cap:]
	}
	m.history[record.State.VehicleID] = log
	return nil
}

func (m *MemoryStore) History(ctx context.Context, vehicleID string) ([]HistoricalRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	log := m.history[vehicleID]
	out := make([]HistoricalRecord, len(log))
	copy(out, log)
	return out, nil
}
