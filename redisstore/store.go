// Package redisstore persists battery twins in Redis.
//
// The latest state of each vehicle lives under "twin:<vehicleId>:state" as a
// JSON string; the history log is the list "twin:<vehicleId>:history",
// trimmed to the cap on every append. Redis fits deployments that favour
// write throughput over the queryability of the neo4jstore graph.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	batterytwin "github.com/go-batterytwin/go-batterytwin"
)

// A Store is a batterytwin.TwinStore backed by Redis. Create one with New.
//
// AppendHistory pushes the record and trims the log in a single MULTI/EXEC
// transaction, so no reader can observe a log longer than the cap. The store
// is safe for concurrent use; like every TwinStore it does not serialize
// read-modify-write cycles across calls (see batterytwin.TwinStore).
type Store struct {
	client *redis.Client
	cap    int
}

// New returns a Store persisting twins through the given client. A historyCap
// of zero selects batterytwin.DefaultHistoryCap; a negative cap is a
// developer error and panics.
func New(client *redis.Client, historyCap int) *Store {
	if historyCap < 0 {
		panic(fmt.Sprintf("redisstore: negative history cap %d", historyCap))
	}
	if historyCap == 0 {
		historyCap = batterytwin.DefaultHistoryCap
	}
	return &Store{client: client, cap: historyCap}
}

func stateKey(vehicleID string) string {
	return fmt.Sprintf("twin:%s:state", vehicleID)
}

func historyKey(vehicleID string) string {
	return fmt.Sprintf("twin:%s:history", vehicleID)
}

func (s *Store) Get(ctx context.Context, vehicleID string) (*batterytwin.TwinState, error) {
	ctx, span := tracer.Start(ctx, "Get", trace.WithAttributes(
		attribute.String("vehicle.id", vehicleID),
	))
	defer span.End()

	payload, err := s.client.Get(ctx, stateKey(vehicleID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("vehicle %q: %w", vehicleID, batterytwin.ErrTwinNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get state: %w", err)
	}

	var state batterytwin.TwinState
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return nil, fmt.Errorf("decode state of vehicle %q: %w", vehicleID, err)
	}
	return &state, nil
}

func (s *Store) Put(ctx context.Context, state *batterytwin.TwinState) error {
	ctx, span := tracer.Start(ctx, "Put", trace.WithAttributes(
		attribute.String("vehicle.id", state.VehicleID),
	))
	defer span.End()

	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state of vehicle %q: %w", state.VehicleID, err)
	}
	// Twin state has no expiry: a parked vehicle's twin is still its twin.
	if err := s.client.Set(ctx, stateKey(state.VehicleID), payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set state: %w", err)
	}
	return nil
}

func (s *Store) AppendHistory(ctx context.Context, record batterytwin.HistoricalRecord) error {
	vehicleID := record.State.VehicleID
	ctx, span := tracer.Start(ctx, "AppendHistory", trace.WithAttributes(
		attribute.String("vehicle.id", vehicleID),
	))
	defer span.End()

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode history record of vehicle %q: %w", vehicleID, err)
	}

	// RPUSH and LTRIM run atomically in one MULTI/EXEC, so the log never
	// exceeds the cap between the push and the trim.
	pipe := s.client.TxPipeline()
	pushed := pipe.RPush(ctx, historyKey(vehicleID), payload)
	pipe.LTrim(ctx, historyKey(vehicleID), int64(-s.cap), -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis append history: %w", err)
	}

	if evicted := pushed.Val() - int64(s.cap); evicted > 0 {
		evictedRecords.Add(ctx, evicted, metric.WithAttributes(
			attribute.String("vehicle.id", vehicleID),
		))
	}
	return nil
}

func (s *Store) History(ctx context.Context, vehicleID string) ([]batterytwin.HistoricalRecord, error) {
	ctx, span := tracer.Start(ctx, "History", trace.WithAttributes(
		attribute.String("vehicle.id", vehicleID),
	))
	defer span.End()

	payloads, err := s.client.LRange(ctx, historyKey(vehicleID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis range history: %w", err)
	}

	log := make([]batterytwin.HistoricalRecord, 0, len(payloads))
	for _, payload := range payloads {
		var record batterytwin.HistoricalRecord
		if err := json.Unmarshal([]byte(payload), &record); err != nil {
			return nil, fmt.Errorf("decode history record of vehicle %q: %w", vehicleID, err)
		}
		log = append(log, record)
	}
	return log, nil
}
