// Package neo4jstore persists battery twins in a Neo4j graph database.
//
// Each vehicle is a (:Vehicle) node keyed by vehicle id and carrying the
// latest twin state as a JSON property. History records are (:Observation)
// nodes attached to their vehicle through OBSERVED relationships and ordered
// by a per-vehicle sequence number, so the history log survives restarts and
// remains queryable with plain Cypher alongside the rest of the fleet graph.
package neo4jstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/danielorbach/go-component"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	batterytwin "github.com/go-batterytwin/go-batterytwin"
)

// A Store is a batterytwin.TwinStore backed by Neo4j. Create one with New.
//
// Every operation opens its own session and runs in its own managed
// transaction, so the store carries no session state between calls and each
// method applies atomically. In particular AppendHistory creates the new
// observation and evicts beyond-cap observations in a single transaction.
//
// A Store is safe for concurrent use; like every TwinStore it does not
// serialize read-modify-write cycles across calls (see batterytwin.TwinStore).
type Store struct {
	driver   neo4j.DriverWithContext
	database string
	cap      int
}

// New returns a Store persisting twins in the given database. A historyCap of
// zero selects batterytwin.DefaultHistoryCap; a negative cap is a developer
// error and panics.
//
// The database must have been prepared with Bootstrap, otherwise concurrent
// MERGEs may race to create duplicate vehicle nodes.
func New(driver neo4j.DriverWithContext, database string, historyCap int) *Store {
	if historyCap < 0 {
		panic(fmt.Sprintf("neo4jstore: negative history cap %d", historyCap))
	}
	if historyCap == 0 {
		historyCap = batterytwin.DefaultHistoryCap
	}
	return &Store{driver: driver, database: database, cap: historyCap}
}

func (s *Store) Get(ctx context.Context, vehicleID string) (*batterytwin.TwinState, error) {
	ctx, span := tracer.Start(ctx, "Get", trace.WithAttributes(
		attribute.String("neo4j.database", s.database),
		attribute.String("vehicle.id", vehicleID),
	))
	defer span.End()

	session := s.session(ctx, neo4j.AccessModeRead)
	defer s.close(ctx, session, "read")

	payload, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (v:Vehicle {vehicleId: $vehicleId})
			RETURN v.state AS state
		`, map[string]any{"vehicleId": vehicleID})
		if err != nil {
			return nil, err
		}
		if !result.Next(ctx) {
			if err := result.Err(); err != nil {
				return nil, err
			}
			return nil, nil // no vehicle node; not a query failure
		}
		return result.Record().Values[0], nil
	})
	if err != nil {
		return nil, fmt.Errorf("lookup vehicle node: %w", err)
	}
	if payload == nil {
		return nil, fmt.Errorf("vehicle %q: %w", vehicleID, batterytwin.ErrTwinNotFound)
	}

	encoded, ok := payload.(string)
	if !ok {
		return nil, fmt.Errorf("vehicle %q: state property is %T, want string", vehicleID, payload)
	}
	var state batterytwin.TwinState
	if err := json.Unmarshal([]byte(encoded), &state); err != nil {
		return nil, fmt.Errorf("decode state of vehicle %q: %w", vehicleID, err)
	}
	return &state, nil
}

func (s *Store) Put(ctx context.Context, state *batterytwin.TwinState) error {
	ctx, span := tracer.Start(ctx, "Put", trace.WithAttributes(
		attribute.String("neo4j.database", s.database),
		attribute.String("vehicle.id", state.VehicleID),
	))
	defer span.End()

	encoded, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state of vehicle %q: %w", state.VehicleID, err)
	}

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer s.close(ctx, session, "write")

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MERGE (v:Vehicle {vehicleId: $vehicleId})
			SET v.state = $state
		`, map[string]any{
			"vehicleId": state.VehicleID,
			"state":     string(encoded),
		})
		if err != nil {
			return nil, err
		}
		_, err = result.Consume(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("store vehicle node: %w", err)
	}
	return nil
}

func (s *Store) AppendHistory(ctx context.Context, record batterytwin.HistoricalRecord) error {
	vehicleID := record.State.VehicleID
	ctx, span := tracer.Start(ctx, "AppendHistory", trace.WithAttributes(
		attribute.String("neo4j.database", s.database),
		attribute.String("vehicle.id", vehicleID),
	))
	defer span.End()

	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode history record of vehicle %q: %w", vehicleID, err)
	}

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer s.close(ctx, session, "write")

	// The sequence number is computed inside the same transaction that creates
	// the observation, so two appends cannot claim the same slot; the eviction
	// runs in that transaction too, so no reader can observe a log longer than
	// the cap.
	evicted, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MERGE (v:Vehicle {vehicleId: $vehicleId})
			WITH v
			OPTIONAL MATCH (v)-[:OBSERVED]->(prior:Observation)
			WITH v, coalesce(max(prior.seq), 0) + 1 AS seq
			CREATE (v)-[:OBSERVED]->(:Observation {seq: seq, record: $record})
			WITH v
			MATCH (v)-[:OBSERVED]->(o:Observation)
			WITH o ORDER BY o.seq DESC
			WITH collect(o) AS log
			FOREACH (stale IN log[$cap..] | DETACH DELETE stale)
			RETURN CASE WHEN size(log) > $cap THEN size(log) - $cap ELSE 0 END AS evicted
		`, map[string]any{
			"vehicleId": vehicleID,
			"record":    string(encoded),
			"cap":       s.cap,
		})
		if err != nil {
			return nil, err
		}
		rec, err := result.Single(ctx)
		if err != nil {
			return nil, err
		}
		return rec.Values[0], nil
	})
	if err != nil {
		return fmt.Errorf("append observation: %w", err)
	}

	if n, ok := evicted.(int64); ok && n > 0 {
		evictedObservations.Add(ctx, n, metric.WithAttributes(
			attribute.String("neo4j.database", s.database),
		))
	}
	return nil
}

func (s *Store) History(ctx context.Context, vehicleID string) ([]batterytwin.HistoricalRecord, error) {
	ctx, span := tracer.Start(ctx, "History", trace.WithAttributes(
		attribute.String("neo4j.database", s.database),
		attribute.String("vehicle.id", vehicleID),
	))
	defer span.End()

	session := s.session(ctx, neo4j.AccessModeRead)
	defer s.close(ctx, session, "read")

	payloads, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (:Vehicle {vehicleId: $vehicleId})-[:OBSERVED]->(o:Observation)
			RETURN o.record AS record
			ORDER BY o.seq ASC
		`, map[string]any{"vehicleId": vehicleID})
		if err != nil {
			return nil, err
		}
		var encoded []string
		for result.Next(ctx) {
			payload, ok := result.Record().Values[0].(string)
			if !ok {
				return nil, fmt.Errorf("record property is %T, want string", result.Record().Values[0])
			}
			encoded = append(encoded, payload)
		}
		return encoded, result.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("fetch observations of vehicle %q: %w", vehicleID, err)
	}

	encoded := payloads.([]string)
	log := make([]batterytwin.HistoricalRecord, 0, len(encoded))
	for _, payload := range encoded {
		var record batterytwin.HistoricalRecord
		if err := json.Unmarshal([]byte(payload), &record); err != nil {
			return nil, fmt.Errorf("decode observation of vehicle %q: %w", vehicleID, err)
		}
		log = append(log, record)
	}
	return log, nil
}

// We open a new session for every operation to ensure transactional isolation
// and to prevent any state carryover between executions. Any session-specific
// errors or resources are contained and do not affect subsequent operations.
func (s *Store) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   mode,
	})
}

func (s *Store) close(ctx context.Context, session neo4j.SessionWithContext, mode string) {
	if err := session.Close(ctx); err != nil {
		component.Logger(ctx).Error("Failed to close session", "error", err, "mode", mode)
	}
}
