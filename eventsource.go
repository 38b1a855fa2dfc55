package batterytwin

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/danielorbach/go-component"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gocloud.dev/pubsub"
)

// IngestTelemetry returns a component.Proc that subscribes to a pubsub
// subscription, decodes incoming SensorSnapshot messages, and digests each
// one with UpdateTwin.
//
// The returned proc is a single consumer loop, which satisfies the engine's
// serialization contract as long as all telemetry for a vehicle arrives on
// this subscription. Deploying multiple consumers requires partitioning the
// stream by vehicle upstream.
func (e *Engine) IngestTelemetry(sub *pubsub.Subscription) component.Proc {
	source := telemetrySource{subscription: sub}
	return source.stream(func(ctx context.Context, snapshot SensorSnapshot) error {
		ctx, span := tracer.Start(ctx, "IngestTelemetry", trace.WithAttributes(
			attribute.String("vehicle.id", snapshot.VehicleID),
		))
		defer span.End()

		response, err := e.UpdateTwin(ctx, snapshot.VehicleID, snapshot)
		if err != nil {
			return fmt.Errorf("update twin: %w", err)
		}
		component.Logger(ctx).Debug("Digested telemetry",
			"vehicle", snapshot.VehicleID,
			"outcome", response.Outcome.String(),
			"recommendations", len(response.Recommendations),
		)
		return nil
	})
}

// telemetrySource wraps a pubsub subscription and decodes incoming messages
// into sensor snapshots.
type telemetrySource struct {
	subscription *pubsub.Subscription
}

// A snapshotHandler processes one decoded telemetry snapshot.
type snapshotHandler func(ctx context.Context, snapshot SensorSnapshot) error

// stream returns a component.Proc that continuously receives messages from
// the subscription, decodes them, and passes them to the handler.
func (s telemetrySource) stream(h snapshotHandler) component.Proc {
	return func(l *component.L) {
		for l.Continue() {
			msg, err := s.subscription.Receive(l.Context())
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
					// we're shutting down
					return
				}
				l.Fatal(fmt.Errorf("receive: %w", err))
			}
			// always ack, even if we fail to decode.
			// otherwise, we might get stuck processing
			// the same failed message
			msg.Ack()

			snapshot, err := decodeSnapshot(msg.Body)
			if err != nil {
				l.Fatal(fmt.Errorf("decode: %w", err))
			}

			if err := h(l.Context(), snapshot); err != nil {
				l.Fatal(fmt.Errorf("process: %w", err))
			}
		}
	}
}

// decodeSnapshot decodes a gob-encoded SensorSnapshot from a message body.
func decodeSnapshot(p []byte) (SensorSnapshot, error) {
	var snapshot SensorSnapshot
	if err := gob.NewDecoder(bytes.NewReader(p)).Decode(&snapshot); err != nil {
		return SensorSnapshot{}, err
	}
	return snapshot, nil
}

// EncodeSnapshot encodes a SensorSnapshot for publishing to the telemetry
// topic consumed by IngestTelemetry.
func EncodeSnapshot(snapshot SensorSnapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snapshot); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}
