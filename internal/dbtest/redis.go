package dbtest

import (
	"context"
	"testing"

	"github.com/docker/go-connections/nat"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/log"
	"github.com/testcontainers/testcontainers-go/wait"
)

// RedisImage exposes the image to use for the Redis container.
//
// See <https://hub.docker.com/_/redis> for more images.
const RedisImage = "docker.io/redis:7-alpine"

const redisPort = nat.Port("6379/tcp")

// SetupRedis spins up a new Redis Docker container and returns a client
// connected to it. The returned client is closed during cleanup of the
// provided [*testing.T].
//
// The provided [*testing.T] is used to:
//   - skip the test if the '-short' flag is set,
//   - clean up the container after the test completes, and
//   - mark the test as parallel to avoid blocking other long-running tests.
//
// Like SetupNeo4j, this is a higher-level wrapper around testcontainers-go
// for tests that need a standard Redis instance and do not care about its
// deployment details. Tests needing a specific Redis configuration should use
// testcontainers-go directly.
func SetupRedis(t *testing.T) *redis.Client {
	t.Helper()

	// Container-based tests are long-running and should respect the '-short' flag.
	if testing.Short() {
		t.Skip("Skipping container-based test in short mode...")
	}

	// Always run container-based tests in parallel.
	t.Parallel()

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        RedisImage,
			ExposedPorts: []string{string(redisPort)},
			WaitingFor:   wait.ForListeningPort(redisPort),
		},
		Started: true,
		Logger:  log.TestLogger(t),
	})
	if err != nil {
		t.Fatal("Failed to run redis container:", err)
	}
	t.Cleanup(func() {
		t.Logf("Terminating redis container %q...", container.GetContainerID())
		if err := container.Terminate(ctx); err != nil {
			t.Error("Encountered an error during cleanup; terminate container:", err)
		}
	})

	addr, err := container.PortEndpoint(ctx, redisPort, "")
	if err != nil {
		t.Fatal("Failed to get redis endpoint:", err)
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Error("Encountered an error during cleanup while closing the redis client:", err)
		}
	})

	// Verify that the connection is working before handing the client over.
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to establish a connection with the remote redis server: %v", err)
	}

	// Keep the container running for manual debugging of the keyspace.
	t.Cleanup(func() {
		if t.Failed() && *Inspect {
			t.Logf("Container %v is still running for inspection (Ctrl+C to terminate)...", container.GetContainerID())
			t.Logf("Redis address = %s", addr)
			waitForInspection()
		}
	})

	return client
}
