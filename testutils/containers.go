package testutils

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// skipWithoutContainers skips under -short or when NOTECHECK_SKIP_CONTAINERS is set.
func skipWithoutContainers(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("container tests skipped in -short mode")
	}
	if os.Getenv("NOTECHECK_SKIP_CONTAINERS") != "" {
		t.Skip("container tests disabled by NOTECHECK_SKIP_CONTAINERS")
	}
}

func startContainer(t *testing.T, ctx context.Context, req tc.ContainerRequest) (string, error) {
	t.Helper()
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		return "", err
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := c.Terminate(ctx); err != nil {
			t.Logf("Warning: failed to terminate %s: %v", req.Image, err)
		}
	})

	// host:port of the single exposed port
	return c.Endpoint(ctx, "")
}

// SetupTestDB starts a MongoDB container and returns a connected client and the
// name of a database private to the test. Skips when Docker is unavailable.
func SetupTestDB(t *testing.T) (*mongo.Client, string) {
	t.Helper()
	skipWithoutContainers(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	addr, err := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(90 * time.Second),
	})
	if err != nil {
		t.Skipf("mongo container unavailable: %v", err)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI("mongodb://"+addr))
	if err != nil {
		t.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("Failed to ping MongoDB: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			t.Logf("Warning: Failed to disconnect: %v", err)
		}
	})

	return client, "notecheck_test"
}

// SetupPostgres starts a Postgres container and returns its connection URL.
func SetupPostgres(t *testing.T) string {
	t.Helper()
	skipWithoutContainers(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	addr, err := startContainer(t, ctx, tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "notes",
			"POSTGRES_PASSWORD": "notes",
			"POSTGRES_DB":       "notes",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(90 * time.Second),
	})
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	return fmt.Sprintf("postgres://notes:notes@%s/notes?sslmode=disable", addr)
}
