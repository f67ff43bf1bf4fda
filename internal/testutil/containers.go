// Package testutil starts the databases and object stores used by tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage = "postgres:17-alpine"
	rustfsImage   = "rustfs/rustfs:latest"

	testCredential = "finder"
	rustfsKey      = "rustfsadmin"
)

// Postgres is a throwaway database; container and pool close with the test.
type Postgres struct {
	DSN  string
	Pool *pgxpool.Pool
}

// ObjectStore is a throwaway S3-compatible server.
type ObjectStore struct {
	Endpoint  string
	AccessKey string
	SecretKey string
}

// start runs req; the container is terminated when the test ends.
func start(ctx context.Context, t *testing.T, req testcontainers.ContainerRequest) testcontainers.Container {
	t.Helper()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start %s: %v", req.Image, err)
	}
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })
	return container
}

// StartPostgres starts Postgres and connects a pool, retrying while the
// server finishes its startup restart.
func StartPostgres(ctx context.Context, t *testing.T) *Postgres {
	t.Helper()

	container := start(ctx, t, testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     testCredential,
			"POSTGRES_PASSWORD": testCredential,
			"POSTGRES_DB":       testCredential,
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithStartupTimeout(60 * time.Second),
	})
	addr, err := container.PortEndpoint(ctx, "5432/tcp", "")
	if err != nil {
		t.Fatalf("failed to resolve postgres endpoint: %v", err)
	}
	dsn := fmt.Sprintf("postgres://%[1]s:%[1]s@%[2]s/%[1]s?sslmode=disable", testCredential, addr)

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= 5; attempt++ {
		pool, err = pgxpool.New(ctx, dsn)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				break
			}
			pool.Close()
		}
		time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("failed to connect to postgres: %v", err)
	}
	t.Cleanup(pool.Close)

	return &Postgres{DSN: dsn, Pool: pool}
}

// StartObjectStore starts RustFS with static credentials.
func StartObjectStore(ctx context.Context, t *testing.T) *ObjectStore {
	t.Helper()

	container := start(ctx, t, testcontainers.ContainerRequest{
		Image:        rustfsImage,
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"RUSTFS_ACCESS_KEY": rustfsKey,
			"RUSTFS_SECRET_KEY": rustfsKey,
		},
		WaitingFor: wait.ForListeningPort("9000/tcp").WithStartupTimeout(30 * time.Second),
	})
	addr, err := container.PortEndpoint(ctx, "9000/tcp", "")
	if err != nil {
		t.Fatalf("failed to resolve rustfs endpoint: %v", err)
	}

	return &ObjectStore{Endpoint: "http://" + addr, AccessKey: rustfsKey, SecretKey: rustfsKey}
}

// TruncateAll empties tables and resets their sequences.
func TruncateAll(ctx context.Context, pool *pgxpool.Pool, tables ...string) error {
	for _, table := range tables {
		if _, err := pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return nil
}
