//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/smartevent/internal/config"
	"github.com/Shivanand-hulikatti/smartevent/internal/database"
	"github.com/Shivanand-hulikatti/smartevent/internal/repository"
	"github.com/Shivanand-hulikatti/smartevent/internal/repository/postgres"
	"github.com/Shivanand-hulikatti/smartevent/internal/repository/repotest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestStore runs the shared store suite against a throwaway PostgreSQL
// container. Each subtest gets its own database.
func TestStore(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	t.Cleanup(cancel)

	container, err := tcpostgres.Run(
		ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("smartevent"),
		tcpostgres.WithUsername("smartevent"),
		tcpostgres.WithPassword("smartevent"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	require.NoError(t, container.Snapshot(ctx, tcpostgres.WithSnapshotName("empty")))

	repotest.Run(t, func(t *testing.T) repository.Store {
		t.Helper()
		require.NoError(t, container.Restore(ctx))

		url, err := container.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err)
		cfg := config.DatabaseConfig{Driver: config.DriverPostgres, URL: url, MaxConnections: 20, ConnectRetries: 5}
		require.NoError(t, database.MigrateUp(cfg))

		pool, err := database.NewPool(ctx, cfg, zerolog.Nop())
		require.NoError(t, err)
		store, err := postgres.NewStore(pool)
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}
