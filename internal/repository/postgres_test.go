package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/residence-ops/residence-tickets/internal/config"
	"github.com/residence-ops/residence-tickets/internal/persistence"
)

// postgresDSN returns POSTGRES_TEST_DSN when set, otherwise starts a
// throwaway Postgres container. The test is skipped when neither is
// available.
func postgresDSN(t *testing.T) string {
	t.Helper()
	if dsn := os.Getenv("POSTGRES_TEST_DSN"); dsn != "" {
		return dsn
	}
	if testing.Short() {
		t.Skip("postgres contract skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "docker.io/library/postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "tickets",
			"POSTGRES_PASSWORD": "tickets",
			"POSTGRES_DB":       "tickets",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(90 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(ctx))
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("postgres://tickets:tickets@%s:%s/tickets?sslmode=disable", host, port.Port())
}

func TestPostgresAdapters(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	pg := persistence.NewPostgres(config.PostgresConfig{DSN: postgresDSN(t), ConnectTimeoutSec: 30}, logger)
	t.Cleanup(pg.Close)
	require.NoError(t, persistence.RunMigrations(ctx, pg, "../../migrations", logger))

	runRepositoryContract(t, func(t *testing.T) adapters {
		pool, err := pg.Pool(ctx)
		require.NoError(t, err)
		_, err = pool.Exec(ctx, `TRUNCATE comments, tickets, users`)
		require.NoError(t, err)
		return adapters{
			tickets:  NewTicketRepository(pg),
			comments: NewCommentRepository(pg),
			users:    NewUserRepository(pg),
		}
	})
}
