package persistence

import (
	"go.uber.org/zap"

	"github.com/residence-ops/residence-tickets/internal/config"
)

func testPostgresConfig() config.PostgresConfig {
	return config.PostgresConfig{}
}

func nopLogger() *zap.Logger {
	return zap.NewNop()
}
