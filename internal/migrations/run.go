package migrations

import (
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"llm-scoring/internal/logger"
)

//go:embed *.sql
var fs embed.FS

// Run applies all up migrations embedded in this package.
func Run(dsn string) {
	if dsn == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	// iofs driver from embedded files
	d, err := iofs.New(fs, ".")
	if err != nil {
		logger.Fatal("iofs", zap.Error(err))
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, dsn)
	if err != nil {
		logger.Fatal("migrate new", zap.Error(err))
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatal("migrate up", zap.Error(err))
	}
	logger.Info("migrations applied")
}
