package commands

import (
	"context"
	"fmt"

	"github.com/capdocs/capdocs/internal/app"
	"github.com/capdocs/capdocs/internal/config"
	"github.com/capdocs/capdocs/internal/mongodb"
)

// RunEnsureIndexes creates the MongoDB indexes the service relies on.
// Safe to run repeatedly; existing indexes are left untouched.
func RunEnsureIndexes(ctx context.Context) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	db, err := container.MongoDatabase()
	if err != nil {
		return fmt.Errorf("failed to get database: %w", err)
	}

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	logger.Info("indexes ensured")
	return nil
}
