package migrate

import (
	"context"
	"fmt"

	"github.com/luisherrera/milltrack-agent/pkg/config"
	"github.com/luisherrera/milltrack-agent/pkg/db"
	"github.com/luisherrera/milltrack-agent/pkg/db/models"
	"github.com/luisherrera/milltrack-agent/pkg/logger"
)

// MaybeRun brings the queue schema up to date when auto-migration is enabled.
// Station deployments default to on: the agent owns its local database. The
// SQLite path runs the embedded goose set; the postgres path falls back to
// GORM auto-migration since the DDL dialects differ.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.DB.AutoMigrate {
		return nil
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": cfg.DB.Driver})

	if !cfg.DB.IsSQLite() {
		logg.Info(ctx, "running gorm auto-migration")
		if err := client.DB().WithContext(ctx).AutoMigrate(&models.QueuedSubmission{}); err != nil {
			return fmt.Errorf("auto-migrating queue schema: %w", err)
		}
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	logg.Info(ctx, "running goose migrations")

	if err := Run(ctx, sqlDB, cfg.DB, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}
