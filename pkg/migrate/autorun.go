package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/tna-backend/pkg/config"
	"github.com/angelmondragon/tna-backend/pkg/db"
	"github.com/angelmondragon/tna-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations on boot, but only in dev with the
// auto-migrate flag on.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("unwrap sql.DB: %w", err)
	}

	dialect := DialectFor(cfg.DB.Driver)
	runner, err := NewRunner(sqlDB, dialect, DefaultDir, nil)
	if err != nil {
		return err
	}

	ctx = logg.WithFields(ctx, map[string]any{"dir": DefaultDir, "dialect": string(dialect)})
	logg.Info(ctx, "auto-migrate: applying pending migrations")
	if err := runner.Exec(ctx, CmdUp); err != nil {
		return err
	}
	logg.Info(ctx, "auto-migrate: schema up to date")
	return nil
}
