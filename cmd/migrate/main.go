package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/tna-backend/pkg/config"
	"github.com/angelmondragon/tna-backend/pkg/db"
	"github.com/angelmondragon/tna-backend/pkg/logger"
	"github.com/angelmondragon/tna-backend/pkg/migrate"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|reset|status|version|create|validate")
	dir := flag.String("dir", migrate.DefaultDir, "goose migrations directory")
	name := flag.String("name", "", "migration name (for create)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")

	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dialect := migrate.DialectFor(cfg.DB.Driver)
	ctx = logg.WithFields(context.Background(), map[string]any{
		"env":     cfg.App.Env,
		"cmd":     *cmd,
		"dir":     *dir,
		"dialect": string(dialect),
	})

	// create and validate only touch the filesystem.
	switch *cmd {
	case "create":
		path, err := migrate.CreateSQLMigration(*dir, *name)
		if err != nil {
			logg.Error(ctx, "create migration", err)
			os.Exit(1)
		}
		fmt.Println(path)
		return
	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			logg.Error(ctx, "invalid migrations", err)
			os.Exit(1)
		}
		logg.Info(ctx, "migrations valid")
		return
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	requireResource(ctx, logg, "sql database", err)

	runner, err := migrate.NewRunner(sqlDB, dialect, *dir, os.Stdout)
	requireResource(ctx, logg, "migrations dir", err)

	logg.Info(ctx, "migrate ready")

	if *cmd == "version" {
		err = runner.MigrateTo(ctx, *version)
	} else {
		err = runner.Exec(ctx, *cmd)
	}
	if err != nil {
		logg.Error(ctx, "migration failed", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
