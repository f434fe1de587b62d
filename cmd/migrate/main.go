package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/zerofy/zerofy-backend/pkg/config"
	"github.com/zerofy/zerofy-backend/pkg/db"
	"github.com/zerofy/zerofy-backend/pkg/logger"
	"github.com/zerofy/zerofy-backend/pkg/migrate"
)

func main() {
	var (
		cmd     = flag.String("cmd", "up", "migration command: up | down | status | version | create | validate")
		dir     = flag.String("dir", migrate.DefaultDir, "directory with SQL migrations")
		name    = flag.String("name", "", "name for the new migration (create only)")
		version = flag.String("version", "", "target version (up/down to a specific version)")
	)
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	ctx := context.Background()

	// create and validate operate on files only, no database needed.
	switch *cmd {
	case "create":
		if *name == "" {
			logg.Error(ctx, "missing -name for create", fmt.Errorf("flag -name is required"))
			os.Exit(1)
		}
		path, err := migrate.CreateSQLMigration(*dir, *name)
		if err != nil {
			logg.Error(ctx, "failed to create migration", err)
			os.Exit(1)
		}
		logg.Info(logg.WithFields(ctx, map[string]any{"path": path}), "migration created")
		return
	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			logg.Error(ctx, "migration directory is invalid", err)
			os.Exit(1)
		}
		logg.Info(ctx, "migration directory is valid")
		return
	}

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		logg.Error(ctx, "failed to unwrap sql.DB", err)
		os.Exit(1)
	}

	runCtx := logg.WithFields(ctx, map[string]any{"cmd": *cmd, "dir": *dir})
	if *version != "" {
		if err := migrate.MigrateToVersion(ctx, sqlDB, *dir, *version); err != nil {
			logg.Error(runCtx, "migration failed", err)
			os.Exit(1)
		}
	} else {
		if err := migrate.Run(ctx, sqlDB, *dir, *cmd); err != nil {
			logg.Error(runCtx, "migration failed", err)
			os.Exit(1)
		}
	}
	logg.Info(runCtx, "migration command finished")
}
