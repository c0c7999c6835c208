package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

const usage = `usage: migrate [-dir DIR] <command> [arg]

commands:
  up              apply all pending migrations
  up-to VERSION   move the schema to VERSION (up or down)
  down            roll back the latest migration
  redo            roll back and re-apply the latest migration
  status          print applied and pending migrations
  create NAME     write a new timestamped SQL migration
  validate        check migration files without a database
`

var errUsage = errors.New("invalid usage")

func main() {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dir := fs.String("dir", migrate.DefaultDir, "goose migrations directory")
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	_ = fs.Parse(os.Args[1:])

	if err := run(*dir, fs.Args()); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run(dir string, args []string) (err error) {
	if len(args) == 0 {
		return errUsage
	}
	command, arg := args[0], ""
	if len(args) > 1 {
		arg = args[1]
	}

	// file-only commands run without config so they work on a bare checkout
	switch command {
	case "create":
		if arg == "" {
			return fmt.Errorf("create: %w", errUsage)
		}
		path, err := migrate.CreateSQLMigration(dir, arg)
		if err != nil {
			return err
		}
		fmt.Println("created", path)
		return nil
	case "validate":
		if err := migrate.ValidateDir(dir); err != nil {
			return err
		}
		fmt.Println("migrations ok")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logg := logger.New(logger.Options{
		ServiceName: "storefront-migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "command": command, "driver": cfg.DB.Driver})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	// goose files are Postgres dialect; sqlite schemas come from the models
	if cfg.DB.Driver == config.DriverSQLite {
		if command != "up" {
			return fmt.Errorf("%s is not supported on sqlite", command)
		}
		if err := migrate.AutoMigrateModels(dbClient.DB()); err != nil {
			return err
		}
		logg.Info(ctx, "migrate.sqlite.done")
		return nil
	}

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return err
	}

	switch command {
	case "up", "down", "redo", "status":
		err = migrate.Run(ctx, sqlDB, dir, command)
	case "up-to":
		if arg == "" {
			return fmt.Errorf("up-to: %w", errUsage)
		}
		err = migrate.MigrateToVersion(ctx, sqlDB, dir, arg)
	default:
		return fmt.Errorf("unknown command %q: %w", command, errUsage)
	}
	if err != nil {
		return err
	}
	logg.Info(ctx, "migrate.done")
	return nil
}
