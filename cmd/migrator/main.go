package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/YusovID/visit-planner/internal/config"
	"github.com/YusovID/visit-planner/pkg/logger/sl"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/ilyakaznacheev/cleanenv"
)

// Settings are read from the environment on top of the service config.
type Settings struct {
	Path  string `env:"MIGRATIONS_PATH" env-required:"true"`
	Table string `env:"MIGRATIONS_TABLE" env-default:"schema_migrations"`
}

const usage = "usage: migrator [up | down | version | steps N | force V]"

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := run(os.Args[1:], log); err != nil {
		log.Error("migration failed", sl.Err(err))
		os.Exit(1)
	}
}

func run(args []string, log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var settings Settings
	if err := cleanenv.ReadEnv(&settings); err != nil {
		return fmt.Errorf("cannot read migration settings: %w", err)
	}

	m, err := migrate.New(
		"file://"+settings.Path,
		fmt.Sprintf("%s?sslmode=disable&x-migrations-table=%s", cfg.Postgres.DSN(), settings.Table),
	)
	if err != nil {
		return fmt.Errorf("cannot create migrator: %w", err)
	}
	defer m.Close()

	cmd := "up"
	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "up":
		if err := ignoreNoChange(m.Up()); err != nil {
			return fmt.Errorf("cannot apply migrations: %w", err)
		}
	case "down":
		if err := m.Down(); err != nil {
			return fmt.Errorf("cannot roll back migrations: %w", err)
		}
	case "steps":
		n, err := intArg(args)
		if err != nil {
			return err
		}

		if err := ignoreNoChange(m.Steps(n)); err != nil {
			return fmt.Errorf("cannot migrate %d steps: %w", n, err)
		}
	case "force":
		v, err := intArg(args)
		if err != nil {
			return err
		}

		if err := m.Force(v); err != nil {
			return fmt.Errorf("cannot force version %d: %w", v, err)
		}
	case "version":
	default:
		return errors.New(usage)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("cannot read version: %w", err)
	}

	log.Info("schema state", slog.String("command", cmd), slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))

	return nil
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}

	return err
}

func intArg(args []string) (int, error) {
	if len(args) < 2 {
		return 0, errors.New(usage)
	}

	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("%s: %w", usage, err)
	}

	return n, nil
}
