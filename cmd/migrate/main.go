package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"

	"github.com/notes-app/backend/internal/config"
	"github.com/notes-app/backend/internal/logging"
	"github.com/notes-app/backend/internal/repository/postgres"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-config file] up|down|version\n", os.Args[0])
	}
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)

	if cfg.Database.Driver != config.DriverPostgres {
		logger.Fatal().Str("driver", cfg.Database.Driver).Msg("migrate only runs against postgres; sqlite migrates on open")
	}

	cmd := flag.Arg(0)
	if cmd == "" {
		cmd = "up"
	}

	m, err := postgres.NewMigrator(cfg.Database.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("init migrator")
	}
	defer m.Close()

	switch cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			logger.Fatal().Err(verr).Msg("read version")
		}
		logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("schema version")
		return
	default:
		flag.Usage()
		os.Exit(2)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info().Str("cmd", cmd).Msg("no change")
		return
	}
	if err != nil {
		logger.Fatal().Err(err).Str("cmd", cmd).Msg("migration failed")
	}
	logger.Info().Str("cmd", cmd).Msg("migration applied")
}
