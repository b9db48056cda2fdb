package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/seethrueu/openfinesse/internal/adapters/bob50"
	"github.com/seethrueu/openfinesse/internal/config"
	"github.com/seethrueu/openfinesse/internal/core"
	"github.com/seethrueu/openfinesse/internal/db"
	"github.com/seethrueu/openfinesse/internal/logger"
)

const logFile = "openfinesse.log"

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: openfinesse <config.yaml>")
		os.Exit(2)
	}

	log, closeLog, err := logger.New(logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	log = log.With().Str("run_id", uuid.NewString()).Logger()

	if err := run(context.Background(), log, os.Args[1]); err != nil {
		// Full detail goes to the log; the operator gets a short notice.
		log.Error().Err(err).Msg("import failed")
		fmt.Println("An error has occurred during the import")
		fmt.Println("See", logFile, "for more information")
		os.Exit(1)
	}
}

func run(ctx context.Context, log zerolog.Logger, configPath string) error {
	log.Debug().Str("config", configPath).Msg("parsing config file")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	var source core.Source
	switch cfg.Source {
	case "bob50":
		source = bob50.New(cfg.Bob50)
	default:
		return fmt.Errorf("unknown source system %q", cfg.Source)
	}
	log.Debug().Ints("exclude_years", cfg.Bob50.ExcludeYears).Msg("ignoring accounting years")

	pool, err := db.NewPool(ctx, cfg.Model.Connection)
	if err != nil {
		return err
	}
	defer pool.Close()

	log.Debug().Str("schema", cfg.Model.Schema).Msg("initialising database")
	if err := db.Bootstrap(ctx, pool, cfg.Model.Schema); err != nil {
		return err
	}

	sink := db.NewSink(pool)
	importer := core.NewImporter(source, sink, cfg.Bob50.ExcludeYears, log)
	if err := importer.Run(ctx); err != nil {
		return err
	}

	scheduler := core.NewScheduler(core.DefaultKpis(), cfg.Kpi, db.NewRunner(pool), sink, core.NewSequence(), log)
	if err := scheduler.Run(ctx); err != nil {
		return err
	}

	log.Info().Msg("import complete")
	return nil
}
