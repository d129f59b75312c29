package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/scntm/scanner/internal/config"
	"github.com/scntm/scanner/internal/datastore"
	_ "github.com/scntm/scanner/internal/detector/modules" // registers the detector catalog
	"github.com/scntm/scanner/internal/logger"
	"github.com/scntm/scanner/internal/model"
	"github.com/scntm/scanner/internal/orchestrator"
	"github.com/scntm/scanner/internal/progresspub"
)

func main() {
	fmt.Println("scntm-scanner starting...")

	flags := parseFlags()
	if flags.Target == "" {
		log.Fatalln("[FATAL] -target is required")
	}

	cfg, err := config.Load(flags.GlobalConfigFile)
	if err != nil {
		log.Fatalf("[FATAL] could not load config: %v", err)
	}

	zLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("[FATAL] could not initialize logger: %v", err)
	}
	zLogger.Info().Msg("logger initialized")

	store, err := datastore.NewSQLiteStore(flags.DBPath, zLogger)
	if err != nil {
		zLogger.Fatal().Err(err).Msg("failed to open datastore")
	}
	defer store.Close()

	publisher := progresspub.NewInMemoryPublisher(zLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		zLogger.Info().Str("signal", sig.String()).Msg("received interrupt signal, cancelling scan")
		cancel()
	}()

	mode := config.ModeQuick
	if flags.Mode == string(config.ModeFull) {
		mode = config.ModeFull
	}

	scanID := uuid.NewString()
	scan := &model.Scan{
		ID:                scanID,
		TargetURL:         flags.Target,
		Mode:              string(mode),
		IncludeSubdomains: cfg.IncludeSubdomains,
		ExcludePatterns:   cfg.ExcludePatterns,
		CustomHeaders:     cfg.HTTP.CustomHeaders,
		RequestDelay:      cfg.HTTP.RequestDelaySeconds,
	}
	if err := store.CreateScan(ctx, scan); err != nil {
		zLogger.Fatal().Err(err).Msg("failed to create scan row")
	}

	orch := orchestrator.New(store, publisher, cfg, zLogger)
	zLogger.Info().Str("scan_id", scanID).Str("target", flags.Target).Str("mode", string(mode)).Msg("starting scan")

	if err := orch.RunScan(ctx, scanID); err != nil {
		zLogger.Fatal().Err(err).Msg("run_scan returned an error from the persistence port")
	}

	final, err := store.LoadScan(context.Background(), scanID)
	if err != nil {
		zLogger.Fatal().Err(err).Msg("failed to reload final scan state")
	}
	zLogger.Info().Str("scan_id", scanID).Str("status", string(final.Status)).Int("pages_scanned", final.PagesScanned).Msg("scan finished")
}
