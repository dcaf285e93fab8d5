package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aleister1102/docpipe/internal/config"
	"github.com/aleister1102/docpipe/internal/coordinator"
	"github.com/aleister1102/docpipe/internal/datastore"
	"github.com/aleister1102/docpipe/internal/logger"
	"github.com/aleister1102/docpipe/internal/models"
	"github.com/aleister1102/docpipe/internal/scheduler"
	"github.com/rs/zerolog"
)

func main() {
	os.Exit(run())
}

func run() int {
	flags := ParseFlags()

	gCfg, err := config.LoadGlobalConfig(flags.ConfigFile)
	if err != nil {
		log.Printf("[FATAL] Could not load configuration: %v", err)
		return 1
	}
	if flags.ProcessingDate != "" {
		gCfg.ScheduleConfig.ProcessingDateOverride = flags.ProcessingDate
	}
	if err := config.ValidateConfig(gCfg); err != nil {
		log.Printf("[FATAL] Invalid configuration: %v", err)
		return 1
	}

	zLogger, err := logger.New(gCfg.LogConfig)
	if err != nil {
		log.Printf("[FATAL] Could not initialize logger: %v", err)
		return 1
	}

	store, err := datastore.NewStore(gCfg.StorageConfig.TrackerDBPath, zLogger)
	if err != nil {
		zLogger.Error().Err(err).Msg("Could not open tracker database")
		return 1
	}
	defer store.Close()

	cycles := coordinator.NewCycleCoordinator(gCfg, store, zLogger)
	sched, err := scheduler.NewScheduler(gCfg.ScheduleConfig, cycles, datastore.NewRunHistory(store), zLogger)
	if err != nil {
		zLogger.Error().Err(err).Msg("Could not build scheduler")
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if flags.RunOnce {
		return runOnce(ctx, sched, zLogger)
	}

	sched.Start(ctx)
	zLogger.Info().Msg("docpipe is running, press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	zLogger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")

	sched.Stop()
	zLogger.Info().Msg("docpipe stopped")
	return 0
}

func runOnce(ctx context.Context, sched *scheduler.Scheduler, zLogger zerolog.Logger) int {
	summary, err := sched.RunOnce(ctx)
	if err != nil {
		zLogger.Error().Err(err).Msg("Processing cycle could not run")
		return 1
	}

	zLogger.Info().
		Str("status", string(summary.Status)).
		Int("files_downloaded", summary.FilesDownloaded).
		Int("records_extracted", summary.RecordsExtracted).
		Msg("Single cycle finished")

	if summary.Status == models.RunStatusFailed {
		return 1
	}
	return 0
}
