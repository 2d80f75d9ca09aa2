package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fundfaq/internal/app"
	"fundfaq/internal/common"
	"fundfaq/internal/config"
	"fundfaq/internal/ingest"
	"fundfaq/internal/logging"
)

func main() {
	_ = godotenv.Load()
	os.Exit(run())
}

func run() int {

	var cfgPath, schedule string
	var daemon bool
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ./config.yaml or ~/.config/fundfaq/config.yaml)")
	flag.BoolVar(&daemon, "daemon", false, "Keep running and re-ingest on the configured schedule")
	flag.StringVar(&schedule, "schedule", "", "Cron expression overriding pipeline.schedule (implies --daemon)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(false); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	schedule, err = resolveSchedule(schedule, daemon, cfg.Pipeline.Schedule)
	if err != nil {
		log.Fatalf("invalid schedule: %v", err)
	}

	logger := logging.New(cfg.Logging)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			logger.Warn().Err(err).Msg("Failed to release clients")
		}
	}()

	p, err := a.Pipeline()
	if err != nil {
		logger.Error().Err(err).Msg("Pipeline init failed")
		return 1
	}

	if schedule != "" {
		loc, err := time.LoadLocation(cfg.Pipeline.Timezone)
		if err != nil {
			logger.Error().Err(err).Msg("Invalid pipeline timezone")
			return 1
		}
		if err := ingest.Schedule(ctx, schedule, loc, p, logger); err != nil {
			logger.Error().Err(err).Msg("Scheduler failed")
			return 1
		}
		return 0
	}

	report, err := p.Run(ctx)
	if err != nil {
		logger.Error().Str("run_id", report.RunID).Err(err).Msg("Ingestion failed")
		common.Failure("ingestion %s: %v", report.RunID, err)
		return 1
	}
	logger.Info().
		Str("run_id", report.RunID).
		Int("documents", report.Documents).
		Int("chunks", report.Chunks).
		Int("vectors", report.Vectors).
		Dur("duration", report.Duration).
		Msg("Ingestion finished")
	common.Success("%d pages, %d chunks, %d vectors in %s", report.Documents, report.Chunks, report.Vectors, report.Duration.Round(time.Millisecond))
	return 0
}

// resolveSchedule picks the cron expression for a daemon run. An empty
// result means a single run.
func resolveSchedule(flagValue string, daemon bool, configured string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if !daemon {
		return "", nil
	}
	if configured == "" {
		return "", errors.New("--daemon requires pipeline.schedule or --schedule")
	}
	return configured, nil
}
