package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fundfaq/internal/app"
	"fundfaq/internal/common"
	"fundfaq/internal/config"
	"fundfaq/internal/logging"
	"fundfaq/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	var cfgPath, dumpPath string
	var showVersion bool
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ./config.yaml or ~/.config/fundfaq/config.yaml)")
	flag.StringVar(&dumpPath, "dump-config", "", "Write the effective config to this path and exit")
	flag.BoolVar(&showVersion, "version", false, "Print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("faq-server version %s\n", common.FullVersion())
		return
	}

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
	if dumpPath != "" {
		if err := config.Save(dumpPath, cfg); err != nil {
			log.Fatalf("failed to write config: %v", err)
		}
		return
	}
	if err := cfg.Validate(true); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	common.PrintBanner("Fund FAQ")
	logger := logging.New(cfg.Logging)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	svc, err := a.AnswerService()
	if err != nil {
		log.Fatalf("answer service init failed: %v", err)
	}

	srv := server.New(server.Config{
		Addr:           cfg.Server.Addr(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Disclaimer:     cfg.Disclaimer,
		RefusalLink:    cfg.Advice.RefusalLink,
	}, svc, logger)

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	select {
	case err := <-errc:
		if err != nil {
			logger.Error().Err(err).Msg("Server failed")
		}
	case <-ctx.Done():
		logger.Info().Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Server shutdown incomplete")
	}
	if err := a.Close(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Failed to release clients")
	}
}
