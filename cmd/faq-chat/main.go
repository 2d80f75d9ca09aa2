package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"fundfaq/internal/app"
	"fundfaq/internal/common"
	"fundfaq/internal/config"
	"fundfaq/internal/logging"
	"fundfaq/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var ingestFirst bool
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ./config.yaml or ~/.config/fundfaq/config.yaml)")
	flag.BoolVar(&ingestFirst, "ingest", false, "Run the ingestion pipeline before starting the chat")
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
	// An in-process index starts empty on every launch.
	if cfg.VectorStore.Type == "memory" {
		ingestFirst = true
	}
	if err := cfg.Validate(!ingestFirst); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	// Console logs would draw over the terminal UI.
	cfg.Logging.Output = []string{"file"}
	logger := logging.New(cfg.Logging)

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = a.Close(closeCtx)
	}()

	if ingestFirst {
		p, err := a.Pipeline()
		if err != nil {
			log.Fatalf("pipeline init failed: %v", err)
		}
		common.Info("Ingesting %d scheme pages...", len(cfg.Sources))
		report, err := p.Run(ctx)
		if err != nil {
			log.Fatalf("ingest failed: %v", err)
		}
		common.Success("Indexed %d chunks from %d pages in %s", report.Vectors, report.Documents, report.Duration.Round(time.Millisecond))
	}

	svc, err := a.AnswerService()
	if err != nil {
		log.Fatalf("answer service init failed: %v", err)
	}

	m := tui.New(svc, cfg.Disclaimer)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
