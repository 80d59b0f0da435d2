package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"lanews-extractor/internal/app"
	"lanews-extractor/internal/browser"
	"lanews-extractor/internal/config"
	"lanews-extractor/internal/export"
	"lanews-extractor/internal/fetcher"
	"lanews-extractor/internal/observability"
	"lanews-extractor/internal/scraper"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	phrase := flag.String("phrase", "", "search phrase (overrides work item)")
	months := flag.Int("months", -1, "number of months to collect (overrides work item)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	item, err := cfg.ResolveWorkItem(os.Getenv)
	if err != nil {
		log.Fatalf("Failed to resolve work item: %v", err)
	}
	if *phrase != "" {
		item.SearchPhrase = *phrase
	}
	if *months >= 0 {
		item.NoOfMonths = *months
	}

	locators, err := cfg.Locators()
	if err != nil {
		log.Fatalf("Failed to load locators: %v", err)
	}

	runID := uuid.NewString()
	obs := cfg.Observability
	logger := observability.NewLogger(obs.LogPath, obs.LogLevel, observability.Rotation{
		MaxSizeMB:  obs.MaxSizeMB,
		MaxBackups: obs.MaxBackups,
		MaxAgeDays: obs.MaxAgeDays,
		Compress:   true,
	}).With("run_id", runID)
	defer func() { _ = logger.Close() }()

	ctx, cancel := app.GracefulShutdown(logger)
	defer cancel()

	session, err := newSession(ctx, cfg, locators, logger)
	if err != nil {
		logger.Error("Failed to start browser", "driver", cfg.Browser.Driver, "error", err.Error())
		return
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("Failed to close browser", "error", err.Error())
		}
	}()

	sink, err := newSink(ctx, cfg, runID, logger)
	if err != nil {
		logger.Error("Failed to open export sink", "driver", cfg.Export.Driver, "error", err.Error())
		return
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Warn("Failed to close export sink", "error", err.Error())
		}
	}()

	orchestrator := app.NewOrchestrator(
		cfg,
		item,
		runID,
		session,
		fetcher.NewFetcher(cfg, logger),
		sink,
		locators,
		logger,
	)
	orchestrator.Run(ctx)
}

func newSession(ctx context.Context, cfg *config.Config, locators *scraper.Locators, logger *observability.Logger) (browser.Session, error) {
	if cfg.Browser.Driver == "static" {
		return browser.LoadStaticDir(cfg.Browser.StaticDir, locators.NextPage)
	}
	return browser.NewRodSession(ctx, browser.RodOptions{
		ChromePath:  cfg.Browser.ChromePath,
		Headless:    cfg.Browser.Headless,
		PageTimeout: cfg.GetPageTimeout(),
	}, logger)
}

func newSink(ctx context.Context, cfg *config.Config, runID string, logger *observability.Logger) (export.Sink, error) {
	switch cfg.Export.Driver {
	case "mssql":
		return export.NewMSSQLSink(ctx, cfg.Export.DSN, cfg.Export.Table, runID, cfg.GetCommandTimeout(), logger)
	case "sqlite":
		return export.NewSQLiteSink(ctx, cfg.Export.DSN, cfg.Export.Table, runID, cfg.GetCommandTimeout(), logger)
	default:
		return export.NewXLSXSink(
			filepath.Join(cfg.Output.Dir, cfg.Output.FileName),
			cfg.Output.SheetName,
			logger,
		), nil
	}
}
