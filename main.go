package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"rental-ingest/config"
	"rental-ingest/metrics"
	"rental-ingest/pipeline"
	"rental-ingest/scraper/apartmentlist"
	"rental-ingest/services"
	"rental-ingest/storage"
	"rental-ingest/utils"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLogger(uuid.NewString(), cfg.LogLevel)

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("Run failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *utils.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Info("=== Rental ingest starting (run %s) ===", logger.RunID())
	logger.Info("Config — city: %s | region: %s | batch: %d | load mode: %s | unit amenities: %s",
		cfg.TargetCity, cfg.RegionURL(), cfg.BatchSize, cfg.LoadMode, cfg.UnitAmenitySource)

	pgWriter, err := storage.NewPostgresWriter(ctx, cfg.DSN(), cfg.LoadMode, logger)
	if err != nil {
		return err
	}
	defer pgWriter.Close()

	if cfg.EnsureSchema {
		if err := pgWriter.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	session, err := apartmentlist.NewSession(cfg, logger)
	if err != nil {
		return err
	}

	var pages apartmentlist.PageSource = session
	if cfg.RenderWithBrowser {
		pages = apartmentlist.NewBrowserPageSource(cfg.ChromeBin, logger)
	}

	recorder := metrics.NewRecorder()
	p := &pipeline.Pipeline{
		Auth:       session,
		Pages:      pages,
		RegionURL:  cfg.RegionURL(),
		Fetcher:    apartmentlist.NewFetcher(session, cfg.BatchSize, cfg.RateLimitMs, logger),
		Normalizer: services.NewNormalizer(cfg.TargetCity, cfg.UnitAmenitySource, logger),
		Loader:     pgWriter,
		Metrics:    recorder,
		Logger:     logger,
	}
	if cfg.CSVOutputDir != "" {
		csvWriter, err := storage.NewCSVWriter(cfg.CSVOutputDir)
		if err != nil {
			return err
		}
		p.Snapshot = csvWriter
	}

	result, runErr := p.Run(ctx)

	if cfg.PushgatewayURL != "" {
		if err := recorder.Push(ctx, cfg.PushgatewayURL, logger.RunID()); err != nil {
			logger.Warn("Metrics push to %s failed: %v", cfg.PushgatewayURL, err)
		}
	}
	if runErr != nil {
		return runErr
	}

	insightSvc := services.NewInsightService(logger)
	insightSvc.Print(insightSvc.Generate(result.Units, result.Amenities))

	fmt.Printf("  Done. %d units | %d amenity rows → PostgreSQL (units, amenities)\n\n",
		len(result.Units), len(result.Amenities))
	return nil
}
