package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"site-indexer/core/clock"
	"site-indexer/core/config"
	"site-indexer/core/database"
	"site-indexer/core/storage"
	"site-indexer/feature/indexing"
	"site-indexer/feature/indexing/auditlog"
	"site-indexer/feature/indexing/credit"
	"site-indexer/feature/indexing/engine"
	"site-indexer/feature/indexing/indexnow"
	"site-indexer/feature/indexing/liveness"
	"site-indexer/feature/indexing/lock"
	"site-indexer/feature/indexing/models"
	"site-indexer/feature/indexing/quota"
	"site-indexer/feature/indexing/report"
	"site-indexer/feature/indexing/searchengine"
	"site-indexer/feature/indexing/sitemap"
	"site-indexer/feature/indexing/snapshot"

	"go.uber.org/zap"
)

// buildService wires the full indexing stack from configuration. Every
// command that touches the engine goes through here so CLI runs and the
// server share identical semantics.
func buildService(cfg *config.Config, logg *zap.Logger) (*indexing.Service, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	clk := clock.System{}
	httpClient := &http.Client{
		Timeout: time.Duration(cfg.Indexing.HTTPTimeoutSeconds) * time.Second,
	}

	var archiver engine.Archiver
	if cfg.Storage.Enabled {
		store, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		arch := snapshot.NewArchiver(store, cfg.Storage.Bucket, clk, logg)
		if err := arch.EnsureBucket(context.Background()); err != nil {
			return nil, err
		}
		archiver = arch
	}

	quotaLedger := quota.NewLedger(db, clk, quota.Limits{
		Submissions: cfg.Indexing.SubmissionDailyLimit,
		Inspections: cfg.Indexing.InspectionDailyLimit,
	})
	creditLedger := credit.NewLedger(db, logg, cfg.Indexing.LowBalanceThreshold)
	logs := auditlog.NewStore(db)

	eng := engine.New(
		db,
		lock.NewManager(db, clk),
		quotaLedger,
		creditLedger,
		logs,
		sitemap.NewReader(httpClient, logg),
		liveness.NewChecker(httpClient, logg),
		searchengine.NewClient(httpClient, cfg.Indexing.SearchEndpoint, cfg.Indexing.InspectEndpoint, cfg.Indexing.SearchRatePerSecond, logg),
		indexnow.NewClient(httpClient, cfg.Indexing.IndexNowEndpoint, logg),
		archiver,
		clk,
		logg,
		engine.Config{
			CreditCostPerURL:     cfg.Indexing.CreditCostPerURL,
			InspectionBatchLimit: cfg.Indexing.InspectionBatchLimit,
		},
	)

	return indexing.NewService(db, eng, logs, creditLedger, report.NewBuilder(db, logs), logg), nil
}
