package indexing

import (
	"context"

	"site-indexer/feature/indexing/auditlog"
	"site-indexer/feature/indexing/credit"
	"site-indexer/feature/indexing/engine"
	"site-indexer/feature/indexing/models"
	"site-indexer/feature/indexing/report"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service exposes the indexing operations to the HTTP handler, the CLI and
// the scheduler.
type Service struct {
	db      *gorm.DB
	engine  *engine.Engine
	logs    *auditlog.Store
	credits *credit.Ledger
	reports *report.Builder
	logger  *zap.Logger
}

// NewService creates a new indexing service.
func NewService(db *gorm.DB, eng *engine.Engine, logs *auditlog.Store, credits *credit.Ledger, reports *report.Builder, logger *zap.Logger) *Service {
	return &Service{
		db:      db,
		engine:  eng,
		logs:    logs,
		credits: credits,
		reports: reports,
		logger:  logger,
	}
}

// RunCycle runs one full reconciliation cycle for a site.
func (s *Service) RunCycle(ctx context.Context, siteID uint) (*engine.CycleResult, error) {
	return s.engine.RunCycle(ctx, siteID)
}

// SyncURLs runs the sitemap diff without submissions.
func (s *Service) SyncURLs(ctx context.Context, siteID uint) (*engine.CycleResult, error) {
	return s.engine.SyncURLs(ctx, siteID)
}

// InspectCoverage refreshes search engine coverage for submitted URLs.
func (s *Service) InspectCoverage(ctx context.Context, siteID uint) (*engine.InspectionResult, error) {
	return s.engine.InspectCoverage(ctx, siteID)
}

// VerifyIndexNowKey checks the site's ownership key file on demand.
func (s *Service) VerifyIndexNowKey(ctx context.Context, siteID uint) error {
	return s.engine.VerifyIndexNowKey(ctx, siteID)
}

// RequestRemoval marks a tracked URL as removal-requested.
func (s *Service) RequestRemoval(ctx context.Context, siteID uint, url string) error {
	return s.engine.RequestRemoval(ctx, siteID, url)
}

// Logs returns a page of the site's audit trail.
func (s *Service) Logs(ctx context.Context, siteID uint, page, perPage int, action string) (*auditlog.Page, error) {
	return s.logs.List(ctx, siteID, action, page, perPage)
}

// DailyReport builds the activity summary for one UTC day.
func (s *Service) DailyReport(ctx context.Context, siteID uint, day string) (*report.DailyReport, error) {
	return s.reports.Daily(ctx, siteID, day)
}

// GrantCredits tops up an account's prepaid balance.
func (s *Service) GrantCredits(ctx context.Context, accountID uint, amount int, reason string) (int, error) {
	return s.credits.Grant(ctx, accountID, amount, reason)
}

// CreditBalance returns an account's current balance.
func (s *Service) CreditBalance(ctx context.Context, accountID uint) (int, error) {
	return s.credits.Balance(ctx, accountID)
}

// autoSubmitSites returns the sites the scheduler should sweep.
func (s *Service) autoSubmitSites(ctx context.Context) ([]models.Site, error) {
	var sites []models.Site
	err := s.db.WithContext(ctx).
		Where("auto_submit_search = ? OR auto_submit_index_now = ?", true, true).
		Find(&sites).Error
	return sites, err
}
