package engine

import (
	"context"

	"site-indexer/core/clock"
	"site-indexer/feature/indexing/auditlog"
	"site-indexer/feature/indexing/credit"
	"site-indexer/feature/indexing/liveness"
	"site-indexer/feature/indexing/lock"
	"site-indexer/feature/indexing/quota"
	"site-indexer/feature/indexing/searchengine"
	"site-indexer/feature/indexing/sitemap"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SitemapReader fetches and parses a site's sitemap.
type SitemapReader interface {
	Fetch(ctx context.Context, sitemapURL string) (*sitemap.Document, error)
}

// LivenessChecker reports HTTP reachability for a batch of URLs.
type LivenessChecker interface {
	Check(ctx context.Context, urls []string) ([]liveness.Result, error)
}

// SearchSubmitter drives the quota-limited search engine API.
type SearchSubmitter interface {
	SubmitBatch(ctx context.Context, token string, urls []string) (*searchengine.Outcome, error)
	Inspect(ctx context.Context, token, url string) (string, error)
}

// PeerNotifier drives the IndexNow ownership-verified broadcast channel.
type PeerNotifier interface {
	VerifyKey(ctx context.Context, host, key string) error
	Submit(ctx context.Context, host, key string, urls []string) ([]string, error)
}

// Archiver stores the raw sitemap of each cycle. May be nil-backed; a
// failed or disabled archive never affects the cycle.
type Archiver interface {
	Store(ctx context.Context, siteID uint, raw []byte) (string, error)
}

// Config holds the engine's numeric knobs.
type Config struct {
	// CreditCostPerURL is the prepaid credit price of one search engine
	// submission.
	CreditCostPerURL int
	// InspectionBatchLimit caps how many URLs one InspectCoverage run
	// refreshes.
	InspectionBatchLimit int
}

// Engine is the reconciliation orchestrator. One RunCycle call performs one
// reconciliation cycle for one site; the site lock guarantees no two cycles
// run concurrently for the same site.
type Engine struct {
	db      *gorm.DB
	locks   *lock.Manager
	quota   *quota.Ledger
	credits *credit.Ledger
	logs    *auditlog.Store

	reader  SitemapReader
	checker LivenessChecker
	search  SearchSubmitter
	peer    PeerNotifier
	archive Archiver

	clock  clock.Clock
	logger *zap.Logger
	cfg    Config
}

// New creates a reconciliation engine. archive may be nil when snapshot
// archiving is disabled.
func New(
	db *gorm.DB,
	locks *lock.Manager,
	quotaLedger *quota.Ledger,
	creditLedger *credit.Ledger,
	logs *auditlog.Store,
	reader SitemapReader,
	checker LivenessChecker,
	search SearchSubmitter,
	peer PeerNotifier,
	archive Archiver,
	clk clock.Clock,
	logger *zap.Logger,
	cfg Config,
) *Engine {
	if cfg.CreditCostPerURL <= 0 {
		cfg.CreditCostPerURL = 1
	}
	if cfg.InspectionBatchLimit <= 0 {
		cfg.InspectionBatchLimit = 50
	}
	return &Engine{
		db:      db,
		locks:   locks,
		quota:   quotaLedger,
		credits: creditLedger,
		logs:    logs,
		reader:  reader,
		checker: checker,
		search:  search,
		peer:    peer,
		archive: archive,
		clock:   clk,
		logger:  logger,
		cfg:     cfg,
	}
}
