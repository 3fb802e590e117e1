// Package report builds per-site activity summaries from the audit trail,
// the URL inventory and the credit ledger.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"site-indexer/feature/indexing/auditlog"
	"site-indexer/feature/indexing/models"

	"gorm.io/gorm"
)

// DailyReport summarizes one site's indexing activity for one UTC day.
type DailyReport struct {
	SiteID uint   `json:"site_id"`
	Day    string `json:"day"`

	Discovered        int `json:"discovered"`
	Removed           int `json:"removed"`
	SubmittedSearch   int `json:"submitted_search"`
	SubmittedIndexNow int `json:"submitted_indexnow"`
	Failed            int `json:"failed"`
	DeadPages         int `json:"dead_pages"`

	TotalURLs     int64 `json:"total_urls"`
	PendingURLs   int64 `json:"pending_urls"`
	SubmittedURLs int64 `json:"submitted_urls"`
	FailedURLs    int64 `json:"failed_urls"`
	IndexedURLs   int64 `json:"indexed_urls"`

	// CoverageRatio is indexed over submitted, zero when nothing has been
	// submitted yet.
	CoverageRatio float64 `json:"coverage_ratio"`

	CreditsSpent     int `json:"credits_spent"`
	CreditsGranted   int `json:"credits_granted"`
	CreditsRemaining int `json:"credits_remaining"`
}

// Builder assembles daily reports.
type Builder struct {
	db   *gorm.DB
	logs *auditlog.Store
}

// NewBuilder creates a report builder.
func NewBuilder(db *gorm.DB, logs *auditlog.Store) *Builder {
	return &Builder{db: db, logs: logs}
}

// Daily builds the report for one site and one day (models.DayFormat).
func (b *Builder) Daily(ctx context.Context, siteID uint, day string) (*DailyReport, error) {
	var site models.Site
	if err := b.db.WithContext(ctx).First(&site, siteID).Error; err != nil {
		return nil, fmt.Errorf("failed to load site %d: %w", siteID, err)
	}

	dayStart, err := time.Parse(models.DayFormat, day)
	if err != nil {
		return nil, fmt.Errorf("invalid day %q: %w", day, err)
	}
	dayEnd := dayStart.Add(24 * time.Hour)

	counts, err := b.logs.CountByAction(ctx, siteID, day)
	if err != nil {
		return nil, err
	}

	rep := &DailyReport{
		SiteID:            siteID,
		Day:               day,
		Discovered:        int(counts[models.ActionDiscovered]),
		Removed:           int(counts[models.ActionRemoved]),
		SubmittedSearch:   int(counts[models.ActionSubmittedSearch]),
		SubmittedIndexNow: int(counts[models.ActionSubmittedPeer]),
		Failed:            int(counts[models.ActionFailed]),
		DeadPages:         int(counts[models.ActionDeadPage]),
	}

	urlCount := func(dest *int64, query *gorm.DB) error {
		return query.Count(dest).Error
	}
	base := b.db.WithContext(ctx).Model(&models.IndexedURL{}).Where("site_id = ?", siteID)
	if err := urlCount(&rep.TotalURLs, base.Session(&gorm.Session{})); err != nil {
		return nil, fmt.Errorf("failed to count urls: %w", err)
	}
	for status, dest := range map[string]*int64{
		models.StatusPending:   &rep.PendingURLs,
		models.StatusSubmitted: &rep.SubmittedURLs,
		models.StatusFailed:    &rep.FailedURLs,
	} {
		q := b.db.WithContext(ctx).Model(&models.IndexedURL{}).
			Where("site_id = ? AND status = ?", siteID, status)
		if err := urlCount(dest, q); err != nil {
			return nil, fmt.Errorf("failed to count %s urls: %w", status, err)
		}
	}

	indexed := b.db.WithContext(ctx).Model(&models.IndexedURL{}).
		Where("site_id = ? AND search_index_status = ?", siteID, models.CoverageIndexed)
	if err := urlCount(&rep.IndexedURLs, indexed); err != nil {
		return nil, fmt.Errorf("failed to count indexed urls: %w", err)
	}
	if rep.SubmittedURLs > 0 {
		rep.CoverageRatio = float64(rep.IndexedURLs) / float64(rep.SubmittedURLs)
	}

	type sums struct {
		Spent   int
		Granted int
	}
	var s sums
	if err := b.db.WithContext(ctx).Model(&models.CreditEntry{}).
		Select("COALESCE(SUM(CASE WHEN delta < 0 THEN -delta ELSE 0 END), 0) AS spent, "+
			"COALESCE(SUM(CASE WHEN delta > 0 THEN delta ELSE 0 END), 0) AS granted").
		Where("account_id = ? AND created_at >= ? AND created_at < ?", site.AccountID, dayStart, dayEnd).
		Scan(&s).Error; err != nil {
		return nil, fmt.Errorf("failed to sum credit entries: %w", err)
	}
	rep.CreditsSpent = s.Spent
	rep.CreditsGranted = s.Granted

	var account models.CreditAccount
	err = b.db.WithContext(ctx).Where("account_id = ?", site.AccountID).First(&account).Error
	switch {
	case err == nil:
		rep.CreditsRemaining = account.Balance
	case errors.Is(err, gorm.ErrRecordNotFound):
		// No ledger activity yet; balance stays zero.
	default:
		return nil, fmt.Errorf("failed to load credit account: %w", err)
	}

	return rep, nil
}
