package engine

import (
	"context"
	"fmt"

	"site-indexer/core/logger"
	"site-indexer/feature/indexing/lock"
	"site-indexer/feature/indexing/models"
	"site-indexer/feature/indexing/searchengine"

	"go.uber.org/zap"
)

// InspectCoverage refreshes the search engine coverage state of the site's
// submitted URLs, oldest refresh first, up to the configured batch limit.
// Inspections draw on their own daily quota and cost no credits.
func (e *Engine) InspectCoverage(ctx context.Context, siteID uint) (*InspectionResult, error) {
	var site models.Site
	if err := e.db.WithContext(ctx).First(&site, siteID).Error; err != nil {
		return nil, fmt.Errorf("failed to load site %d: %w", siteID, err)
	}

	res := &InspectionResult{SiteID: siteID, Errors: []string{}}
	l := logger.WithSite(e.logger, siteID)

	acquired, err := e.locks.TryAcquire(ctx, siteID, lock.KindSync)
	if err != nil {
		return nil, err
	}
	if !acquired {
		res.Skipped = true
		l.Debug("Coverage inspection skipped, sync lock held")
		return res, nil
	}
	defer func() {
		if relErr := e.locks.Release(context.Background(), siteID, lock.KindSync); relErr != nil {
			l.Error("Failed to release sync lock", zap.Error(relErr))
		}
	}()

	var rows []models.IndexedURL
	if err := e.db.WithContext(ctx).
		Where("site_id = ? AND status = ?", siteID, models.StatusSubmitted).
		Order("last_submitted_at ASC").
		Limit(e.cfg.InspectionBatchLimit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load submitted urls for site %d: %w", siteID, err)
	}
	if len(rows) == 0 {
		return res, nil
	}

	reserved, err := e.quota.ReserveInspections(ctx, site.AccountID, len(rows))
	if err != nil {
		res.Errors = append(res.Errors, "quota reservation: "+err.Error())
		return res, nil
	}
	if reserved == 0 {
		res.QuotaExhausted = true
		l.Info("Daily inspection quota exhausted")
		return res, nil
	}

	for i := range rows[:reserved] {
		row := &rows[i]
		state, err := e.search.Inspect(ctx, site.SearchAPIToken, row.URL)
		if err != nil {
			if searchengine.IsAuthError(err) {
				res.AuthExpired = true
				l.Warn("Search engine authorization expired during inspection", zap.Error(err))
				// Hand back the slots we will not use.
				if relErr := e.quota.ReleaseInspections(ctx, site.AccountID, reserved-i); relErr != nil {
					res.Errors = append(res.Errors, "quota release: "+relErr.Error())
				}
				return res, nil
			}
			res.Errors = append(res.Errors, fmt.Sprintf("inspect %s: %v", row.URL, err))
			continue
		}

		if err := e.db.WithContext(ctx).Model(row).
			Update("search_index_status", state).Error; err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("failed to store coverage for %s: %v", row.URL, err))
			continue
		}
		res.Inspected++
	}

	l.Info("Coverage inspection finished",
		zap.Int("inspected", res.Inspected),
		zap.Int("errors", len(res.Errors)))

	return res, nil
}
