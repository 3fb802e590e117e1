package engine

import (
	"context"
	"errors"
	"fmt"

	"site-indexer/core/logger"
	"site-indexer/feature/indexing/credit"
	"site-indexer/feature/indexing/lock"
	"site-indexer/feature/indexing/models"
	"site-indexer/feature/indexing/searchengine"

	"go.uber.org/zap"
)

// RunCycle performs one full reconciliation cycle for a site: diff the
// sitemap against stored state, filter dead pages, and submit live pages
// through both channels under quota, credit and lock discipline.
//
// The returned result is always populated on a nil error; stage failures
// are accumulated on it rather than aborting later independent stages. A
// non-nil error means the cycle could not run at all.
func (e *Engine) RunCycle(ctx context.Context, siteID uint) (*CycleResult, error) {
	var site models.Site
	if err := e.db.WithContext(ctx).First(&site, siteID).Error; err != nil {
		return nil, fmt.Errorf("failed to load site %d: %w", siteID, err)
	}

	res := newCycleResult(siteID)
	l := logger.WithSite(e.logger, siteID)

	// 1. Acquire the autoIndex lock; contention means another worker (or a
	// stale crash) is in progress, so skip silently.
	acquired, err := e.locks.TryAcquire(ctx, siteID, lock.KindAutoIndex)
	if err != nil {
		return nil, err
	}
	if !acquired {
		res.Skipped = true
		l.Debug("Cycle skipped, autoIndex lock held")
		return res, nil
	}
	defer func() {
		// Release must happen even when the surrounding context is gone.
		if relErr := e.locks.Release(context.Background(), siteID, lock.KindAutoIndex); relErr != nil {
			l.Error("Failed to release autoIndex lock", zap.Error(relErr))
		}
	}()

	// 2.-6. Diff the sitemap against stored state.
	batch, err := e.syncPages(ctx, &site, res, l)
	if err != nil {
		return nil, err
	}

	if len(batch) > 0 {
		// 7. Filter dead pages before spending quota or credits on them.
		alive := e.filterLive(ctx, &site, batch, res, l)

		// 8. Search engine channel.
		if site.AutoSubmitSearch && len(alive) > 0 {
			e.submitSearch(ctx, &site, alive, res, l)
		}

		// 9. IndexNow channel. Runs regardless of how the search channel
		// fared; the two channels fail independently.
		if site.AutoSubmitIndexNow && site.IndexNowKey != "" && len(alive) > 0 {
			e.submitIndexNow(ctx, &site, alive, res, l)
		}
	}

	if bal, balErr := e.credits.Balance(ctx, site.AccountID); balErr != nil {
		res.addError("credit balance: " + balErr.Error())
	} else {
		res.CreditsRemaining = bal
	}

	l.Info("Reconciliation cycle finished",
		zap.Int("new", res.NewURLs),
		zap.Int("changed", res.ChangedURLs),
		zap.Int("removed", res.RemovedURLs),
		zap.Int("dead", res.DeadURLs),
		zap.Int("submitted_search", res.SubmittedSearch),
		zap.Int("submitted_indexnow", res.SubmittedIndexNow),
		zap.Int("credits_used", res.CreditsUsed),
		zap.Int("errors", len(res.Errors)))

	return res, nil
}

// SyncURLs performs the diff steps only (no liveness check, no
// submissions), under the independent sync lock so it cannot deadlock a
// concurrently running full cycle.
func (e *Engine) SyncURLs(ctx context.Context, siteID uint) (*CycleResult, error) {
	var site models.Site
	if err := e.db.WithContext(ctx).First(&site, siteID).Error; err != nil {
		return nil, fmt.Errorf("failed to load site %d: %w", siteID, err)
	}

	res := newCycleResult(siteID)
	l := logger.WithSite(e.logger, siteID)

	acquired, err := e.locks.TryAcquire(ctx, siteID, lock.KindSync)
	if err != nil {
		return nil, err
	}
	if !acquired {
		res.Skipped = true
		l.Debug("URL sync skipped, sync lock held")
		return res, nil
	}
	defer func() {
		if relErr := e.locks.Release(context.Background(), siteID, lock.KindSync); relErr != nil {
			l.Error("Failed to release sync lock", zap.Error(relErr))
		}
	}()

	if _, err := e.syncPages(ctx, &site, res, l); err != nil {
		return nil, err
	}
	return res, nil
}

// syncPages implements the diff steps: fetch the sitemap, mark removed
// URLs, create or flag new-or-changed rows, and stamp lastSyncedAt. It
// returns the new-or-changed batch. A failed or empty sitemap fetch aborts
// with a recorded error and no destructive state change, so a transient
// fetch failure can never mass-remove a site's URLs.
func (e *Engine) syncPages(ctx context.Context, site *models.Site, res *CycleResult, l *zap.Logger) ([]*models.IndexedURL, error) {
	doc, err := e.reader.Fetch(ctx, site.SitemapLocation())
	if err != nil || len(doc.Entries) == 0 {
		detail := "sitemap contains no URLs"
		if err != nil {
			detail = "sitemap fetch failed: " + err.Error()
		}
		res.addError(detail)
		e.record(ctx, site, "", models.ActionFailed, detail, res, l)
		l.Warn("Aborting cycle without destructive changes", zap.String("reason", detail))
		return nil, nil
	}

	if e.archive != nil {
		if _, archErr := e.archive.Store(ctx, site.ID, doc.Raw); archErr != nil {
			// Archiving is an audit aid, never a cycle blocker.
			res.addError("snapshot archive: " + archErr.Error())
			l.Warn("Failed to archive sitemap snapshot", zap.Error(archErr))
		}
	}

	// 3. Load stored rows into a lookup keyed by URL.
	var stored []models.IndexedURL
	if err := e.db.WithContext(ctx).Where("site_id = ?", site.ID).Find(&stored).Error; err != nil {
		return nil, fmt.Errorf("failed to load indexed urls for site %d: %w", site.ID, err)
	}
	byURL := make(map[string]*models.IndexedURL, len(stored))
	for i := range stored {
		byURL[stored[i].URL] = &stored[i]
	}

	inSitemap := make(map[string]struct{}, len(doc.Entries))
	for _, entry := range doc.Entries {
		inSitemap[entry.Loc] = struct{}{}
	}

	// 4. Stored URLs no longer in the sitemap: clear transient flags and
	// retain the row for historical reporting.
	for i := range stored {
		row := &stored[i]
		if _, ok := inSitemap[row.URL]; ok {
			continue
		}
		res.RemovedURLs++
		row.IsNew = false
		row.IsChanged = false
		if err := e.db.WithContext(ctx).Model(row).
			Updates(map[string]any{"is_new": false, "is_changed": false}).Error; err != nil {
			res.addError(fmt.Sprintf("failed to clear flags on %s: %v", row.URL, err))
			continue
		}
		e.record(ctx, site, row.URL, models.ActionRemoved, "url no longer present in sitemap", res, l)
	}

	// 5. Collect the new-or-changed batch.
	var batch []*models.IndexedURL
	for _, entry := range doc.Entries {
		row, ok := byURL[entry.Loc]
		if !ok {
			newRow := &models.IndexedURL{
				SiteID:  site.ID,
				URL:     entry.Loc,
				LastMod: entry.LastMod,
				IsNew:   true,
				Status:  models.StatusPending,
			}
			if err := e.db.WithContext(ctx).Create(newRow).Error; err != nil {
				res.addError(fmt.Sprintf("failed to create row for %s: %v", entry.Loc, err))
				continue
			}
			res.NewURLs++
			e.record(ctx, site, entry.Loc, models.ActionDiscovered, "url discovered in sitemap", res, l)
			batch = append(batch, newRow)
			continue
		}

		// Rows the user asked to remove are left untouched by the cycle.
		if row.Status == models.StatusRemovalRequested {
			continue
		}

		// A missing lastmod token means change detection relies solely on
		// first-seen/removed transitions for this URL.
		if entry.LastMod != "" && entry.LastMod != row.LastMod {
			row.IsChanged = true
			row.LastMod = entry.LastMod
			row.Status = models.StatusPending
			if err := e.db.WithContext(ctx).Model(row).
				Updates(map[string]any{"is_changed": true, "last_mod": entry.LastMod, "status": models.StatusPending}).Error; err != nil {
				res.addError(fmt.Sprintf("failed to flag %s as changed: %v", row.URL, err))
				continue
			}
			res.ChangedURLs++
			batch = append(batch, row)
		}
	}

	// 6. Stamp the sync time.
	now := e.clock.Now().UTC()
	site.LastSyncedAt = &now
	if err := e.db.WithContext(ctx).Model(site).Update("last_synced_at", now).Error; err != nil {
		res.addError("failed to update last_synced_at: " + err.Error())
	}

	return batch, nil
}

// filterLive runs the liveness check over the batch and marks dead pages
// failed, excluding them from submission. A checker failure leaves the
// cycle with an empty alive batch and a recorded error.
func (e *Engine) filterLive(ctx context.Context, site *models.Site, batch []*models.IndexedURL, res *CycleResult, l *zap.Logger) []*models.IndexedURL {
	results, err := e.checker.Check(ctx, urlsOf(batch))
	if err != nil {
		res.addError("liveness check: " + err.Error())
		l.Warn("Liveness check failed, skipping submissions this cycle", zap.Error(err))
		return nil
	}

	rowByURL := make(map[string]*models.IndexedURL, len(batch))
	for _, row := range batch {
		rowByURL[row.URL] = row
	}

	var alive []*models.IndexedURL
	for _, r := range results {
		row, ok := rowByURL[r.URL]
		if !ok {
			continue
		}
		if r.Alive {
			alive = append(alive, row)
			continue
		}

		res.DeadURLs++
		row.Status = models.StatusFailed
		row.LastHTTPStatus = r.HTTPStatus
		row.LastError = r.Err
		row.RetryCount++
		if err := e.db.WithContext(ctx).Model(row).
			Updates(map[string]any{
				"status":           models.StatusFailed,
				"last_http_status": r.HTTPStatus,
				"last_error":       r.Err,
				"retry_count":      row.RetryCount,
			}).Error; err != nil {
			res.addError(fmt.Sprintf("failed to mark %s dead: %v", row.URL, err))
			continue
		}
		e.record(ctx, site, row.URL, models.ActionDeadPage,
			fmt.Sprintf("dead page (HTTP %d): %s", r.HTTPStatus, r.Err), res, l)
	}

	return alive
}

// submitSearch drives the search engine channel with deduct-before-submit
// semantics: quota is reserved and credits are deducted for the reserved
// count before the batch is sent, then the portion corresponding to
// rate-limited and failed URLs is refunded and released afterwards.
func (e *Engine) submitSearch(ctx context.Context, site *models.Site, alive []*models.IndexedURL, res *CycleResult, l *zap.Logger) {
	reserved, err := e.quota.ReserveSubmissions(ctx, site.AccountID, len(alive))
	if err != nil {
		res.addError("quota reservation: " + err.Error())
		l.Error("Quota reservation failed", zap.Error(err))
		return
	}
	if reserved == 0 {
		res.QuotaExhausted = true
		l.Info("Daily submission quota exhausted, search channel skipped")
		return
	}

	cost := reserved * e.cfg.CreditCostPerURL
	if _, err := e.credits.Deduct(ctx, site.AccountID, cost, "search engine submission"); err != nil {
		// Compensate the reservation before reporting the outcome; no
		// resource is ever left reserved but unaccounted.
		if relErr := e.quota.ReleaseSubmissions(ctx, site.AccountID, reserved); relErr != nil {
			res.addError("quota release: " + relErr.Error())
			l.Error("Failed to release quota after credit failure", zap.Error(relErr))
		}
		if errors.Is(err, credit.ErrInsufficientCredits) {
			res.InsufficientCredits = true
			l.Info("Insufficient credits, search channel skipped",
				zap.Int("needed", cost))
		} else {
			res.addError("credit deduction: " + err.Error())
			l.Error("Credit deduction failed", zap.Error(err))
		}
		return
	}
	res.CreditsUsed += cost

	subset := alive[:reserved]
	outcome, err := e.search.SubmitBatch(ctx, site.SearchAPIToken, urlsOf(subset))
	if err != nil {
		if searchengine.IsAuthError(err) {
			// Authorization expired: needs user action, so disable the
			// toggle instead of retrying blindly every cycle.
			res.AuthExpired = true
			site.AutoSubmitSearch = false
			if dbErr := e.db.WithContext(ctx).Model(site).
				Update("auto_submit_search", false).Error; dbErr != nil {
				res.addError("failed to disable search toggle: " + dbErr.Error())
			}
			e.record(ctx, site, "", models.ActionFailed,
				"search engine authorization expired, auto-submit disabled", res, l)
			l.Warn("Search engine authorization expired", zap.Error(err))
		} else {
			res.addError("search submission: " + err.Error())
			l.Error("Search submission batch failed", zap.Error(err))
		}
	}
	if outcome == nil {
		outcome = &searchengine.Outcome{Failed: map[string]string{}}
	}

	rowByURL := make(map[string]*models.IndexedURL, len(subset))
	for _, row := range subset {
		rowByURL[row.URL] = row
	}

	now := e.clock.Now().UTC()
	for _, u := range outcome.Accepted {
		row, ok := rowByURL[u]
		if !ok {
			continue
		}
		row.Status = models.StatusSubmitted
		row.AddSubmissionMethod(models.MethodSearchEngine)
		row.LastSubmittedAt = &now
		row.RetryCount = 0
		row.LastError = ""
		if err := e.db.WithContext(ctx).Model(row).
			Updates(map[string]any{
				"status":             models.StatusSubmitted,
				"submission_methods": row.SubmissionMethods,
				"last_submitted_at":  now,
				"retry_count":        0,
				"last_error":         "",
			}).Error; err != nil {
			res.addError(fmt.Sprintf("failed to mark %s submitted: %v", u, err))
			continue
		}
		res.SubmittedSearch++
		e.record(ctx, site, u, models.ActionSubmittedSearch, "accepted by search engine API", res, l)
	}

	// Refund credits and release quota for every reserved slot that did
	// not result in an accepted submission: rate-limited, failed, and (on
	// an aborted batch) never-attempted URLs.
	unspent := reserved - len(outcome.Accepted)
	if unspent > 0 {
		refund := unspent * e.cfg.CreditCostPerURL
		if _, refErr := e.credits.Refund(ctx, site.AccountID, refund, "search engine submission refund"); refErr != nil {
			// Bounded inconsistency: log for manual reconciliation rather
			// than retrying indefinitely.
			res.addError("credit refund: " + refErr.Error())
			l.Error("Credit refund failed, ledger needs manual reconciliation",
				zap.Int("amount", refund), zap.Error(refErr))
		} else {
			res.CreditsUsed -= refund
		}
		if relErr := e.quota.ReleaseSubmissions(ctx, site.AccountID, unspent); relErr != nil {
			res.addError("quota release: " + relErr.Error())
			l.Error("Quota release failed", zap.Error(relErr))
		}
	}

	res.RateLimitedSearch = len(outcome.RateLimited)
	for u, reason := range outcome.Failed {
		row, ok := rowByURL[u]
		if !ok {
			continue
		}
		row.Status = models.StatusFailed
		row.LastError = reason
		row.RetryCount++
		if err := e.db.WithContext(ctx).Model(row).
			Updates(map[string]any{
				"status":      models.StatusFailed,
				"last_error":  reason,
				"retry_count": row.RetryCount,
			}).Error; err != nil {
			res.addError(fmt.Sprintf("failed to mark %s failed: %v", u, err))
			continue
		}
		res.FailedSearch++
		e.record(ctx, site, u, models.ActionFailed, "search engine rejected url: "+reason, res, l)
	}
}

// submitIndexNow drives the peer notification channel. The ownership key is
// re-verified before every batch; a failed check disables the channel for
// this cycle and marks the key unverified, without retrying in-cycle.
func (e *Engine) submitIndexNow(ctx context.Context, site *models.Site, alive []*models.IndexedURL, res *CycleResult, l *zap.Logger) {
	if err := e.peer.VerifyKey(ctx, site.Domain, site.IndexNowKey); err != nil {
		res.KeyVerificationFailed = true
		res.addError("indexnow key verification: " + err.Error())
		if site.IndexNowKeyVerified {
			site.IndexNowKeyVerified = false
			if dbErr := e.db.WithContext(ctx).Model(site).
				Update("index_now_key_verified", false).Error; dbErr != nil {
				res.addError("failed to mark key unverified: " + dbErr.Error())
			}
		}
		e.record(ctx, site, "", models.ActionFailed,
			"indexnow key verification failed: "+err.Error(), res, l)
		l.Warn("IndexNow key verification failed", zap.Error(err))
		return
	}
	if !site.IndexNowKeyVerified {
		site.IndexNowKeyVerified = true
		if dbErr := e.db.WithContext(ctx).Model(site).
			Update("index_now_key_verified", true).Error; dbErr != nil {
			res.addError("failed to mark key verified: " + dbErr.Error())
		}
	}

	submitted, err := e.peer.Submit(ctx, site.Domain, site.IndexNowKey, urlsOf(alive))
	if err != nil {
		res.addError("indexnow submission: " + err.Error())
		e.record(ctx, site, "", models.ActionFailed, "indexnow submission failed: "+err.Error(), res, l)
		l.Error("IndexNow submission failed", zap.Error(err))
		return
	}

	rowByURL := make(map[string]*models.IndexedURL, len(alive))
	for _, row := range alive {
		rowByURL[row.URL] = row
	}

	now := e.clock.Now().UTC()
	for _, u := range submitted {
		row, ok := rowByURL[u]
		if !ok {
			continue
		}
		row.Status = models.StatusSubmitted
		// A URL accepted by both channels records both methods.
		row.AddSubmissionMethod(models.MethodIndexNow)
		row.LastSubmittedAt = &now
		if err := e.db.WithContext(ctx).Model(row).
			Updates(map[string]any{
				"status":             models.StatusSubmitted,
				"submission_methods": row.SubmissionMethods,
				"last_submitted_at":  now,
			}).Error; err != nil {
			res.addError(fmt.Sprintf("failed to mark %s submitted: %v", u, err))
			continue
		}
		res.SubmittedIndexNow++
		e.record(ctx, site, u, models.ActionSubmittedPeer, "accepted by indexnow endpoint", res, l)
	}
}

// record appends an audit entry; a failed write is a non-fatal error on the
// result.
func (e *Engine) record(ctx context.Context, site *models.Site, url, action, details string, res *CycleResult, l *zap.Logger) {
	if err := e.logs.Record(ctx, site.AccountID, site.ID, url, action, details); err != nil {
		res.addError("audit log: " + err.Error())
		l.Error("Failed to write audit log entry", zap.String("action", action), zap.Error(err))
	}
}

func urlsOf(rows []*models.IndexedURL) []string {
	urls := make([]string, 0, len(rows))
	for _, row := range rows {
		urls = append(urls, row.URL)
	}
	return urls
}
