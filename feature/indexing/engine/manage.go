package engine

import (
	"context"
	"fmt"

	"site-indexer/feature/indexing/models"
)

// VerifyIndexNowKey checks the site's ownership key file on demand and
// persists the verification state.
func (e *Engine) VerifyIndexNowKey(ctx context.Context, siteID uint) error {
	var site models.Site
	if err := e.db.WithContext(ctx).First(&site, siteID).Error; err != nil {
		return fmt.Errorf("failed to load site %d: %w", siteID, err)
	}
	if site.IndexNowKey == "" {
		return fmt.Errorf("site %d has no indexnow key configured", siteID)
	}

	verifyErr := e.peer.VerifyKey(ctx, site.Domain, site.IndexNowKey)
	verified := verifyErr == nil
	if site.IndexNowKeyVerified != verified {
		if err := e.db.WithContext(ctx).Model(&site).
			Update("index_now_key_verified", verified).Error; err != nil {
			return fmt.Errorf("failed to persist key verification state: %w", err)
		}
	}
	if verifyErr != nil {
		if err := e.logs.Record(ctx, site.AccountID, site.ID, "", models.ActionFailed,
			"indexnow key verification failed: "+verifyErr.Error()); err != nil {
			e.logger.Warn("Failed to write audit log entry")
		}
		return verifyErr
	}
	return nil
}

// RequestRemoval marks a URL as removal-requested. The reconciliation cycle
// leaves such rows alone; they keep their history but are excluded from
// submission batches.
func (e *Engine) RequestRemoval(ctx context.Context, siteID uint, url string) error {
	var site models.Site
	if err := e.db.WithContext(ctx).First(&site, siteID).Error; err != nil {
		return fmt.Errorf("failed to load site %d: %w", siteID, err)
	}

	res := e.db.WithContext(ctx).Model(&models.IndexedURL{}).
		Where("site_id = ? AND url = ?", siteID, url).
		Update("status", models.StatusRemovalRequested)
	if res.Error != nil {
		return fmt.Errorf("failed to request removal of %s: %w", url, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("url %s is not tracked for site %d", url, siteID)
	}

	return e.logs.Record(ctx, site.AccountID, siteID, url,
		models.ActionRemovalRequested, "removal requested by user")
}
