// Package auditlog writes and reads the append-only indexing trail.
//
// Every state transition the engine makes (discovery, removal, submission,
// failure, dead page detection) is recorded as one immutable IndexingLog
// row. Reporting surfaces read the entries back paginated and filtered by
// action tag; nothing ever mutates them.
package auditlog

import (
	"context"
	"fmt"
	"time"

	"site-indexer/feature/indexing/models"

	"gorm.io/gorm"
)

// Store appends and reads log entries.
type Store struct {
	db *gorm.DB
}

// NewStore creates an audit log store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Record appends one entry.
func (s *Store) Record(ctx context.Context, accountID, siteID uint, url, action, details string) error {
	entry := models.IndexingLog{
		AccountID: accountID,
		SiteID:    siteID,
		URL:       url,
		Action:    action,
		Details:   details,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to write %s log entry for site %d: %w", action, siteID, err)
	}
	return nil
}

// Page is one page of log entries, newest first.
type Page struct {
	Entries []models.IndexingLog `json:"entries"`
	Total   int64                `json:"total"`
	Page    int                  `json:"page"`
	PerPage int                  `json:"per_page"`
}

const (
	defaultPerPage = 50
	maxPerPage     = 500
)

// List returns a page of entries for a site, optionally filtered by action
// tag. Pages are 1-based.
func (s *Store) List(ctx context.Context, siteID uint, action string, page, perPage int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	q := s.db.WithContext(ctx).Model(&models.IndexingLog{}).Where("site_id = ?", siteID)
	if action != "" {
		q = q.Where("action = ?", action)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count log entries for site %d: %w", siteID, err)
	}

	var entries []models.IndexingLog
	if err := q.Order("id DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list log entries for site %d: %w", siteID, err)
	}

	return &Page{Entries: entries, Total: total, Page: page, PerPage: perPage}, nil
}

// CountByAction returns per-action entry counts for a site restricted to
// one UTC day. The report projection builds its counters from this.
func (s *Store) CountByAction(ctx context.Context, siteID uint, day string) (map[string]int64, error) {
	dayStart, err := time.Parse(models.DayFormat, day)
	if err != nil {
		return nil, fmt.Errorf("invalid day %q: %w", day, err)
	}
	dayEnd := dayStart.Add(24 * time.Hour)

	type row struct {
		Action string
		N      int64
	}
	var rows []row
	err = s.db.WithContext(ctx).Model(&models.IndexingLog{}).
		Select("action, count(*) as n").
		Where("site_id = ?", siteID).
		Where("created_at >= ? AND created_at < ?", dayStart, dayEnd).
		Group("action").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count log actions for site %d: %w", siteID, err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Action] = r.N
	}
	return counts, nil
}
