// Package lock implements the per-site exclusive leases that keep two
// cycles from running against the same site concurrently.
//
// There is no lock service: acquisition is a single conditional UPDATE on
// the site row, which the database executes atomically. A lease older than
// the staleness threshold is treated as abandoned (a crashed worker never
// released it) and may be taken over.
package lock

import (
	"context"
	"fmt"
	"time"

	"site-indexer/core/clock"
	"site-indexer/feature/indexing/models"

	"gorm.io/gorm"
)

// Kind selects which lease column an operation uses. A manual URL sync and
// a full reconciliation cycle use different kinds so they cannot deadlock
// each other, but two operations of the same kind exclude each other.
type Kind string

const (
	KindSync      Kind = "sync"
	KindAutoIndex Kind = "autoIndex"
)

// StaleAfter is the lease staleness threshold.
const StaleAfter = 10 * time.Minute

// Manager grants and releases site leases.
type Manager struct {
	db    *gorm.DB
	clock clock.Clock
}

// NewManager creates a lock manager backed by the given database.
func NewManager(db *gorm.DB, clk clock.Clock) *Manager {
	return &Manager{db: db, clock: clk}
}

func column(kind Kind) (string, error) {
	switch kind {
	case KindSync:
		return "sync_locked_at", nil
	case KindAutoIndex:
		return "auto_index_locked_at", nil
	default:
		return "", fmt.Errorf("unknown lock kind %q", kind)
	}
}

// TryAcquire attempts to take the lease for (site, kind). It returns false
// without error when the lease is held: contention is an expected outcome,
// the caller skips the cycle and retries on the next schedule tick.
func (m *Manager) TryAcquire(ctx context.Context, siteID uint, kind Kind) (bool, error) {
	col, err := column(kind)
	if err != nil {
		return false, err
	}

	now := m.clock.Now().UTC()
	cutoff := now.Add(-StaleAfter)

	// Conditional atomic update: set the timestamp only if the lease is
	// free or stale. Zero rows affected means someone else holds it.
	res := m.db.WithContext(ctx).
		Model(&models.Site{}).
		Where("id = ?", siteID).
		Where(col+" IS NULL OR "+col+" < ?", cutoff).
		Update(col, now)
	if res.Error != nil {
		return false, fmt.Errorf("failed to acquire %s lock for site %d: %w", kind, siteID, res.Error)
	}

	return res.RowsAffected == 1, nil
}

// Release unconditionally clears the lease.
func (m *Manager) Release(ctx context.Context, siteID uint, kind Kind) error {
	col, err := column(kind)
	if err != nil {
		return err
	}

	res := m.db.WithContext(ctx).
		Model(&models.Site{}).
		Where("id = ?", siteID).
		Update(col, nil)
	if res.Error != nil {
		return fmt.Errorf("failed to release %s lock for site %d: %w", kind, siteID, res.Error)
	}
	return nil
}
