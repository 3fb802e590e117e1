// Package quota implements the per-account daily counters that bound how
// many search engine submissions and inspections an account may perform.
//
// Reservations commit through an optimistic compare-and-set update, so the
// sum of concurrent reservations for one account can never exceed the daily
// limit even when cycles for different sites of the same account interleave.
package quota

import (
	"context"
	"errors"
	"fmt"

	"site-indexer/core/clock"
	"site-indexer/feature/indexing/models"

	"gorm.io/gorm"
)

// Limits holds the fixed daily limits per account.
type Limits struct {
	Submissions int
	Inspections int
}

// counter selects which DailyQuota column a reservation draws from.
type counter string

const (
	counterSubmissions counter = "submissions_used"
	counterInspections counter = "inspections_used"
)

// casAttempts bounds the optimistic update loop under contention.
const casAttempts = 5

// Ledger manages the daily quota counters.
type Ledger struct {
	db     *gorm.DB
	clock  clock.Clock
	limits Limits
}

// NewLedger creates a quota ledger with the given daily limits.
func NewLedger(db *gorm.DB, clk clock.Clock, limits Limits) *Ledger {
	return &Ledger{db: db, clock: clk, limits: limits}
}

// ReserveSubmissions reserves up to requested submission slots for today,
// returning how many were actually reserved (possibly 0).
func (l *Ledger) ReserveSubmissions(ctx context.Context, accountID uint, requested int) (int, error) {
	return l.reserve(ctx, accountID, requested, counterSubmissions, l.limits.Submissions)
}

// ReleaseSubmissions returns unused submission slots after a partial
// failure. The counter never goes below zero.
func (l *Ledger) ReleaseSubmissions(ctx context.Context, accountID uint, count int) error {
	return l.release(ctx, accountID, count, counterSubmissions)
}

// ReserveInspections reserves up to requested inspection slots for today.
func (l *Ledger) ReserveInspections(ctx context.Context, accountID uint, requested int) (int, error) {
	return l.reserve(ctx, accountID, requested, counterInspections, l.limits.Inspections)
}

// ReleaseInspections returns unused inspection slots.
func (l *Ledger) ReleaseInspections(ctx context.Context, accountID uint, count int) error {
	return l.release(ctx, accountID, count, counterInspections)
}

// Used returns today's committed counters for an account.
func (l *Ledger) Used(ctx context.Context, accountID uint) (submissions, inspections int, err error) {
	var q models.DailyQuota
	err = l.db.WithContext(ctx).
		Where("account_id = ? AND day = ?", accountID, l.today()).
		First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read quota for account %d: %w", accountID, err)
	}
	return q.SubmissionsUsed, q.InspectionsUsed, nil
}

func (l *Ledger) today() string {
	return l.clock.Now().UTC().Format(models.DayFormat)
}

func (l *Ledger) reserve(ctx context.Context, accountID uint, requested int, col counter, limit int) (int, error) {
	if requested <= 0 {
		return 0, nil
	}

	day := l.today()

	for attempt := 0; attempt < casAttempts; attempt++ {
		row, err := l.loadOrCreate(ctx, accountID, day)
		if err != nil {
			return 0, err
		}

		used := row.SubmissionsUsed
		if col == counterInspections {
			used = row.InspectionsUsed
		}

		remaining := limit - used
		if remaining <= 0 {
			return 0, nil
		}
		grant := requested
		if grant > remaining {
			grant = remaining
		}

		// CAS on the previously observed value. A concurrent reservation
		// moves the counter and we re-read; the committed sum is always
		// bounded by the limit.
		res := l.db.WithContext(ctx).
			Model(&models.DailyQuota{}).
			Where("id = ? AND "+string(col)+" = ?", row.ID, used).
			Update(string(col), used+grant)
		if res.Error != nil {
			return 0, fmt.Errorf("failed to reserve quota for account %d: %w", accountID, res.Error)
		}
		if res.RowsAffected == 1 {
			return grant, nil
		}
	}

	return 0, fmt.Errorf("quota reservation for account %d did not commit after %d attempts", accountID, casAttempts)
}

func (l *Ledger) release(ctx context.Context, accountID uint, count int, col counter) error {
	if count <= 0 {
		return nil
	}

	day := l.today()

	for attempt := 0; attempt < casAttempts; attempt++ {
		var row models.DailyQuota
		err := l.db.WithContext(ctx).
			Where("account_id = ? AND day = ?", accountID, day).
			First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Nothing was reserved today; nothing to release.
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read quota for account %d: %w", accountID, err)
		}

		used := row.SubmissionsUsed
		if col == counterInspections {
			used = row.InspectionsUsed
		}

		// Floor at zero: a release can only compensate an earlier
		// reservation, never drive the counter negative.
		next := used - count
		if next < 0 {
			next = 0
		}

		res := l.db.WithContext(ctx).
			Model(&models.DailyQuota{}).
			Where("id = ? AND "+string(col)+" = ?", row.ID, used).
			Update(string(col), next)
		if res.Error != nil {
			return fmt.Errorf("failed to release quota for account %d: %w", accountID, res.Error)
		}
		if res.RowsAffected == 1 {
			return nil
		}
	}

	return fmt.Errorf("quota release for account %d did not commit after %d attempts", accountID, casAttempts)
}

// loadOrCreate reads today's row, creating it lazily on first use. A unique
// index on (account, day) makes concurrent creation safe: the loser of the
// race falls back to reading the winner's row.
func (l *Ledger) loadOrCreate(ctx context.Context, accountID uint, day string) (*models.DailyQuota, error) {
	var row models.DailyQuota
	err := l.db.WithContext(ctx).
		Where("account_id = ? AND day = ?", accountID, day).
		First(&row).Error
	if err == nil {
		return &row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to read quota for account %d: %w", accountID, err)
	}

	row = models.DailyQuota{AccountID: accountID, Day: day}
	if createErr := l.db.WithContext(ctx).Create(&row).Error; createErr != nil {
		// Likely a duplicate-key race with another cycle; re-read.
		if readErr := l.db.WithContext(ctx).
			Where("account_id = ? AND day = ?", accountID, day).
			First(&row).Error; readErr != nil {
			return nil, fmt.Errorf("failed to create quota row for account %d: %w", accountID, createErr)
		}
	}
	return &row, nil
}
