// Package credit implements the prepaid credit ledger.
//
// The balance is a single non-negative integer per account. Deducts commit
// through one conditional UPDATE guarded by `balance >= amount`, so a
// deduct either applies fully or fails with ErrInsufficientCredits; it can
// never partially apply or drive the balance negative. Every movement also
// appends a CreditEntry line for audit.
package credit

import (
	"context"
	"errors"
	"fmt"

	"site-indexer/feature/indexing/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrInsufficientCredits is returned when a deduct exceeds the balance.
var ErrInsufficientCredits = errors.New("insufficient credits")

// Ledger manages per-account prepaid balances.
type Ledger struct {
	db     *gorm.DB
	logger *zap.Logger

	// lowBalanceThreshold triggers the one-shot low balance warning flag.
	lowBalanceThreshold int
}

// NewLedger creates a credit ledger.
func NewLedger(db *gorm.DB, logger *zap.Logger, lowBalanceThreshold int) *Ledger {
	return &Ledger{db: db, logger: logger, lowBalanceThreshold: lowBalanceThreshold}
}

// Balance returns the current balance. Accounts without a row have a zero
// balance.
func (l *Ledger) Balance(ctx context.Context, accountID uint) (int, error) {
	var acc models.CreditAccount
	err := l.db.WithContext(ctx).First(&acc, "account_id = ?", accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read credit balance for account %d: %w", accountID, err)
	}
	return acc.Balance, nil
}

// Deduct atomically removes amount from the balance and returns the new
// balance. It fails with ErrInsufficientCredits when amount exceeds the
// balance, leaving the ledger untouched.
func (l *Ledger) Deduct(ctx context.Context, accountID uint, amount int, reason string) (int, error) {
	if amount <= 0 {
		return l.Balance(ctx, accountID)
	}

	var newBalance int
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CreditAccount{}).
			Where("account_id = ? AND balance >= ?", accountID, amount).
			Update("balance", gorm.Expr("balance - ?", amount))
		if res.Error != nil {
			return fmt.Errorf("failed to deduct credits for account %d: %w", accountID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientCredits
		}

		var acc models.CreditAccount
		if err := tx.First(&acc, "account_id = ?", accountID).Error; err != nil {
			return fmt.Errorf("failed to reload credit account %d: %w", accountID, err)
		}
		newBalance = acc.Balance

		if err := l.appendEntry(tx, accountID, -amount, newBalance, reason); err != nil {
			return err
		}

		// One-shot warning flag when the balance drops below the threshold.
		if newBalance < l.lowBalanceThreshold && !acc.LowBalanceWarned {
			if err := tx.Model(&models.CreditAccount{}).
				Where("account_id = ?", accountID).
				Update("low_balance_warned", true).Error; err != nil {
				return fmt.Errorf("failed to set low balance flag for account %d: %w", accountID, err)
			}
			l.logger.Warn("Credit balance below threshold",
				zap.Uint("account_id", accountID),
				zap.Int("balance", newBalance),
				zap.Int("threshold", l.lowBalanceThreshold))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

// Refund atomically returns amount to the balance, compensating an earlier
// deduct after a partial submission failure.
func (l *Ledger) Refund(ctx context.Context, accountID uint, amount int, reason string) (int, error) {
	return l.credit(ctx, accountID, amount, reason, false)
}

// Grant tops up the balance. Unlike Refund it creates the account row when
// missing, and clears the low balance flag once the balance recovers.
func (l *Ledger) Grant(ctx context.Context, accountID uint, amount int, reason string) (int, error) {
	return l.credit(ctx, accountID, amount, reason, true)
}

func (l *Ledger) credit(ctx context.Context, accountID uint, amount int, reason string, createMissing bool) (int, error) {
	if amount <= 0 {
		return l.Balance(ctx, accountID)
	}

	var newBalance int
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CreditAccount{}).
			Where("account_id = ?", accountID).
			Update("balance", gorm.Expr("balance + ?", amount))
		if res.Error != nil {
			return fmt.Errorf("failed to credit account %d: %w", accountID, res.Error)
		}
		if res.RowsAffected == 0 {
			if !createMissing {
				return fmt.Errorf("credit account %d does not exist", accountID)
			}
			acc := models.CreditAccount{AccountID: accountID, Balance: amount}
			if err := tx.Create(&acc).Error; err != nil {
				return fmt.Errorf("failed to create credit account %d: %w", accountID, err)
			}
		}

		var acc models.CreditAccount
		if err := tx.First(&acc, "account_id = ?", accountID).Error; err != nil {
			return fmt.Errorf("failed to reload credit account %d: %w", accountID, err)
		}
		newBalance = acc.Balance

		if err := l.appendEntry(tx, accountID, amount, newBalance, reason); err != nil {
			return err
		}

		if acc.LowBalanceWarned && newBalance >= l.lowBalanceThreshold {
			if err := tx.Model(&models.CreditAccount{}).
				Where("account_id = ?", accountID).
				Update("low_balance_warned", false).Error; err != nil {
				return fmt.Errorf("failed to clear low balance flag for account %d: %w", accountID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

func (l *Ledger) appendEntry(tx *gorm.DB, accountID uint, delta, balanceAfter int, reason string) error {
	entry := models.CreditEntry{
		ID:           uuid.NewString(),
		AccountID:    accountID,
		Delta:        delta,
		BalanceAfter: balanceAfter,
		Reason:       reason,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to append credit entry for account %d: %w", accountID, err)
	}
	return nil
}
