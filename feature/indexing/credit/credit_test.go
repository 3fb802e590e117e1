package credit_test

import (
	"context"
	"testing"

	"site-indexer/core/database"
	"site-indexer/feature/indexing/credit"
	"site-indexer/feature/indexing/models"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupCreditTest(t *testing.T, threshold int) (*gorm.DB, *credit.Ledger) {
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	assert.NoError(t, err)

	err = db.AutoMigrate(models.All()...)
	assert.NoError(t, err)

	return db, credit.NewLedger(db, zap.NewNop(), threshold)
}

func TestDeductWithoutBalance(t *testing.T) {
	_, ledger := setupCreditTest(t, 0)

	_, err := ledger.Deduct(context.Background(), 1, 10, "test")
	assert.ErrorIs(t, err, credit.ErrInsufficientCredits)
}

func TestDeductNeverGoesNegative(t *testing.T) {
	_, ledger := setupCreditTest(t, 0)
	ctx := context.Background()

	_, err := ledger.Grant(ctx, 1, 5, "top up")
	assert.NoError(t, err)

	_, err = ledger.Deduct(ctx, 1, 6, "test")
	assert.ErrorIs(t, err, credit.ErrInsufficientCredits)

	// The failed deduct left the balance untouched.
	balance, err := ledger.Balance(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, 5, balance)
}

func TestGrantDeductRefundLedger(t *testing.T) {
	db, ledger := setupCreditTest(t, 0)
	ctx := context.Background()

	balance, err := ledger.Grant(ctx, 1, 100, "initial grant")
	assert.NoError(t, err)
	assert.Equal(t, 100, balance)

	balance, err = ledger.Deduct(ctx, 1, 30, "submission")
	assert.NoError(t, err)
	assert.Equal(t, 70, balance)

	balance, err = ledger.Refund(ctx, 1, 10, "partial failure")
	assert.NoError(t, err)
	assert.Equal(t, 80, balance)

	var entries []models.CreditEntry
	err = db.Find(&entries, "account_id = ?", 1).Error
	assert.NoError(t, err)
	assert.Len(t, entries, 3)

	// Every movement is one ledger line carrying the balance it produced.
	got := make(map[int]int, len(entries))
	sum := 0
	for _, e := range entries {
		got[e.Delta] = e.BalanceAfter
		sum += e.Delta
	}
	assert.Equal(t, 80, sum)
	assert.Equal(t, map[int]int{100: 100, -30: 70, 10: 80}, got)
}

func TestRefundRequiresExistingAccount(t *testing.T) {
	_, ledger := setupCreditTest(t, 0)

	_, err := ledger.Refund(context.Background(), 42, 10, "stray refund")
	assert.Error(t, err)
}

func TestBalanceOfUnknownAccountIsZero(t *testing.T) {
	_, ledger := setupCreditTest(t, 0)

	balance, err := ledger.Balance(context.Background(), 42)
	assert.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func TestLowBalanceFlag(t *testing.T) {
	db, ledger := setupCreditTest(t, 50)
	ctx := context.Background()

	_, err := ledger.Grant(ctx, 1, 60, "top up")
	assert.NoError(t, err)

	_, err = ledger.Deduct(ctx, 1, 20, "submission")
	assert.NoError(t, err)

	var acc models.CreditAccount
	err = db.First(&acc, "account_id = ?", 1).Error
	assert.NoError(t, err)
	assert.True(t, acc.LowBalanceWarned)

	// A grant lifting the balance back over the threshold clears the flag.
	_, err = ledger.Grant(ctx, 1, 20, "top up")
	assert.NoError(t, err)

	err = db.First(&acc, "account_id = ?", 1).Error
	assert.NoError(t, err)
	assert.False(t, acc.LowBalanceWarned)
}

func TestZeroAmountIsNoOp(t *testing.T) {
	db, ledger := setupCreditTest(t, 0)
	ctx := context.Background()

	_, err := ledger.Grant(ctx, 1, 100, "top up")
	assert.NoError(t, err)

	balance, err := ledger.Deduct(ctx, 1, 0, "noop")
	assert.NoError(t, err)
	assert.Equal(t, 100, balance)

	var count int64
	err = db.Model(&models.CreditEntry{}).Where("account_id = ?", 1).Count(&count).Error
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
