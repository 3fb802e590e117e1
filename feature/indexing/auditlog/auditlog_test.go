package auditlog_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"site-indexer/core/database"
	"site-indexer/feature/indexing/auditlog"
	"site-indexer/feature/indexing/models"

	"github.com/stretchr/testify/assert"
)

func setupAuditTest(t *testing.T) *auditlog.Store {
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	assert.NoError(t, err)

	err = db.AutoMigrate(models.All()...)
	assert.NoError(t, err)

	return auditlog.NewStore(db)
}

func TestRecordAndList(t *testing.T) {
	store := setupAuditTest(t)
	ctx := context.Background()

	err := store.Record(ctx, 1, 1, "https://example.com/a", models.ActionDiscovered, "url discovered in sitemap")
	assert.NoError(t, err)
	err = store.Record(ctx, 1, 1, "https://example.com/a", models.ActionSubmittedSearch, "accepted by search engine API")
	assert.NoError(t, err)
	err = store.Record(ctx, 1, 2, "https://other.com/x", models.ActionDiscovered, "url discovered in sitemap")
	assert.NoError(t, err)

	page, err := store.List(ctx, 1, "", 1, 10)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Len(t, page.Entries, 2)

	// Newest first.
	assert.Equal(t, models.ActionSubmittedSearch, page.Entries[0].Action)
	assert.Equal(t, models.ActionDiscovered, page.Entries[1].Action)
}

func TestListFiltersByAction(t *testing.T) {
	store := setupAuditTest(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := store.Record(ctx, 1, 1, fmt.Sprintf("https://example.com/%d", i), models.ActionDiscovered, "")
		assert.NoError(t, err)
	}
	err := store.Record(ctx, 1, 1, "https://example.com/dead", models.ActionDeadPage, "dead page (HTTP 404)")
	assert.NoError(t, err)

	page, err := store.List(ctx, 1, models.ActionDeadPage, 1, 10)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Len(t, page.Entries, 1)
	assert.Equal(t, "https://example.com/dead", page.Entries[0].URL)
}

func TestListPaginates(t *testing.T) {
	store := setupAuditTest(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		err := store.Record(ctx, 1, 1, fmt.Sprintf("https://example.com/%d", i), models.ActionDiscovered, "")
		assert.NoError(t, err)
	}

	page, err := store.List(ctx, 1, "", 2, 3)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), page.Total)
	assert.Len(t, page.Entries, 3)
	assert.Equal(t, 2, page.Page)

	last, err := store.List(ctx, 1, "", 3, 3)
	assert.NoError(t, err)
	assert.Len(t, last.Entries, 1)
}

func TestListClampsPerPage(t *testing.T) {
	store := setupAuditTest(t)

	page, err := store.List(context.Background(), 1, "", 0, 9999)
	assert.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 500, page.PerPage)
}

func TestCountByAction(t *testing.T) {
	store := setupAuditTest(t)
	ctx := context.Background()

	err := store.Record(ctx, 1, 1, "https://example.com/a", models.ActionDiscovered, "")
	assert.NoError(t, err)
	err = store.Record(ctx, 1, 1, "https://example.com/b", models.ActionDiscovered, "")
	assert.NoError(t, err)
	err = store.Record(ctx, 1, 1, "https://example.com/a", models.ActionSubmittedPeer, "")
	assert.NoError(t, err)

	today := time.Now().UTC().Format(models.DayFormat)
	counts, err := store.CountByAction(ctx, 1, today)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), counts[models.ActionDiscovered])
	assert.Equal(t, int64(1), counts[models.ActionSubmittedPeer])
}

func TestCountByActionRejectsBadDay(t *testing.T) {
	store := setupAuditTest(t)

	_, err := store.CountByAction(context.Background(), 1, "not-a-day")
	assert.Error(t, err)
}
