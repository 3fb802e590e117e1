package indexing_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"site-indexer/core/clock"
	"site-indexer/core/database"
	"site-indexer/feature/indexing"
	"site-indexer/feature/indexing/auditlog"
	"site-indexer/feature/indexing/credit"
	"site-indexer/feature/indexing/engine"
	"site-indexer/feature/indexing/liveness"
	"site-indexer/feature/indexing/lock"
	"site-indexer/feature/indexing/models"
	"site-indexer/feature/indexing/quota"
	"site-indexer/feature/indexing/report"
	"site-indexer/feature/indexing/searchengine"
	"site-indexer/feature/indexing/sitemap"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type stubReader struct{ doc *sitemap.Document }

func (s *stubReader) Fetch(ctx context.Context, sitemapURL string) (*sitemap.Document, error) {
	return s.doc, nil
}

type stubChecker struct{}

func (stubChecker) Check(ctx context.Context, urls []string) ([]liveness.Result, error) {
	results := make([]liveness.Result, 0, len(urls))
	for _, u := range urls {
		results = append(results, liveness.Result{URL: u, Alive: true, HTTPStatus: http.StatusOK})
	}
	return results, nil
}

type stubSearch struct{}

func (stubSearch) SubmitBatch(ctx context.Context, token string, urls []string) (*searchengine.Outcome, error) {
	return &searchengine.Outcome{Accepted: urls, Failed: map[string]string{}}, nil
}

func (stubSearch) Inspect(ctx context.Context, token, url string) (string, error) {
	return "Submitted and indexed", nil
}

type stubPeer struct{ verifyErr error }

func (s *stubPeer) VerifyKey(ctx context.Context, host, key string) error {
	return s.verifyErr
}

func (s *stubPeer) Submit(ctx context.Context, host, key string, urls []string) ([]string, error) {
	return urls, nil
}

func setupService(t *testing.T, peer *stubPeer) (*indexing.Service, *gorm.DB) {
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	assert.NoError(t, err)
	err = db.AutoMigrate(models.All()...)
	assert.NoError(t, err)

	site := models.Site{
		AccountID:           1,
		Domain:              "example.com",
		AutoSubmitSearch:    true,
		AutoSubmitIndexNow:  true,
		SearchAPIToken:      "token-1",
		IndexNowKey:         "abc123",
		IndexNowKeyVerified: true,
	}
	err = db.Create(&site).Error
	assert.NoError(t, err)

	logger := zap.NewNop()
	clk := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	quotaLedger := quota.NewLedger(db, clk, quota.Limits{Submissions: 100, Inspections: 100})
	creditLedger := credit.NewLedger(db, logger, 0)
	_, err = creditLedger.Grant(context.Background(), 1, 100, "test grant")
	assert.NoError(t, err)
	logs := auditlog.NewStore(db)

	eng := engine.New(
		db,
		lock.NewManager(db, clk),
		quotaLedger,
		creditLedger,
		logs,
		&stubReader{doc: &sitemap.Document{
			Entries: []sitemap.Entry{{Loc: "https://example.com/a"}},
			Raw:     []byte("<urlset/>"),
		}},
		stubChecker{},
		stubSearch{},
		peer,
		nil,
		clk,
		logger,
		engine.Config{},
	)

	return indexing.NewService(db, eng, logs, creditLedger, report.NewBuilder(db, logs), logger), db
}

func setupApp(t *testing.T, peer *stubPeer) (*fiber.App, *gorm.DB) {
	svc, db := setupService(t, peer)
	feature := indexing.NewFeature(svc, true)

	assert.Equal(t, "indexing", feature.Name())
	assert.True(t, feature.IsEnabled())

	app := fiber.New()
	err := feature.Load(app)
	assert.NoError(t, err)

	return app, db
}

func TestHandleRunCycle(t *testing.T) {
	app, _ := setupApp(t, &stubPeer{})

	req := httptest.NewRequest(http.MethodPost, "/sites/1/cycle", nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result engine.CycleResult
	err = json.NewDecoder(resp.Body).Decode(&result)
	assert.NoError(t, err)
	assert.Equal(t, uint(1), result.SiteID)
	assert.Equal(t, 1, result.NewURLs)
	assert.Equal(t, 1, result.SubmittedSearch)
	assert.Equal(t, 1, result.SubmittedIndexNow)
}

func TestHandleRunCycleInvalidID(t *testing.T) {
	app, _ := setupApp(t, &stubPeer{})

	req := httptest.NewRequest(http.MethodPost, "/sites/abc/cycle", nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleRunCycleUnknownSite(t *testing.T) {
	app, _ := setupApp(t, &stubPeer{})

	req := httptest.NewRequest(http.MethodPost, "/sites/99/cycle", nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestHandleGetLogs(t *testing.T) {
	app, _ := setupApp(t, &stubPeer{})

	// Run a cycle to generate audit entries first.
	req := httptest.NewRequest(http.MethodPost, "/sites/1/cycle", nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/sites/1/logs?action="+models.ActionDiscovered, nil)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var page auditlog.Page
	err = json.NewDecoder(resp.Body).Decode(&page)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, "https://example.com/a", page.Entries[0].URL)
}

func TestHandleGetReport(t *testing.T) {
	app, _ := setupApp(t, &stubPeer{})

	req := httptest.NewRequest(http.MethodPost, "/sites/1/cycle", nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/sites/1/report", nil)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var rep report.DailyReport
	err = json.NewDecoder(resp.Body).Decode(&rep)
	assert.NoError(t, err)
	assert.Equal(t, 1, rep.Discovered)
	assert.Equal(t, 1, rep.SubmittedSearch)
}

func TestHandleRequestRemoval(t *testing.T) {
	app, db := setupApp(t, &stubPeer{})

	row := models.IndexedURL{SiteID: 1, URL: "https://example.com/old", Status: models.StatusSubmitted}
	assert.NoError(t, db.Create(&row).Error)

	body := strings.NewReader(`{"url":"https://example.com/old"}`)
	req := httptest.NewRequest(http.MethodPost, "/sites/1/urls/removal", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.IndexedURL
	assert.NoError(t, db.First(&updated, row.ID).Error)
	assert.Equal(t, models.StatusRemovalRequested, updated.Status)
}

func TestHandleRequestRemovalBadBody(t *testing.T) {
	app, _ := setupApp(t, &stubPeer{})

	req := httptest.NewRequest(http.MethodPost, "/sites/1/urls/removal", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleVerifyKey(t *testing.T) {
	peer := &stubPeer{}
	app, _ := setupApp(t, peer)

	req := httptest.NewRequest(http.MethodPost, "/sites/1/verify-key", nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	peer.verifyErr = errors.New("key file returned status 404")
	req = httptest.NewRequest(http.MethodPost, "/sites/1/verify-key", nil)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestHandleInspectCoverage(t *testing.T) {
	app, db := setupApp(t, &stubPeer{})

	row := models.IndexedURL{SiteID: 1, URL: "https://example.com/a", Status: models.StatusSubmitted}
	assert.NoError(t, db.Create(&row).Error)

	req := httptest.NewRequest(http.MethodPost, "/sites/1/inspect", nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result engine.InspectionResult
	err = json.NewDecoder(resp.Body).Decode(&result)
	assert.NoError(t, err)
	assert.Equal(t, 1, result.Inspected)

	var updated models.IndexedURL
	assert.NoError(t, db.First(&updated, row.ID).Error)
	assert.Equal(t, "Submitted and indexed", updated.SearchIndexStatus)
}
