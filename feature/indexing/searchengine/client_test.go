package searchengine_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"site-indexer/feature/indexing/searchengine"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newClient(submit, inspect string) *searchengine.Client {
	return searchengine.NewClient(&http.Client{Timeout: 5 * time.Second}, submit, inspect, 1000, zap.NewNop())
}

func TestSubmitBatchPartitionsOutcomes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))

		var req struct {
			URL  string `json:"url"`
			Type string `json:"type"`
		}
		err := json.NewDecoder(r.Body).Decode(&req)
		assert.NoError(t, err)
		assert.Equal(t, "URL_UPDATED", req.Type)

		switch {
		case strings.HasSuffix(req.URL, "/ok"):
			w.WriteHeader(http.StatusOK)
		case strings.HasSuffix(req.URL, "/throttled"):
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":{"message":"url is invalid"}}`)
		}
	}))
	defer srv.Close()

	client := newClient(srv.URL, srv.URL)
	outcome, err := client.SubmitBatch(context.Background(), "token-1", []string{
		"https://example.com/ok",
		"https://example.com/throttled",
		"https://example.com/bad",
	})
	assert.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/ok"}, outcome.Accepted)
	assert.Equal(t, []string{"https://example.com/throttled"}, outcome.RateLimited)
	assert.Equal(t, "url is invalid", outcome.Failed["https://example.com/bad"])
}

func TestSubmitBatchAbortsOnAuthError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := newClient(srv.URL, srv.URL)
	outcome, err := client.SubmitBatch(context.Background(), "expired", []string{
		"https://example.com/1",
		"https://example.com/2",
		"https://example.com/3",
	})

	assert.True(t, searchengine.IsAuthError(err))
	// The URL accepted before the abort is still reported; the third was
	// never attempted.
	assert.Equal(t, []string{"https://example.com/1"}, outcome.Accepted)
	assert.Equal(t, 2, calls)
}

func TestSubmitBatchRecordsTransportFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := newClient(srv.URL, srv.URL)
	outcome, err := client.SubmitBatch(context.Background(), "token", []string{"https://example.com/a"})
	assert.NoError(t, err)
	assert.Empty(t, outcome.Accepted)
	assert.Contains(t, outcome.Failed, "https://example.com/a")
}

func TestInspectReturnsCoverageState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			InspectionURL string `json:"inspectionUrl"`
		}
		err := json.NewDecoder(r.Body).Decode(&req)
		assert.NoError(t, err)
		assert.Equal(t, "https://example.com/a", req.InspectionURL)

		fmt.Fprint(w, `{"inspectionResult":{"indexStatusResult":{"coverageState":"Submitted and indexed"}}}`)
	}))
	defer srv.Close()

	client := newClient(srv.URL, srv.URL)
	state, err := client.Inspect(context.Background(), "token", "https://example.com/a")
	assert.NoError(t, err)
	assert.Equal(t, "Submitted and indexed", state)
}

func TestInspectAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := newClient(srv.URL, srv.URL)
	_, err := client.Inspect(context.Background(), "token", "https://example.com/a")
	assert.True(t, searchengine.IsAuthError(err))
}
