package indexnow_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"site-indexer/feature/indexing/indexnow"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newClient(endpoint string) *indexnow.Client {
	return indexnow.NewInsecureClient(&http.Client{Timeout: 5 * time.Second}, endpoint, zap.NewNop())
}

func hostOf(srv *httptest.Server) string {
	return strings.TrimPrefix(srv.URL, "http://")
}

func TestVerifyKeyMatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/abc123.txt", r.URL.Path)
		fmt.Fprint(w, "abc123\n")
	}))
	defer srv.Close()

	err := newClient("").VerifyKey(context.Background(), hostOf(srv), "abc123")
	assert.NoError(t, err)
}

func TestVerifyKeyMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "something-else")
	}))
	defer srv.Close()

	err := newClient("").VerifyKey(context.Background(), hostOf(srv), "abc123")
	assert.Error(t, err)
}

func TestVerifyKeyMissingFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	err := newClient("").VerifyKey(context.Background(), hostOf(srv), "abc123")
	assert.Error(t, err)
}

func TestSubmitAcceptedBatch(t *testing.T) {
	var got struct {
		Host    string   `json:"host"`
		Key     string   `json:"key"`
		URLList []string `json:"urlList"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		err := json.NewDecoder(r.Body).Decode(&got)
		assert.NoError(t, err)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	urls := []string{"https://example.com/a", "https://example.com/b"}
	submitted, err := newClient(srv.URL).Submit(context.Background(), "example.com", "abc123", urls)
	assert.NoError(t, err)
	assert.Equal(t, urls, submitted)

	assert.Equal(t, "example.com", got.Host)
	assert.Equal(t, "abc123", got.Key)
	assert.Equal(t, urls, got.URLList)
}

func TestSubmitRejectedBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Submit(context.Background(), "example.com", "abc123",
		[]string{"https://example.com/a"})
	assert.Error(t, err)
}

func TestSubmitEmptyBatch(t *testing.T) {
	submitted, err := newClient("http://127.0.0.1:1").Submit(context.Background(), "example.com", "abc123", nil)
	assert.NoError(t, err)
	assert.Nil(t, submitted)
}
