package liveness_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"site-indexer/feature/indexing/liveness"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newChecker() *liveness.Checker {
	return liveness.NewChecker(&http.Client{Timeout: 5 * time.Second}, zap.NewNop())
}

func TestCheckPartitionsAliveAndDead(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/alive", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	urls := []string{srv.URL + "/alive", srv.URL + "/missing", srv.URL + "/gone"}
	results, err := newChecker().Check(context.Background(), urls)
	assert.NoError(t, err)
	assert.Len(t, results, 3)

	assert.True(t, results[0].Alive)
	assert.Equal(t, http.StatusOK, results[0].HTTPStatus)

	assert.False(t, results[1].Alive)
	assert.Equal(t, http.StatusNotFound, results[1].HTTPStatus)

	assert.False(t, results[2].Alive)
	assert.Equal(t, http.StatusGone, results[2].HTTPStatus)
}

func TestCheckFallsBackToGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	results, err := newChecker().Check(context.Background(), []string{srv.URL})
	assert.NoError(t, err)
	assert.True(t, results[0].Alive)
	assert.Equal(t, http.StatusOK, results[0].HTTPStatus)
}

func TestCheckUnreachableHost(t *testing.T) {
	// A closed server guarantees a connection error.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	results, err := newChecker().Check(context.Background(), []string{srv.URL})
	assert.NoError(t, err)
	assert.False(t, results[0].Alive)
	assert.NotEmpty(t, results[0].Err)
}

func TestCheckAbortsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := newChecker().Check(ctx, []string{"https://example.com/a"})
	assert.Error(t, err)
	assert.Empty(t, results)
}
