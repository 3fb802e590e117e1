// Package liveness checks HTTP reachability for batches of URLs.
//
// A URL is alive when it answers with a success or redirect-class status.
// 404/410 and unreachable hosts are dead; dead pages are filtered out of a
// cycle before any submission is attempted so quota and credits are never
// spent on them.
package liveness

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// Result is the outcome of checking one URL.
type Result struct {
	URL        string
	Alive      bool
	HTTPStatus int
	Err        string
}

// Checker probes URLs over HTTP.
type Checker struct {
	client *http.Client
	logger *zap.Logger
}

// NewChecker creates a liveness checker. The client's timeout bounds each
// probe.
func NewChecker(client *http.Client, logger *zap.Logger) *Checker {
	return &Checker{client: client, logger: logger}
}

// Check probes every URL in the batch sequentially and returns one result
// per URL in input order. Per-URL failures are recorded on the result, not
// returned as an error; only context cancellation aborts the batch.
func (c *Checker) Check(ctx context.Context, urls []string) ([]Result, error) {
	results := make([]Result, 0, len(urls))
	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, c.probe(ctx, u))
	}
	return results, nil
}

func (c *Checker) probe(ctx context.Context, url string) Result {
	status, err := c.request(ctx, http.MethodHead, url)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
		// Some origins reject HEAD; fall back to GET.
		status, err = c.request(ctx, http.MethodGet, url)
	}
	if err != nil {
		c.logger.Debug("Liveness probe failed", zap.String("url", url), zap.Error(err))
		return Result{URL: url, Alive: false, Err: err.Error()}
	}

	// The client follows redirects, so a redirect-class page resolves to
	// its final status here.
	alive := status < 400
	res := Result{URL: url, Alive: alive, HTTPStatus: status}
	if !alive {
		res.Err = http.StatusText(status)
	}
	return res
}

func (c *Checker) request(ctx context.Context, method, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, http.NoBody)
	if err != nil {
		return 0, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
