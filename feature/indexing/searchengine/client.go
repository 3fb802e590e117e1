// Package searchengine submits URLs to the quota-limited search engine
// indexing API and inspects their coverage status.
//
// The API accepts one URL per request; SubmitBatch drives the batch through
// a client-side rate limiter and partitions the per-URL outcomes into
// accepted, rate-limited, and failed. An auth-class response aborts the
// whole batch with an AuthError: the account's authorization expired and
// only user action fixes it, so retrying the rest of the batch is pointless.
package searchengine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// AuthError indicates the account's API authorization has expired or been
// revoked. It is surfaced separately from generic failures because it
// requires user action, not a retry.
type AuthError struct {
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("search engine API authorization rejected (HTTP %d)", e.Status)
}

// IsAuthError checks if an error is an auth-class API error.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Outcome partitions a submitted batch by per-URL result.
type Outcome struct {
	Accepted    []string
	RateLimited []string
	// Failed maps each rejected URL to the reported reason.
	Failed map[string]string
}

// Client talks to the submission and inspection endpoints.
type Client struct {
	httpClient      *http.Client
	submitEndpoint  string
	inspectEndpoint string
	limiter         *rate.Limiter
	logger          *zap.Logger
}

// NewClient creates a search engine client. requestsPerSecond throttles the
// per-URL calls inside a batch.
func NewClient(httpClient *http.Client, submitEndpoint, inspectEndpoint string, requestsPerSecond float64, logger *zap.Logger) *Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}
	return &Client{
		httpClient:      httpClient,
		submitEndpoint:  submitEndpoint,
		inspectEndpoint: inspectEndpoint,
		limiter:         rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:          logger,
	}
}

type submitRequest struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// SubmitBatch submits every URL, partitioning the outcomes. A returned
// AuthError means no further URL was attempted.
func (c *Client) SubmitBatch(ctx context.Context, token string, urls []string) (*Outcome, error) {
	outcome := &Outcome{Failed: make(map[string]string)}

	for _, u := range urls {
		if err := c.limiter.Wait(ctx); err != nil {
			return outcome, fmt.Errorf("rate limiter interrupted: %w", err)
		}

		status, body, err := c.post(ctx, token, u)
		if err != nil {
			outcome.Failed[u] = err.Error()
			continue
		}

		switch {
		case status == http.StatusOK:
			outcome.Accepted = append(outcome.Accepted, u)
		case status == http.StatusTooManyRequests:
			outcome.RateLimited = append(outcome.RateLimited, u)
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			// Auth errors abort the whole batch rather than partitioning it.
			return outcome, &AuthError{Status: status}
		default:
			outcome.Failed[u] = reasonFromBody(status, body)
		}
	}

	c.logger.Debug("Submission batch finished",
		zap.Int("accepted", len(outcome.Accepted)),
		zap.Int("rate_limited", len(outcome.RateLimited)),
		zap.Int("failed", len(outcome.Failed)))

	return outcome, nil
}

type inspectRequest struct {
	InspectionURL string `json:"inspectionUrl"`
}

type inspectResponse struct {
	InspectionResult struct {
		IndexStatusResult struct {
			CoverageState string `json:"coverageState"`
		} `json:"indexStatusResult"`
	} `json:"inspectionResult"`
}

// Inspect returns the external index coverage status for one URL.
func (c *Client) Inspect(ctx context.Context, token, url string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter interrupted: %w", err)
	}

	payload, err := json.Marshal(inspectRequest{InspectionURL: url})
	if err != nil {
		return "", fmt.Errorf("marshal inspect request: %w", err)
	}

	status, body, err := c.do(ctx, token, c.inspectEndpoint, payload)
	if err != nil {
		return "", err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return "", &AuthError{Status: status}
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("inspect %s: %s", url, reasonFromBody(status, body))
	}

	var resp inspectResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("parse inspect response for %s: %w", url, err)
	}
	return resp.InspectionResult.IndexStatusResult.CoverageState, nil
}

func (c *Client) post(ctx context.Context, token, u string) (int, []byte, error) {
	payload, err := json.Marshal(submitRequest{URL: u, Type: "URL_UPDATED"})
	if err != nil {
		return 0, nil, fmt.Errorf("marshal submit request: %w", err)
	}
	return c.do(ctx, token, c.submitEndpoint, payload)
}

func (c *Client) do(ctx context.Context, token, endpoint string, payload []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("call %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func reasonFromBody(status int, body []byte) string {
	var e apiError
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return fmt.Sprintf("HTTP %d", status)
}
