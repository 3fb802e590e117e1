// Package indexnow submits URLs through the IndexNow peer notification
// protocol.
//
// IndexNow is best-effort: a single batch POST announces changed URLs for a
// host, authenticated by an ownership key the site publishes at
// https://{host}/{key}.txt. The key file is re-verified before every batch;
// a host that stops serving its key loses the channel until re-verified.
package indexnow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"go.uber.org/zap"
)

// Client submits batches to an IndexNow endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
	// keyScheme is "https" in production; tests point it at an httptest
	// server over plain http.
	keyScheme string
	logger    *zap.Logger
}

// NewClient creates an IndexNow client.
func NewClient(httpClient *http.Client, endpoint string, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		endpoint:   endpoint,
		keyScheme:  "https",
		logger:     logger,
	}
}

// NewInsecureClient creates a client that fetches key files over plain
// http. Test use only.
func NewInsecureClient(httpClient *http.Client, endpoint string, logger *zap.Logger) *Client {
	c := NewClient(httpClient, endpoint, logger)
	c.keyScheme = "http"
	return c
}

// VerifyKey fetches the well-known key file and checks that its trimmed
// body equals the key exactly.
func (c *Client) VerifyKey(ctx context.Context, host, key string) error {
	keyURL := fmt.Sprintf("%s://%s/%s.txt", c.keyScheme, host, key)

	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, keyURL, http.NoBody)
			if err != nil {
				return fmt.Errorf("create request: %w", err)
			}
			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("fetch key file: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("key file %s returned status %d", keyURL, resp.StatusCode)
			}
			body, err = io.ReadAll(io.LimitReader(resp.Body, 4096))
			if err != nil {
				return fmt.Errorf("read key file: %w", err)
			}
			return nil
		},
		retry.Attempts(2),
		retry.Delay(500*time.Millisecond),
		retry.Context(ctx),
	)
	if err != nil {
		return err
	}

	if strings.TrimSpace(string(body)) != key {
		return fmt.Errorf("key file %s does not match the site key", keyURL)
	}
	return nil
}

type submitPayload struct {
	Host    string   `json:"host"`
	Key     string   `json:"key"`
	URLList []string `json:"urlList"`
}

// Submit announces the batch for the host. On acceptance the protocol
// acknowledges the whole batch, so every URL is reported as submitted.
func (c *Client) Submit(ctx context.Context, host, key string, urls []string) ([]string, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(submitPayload{Host: host, Key: key, URLList: urls})
	if err != nil {
		return nil, fmt.Errorf("marshal indexnow payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit to indexnow: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("indexnow endpoint returned status %d", resp.StatusCode)
	}

	c.logger.Debug("IndexNow batch accepted",
		zap.String("host", host),
		zap.Int("urls", len(urls)))

	return urls, nil
}
