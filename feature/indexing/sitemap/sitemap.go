// Package sitemap fetches and parses XML sitemaps.
//
// Both plain urlset documents and one level of sitemapindex nesting are
// supported. Fetches are retried with backoff. A document that parses to
// zero URLs is returned as-is; deciding whether an empty sitemap is safe to
// act on is the caller's call.
package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"go.uber.org/zap"
)

// Entry is one (loc, lastmod) pair from the sitemap. LastMod is the raw
// token as published; an empty token means change detection for this URL
// relies solely on first-seen/removed transitions.
type Entry struct {
	Loc     string
	LastMod string
}

// Document is one fetched sitemap: the parsed entries plus the raw XML of
// the top-level document for snapshot archiving.
type Document struct {
	Entries []Entry
	Raw     []byte
}

// maxBodyBytes caps how much sitemap XML is read (50 MiB, matching the
// sitemap protocol's uncompressed size limit).
const maxBodyBytes = 50 << 20

// Reader fetches sitemaps over HTTP.
type Reader struct {
	client *http.Client
	logger *zap.Logger
}

// NewReader creates a sitemap reader. The client's timeout bounds each
// fetch attempt.
func NewReader(client *http.Client, logger *zap.Logger) *Reader {
	return &Reader{client: client, logger: logger}
}

type xmlURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod"`
}

type xmlURLSet struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []xmlURL `xml:"url"`
}

type xmlSitemapRef struct {
	Loc string `xml:"loc"`
}

type xmlSitemapIndex struct {
	XMLName  xml.Name        `xml:"sitemapindex"`
	Sitemaps []xmlSitemapRef `xml:"sitemap"`
}

// Fetch downloads and parses the sitemap at the given URL. When the
// document is a sitemapindex, every referenced child sitemap is fetched and
// the entries are merged (duplicates by loc collapse to the first sighting).
func (r *Reader) Fetch(ctx context.Context, sitemapURL string) (*Document, error) {
	raw, err := r.fetchRaw(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}

	entries, children, err := parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sitemap %s: %w", sitemapURL, err)
	}

	// One level of index nesting: fetch each child urlset.
	for _, child := range children {
		childRaw, err := r.fetchRaw(ctx, child)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch child sitemap %s: %w", child, err)
		}
		childEntries, _, err := parse(childRaw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse child sitemap %s: %w", child, err)
		}
		entries = append(entries, childEntries...)
	}

	// Collapse duplicate locs, keeping first sighting.
	seen := make(map[string]struct{}, len(entries))
	deduped := entries[:0]
	for _, e := range entries {
		if e.Loc == "" {
			continue
		}
		if _, ok := seen[e.Loc]; ok {
			continue
		}
		seen[e.Loc] = struct{}{}
		deduped = append(deduped, e)
	}

	r.logger.Debug("Sitemap fetched",
		zap.String("url", sitemapURL),
		zap.Int("urls", len(deduped)),
		zap.Int("child_sitemaps", len(children)))

	return &Document{Entries: deduped, Raw: raw}, nil
}

func (r *Reader) fetchRaw(ctx context.Context, sitemapURL string) ([]byte, error) {
	var body []byte

	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, http.NoBody)
			if err != nil {
				return fmt.Errorf("create request: %w", err)
			}
			req.Header.Set("Accept", "application/xml, text/xml")

			resp, err := r.client.Do(req)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", sitemapURL, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("fetch %s: unexpected status %d", sitemapURL, resp.StatusCode)
			}

			body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			if err != nil {
				return fmt.Errorf("read %s: %w", sitemapURL, err)
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(10*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Info("Retrying sitemap fetch after error",
				zap.Uint("attempt", n),
				zap.String("url", sitemapURL),
				zap.Error(err))
		}),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// parse decodes one sitemap document, returning either urlset entries or
// the child sitemap locations of a sitemapindex.
func parse(raw []byte) ([]Entry, []string, error) {
	var set xmlURLSet
	if err := xml.Unmarshal(raw, &set); err == nil && len(set.URLs) > 0 {
		entries := make([]Entry, 0, len(set.URLs))
		for _, u := range set.URLs {
			entries = append(entries, Entry{Loc: u.Loc, LastMod: u.LastMod})
		}
		return entries, nil, nil
	}

	var index xmlSitemapIndex
	if err := xml.Unmarshal(raw, &index); err == nil && len(index.Sitemaps) > 0 {
		children := make([]string, 0, len(index.Sitemaps))
		for _, s := range index.Sitemaps {
			if s.Loc != "" {
				children = append(children, s.Loc)
			}
		}
		return nil, children, nil
	}

	// Neither form decoded to content. Distinguish malformed XML from a
	// legitimately empty urlset.
	var probe xmlURLSet
	if err := xml.Unmarshal(raw, &probe); err != nil {
		return nil, nil, fmt.Errorf("document is neither a urlset nor a sitemapindex: %w", err)
	}
	return nil, nil, nil
}
