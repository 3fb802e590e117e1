// Package snapshot archives the raw sitemap XML fetched by each cycle to
// object storage, so the input of any past reconciliation can be audited.
package snapshot

import (
	"bytes"
	"context"
	"fmt"

	"site-indexer/core/clock"
	"site-indexer/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Archiver stores sitemap snapshots. A nil *Archiver is valid and makes
// every operation a no-op, which is how archiving is disabled.
type Archiver struct {
	client storage.Client
	bucket string
	clock  clock.Clock
	logger *zap.Logger
}

// NewArchiver creates a snapshot archiver.
func NewArchiver(client storage.Client, bucket string, clk clock.Clock, logger *zap.Logger) *Archiver {
	return &Archiver{client: client, bucket: bucket, clock: clk, logger: logger}
}

// EnsureBucket creates the snapshot bucket if it does not exist yet.
func (a *Archiver) EnsureBucket(ctx context.Context) error {
	if a == nil {
		return nil
	}
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check snapshot bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create snapshot bucket: %w", err)
	}
	return nil
}

// Store archives one raw sitemap document and returns the object key.
func (a *Archiver) Store(ctx context.Context, siteID uint, raw []byte) (string, error) {
	if a == nil {
		return "", nil
	}

	key := fmt.Sprintf("sites/%d/%s.xml", siteID, a.clock.Now().UTC().Format("20060102T150405Z"))
	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(raw), int64(len(raw)), minio.PutObjectOptions{
		ContentType: "application/xml",
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive sitemap snapshot %s: %w", key, err)
	}

	a.logger.Debug("Sitemap snapshot archived",
		zap.Uint("site_id", siteID),
		zap.String("object", key),
		zap.Int("bytes", len(raw)))

	return key, nil
}
