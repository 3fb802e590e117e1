package snapshot_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"site-indexer/core/clock"
	"site-indexer/core/storage/mocks"
	"site-indexer/feature/indexing/snapshot"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestStoreArchivesSnapshot(t *testing.T) {
	mockClient := new(mocks.Client)
	clk := clock.NewFake(time.Date(2026, 3, 1, 12, 30, 45, 0, time.UTC))
	archiver := snapshot.NewArchiver(mockClient, "sitemaps", clk, zap.NewNop())

	raw := []byte("<urlset/>")
	mockClient.On("PutObject", mock.Anything, "sitemaps", "sites/7/20260301T123045Z.xml",
		mock.Anything, int64(len(raw)), mock.Anything).
		Return(minio.UploadInfo{}, nil)

	key, err := archiver.Store(context.Background(), 7, raw)
	assert.NoError(t, err)
	assert.Equal(t, "sites/7/20260301T123045Z.xml", key)
	mockClient.AssertExpectations(t)
}

func TestStorePropagatesFailure(t *testing.T) {
	mockClient := new(mocks.Client)
	clk := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	archiver := snapshot.NewArchiver(mockClient, "sitemaps", clk, zap.NewNop())

	mockClient.On("PutObject", mock.Anything, "sitemaps", mock.Anything,
		mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("bucket unreachable"))

	_, err := archiver.Store(context.Background(), 7, []byte("<urlset/>"))
	assert.Error(t, err)
}

func TestEnsureBucketCreatesWhenMissing(t *testing.T) {
	mockClient := new(mocks.Client)
	archiver := snapshot.NewArchiver(mockClient, "sitemaps", clock.System{}, zap.NewNop())

	mockClient.On("BucketExists", mock.Anything, "sitemaps").Return(false, nil)
	mockClient.On("MakeBucket", mock.Anything, "sitemaps", mock.Anything).Return(nil)

	err := archiver.EnsureBucket(context.Background())
	assert.NoError(t, err)
	mockClient.AssertExpectations(t)
}

func TestEnsureBucketSkipsExisting(t *testing.T) {
	mockClient := new(mocks.Client)
	archiver := snapshot.NewArchiver(mockClient, "sitemaps", clock.System{}, zap.NewNop())

	mockClient.On("BucketExists", mock.Anything, "sitemaps").Return(true, nil)

	err := archiver.EnsureBucket(context.Background())
	assert.NoError(t, err)
	mockClient.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
}

func TestNilArchiverIsNoOp(t *testing.T) {
	var archiver *snapshot.Archiver

	assert.NoError(t, archiver.EnsureBucket(context.Background()))

	key, err := archiver.Store(context.Background(), 1, []byte("<urlset/>"))
	assert.NoError(t, err)
	assert.Equal(t, "", key)
}
