package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careerbird/grant-match-api/pkg/config"
)

func TestS3StorageURL(t *testing.T) {
	store, err := NewS3Storage(S3Config{Bucket: "grants", Region: "us-east-1", PublicBaseURL: "https://cdn.example.com/"})
	require.NoError(t, err)
	url, err := store.URL(context.Background(), "videos/app-1/intro.mp4")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/videos/app-1/intro.mp4", url)

	presigning, err := NewS3Storage(S3Config{
		Bucket:     "grants",
		Region:     "us-east-1",
		Endpoint:   "http://localhost:9000",
		AccessKey:  "key",
		SecretKey:  "secret",
		PresignTTL: time.Minute,
	})
	require.NoError(t, err)
	url, err = presigning.URL(context.Background(), "videos/app-1/intro.mp4")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:9000/grants/videos/app-1/intro.mp4?"))
	assert.Contains(t, url, "X-Amz-Signature=")
}

func TestNewSelectsDriver(t *testing.T) {
	store, err := New(config.StorageConfig{Driver: config.StorageDriverLocal, LocalDir: t.TempDir(), SignedURLSecret: "s"})
	require.NoError(t, err)
	_, ok := store.(*LocalStorage)
	assert.True(t, ok)

	_, err = New(config.StorageConfig{Driver: config.StorageDriverS3})
	assert.Error(t, err)

	_, err = New(config.StorageConfig{Driver: "ftp"})
	assert.Error(t, err)
}
