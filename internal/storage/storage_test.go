package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/sakugabase/config"
)

func TestResolve_WithoutEndpoint(t *testing.T) {
	r, err := NewMinioResolver(config.StorageConfig{Bucket: "clips"})
	require.NoError(t, err)
	ctx := context.Background()

	assert.Equal(t, "", r.Resolve(ctx, ""))
	assert.Equal(t, "/storage/clips/videos/a.mp4", r.Resolve(ctx, "videos/a.mp4"))
	assert.Equal(t, "/storage/clips/videos/a.mp4", r.Resolve(ctx, "/videos/a.mp4"))
	assert.Equal(t, "https://cdn.example.com/a.mp4", r.Resolve(ctx, "https://cdn.example.com/a.mp4"))
}

func TestResolve_Presigned(t *testing.T) {
	r, err := NewMinioResolver(config.StorageConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "clips",
		Region:    "us-east-1",
		URLExpiry: 30 * time.Minute,
	})
	require.NoError(t, err)

	got := r.Resolve(context.Background(), "videos/a.mp4")
	assert.True(t, strings.HasPrefix(got, "http://localhost:9000/clips/videos/a.mp4?"), got)
	assert.Contains(t, got, "X-Amz-Signature=")
	assert.Contains(t, got, "X-Amz-Expires=1800")
}
