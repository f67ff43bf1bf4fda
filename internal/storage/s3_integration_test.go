//go:build integration

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/cloo-solutions/finder/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportStore_PublishAndFetch(t *testing.T) {
	ctx := context.Background()
	objects := testutil.StartObjectStore(ctx, t)

	store, err := NewExportStore(ctx, Config{
		Endpoint:        objects.Endpoint,
		Region:          "us-east-1",
		AccessKeyID:     objects.AccessKey,
		SecretAccessKey: objects.SecretKey,
		Bucket:          "finder-exports",
		UsePathStyle:    true,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return store.EnsureBucket(ctx) == nil }, 20*time.Second, 500*time.Millisecond)
	require.NoError(t, store.EnsureBucket(ctx))

	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	body := []byte("id,query\n1,runner\n")
	export, err := store.Publish(ctx, at, body)
	require.NoError(t, err)
	assert.Equal(t, ExportKey(at), export.Key)
	assert.Equal(t, int64(len(body)), export.Size)
	assert.Contains(t, export.URL, "X-Amz-Signature")

	got, err := store.Fetch(ctx, export.Key)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}
