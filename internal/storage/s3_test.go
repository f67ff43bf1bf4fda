package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportKey(t *testing.T) {
	at := time.Date(2026, 5, 1, 10, 4, 5, 0, time.FixedZone("CEST", 2*60*60))

	assert.Equal(t, "search-logs/2026/05/01/search_logs_20260501T080405Z.csv", ExportKey(at))
}

func TestNewExportStore_DefaultLinkExpiry(t *testing.T) {
	store, err := NewExportStore(context.Background(), Config{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		Bucket:          "finder-exports",
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultLinkExpiry, store.linkExpiry)

	store, err = NewExportStore(context.Background(), Config{Region: "us-east-1", Bucket: "b", LinkExpiry: time.Hour})
	require.NoError(t, err)
	assert.Equal(t, time.Hour, store.linkExpiry)
}
