package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mmynk/receiptsplit/internal/storage"
	"github.com/mmynk/receiptsplit/internal/storage/storagetest"
)

// Requires a disposable database; every table is truncated between subtests.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	storagetest.Run(t, func(t *testing.T) storage.Store {
		ctx := context.Background()
		store, err := New(ctx, dsn)
		require.NoError(t, err)
		_, err = store.pool.Exec(ctx, "TRUNCATE receipts CASCADE")
		require.NoError(t, err)
		return store
	})
}
