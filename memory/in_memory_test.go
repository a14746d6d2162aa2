package memory

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentlaunch/core"
)

// Interface compliance (compile-time assertion)
var _ core.MemoryStore = (*InMemoryStore)(nil)

func TestInMemoryStore_AddAndSearch(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	rec, err := store.Add(ctx, "user-1", "The deployment lives in us-central1")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)

	_, err = store.Add(ctx, "user-1", "Staging bucket is gs://demo")
	require.NoError(t, err)

	results, err := store.Search(ctx, "user-1", "DEPLOYMENT", 10)
	require.NoError(t, err)
	require.Len(t, results, 1, "matching is case insensitive")
	assert.Contains(t, results[0].Content, "us-central1")
}

func TestInMemoryStore_SearchScopedToUser(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	_, _ = store.Add(ctx, "user-1", "private note")

	results, err := store.Search(ctx, "user-2", "note", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestInMemoryStore_SearchLimitAndOrder(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	for i := 0; i < 5; i++ {
		_, err := store.Add(ctx, "user-1", fmt.Sprintf("note %d", i))
		require.NoError(t, err)
	}

	results, err := store.Search(ctx, "user-1", "note", 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)

	all, err := store.Search(ctx, "user-1", "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5, "empty query with no cap returns everything")
}
