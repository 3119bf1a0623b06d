package configstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	t.Run("missing path returns empty without error", func(t *testing.T) {
		value, err := store.Get(ctx, "missing/path")
		require.NoError(t, err)
		assert.Empty(t, value)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "a/b", "v1"))
		value, err := store.Get(ctx, "a/b")
		require.NoError(t, err)
		assert.Equal(t, "v1", value)
	})

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "a/b", "v2"))
		value, err := store.Get(ctx, "a/b")
		require.NoError(t, err)
		assert.Equal(t, "v2", value)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "a/b"))
		value, err := store.Get(ctx, "a/b")
		require.NoError(t, err)
		assert.Empty(t, value)
	})

	t.Run("delete absent path is not an error", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, "never/existed"))
	})
}
