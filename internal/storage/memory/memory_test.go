package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	store := New()

	t.Run("get missing key", func(t *testing.T) {
		_, ok, err := store.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "a:1", "one"))
		value, ok, err := store.Get(ctx, "a:1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "one", value)
	})

	t.Run("keys filters by prefix", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "a:2", "two"))
		require.NoError(t, store.Set(ctx, "b:1", "other"))

		keys, err := store.Keys(ctx, "a:")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a:1", "a:2"}, keys)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "a:1"))
		require.NoError(t, store.Delete(ctx, "a:1"))
		_, ok, _ := store.Get(ctx, "a:1")
		assert.False(t, ok)
	})
}

func TestStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("k:%d", n)
			_ = store.Set(ctx, key, "v")
			_, _, _ = store.Get(ctx, key)
			_, _ = store.Keys(ctx, "k:")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, store.Len())
}
