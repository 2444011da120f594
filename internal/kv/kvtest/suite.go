// Package kvtest holds the behaviour every kv.Store backend must share.
package kvtest

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/task-registry/internal/kv"
)

// Run exercises a backend. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) kv.Store) {
	t.Run("missing key", func(t *testing.T) {
		s := newStore(t)
		err := s.View(context.Background(), func(tx kv.Tx) error {
			v, ok, err := tx.Get(context.Background(), kv.TaskKey(99))
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Nil(t, v)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("set then get", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		err := s.Update(ctx, func(tx kv.Tx) error {
			require.NoError(t, tx.Set(ctx, kv.NextIDKey, []byte("1")))
			v, ok, err := tx.Get(ctx, kv.NextIDKey)
			require.NoError(t, err)
			assert.True(t, ok, "staged write should be readable in the same transaction")
			assert.Equal(t, []byte("1"), v)
			return nil
		})
		require.NoError(t, err)

		assert.Equal(t, []byte("1"), get(t, s, kv.NextIDKey))
	})

	t.Run("overwrite", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, val := range []string{"a", "b"} {
			err := s.Update(ctx, func(tx kv.Tx) error {
				return tx.Set(ctx, kv.OwnerKey("owner"), []byte(val))
			})
			require.NoError(t, err)
		}
		assert.Equal(t, []byte("b"), get(t, s, kv.OwnerKey("owner")))
	})

	t.Run("rollback on error", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		boom := errors.New("boom")

		err := s.Update(ctx, func(tx kv.Tx) error {
			require.NoError(t, tx.Set(ctx, kv.TaskKey(1), []byte("x")))
			require.NoError(t, tx.Set(ctx, kv.NextIDKey, []byte("2")))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		err = s.View(ctx, func(tx kv.Tx) error {
			for _, k := range []kv.Key{kv.TaskKey(1), kv.NextIDKey} {
				_, ok, err := tx.Get(ctx, k)
				require.NoError(t, err)
				assert.False(t, ok, "key %s should not be committed", k)
			}
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("view is read only", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		err := s.View(ctx, func(tx kv.Tx) error {
			return tx.Set(ctx, kv.NextIDKey, []byte("5"))
		})
		assert.ErrorIs(t, err, kv.ErrReadOnly)
	})

	t.Run("returned values are copies", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Update(ctx, func(tx kv.Tx) error {
			return tx.Set(ctx, kv.TaskKey(7), []byte("abc"))
		}))

		v := get(t, s, kv.TaskKey(7))
		v[0] = 'z'
		assert.Equal(t, []byte("abc"), get(t, s, kv.TaskKey(7)))
	})

	t.Run("concurrent updates are serialized", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		const goroutines = 8
		const perGoroutine = 5

		var wg sync.WaitGroup
		errs := make([]error, goroutines)
		for i := 0; i < goroutines; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				for j := 0; j < perGoroutine; j++ {
					err := s.Update(ctx, func(tx kv.Tx) error {
						v, ok, err := tx.Get(ctx, kv.NextIDKey)
						if err != nil {
							return err
						}
						n := 0
						if ok {
							if n, err = strconv.Atoi(string(v)); err != nil {
								return err
							}
						}
						return tx.Set(ctx, kv.NextIDKey, []byte(strconv.Itoa(n+1)))
					})
					if err != nil {
						errs[idx] = err
						return
					}
				}
			}(i)
		}
		wg.Wait()

		for i, err := range errs {
			require.NoError(t, err, "goroutine %d", i)
		}
		assert.Equal(t, strconv.Itoa(goroutines*perGoroutine), string(get(t, s, kv.NextIDKey)))
	})
}

func get(t *testing.T, s kv.Store, key kv.Key) []byte {
	t.Helper()
	var out []byte
	err := s.View(context.Background(), func(tx kv.Tx) error {
		v, ok, err := tx.Get(context.Background(), key)
		if err != nil {
			return err
		}
		require.True(t, ok, "key %s not found", key)
		out = v
		return nil
	})
	require.NoError(t, err)
	return out
}
