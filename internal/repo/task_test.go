package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/task-registry/internal/kv"
	"github.com/BuzzLyutic/task-registry/internal/kv/memory"
	"github.com/BuzzLyutic/task-registry/internal/model"
)

func TestTaskRepo_SaveAndGet(t *testing.T) {
	store := NewStore(memory.NewStore())
	ctx := context.Background()

	task := model.Task{
		ID:          1,
		Description: "buy milk",
		Owner:       "owner-a",
		Status:      model.StatusPending,
		Timestamp:   1678886400,
	}
	require.NoError(t, store.Update(ctx, func(r TaskRepository) error {
		return r.Save(ctx, task)
	}))

	err := store.View(ctx, func(r TaskRepository) error {
		got, err := r.Get(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, task, got)

		_, err = r.Get(ctx, 2)
		assert.ErrorIs(t, err, ErrorNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestTaskRepo_OwnerIndex(t *testing.T) {
	store := NewStore(memory.NewStore())
	ctx := context.Background()

	err := store.View(ctx, func(r TaskRepository) error {
		ids, err := r.OwnerIndex(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, ids)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, store.Update(ctx, func(r TaskRepository) error {
		return r.SaveOwnerIndex(ctx, "owner-a", []uint32{3, 1, 2})
	}))

	err = store.View(ctx, func(r TaskRepository) error {
		ids, err := r.OwnerIndex(ctx, "owner-a")
		require.NoError(t, err)
		assert.Equal(t, []uint32{3, 1, 2}, ids)
		return nil
	})
	require.NoError(t, err)
}

func TestTaskRepo_NextID(t *testing.T) {
	store := NewStore(memory.NewStore())
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, func(r TaskRepository) error {
		_, ok, err := r.NextID(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
		return r.SetNextID(ctx, 42)
	}))

	err := store.View(ctx, func(r TaskRepository) error {
		n, ok, err := r.NextID(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, uint32(42), n)
		return nil
	})
	require.NoError(t, err)
}

func TestTaskRepo_CorruptRecords(t *testing.T) {
	raw := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, raw.Update(ctx, func(tx kv.Tx) error {
		if err := tx.Set(ctx, kv.TaskKey(1), []byte("{not json")); err != nil {
			return err
		}
		return tx.Set(ctx, kv.NextIDKey, []byte("-3"))
	}))

	store := NewStore(raw)
	err := store.View(ctx, func(r TaskRepository) error {
		_, err := r.Get(ctx, 1)
		assert.ErrorIs(t, err, ErrorCorrupt)

		_, _, err = r.NextID(ctx)
		assert.ErrorIs(t, err, ErrorCorrupt)
		return nil
	})
	require.NoError(t, err)
}

func TestStore_UpdateRollsBack(t *testing.T) {
	store := NewStore(memory.NewStore())
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.Update(ctx, func(r TaskRepository) error {
		require.NoError(t, r.Save(ctx, model.Task{ID: 1, Description: "x", Status: model.StatusPending}))
		require.NoError(t, r.SetNextID(ctx, 2))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = store.View(ctx, func(r TaskRepository) error {
		_, err := r.Get(ctx, 1)
		assert.ErrorIs(t, err, ErrorNotFound)
		_, ok, err := r.NextID(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}
