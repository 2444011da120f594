package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/BuzzLyutic/task-registry/internal/kv"
	"github.com/BuzzLyutic/task-registry/internal/model"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorCorrupt  = errors.New("corrupt record")
)

type Store struct { // Единица работы поверх key-value хранилища
	kv kv.Store
}

func NewStore(store kv.Store) *Store {
	return &Store{
		kv: store,
	}
}

// Update runs fn in a writing unit of work; nothing fn wrote is kept if it fails.
func (s *Store) Update(ctx context.Context, fn func(r TaskRepository) error) error {
	return s.kv.Update(ctx, func(tx kv.Tx) error {
		return fn(&TaskRepo{tx: tx})
	})
}

func (s *Store) View(ctx context.Context, fn func(r TaskRepository) error) error {
	return s.kv.View(ctx, func(tx kv.Tx) error {
		return fn(&TaskRepo{tx: tx})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.kv.Ping(ctx)
}

type TaskRepo struct {
	tx kv.Tx
}

func (r *TaskRepo) Get(ctx context.Context, id uint32) (model.Task, error) {
	var t model.Task
	found, err := r.load(ctx, kv.TaskKey(id), &t)
	if err != nil {
		return t, err
	}
	if !found {
		return t, ErrorNotFound
	}
	return t, nil
}

func (r *TaskRepo) Save(ctx context.Context, t model.Task) error {
	return r.store(ctx, kv.TaskKey(t.ID), t)
}

// OwnerIndex returns the IDs created by owner in creation order; nil when
// the owner has no index entry.
func (r *TaskRepo) OwnerIndex(ctx context.Context, owner model.Identity) ([]uint32, error) {
	var ids []uint32
	if _, err := r.load(ctx, kv.OwnerKey(string(owner)), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *TaskRepo) SaveOwnerIndex(ctx context.Context, owner model.Identity, ids []uint32) error {
	if ids == nil {
		ids = []uint32{}
	}
	return r.store(ctx, kv.OwnerKey(string(owner)), ids)
}

// NextID returns the stored counter; ok is false when it was never written.
func (r *TaskRepo) NextID(ctx context.Context) (uint32, bool, error) {
	raw, ok, err := r.tx.Get(ctx, kv.NextIDKey)
	if err != nil || !ok {
		return 0, false, err
	}
	n, err := strconv.ParseUint(string(raw), 10, 32)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s: %v", ErrorCorrupt, kv.NextIDKey, err)
	}
	return uint32(n), true, nil
}

func (r *TaskRepo) SetNextID(ctx context.Context, next uint32) error {
	return r.tx.Set(ctx, kv.NextIDKey, []byte(strconv.FormatUint(uint64(next), 10)))
}

func (r *TaskRepo) load(ctx context.Context, key kv.Key, dst any) (bool, error) {
	raw, ok, err := r.tx.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrorCorrupt, key, err)
	}
	return true, nil
}

func (r *TaskRepo) store(ctx context.Context, key kv.Key, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.tx.Set(ctx, key, raw)
}
