package memory

import (
	"context"
	"sync"

	"github.com/BuzzLyutic/task-registry/internal/kv"
)

// Store keeps records in a map. Writes made inside Update are staged and
// applied only when the callback succeeds.
type Store struct {
	data map[kv.Key][]byte
	mtx  *sync.RWMutex
}

func NewStore() *Store {
	return &Store{
		data: make(map[kv.Key][]byte),
		mtx:  &sync.RWMutex{},
	}
}

func (s *Store) Update(ctx context.Context, fn func(tx kv.Tx) error) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memTx{store: s, staged: make(map[kv.Key][]byte)}
	if err := fn(tx); err != nil {
		return err
	}

	for k, v := range tx.staged {
		s.data[k] = v
	}
	return nil
}

func (s *Store) View(ctx context.Context, fn func(tx kv.Tx) error) error {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&memTx{store: s, readOnly: true})
}

func (s *Store) Ping(ctx context.Context) error {
	return nil
}

func (s *Store) Close() error {
	return nil
}

type memTx struct {
	store    *Store
	staged   map[kv.Key][]byte
	readOnly bool
}

func (t *memTx) Get(ctx context.Context, key kv.Key) ([]byte, bool, error) {
	if v, ok := t.staged[key]; ok {
		return clone(v), true, nil
	}
	v, ok := t.store.data[key]
	if !ok {
		return nil, false, nil
	}
	return clone(v), true, nil
}

func (t *memTx) Set(ctx context.Context, key kv.Key, value []byte) error {
	if t.readOnly {
		return kv.ErrReadOnly
	}
	t.staged[key] = clone(value)
	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
