package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/BuzzLyutic/task-registry/internal/kv"
)

const (
	retryInitialInterval = time.Millisecond
	retryMaxInterval     = 50 * time.Millisecond
)

// Store keeps records as plain redis strings under a key prefix. Update runs
// under optimistic locking: every key read is WATCHed and the staged writes
// are applied in one MULTI/EXEC, retried from scratch on a conflict with
// jittered exponential backoff until ctx is done.
type Store struct {
	client     *redis.Client
	prefix     string
	maxRetries int // 0 means no limit
}

type Option func(*Store)

func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithMaxRetries caps the number of attempts per Update. Past the cap Update
// fails with kv.ErrConflict.
func WithMaxRetries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

func NewStore(client *redis.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: "registry:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(k kv.Key) string {
	return s.prefix + string(k)
}

func (s *Store) Update(ctx context.Context, fn func(tx kv.Tx) error) error {
	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		err := s.attempt(ctx, fn)
		if err == nil || errors.Is(err, redis.TxFailedErr) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(s.backOff(), ctx))

	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w after %d attempts", kv.ErrConflict, attempts)
	}
	return err
}

func (s *Store) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.MaxInterval = retryMaxInterval
	b.MaxElapsedTime = 0
	if s.maxRetries > 0 {
		return backoff.WithMaxRetries(b, uint64(s.maxRetries-1))
	}
	return b
}

func (s *Store) attempt(ctx context.Context, fn func(tx kv.Tx) error) error {
	return s.client.Watch(ctx, func(rtx *redis.Tx) error {
		tx := &redisTx{store: s, rtx: rtx, staged: make(map[kv.Key][]byte)}
		if err := fn(tx); err != nil {
			return err
		}
		if len(tx.order) == 0 {
			return nil
		}
		_, err := rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, k := range tx.order {
				pipe.Set(ctx, s.key(k), tx.staged[k], 0)
			}
			return nil
		})
		return err
	}, s.key(kv.NextIDKey))
}

func (s *Store) View(ctx context.Context, fn func(tx kv.Tx) error) error {
	return fn(&redisTx{store: s, readOnly: true})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

type redisTx struct {
	store    *Store
	rtx      *redis.Tx
	staged   map[kv.Key][]byte
	order    []kv.Key
	readOnly bool
}

func (t *redisTx) Get(ctx context.Context, key kv.Key) ([]byte, bool, error) {
	if v, ok := t.staged[key]; ok {
		out := make([]byte, len(v))
		copy(out, v)
		return out, true, nil
	}

	var cmd redis.Cmdable = t.store.client
	if t.rtx != nil {
		if err := t.rtx.Watch(ctx, t.store.key(key)).Err(); err != nil {
			return nil, false, fmt.Errorf("watch %s: %w", key, err)
		}
		cmd = t.rtx
	}

	v, err := cmd.Get(ctx, t.store.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

func (t *redisTx) Set(ctx context.Context, key kv.Key, value []byte) error {
	if t.readOnly {
		return kv.ErrReadOnly
	}
	if _, ok := t.staged[key]; !ok {
		t.order = append(t.order, key)
	}
	v := make([]byte, len(value))
	copy(v, value)
	t.staged[key] = v
	return nil
}
