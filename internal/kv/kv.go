// Package kv defines the record store contract shared by every storage backend.
//
// A Store executes units of work. Everything read and written through the Tx handed
// to an Update callback commits together, or not at all when the callback returns an
// error. Concurrent units of work on the same Store behave as if executed one after
// another.
package kv

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrReadOnly = errors.New("kv: write in read-only transaction")
	ErrConflict = errors.New("kv: transaction conflict")
)

type Key string

// NextIDKey holds the task ID counter.
const NextIDKey Key = "next_id"

func TaskKey(id uint32) Key {
	return Key(fmt.Sprintf("task:%d", id))
}

func OwnerKey(owner string) Key {
	return Key("owner:" + owner)
}

type Tx interface {
	// Get returns ok == false when the key has never been set.
	Get(ctx context.Context, key Key) (value []byte, ok bool, err error)
	Set(ctx context.Context, key Key, value []byte) error
}

type Store interface {
	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
	Close() error
}
