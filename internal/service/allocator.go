package service

import (
	"context"
	"math"

	"github.com/BuzzLyutic/task-registry/internal/repo"
)

const firstTaskID uint32 = 1

// IDAllocator hands out task IDs from the persisted counter. Next and Advance
// must run in the same unit of work as the record they back.
type IDAllocator struct{}

func (IDAllocator) Next(ctx context.Context, r repo.TaskRepository) (uint32, error) {
	next, ok, err := r.NextID(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return firstTaskID, nil
	}
	if next == math.MaxUint32 {
		return 0, ErrIDSpaceExhausted
	}
	return next, nil
}

func (IDAllocator) Advance(ctx context.Context, r repo.TaskRepository, used uint32) error {
	return r.SetNextID(ctx, used+1)
}
