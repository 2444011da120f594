package service

import (
	"context"
	"errors"

	"github.com/BuzzLyutic/task-registry/internal/model"
	"github.com/BuzzLyutic/task-registry/internal/repo"
)

// GetByID returns the task regardless of status; ok is false when no task has the ID.
func (s *TaskService) GetByID(ctx context.Context, id uint32) (task model.Task, ok bool, err error) {
	err = s.store.View(ctx, func(r repo.TaskRepository) error {
		t, err := r.Get(ctx, id)
		if errors.Is(err, repo.ErrorNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		task, ok = t, true
		return nil
	})
	return task, ok, err
}

// GetByOwner resolves the owner index and returns the non-deleted tasks in
// index order.
func (s *TaskService) GetByOwner(ctx context.Context, owner model.Identity) ([]model.Task, error) {
	tasks := []model.Task{}
	err := s.store.View(ctx, func(r repo.TaskRepository) error {
		ids, err := r.OwnerIndex(ctx, owner)
		if err != nil {
			return err
		}
		for _, id := range ids {
			t, err := r.Get(ctx, id)
			if errors.Is(err, repo.ErrorNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if t.Visible() {
				tasks = append(tasks, t)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetAll returns every non-deleted task in ascending ID order. It walks the
// whole ID range, deleted tasks included, so its cost grows with every task
// ever created.
func (s *TaskService) GetAll(ctx context.Context) ([]model.Task, error) {
	tasks := []model.Task{}
	err := s.store.View(ctx, func(r repo.TaskRepository) error {
		return s.scan(ctx, r, func(t model.Task) {
			if t.Visible() {
				tasks = append(tasks, t)
			}
		})
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Stats counts every stored task by status, deleted ones included.
func (s *TaskService) Stats(ctx context.Context) (model.Stats, error) {
	stats := model.Stats{ByStatus: map[model.Status]int{
		model.StatusPending:   0,
		model.StatusCompleted: 0,
		model.StatusDeleted:   0,
	}}
	err := s.store.View(ctx, func(r repo.TaskRepository) error {
		return s.scan(ctx, r, func(t model.Task) {
			stats.TotalTasks++
			stats.ByStatus[t.Status]++
		})
	})
	if err != nil {
		return model.Stats{}, err
	}
	return stats, nil
}

func (s *TaskService) scan(ctx context.Context, r repo.TaskRepository, visit func(t model.Task)) error {
	last, ok, err := r.NextID(ctx)
	if err != nil || !ok {
		return err
	}
	for id := firstTaskID; id < last; id++ {
		t, err := r.Get(ctx, id)
		if errors.Is(err, repo.ErrorNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		visit(t)
	}
	return nil
}
