package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-registry/internal/auth"
	"github.com/BuzzLyutic/task-registry/internal/model"
	"github.com/BuzzLyutic/task-registry/internal/repo"
)

// Store runs units of work against the task records.
type Store interface {
	Update(ctx context.Context, fn func(r repo.TaskRepository) error) error
	View(ctx context.Context, fn func(r repo.TaskRepository) error) error
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type TaskService struct {
	store    Store
	verifier auth.Verifier
	clock    Clock
	ids      IDAllocator
	logger   *zap.Logger

	reindexOnTransfer bool
}

type Option func(*TaskService)

func WithClock(clock Clock) Option {
	return func(s *TaskService) {
		s.clock = clock
	}
}

// WithReindexOnTransfer moves a transferred task between owner index entries.
// Off by default: the index keeps listing a task under the identity that created it.
func WithReindexOnTransfer(enabled bool) Option {
	return func(s *TaskService) {
		s.reindexOnTransfer = enabled
	}
}

func NewTaskService(store Store, verifier auth.Verifier, logger *zap.Logger, opts ...Option) *TaskService {
	s := &TaskService{
		store:    store,
		verifier: verifier,
		clock:    SystemClock{},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a pending task owned by owner and returns its ID.
func (s *TaskService) Create(ctx context.Context, description string, owner model.Identity) (uint32, error) {
	if err := s.verifier.RequireAuth(ctx, owner); err != nil {
		return 0, err
	}
	if description == "" {
		return 0, ErrInvalidTaskData
	}

	var id uint32
	err := s.store.Update(ctx, func(r repo.TaskRepository) error {
		next, err := s.ids.Next(ctx, r)
		if err != nil {
			return err
		}

		task := model.Task{
			ID:          next,
			Description: description,
			Owner:       owner,
			Status:      model.StatusPending,
			Timestamp:   unixSeconds(s.clock.Now()),
		}
		if err := r.Save(ctx, task); err != nil {
			return err
		}

		owned, err := r.OwnerIndex(ctx, owner)
		if err != nil {
			return err
		}
		if err := r.SaveOwnerIndex(ctx, owner, append(owned, next)); err != nil {
			return err
		}

		if err := s.ids.Advance(ctx, r, next); err != nil {
			return err
		}
		id = next
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("task created", zap.Uint32("task_id", id), zap.String("owner", string(owner)))
	return id, nil
}

func (s *TaskService) Complete(ctx context.Context, id uint32, caller model.Identity) error {
	return s.mutate(ctx, "complete", id, caller, func(_ repo.TaskRepository, t *model.Task) error {
		switch t.Status {
		case model.StatusCompleted:
			return ErrTaskAlreadyCompleted
		case model.StatusDeleted:
			return ErrTaskNotPending
		}
		t.Status = model.StatusCompleted
		return nil
	})
}

func (s *TaskService) UpdateDescription(ctx context.Context, id uint32, caller model.Identity, description string) error {
	return s.mutate(ctx, "update_description", id, caller, func(_ repo.TaskRepository, t *model.Task) error {
		if description == "" {
			return ErrInvalidTaskData
		}
		if t.Status != model.StatusPending {
			return ErrTaskNotPending
		}
		t.Description = description
		return nil
	})
}

// SoftDelete marks the task deleted. The record stays readable by ID.
func (s *TaskService) SoftDelete(ctx context.Context, id uint32, caller model.Identity) error {
	return s.mutate(ctx, "soft_delete", id, caller, func(_ repo.TaskRepository, t *model.Task) error {
		t.Status = model.StatusDeleted
		return nil
	})
}

func (s *TaskService) TransferOwnership(ctx context.Context, id uint32, caller, newOwner model.Identity) error {
	return s.mutate(ctx, "transfer_ownership", id, caller, func(r repo.TaskRepository, t *model.Task) error {
		if s.reindexOnTransfer && newOwner != t.Owner {
			if err := s.moveIndexEntry(ctx, r, id, t.Owner, newOwner); err != nil {
				return err
			}
		}
		t.Owner = newOwner
		return nil
	})
}

// mutate authenticates caller, loads the task, checks ownership and saves
// the result of apply, in that order. apply must not write when it fails.
func (s *TaskService) mutate(ctx context.Context, op string, id uint32, caller model.Identity, apply func(r repo.TaskRepository, t *model.Task) error) error {
	if err := s.verifier.RequireAuth(ctx, caller); err != nil {
		return err
	}

	err := s.store.Update(ctx, func(r repo.TaskRepository) error {
		t, err := r.Get(ctx, id)
		if errors.Is(err, repo.ErrorNotFound) {
			return ErrTaskNotFound
		}
		if err != nil {
			return err
		}

		if t.Owner != caller {
			return ErrUnauthorized
		}

		if err := apply(r, &t); err != nil {
			return err
		}
		return r.Save(ctx, t)
	})
	if err != nil {
		s.logger.Debug("task operation rejected",
			zap.String("op", op),
			zap.Uint32("task_id", id),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("task updated", zap.String("op", op), zap.Uint32("task_id", id))
	return nil
}

func (s *TaskService) moveIndexEntry(ctx context.Context, r repo.TaskRepository, id uint32, from, to model.Identity) error {
	fromIDs, err := r.OwnerIndex(ctx, from)
	if err != nil {
		return err
	}
	kept := make([]uint32, 0, len(fromIDs))
	for _, v := range fromIDs {
		if v != id {
			kept = append(kept, v)
		}
	}
	if err := r.SaveOwnerIndex(ctx, from, kept); err != nil {
		return err
	}

	toIDs, err := r.OwnerIndex(ctx, to)
	if err != nil {
		return err
	}
	for _, v := range toIDs {
		if v == id {
			return nil
		}
	}
	return r.SaveOwnerIndex(ctx, to, append(toIDs, id))
}

func unixSeconds(t time.Time) uint64 {
	if sec := t.Unix(); sec > 0 {
		return uint64(sec)
	}
	return 0
}
