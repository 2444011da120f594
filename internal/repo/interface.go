package repo

import (
	"context"

	"github.com/BuzzLyutic/task-registry/internal/model"
)

// TaskRepository определяет интерфейс для работы с задачами внутри одной транзакции
type TaskRepository interface {
	Get(ctx context.Context, id uint32) (model.Task, error)
	Save(ctx context.Context, t model.Task) error
	OwnerIndex(ctx context.Context, owner model.Identity) ([]uint32, error)
	SaveOwnerIndex(ctx context.Context, owner model.Identity, ids []uint32) error
	NextID(ctx context.Context) (uint32, bool, error)
	SetNextID(ctx context.Context, next uint32) error
}
