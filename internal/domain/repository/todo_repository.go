package repository

import (
	"context"

	"github.com/yudapratama/go-todo-auth/internal/domain/entity"
)

// TodoFilter narrows List results. Completed is a tri-state: nil means all.
type TodoFilter struct {
	Completed *bool
	Offset    int
	Limit     int
}

// TodoRepository defines the interface for todo database operations.
type TodoRepository interface {
	Create(ctx context.Context, t *entity.Todo) error
	GetByID(ctx context.Context, id int64) (*entity.Todo, error)
	List(ctx context.Context, f TodoFilter) ([]*entity.Todo, error)
	Update(ctx context.Context, t *entity.Todo) error
	Delete(ctx context.Context, id int64) error
}
