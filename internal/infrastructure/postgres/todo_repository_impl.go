package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yudapratama/go-todo-auth/internal/domain/entity"
	"github.com/yudapratama/go-todo-auth/internal/domain/repository"
)

type TodoRepository struct {
	pool *pgxpool.Pool
}

func NewTodoRepository(pool *pgxpool.Pool) *TodoRepository {
	return &TodoRepository{pool: pool}
}

func (r *TodoRepository) Create(ctx context.Context, t *entity.Todo) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO todos (title, content, completed)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, t.Title, t.Content, t.Completed)
	return row.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *TodoRepository) GetByID(ctx context.Context, id int64) (*entity.Todo, error) {
	t := &entity.Todo{}
	row := r.pool.QueryRow(ctx, `
		SELECT id, title, content, completed, created_at, updated_at
		FROM todos
		WHERE id = $1
	`, id)
	if err := row.Scan(&t.ID, &t.Title, &t.Content, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *TodoRepository) List(ctx context.Context, f repository.TodoFilter) ([]*entity.Todo, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}

	query := `
		SELECT id, title, content, completed, created_at, updated_at
		FROM todos
	`
	args := []any{}
	if f.Completed != nil {
		query += ` WHERE completed = $1 ORDER BY id OFFSET $2 LIMIT $3`
		args = append(args, *f.Completed, f.Offset, f.Limit)
	} else {
		query += ` ORDER BY id OFFSET $1 LIMIT $2`
		args = append(args, f.Offset, f.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*entity.Todo, 0)
	for rows.Next() {
		t := &entity.Todo{}
		if err := rows.Scan(&t.ID, &t.Title, &t.Content, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TodoRepository) Update(ctx context.Context, t *entity.Todo) error {
	t.UpdatedAt = time.Now()
	res, err := r.pool.Exec(ctx, `
		UPDATE todos
		SET title = $1, content = $2, completed = $3, updated_at = $4
		WHERE id = $5
	`, t.Title, t.Content, t.Completed, t.UpdatedAt, t.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *TodoRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.TodoRepository = (*TodoRepository)(nil)
