package repository

import (
	"context"
	"errors"

	"github.com/yudapratama/go-todo-auth/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned by Create when the unique email
	// constraint rejects the insert. Callers racing to self-heal a missing
	// row catch this and re-read instead of failing.
	ErrDuplicateEmail = errors.New("email already exists")
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	UpdatePassword(ctx context.Context, id, hashedPassword string) error
}
