package entity

import "time"

// Todo is a plain task record.
type Todo struct {
	ID        int64
	Title     string
	Content   *string
	Completed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
