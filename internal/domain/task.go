package domain

import (
	"strings"
	"time"
)

// Task is one card on the board. ID and CreatedAt never change after creation.
type Task struct {
	ID        string
	CreatedAt time.Time
	Title     string
	Status    ColumnID
}

// TaskInput holds input values for task construction.
type TaskInput struct {
	ID     string
	Title  string
	Status ColumnID
}

// NewTask constructs a validated task stamped with now.
func NewTask(in TaskInput, now time.Time) (Task, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Title = strings.TrimSpace(in.Title)
	if in.ID == "" {
		return Task{}, ErrInvalidID
	}
	if in.Title == "" {
		return Task{}, ErrInvalidTitle
	}
	status, err := ParseColumnID(string(in.Status))
	if err != nil {
		return Task{}, err
	}

	return Task{
		ID:        in.ID,
		CreatedAt: now.UTC(),
		Title:     in.Title,
		Status:    status,
	}, nil
}

// WithStatus returns a copy of the task assigned to another column.
func (t Task) WithStatus(status ColumnID) Task {
	t.Status = status
	return t
}

// Equal reports whether two tasks carry the same field values.
func (t Task) Equal(other Task) bool {
	return t.ID == other.ID &&
		t.CreatedAt.Equal(other.CreatedAt) &&
		t.Title == other.Title &&
		t.Status == other.Status
}
