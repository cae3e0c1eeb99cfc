// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"

	"github.com/hylla/tavla/internal/domain"
)

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrUnavailable reports that the board service stopped accepting requests.
var ErrUnavailable = errors.New("board service unavailable")

// TaskView is the transport shape of one task.
type TaskView struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ColumnView is the transport shape of one column and its ordered tasks.
type ColumnView struct {
	ID    string     `json:"id"`
	Name  string     `json:"name,omitempty"`
	Tasks []TaskView `json:"tasks"`
}

// BoardView is the transport shape of the whole board in display order.
type BoardView struct {
	Columns   []ColumnView `json:"columns"`
	TaskCount int          `json:"task_count"`
}

// TaskMoveView describes the cross-column move a drag produced, if any.
type TaskMoveView struct {
	TaskID       string `json:"task_id"`
	FromColumnID string `json:"from_column_id"`
	ToColumnID   string `json:"to_column_id"`
	Index        int    `json:"index"`
}

// DragResult reports what one drag did. A malformed event comes back unchanged with a reason.
// Saved is false when the move was applied in memory but autosave failed; SaveError carries the cause.
type DragResult struct {
	Outcome   string        `json:"outcome"`
	Changed   bool          `json:"changed"`
	Saved     bool          `json:"saved"`
	SaveError string        `json:"save_error,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	Moved     *TaskMoveView `json:"moved,omitempty"`
	Board     BoardView     `json:"board"`
}

// MoveHistoryEntry is one recorded cross-column move.
type MoveHistoryEntry struct {
	ID         int64     `json:"id"`
	TaskID     string    `json:"task_id"`
	TaskTitle  string    `json:"task_title"`
	ToColumnID string    `json:"to_column_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// MoveColumnRequest moves one column, addressed by id, to ToIndex.
type MoveColumnRequest struct {
	ColumnID string `json:"column_id"`
	ToIndex  int    `json:"to_index"`
}

// MoveTaskRequest moves one task, addressed by id, into ToColumnID at ToIndex.
type MoveTaskRequest struct {
	TaskID     string `json:"task_id"`
	ToColumnID string `json:"to_column_id"`
	ToIndex    int    `json:"to_index"`
}

// CreateTaskRequest appends one task to a column.
type CreateTaskRequest struct {
	ColumnID string `json:"column_id"`
	Title    string `json:"title"`
}

// BoardService captures the board operations exposed over HTTP and MCP.
type BoardService interface {
	GetBoard(context.Context) (BoardView, error)
	DragEnd(context.Context, domain.DragEvent) (DragResult, error)
	MoveColumn(context.Context, MoveColumnRequest) (DragResult, error)
	MoveTask(context.Context, MoveTaskRequest) (DragResult, error)
	CreateTask(context.Context, CreateTaskRequest) (TaskView, error)
	ListTaskMoves(ctx context.Context, taskID string, limit int) ([]MoveHistoryEntry, error)
}
