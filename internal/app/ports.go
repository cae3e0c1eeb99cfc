package app

import (
	"context"

	"github.com/hylla/tavla/internal/domain"
)

// BoardStore supplies the initial board and persists replacements.
// LoadBoard returns ErrNotFound when nothing has been stored yet.
type BoardStore interface {
	LoadBoard(context.Context) (domain.Board, error)
	SaveBoard(context.Context, domain.Board) error
}

// TaskMoveNotifier is told, once per cross-column move and after the new board is in place,
// which column a task now belongs to. Its result never changes board state.
type TaskMoveNotifier interface {
	NotifyTaskMoved(ctx context.Context, task domain.Task, newColumnID domain.ColumnID) error
}

// TaskMoveLedger lists recorded cross-column moves, newest first.
type TaskMoveLedger interface {
	ListTaskMoves(ctx context.Context, taskID string, limit int) ([]domain.TaskMoveEvent, error)
}
