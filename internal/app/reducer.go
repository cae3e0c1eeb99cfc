package app

import (
	"fmt"
	"slices"

	"github.com/hylla/tavla/internal/domain"
)

// Outcome names which branch a reduction took.
type Outcome string

// OutcomeNoop and related constants describe reduction results.
const (
	OutcomeNoop          Outcome = "noop"
	OutcomeColumnMoved   Outcome = "column_moved"
	OutcomeTaskReordered Outcome = "task_reordered"
	OutcomeTaskMoved     Outcome = "task_moved"
)

// TaskMove describes a task that changed columns.
type TaskMove struct {
	Task         domain.Task
	FromColumnID domain.ColumnID
	ToColumnID   domain.ColumnID
	Index        int
}

// Reduction is the result of reducing one drag event.
//
// On OutcomeNoop, Board is the input board. Reason is set when the event was malformed; it
// wraps domain.ErrInvalidMoveEvent and is informational only.
type Reduction struct {
	Board   domain.Board
	Outcome Outcome
	Moved   *TaskMove
	Reason  error
}

// Changed reports whether the reduction produced a new board.
func (r Reduction) Changed() bool {
	return r.Outcome != OutcomeNoop
}

// Reduce computes the board that results from one completed drag.
//
// Reduce is pure: it never mutates board, and every column it does not touch is shared by
// pointer with the returned board. Malformed events are no-ops.
func Reduce(board domain.Board, ev domain.DragEvent) Reduction {
	if ev.Destination == nil {
		return noop(board, nil)
	}
	switch ev.Kind {
	case domain.DragKindColumn:
		return reduceColumnDrag(board, ev.DraggableID, ev.Source.Index, ev.Destination.Index)
	case domain.DragKindTask:
		return reduceTaskDrag(board, ev.DraggableID, ev.Source, *ev.Destination)
	default:
		return noop(board, fmt.Errorf("%w: %w %q", domain.ErrInvalidMoveEvent, domain.ErrUnknownDragKind, ev.Kind))
	}
}

// reduceColumnDrag splices one column out of the order and back in at the target.
func reduceColumnDrag(board domain.Board, draggableID string, from, to int) Reduction {
	columns := board.Columns()
	if from < 0 || from >= len(columns) {
		return noop(board, invalidPosition("source column", from, len(columns)))
	}
	if to < 0 {
		return noop(board, invalidPosition("destination column", to, len(columns)))
	}
	if draggableID != "" && draggableID != string(columns[from].ID()) {
		return noop(board, fmt.Errorf("%w: column at %d is %q, event dragged %q", domain.ErrInvalidMoveEvent, from, columns[from].ID(), draggableID))
	}

	remaining, moved := removeAt(columns, from)
	to = min(to, len(remaining))
	if to == from {
		return noop(board, nil)
	}
	next, err := domain.AssembleBoard(insertAt(remaining, to, moved))
	if err != nil {
		return noop(board, err)
	}
	return Reduction{Board: next, Outcome: OutcomeColumnMoved}
}

// reduceTaskDrag moves one task within a column or across two columns.
func reduceTaskDrag(board domain.Board, draggableID string, src, dst domain.DragPosition) Reduction {
	srcColIdx, err := domain.ParseColumnDroppableID(src.DroppableID)
	if err != nil {
		return noop(board, err)
	}
	dstColIdx, err := domain.ParseColumnDroppableID(dst.DroppableID)
	if err != nil {
		return noop(board, err)
	}
	srcCol, ok := board.ColumnAt(srcColIdx)
	if !ok {
		return noop(board, invalidPosition("source column", srcColIdx, board.Len()))
	}
	dstCol, ok := board.ColumnAt(dstColIdx)
	if !ok {
		return noop(board, invalidPosition("destination column", dstColIdx, board.Len()))
	}
	sameColumn := srcCol.ID() == dstCol.ID()
	if sameColumn && src.Index == dst.Index {
		return noop(board, nil)
	}

	srcTasks := srcCol.Tasks()
	if src.Index < 0 || src.Index >= len(srcTasks) {
		return noop(board, invalidPosition("source task", src.Index, len(srcTasks)))
	}
	if dst.Index < 0 {
		return noop(board, invalidPosition("destination task", dst.Index, dstCol.Len()))
	}
	if draggableID != "" && draggableID != srcTasks[src.Index].ID {
		return noop(board, fmt.Errorf("%w: task at %s[%d] is %q, event dragged %q", domain.ErrInvalidMoveEvent, srcCol.ID(), src.Index, srcTasks[src.Index].ID, draggableID))
	}

	remaining, moved := removeAt(srcTasks, src.Index)
	columns := board.Columns()

	if sameColumn {
		to := min(dst.Index, len(remaining))
		if to == src.Index {
			return noop(board, nil)
		}
		reordered, err := domain.NewColumn(srcCol.ID(), insertAt(remaining, to, moved)...)
		if err != nil {
			return noop(board, err)
		}
		columns[srcColIdx] = &reordered
		next, err := domain.AssembleBoard(columns)
		if err != nil {
			return noop(board, err)
		}
		return Reduction{Board: next, Outcome: OutcomeTaskReordered}
	}

	moved = moved.WithStatus(dstCol.ID())
	dstTasks := dstCol.Tasks()
	to := min(dst.Index, len(dstTasks))
	shrunk, err := domain.NewColumn(srcCol.ID(), remaining...)
	if err != nil {
		return noop(board, err)
	}
	grown, err := domain.NewColumn(dstCol.ID(), insertAt(dstTasks, to, moved)...)
	if err != nil {
		return noop(board, err)
	}
	columns[srcColIdx] = &shrunk
	columns[dstColIdx] = &grown
	next, err := domain.AssembleBoard(columns)
	if err != nil {
		return noop(board, err)
	}
	return Reduction{
		Board:   next,
		Outcome: OutcomeTaskMoved,
		Moved: &TaskMove{
			Task:         moved,
			FromColumnID: srcCol.ID(),
			ToColumnID:   dstCol.ID(),
			Index:        to,
		},
	}
}

// noop returns the unchanged board.
func noop(board domain.Board, reason error) Reduction {
	return Reduction{Board: board, Outcome: OutcomeNoop, Reason: reason}
}

// invalidPosition reports an out-of-range positional index.
func invalidPosition(what string, idx, length int) error {
	return fmt.Errorf("%w: %w: %s %d (len %d)", domain.ErrInvalidMoveEvent, domain.ErrPositionOutOfRange, what, idx, length)
}

// removeAt returns a new slice without items[idx] and the removed element.
func removeAt[T any](items []T, idx int) ([]T, T) {
	removed := items[idx]
	return slices.Delete(slices.Clone(items), idx, idx+1), removed
}

// insertAt returns a new slice with item placed at idx.
func insertAt[T any](items []T, idx int, item T) []T {
	out := make([]T, 0, len(items)+1)
	out = append(out, items[:idx]...)
	out = append(out, item)
	return append(out, items[idx:]...)
}
