package tui

import "github.com/hylla/tavla/internal/domain"

// grabKind names what the user is holding.
type grabKind int

// grabNone and related constants define gesture states.
const (
	grabNone grabKind = iota
	grabTask
	grabColumn
)

// grab is one in-flight keyboard drag. The to* fields are the drop marker.
//
// For task grabs toIndex is the final position in the destination column, so a same-column
// marker ranges over len-1 slots and a cross-column marker over len+1 slots.
type grab struct {
	kind       grabKind
	taskID     string
	columnID   domain.ColumnID
	fromColumn int
	fromIndex  int
	toColumn   int
	toIndex    int
}

// active reports whether an element is held.
func (g grab) active() bool {
	return g.kind != grabNone
}

// pickUpTask starts a task grab at the given slot.
func pickUpTask(board domain.Board, columnIdx, taskIdx int) (grab, bool) {
	col, ok := board.ColumnAt(columnIdx)
	if !ok {
		return grab{}, false
	}
	task, ok := col.TaskAt(taskIdx)
	if !ok {
		return grab{}, false
	}
	return grab{
		kind:       grabTask,
		taskID:     task.ID,
		columnID:   col.ID(),
		fromColumn: columnIdx,
		fromIndex:  taskIdx,
		toColumn:   columnIdx,
		toIndex:    taskIdx,
	}, true
}

// pickUpColumn starts a column grab.
func pickUpColumn(board domain.Board, columnIdx int) (grab, bool) {
	col, ok := board.ColumnAt(columnIdx)
	if !ok {
		return grab{}, false
	}
	return grab{
		kind:       grabColumn,
		columnID:   col.ID(),
		fromColumn: columnIdx,
		toColumn:   columnIdx,
	}, true
}

// moveMarker shifts the drop marker by whole columns and task slots, clamped to the board.
func (g grab) moveMarker(board domain.Board, dColumn, dIndex int) grab {
	last := board.Len() - 1
	switch g.kind {
	case grabColumn:
		g.toColumn = clamp(g.toColumn+dColumn+dIndex, 0, last)
	case grabTask:
		g.toColumn = clamp(g.toColumn+dColumn, 0, last)
		g.toIndex = clamp(g.toIndex+dIndex, 0, g.maxIndex(board))
	}
	return g
}

// maxIndex returns the last valid marker slot in the destination column.
func (g grab) maxIndex(board domain.Board) int {
	col, ok := board.ColumnAt(g.toColumn)
	if !ok {
		return 0
	}
	if g.toColumn == g.fromColumn {
		return max(0, col.Len()-1)
	}
	return col.Len()
}

// dropEvent renders the grab as the positional event a completed drop reports.
func (g grab) dropEvent() domain.DragEvent {
	if g.kind == grabColumn {
		return domain.ColumnDragEvent(g.columnID, g.fromColumn, g.toColumn)
	}
	return domain.TaskDragEvent(g.taskID, g.fromColumn, g.fromIndex, g.toColumn, g.toIndex)
}

// cancelEvent renders the grab as a drop outside any target.
func (g grab) cancelEvent() domain.DragEvent {
	ev := g.dropEvent()
	ev.Destination = nil
	return ev
}
