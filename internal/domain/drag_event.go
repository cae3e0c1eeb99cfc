package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// DragKind names what was dragged.
type DragKind string

// DragKindColumn and related constants define the supported drag kinds.
const (
	DragKindColumn DragKind = "column"
	DragKindTask   DragKind = "task"
)

// BoardDroppableID is the droppable that holds the column order itself.
const BoardDroppableID = "board"

// DragPosition addresses one slot reported by a gesture source.
//
// For column drags Index is the column position. For task drags DroppableID is the column
// position rendered as a decimal string and Index is the task position inside that column.
type DragPosition struct {
	DroppableID string `json:"droppable_id"`
	Index       int    `json:"index"`
}

// DragEvent is the report of one completed drag gesture.
// A nil Destination means the element was dropped outside any target.
type DragEvent struct {
	Kind        DragKind      `json:"type"`
	DraggableID string        `json:"draggable_id,omitempty"`
	Source      DragPosition  `json:"source"`
	Destination *DragPosition `json:"destination,omitempty"`
}

// ColumnDragEvent builds a column drag from one column position to another.
func ColumnDragEvent(columnID ColumnID, from, to int) DragEvent {
	return DragEvent{
		Kind:        DragKindColumn,
		DraggableID: string(columnID),
		Source:      DragPosition{DroppableID: BoardDroppableID, Index: from},
		Destination: &DragPosition{DroppableID: BoardDroppableID, Index: to},
	}
}

// TaskDragEvent builds a task drag between positional column slots.
func TaskDragEvent(taskID string, fromColumn, fromIndex, toColumn, toIndex int) DragEvent {
	return DragEvent{
		Kind:        DragKindTask,
		DraggableID: taskID,
		Source:      DragPosition{DroppableID: ColumnDroppableID(fromColumn), Index: fromIndex},
		Destination: &DragPosition{DroppableID: ColumnDroppableID(toColumn), Index: toIndex},
	}
}

// ColumnDroppableID renders a column position as the droppable id gesture sources report.
func ColumnDroppableID(columnIndex int) string {
	return strconv.Itoa(columnIndex)
}

// ParseColumnDroppableID parses a positional droppable id back into a column position.
func ParseColumnDroppableID(droppableID string) (int, error) {
	idx, err := strconv.Atoi(strings.TrimSpace(droppableID))
	if err != nil {
		return 0, fmt.Errorf("%w: droppable id %q is not a column position", ErrInvalidMoveEvent, droppableID)
	}
	if idx < 0 {
		return 0, fmt.Errorf("%w: droppable id %q is negative", ErrInvalidMoveEvent, droppableID)
	}
	return idx, nil
}
