package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ColumnID identifies one column. The set of ids is configuration, not derived at runtime.
type ColumnID string

// ColumnTodo and related constants are the default column set.
const (
	ColumnTodo       ColumnID = "todo"
	ColumnInProgress ColumnID = "inprogress"
	ColumnDone       ColumnID = "done"
)

// DefaultColumnIDs returns the default column order.
func DefaultColumnIDs() []ColumnID {
	return []ColumnID{ColumnTodo, ColumnInProgress, ColumnDone}
}

// ParseColumnID normalizes and validates a column identifier.
// Purely numeric ids are rejected so they never read as a positional droppable id.
func ParseColumnID(raw string) (ColumnID, error) {
	id := strings.ToLower(strings.TrimSpace(raw))
	if id == "" {
		return "", ErrInvalidColumnID
	}
	if _, err := strconv.Atoi(id); err == nil {
		return "", fmt.Errorf("%w: %q is numeric", ErrInvalidColumnID, raw)
	}
	return ColumnID(id), nil
}

// Column is an ordered task sequence. A built column is never modified; moves produce new columns.
type Column struct {
	id    ColumnID
	tasks []Task
}

// NewColumn constructs a column holding tasks in the given order.
func NewColumn(id ColumnID, tasks ...Task) (Column, error) {
	parsed, err := ParseColumnID(string(id))
	if err != nil {
		return Column{}, err
	}
	seen := make(map[string]struct{}, len(tasks))
	for idx, task := range tasks {
		if task.ID == "" {
			return Column{}, fmt.Errorf("%w: column %s task %d", ErrInvalidID, parsed, idx)
		}
		if _, ok := seen[task.ID]; ok {
			return Column{}, fmt.Errorf("%w: %s in column %s", ErrDuplicateTask, task.ID, parsed)
		}
		seen[task.ID] = struct{}{}
		if task.Status != parsed {
			return Column{}, fmt.Errorf("%w: task %s has status %q, column is %q", ErrStatusMismatch, task.ID, task.Status, parsed)
		}
	}
	return Column{id: parsed, tasks: slices.Clone(tasks)}, nil
}

// ID returns the column identifier.
func (c Column) ID() ColumnID {
	return c.id
}

// Len returns the number of tasks.
func (c Column) Len() int {
	return len(c.tasks)
}

// Tasks returns a copy of the ordered task sequence.
func (c Column) Tasks() []Task {
	return slices.Clone(c.tasks)
}

// TaskAt returns the task at idx.
func (c Column) TaskAt(idx int) (Task, bool) {
	if idx < 0 || idx >= len(c.tasks) {
		return Task{}, false
	}
	return c.tasks[idx], true
}

// IndexOf returns the position of taskID, or -1.
func (c Column) IndexOf(taskID string) int {
	return slices.IndexFunc(c.tasks, func(t Task) bool { return t.ID == taskID })
}

// Equal reports structural equality.
func (c Column) Equal(other Column) bool {
	return c.id == other.id && slices.EqualFunc(c.tasks, other.tasks, Task.Equal)
}
