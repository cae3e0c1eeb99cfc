package domain

import (
	"fmt"
	"slices"
)

// Board is the ordered set of columns. The slice order is the left-to-right display order.
//
// A Board is a value: derived boards are built by Reduce-style operations that copy only the
// columns they change and keep pointing at every other *Column of the previous board.
type Board struct {
	columns []*Column
}

// NewBoard constructs a board from columns in display order.
func NewBoard(columns ...Column) (Board, error) {
	ptrs := make([]*Column, 0, len(columns))
	for i := range columns {
		col := columns[i]
		ptrs = append(ptrs, &col)
	}
	return AssembleBoard(ptrs)
}

// AssembleBoard constructs a board that shares the given column values.
func AssembleBoard(columns []*Column) (Board, error) {
	b := Board{columns: slices.Clone(columns)}
	if err := b.Validate(); err != nil {
		return Board{}, err
	}
	return b, nil
}

// Validate checks the board invariants: unique column ids, every task held exactly once,
// and every task status naming its holder.
func (b Board) Validate() error {
	seenCols := make(map[ColumnID]struct{}, len(b.columns))
	seenTasks := map[string]ColumnID{}
	for idx, col := range b.columns {
		if col == nil {
			return fmt.Errorf("%w: nil column at %d", ErrInvalidColumnID, idx)
		}
		if _, err := ParseColumnID(string(col.id)); err != nil {
			return err
		}
		if _, ok := seenCols[col.id]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateColumn, col.id)
		}
		seenCols[col.id] = struct{}{}
		for _, task := range col.tasks {
			if task.Status != col.id {
				return fmt.Errorf("%w: task %s has status %q, column is %q", ErrStatusMismatch, task.ID, task.Status, col.id)
			}
			if holder, ok := seenTasks[task.ID]; ok {
				return fmt.Errorf("%w: %s in columns %s and %s", ErrDuplicateTask, task.ID, holder, col.id)
			}
			seenTasks[task.ID] = col.id
		}
	}
	return nil
}

// Len returns the number of columns.
func (b Board) Len() int {
	return len(b.columns)
}

// Columns returns the columns in display order. The slice is fresh; the columns are shared.
func (b Board) Columns() []*Column {
	return slices.Clone(b.columns)
}

// ColumnIDs returns the column identifiers in display order.
func (b Board) ColumnIDs() []ColumnID {
	out := make([]ColumnID, 0, len(b.columns))
	for _, col := range b.columns {
		out = append(out, col.id)
	}
	return out
}

// ColumnAt returns the column at position idx.
func (b Board) ColumnAt(idx int) (*Column, bool) {
	if idx < 0 || idx >= len(b.columns) {
		return nil, false
	}
	return b.columns[idx], true
}

// Column returns the column with the given id.
func (b Board) Column(id ColumnID) (*Column, bool) {
	idx := b.IndexOf(id)
	if idx < 0 {
		return nil, false
	}
	return b.columns[idx], true
}

// IndexOf returns the display position of column id, or -1.
func (b Board) IndexOf(id ColumnID) int {
	return slices.IndexFunc(b.columns, func(c *Column) bool { return c.id == id })
}

// FindTask locates a task by id and returns its column and task positions.
func (b Board) FindTask(taskID string) (Task, int, int, bool) {
	for colIdx, col := range b.columns {
		if taskIdx := col.IndexOf(taskID); taskIdx >= 0 {
			return col.tasks[taskIdx], colIdx, taskIdx, true
		}
	}
	return Task{}, -1, -1, false
}

// TaskCount returns the number of tasks across all columns.
func (b Board) TaskCount() int {
	total := 0
	for _, col := range b.columns {
		total += len(col.tasks)
	}
	return total
}

// Equal reports structural equality: same column order and identical task sequences.
func (b Board) Equal(other Board) bool {
	return slices.EqualFunc(b.columns, other.columns, func(a, c *Column) bool {
		return a == c || a.Equal(*c)
	})
}
