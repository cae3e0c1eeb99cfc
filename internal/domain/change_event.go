package domain

import "time"

// TaskMoveEvent is one ledger entry recorded when a task lands in a different column.
type TaskMoveEvent struct {
	ID         int64
	TaskID     string
	TaskTitle  string
	ToColumnID ColumnID
	OccurredAt time.Time
}
