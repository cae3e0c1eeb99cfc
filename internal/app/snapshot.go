package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hylla/tavla/internal/domain"
)

// SnapshotVersion defines a package constant value.
const SnapshotVersion = "tavla.snapshot.v1"

// Snapshot is the portable JSON form of a board. Column and task order are preserved.
type Snapshot struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Columns    []SnapshotColumn `json:"columns"`
}

// SnapshotColumn represents snapshot column data used by this package.
type SnapshotColumn struct {
	ID    domain.ColumnID `json:"id"`
	Tasks []SnapshotTask  `json:"tasks"`
}

// SnapshotTask represents snapshot task data used by this package.
type SnapshotTask struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Title     string          `json:"title"`
	Status    domain.ColumnID `json:"status"`
}

// SnapshotFromBoard captures board at now.
func SnapshotFromBoard(board domain.Board, now time.Time) Snapshot {
	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: now.UTC(),
		Columns:    make([]SnapshotColumn, 0, board.Len()),
	}
	for _, col := range board.Columns() {
		tasks := col.Tasks()
		out := SnapshotColumn{ID: col.ID(), Tasks: make([]SnapshotTask, 0, len(tasks))}
		for _, t := range tasks {
			out.Tasks = append(out.Tasks, SnapshotTask{
				ID:        t.ID,
				CreatedAt: t.CreatedAt.UTC(),
				Title:     t.Title,
				Status:    t.Status,
			})
		}
		snap.Columns = append(snap.Columns, out)
	}
	return snap
}

// Validate checks the snapshot version and that every task's status names its column.
func (s Snapshot) Validate() error {
	version := strings.TrimSpace(s.Version)
	if version != "" && version != SnapshotVersion {
		return fmt.Errorf("%w: unsupported version %q", ErrInvalidSnapshot, s.Version)
	}
	if _, err := s.Board(); err != nil {
		return err
	}
	return nil
}

// Board rebuilds the board described by the snapshot.
// A task without status inherits its column; a conflicting status is rejected.
func (s Snapshot) Board() (domain.Board, error) {
	columns := make([]domain.Column, 0, len(s.Columns))
	for colIdx, sc := range s.Columns {
		colID, err := domain.ParseColumnID(string(sc.ID))
		if err != nil {
			return domain.Board{}, fmt.Errorf("%w: columns[%d]: %w", ErrInvalidSnapshot, colIdx, err)
		}
		tasks := make([]domain.Task, 0, len(sc.Tasks))
		for taskIdx, st := range sc.Tasks {
			status := st.Status
			if strings.TrimSpace(string(status)) == "" {
				status = colID
			}
			createdAt := st.CreatedAt
			if createdAt.IsZero() {
				createdAt = s.ExportedAt
			}
			task, err := domain.NewTask(domain.TaskInput{ID: st.ID, Title: st.Title, Status: status}, createdAt)
			if err != nil {
				return domain.Board{}, fmt.Errorf("%w: columns[%d].tasks[%d]: %w", ErrInvalidSnapshot, colIdx, taskIdx, err)
			}
			tasks = append(tasks, task)
		}
		col, err := domain.NewColumn(colID, tasks...)
		if err != nil {
			return domain.Board{}, fmt.Errorf("%w: columns[%d]: %w", ErrInvalidSnapshot, colIdx, err)
		}
		columns = append(columns, col)
	}
	board, err := domain.NewBoard(columns...)
	if err != nil {
		return domain.Board{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return board, nil
}

// ExportSnapshot captures the current board.
func (s *Service) ExportSnapshot() Snapshot {
	return SnapshotFromBoard(s.Board(), s.clock())
}

// ImportSnapshot replaces the current board with the snapshot contents.
func (s *Service) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	board, err := snap.Board()
	if err != nil {
		return err
	}
	return s.ReplaceBoard(ctx, board)
}
