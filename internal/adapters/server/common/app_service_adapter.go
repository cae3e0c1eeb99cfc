package common

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hylla/tavla/internal/app"
	"github.com/hylla/tavla/internal/domain"
)

// appBoardService is the subset of *app.Service used by AppServiceAdapter.
type appBoardService interface {
	Board() domain.Board
	HandleDragEnd(context.Context, domain.DragEvent) (app.Reduction, error)
	MoveColumn(context.Context, domain.ColumnID, int) (app.Reduction, error)
	MoveTask(context.Context, string, domain.ColumnID, int) (app.Reduction, error)
	CreateTask(context.Context, domain.ColumnID, string) (domain.Task, error)
	TaskMoves(context.Context, string, int) ([]domain.TaskMoveEvent, error)
}

// AppServiceAdapter maps transport contracts onto app.Service board APIs.
type AppServiceAdapter struct {
	service     appBoardService
	columnNames map[domain.ColumnID]string
}

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
// columnNames supplies optional display names keyed by column id.
func NewAppServiceAdapter(service *app.Service, columnNames map[domain.ColumnID]string) *AppServiceAdapter {
	adapter := &AppServiceAdapter{columnNames: columnNames}
	if service != nil {
		adapter.service = service
	}
	return adapter
}

// GetBoard returns the current board.
func (a *AppServiceAdapter) GetBoard(context.Context) (BoardView, error) {
	if err := a.ready(); err != nil {
		return BoardView{}, err
	}
	return a.boardView(a.service.Board()), nil
}

// DragEnd applies one raw positional drag event.
// A move that applied but failed to save is returned with Saved=false and no error,
// The live board already holds the move.
func (a *AppServiceAdapter) DragEnd(ctx context.Context, ev domain.DragEvent) (DragResult, error) {
	if err := a.ready(); err != nil {
		return DragResult{}, err
	}
	red, err := a.service.HandleDragEnd(ctx, ev)
	return a.dragOutcome("drag end", red, err)
}

// MoveColumn moves a column addressed by id.
func (a *AppServiceAdapter) MoveColumn(ctx context.Context, in MoveColumnRequest) (DragResult, error) {
	if err := a.ready(); err != nil {
		return DragResult{}, err
	}
	columnID := strings.TrimSpace(in.ColumnID)
	if columnID == "" {
		return DragResult{}, fmt.Errorf("column_id is required: %w", ErrInvalidRequest)
	}
	red, err := a.service.MoveColumn(ctx, domain.ColumnID(strings.ToLower(columnID)), in.ToIndex)
	return a.dragOutcome("move column", red, err)
}

// MoveTask moves a task addressed by id.
func (a *AppServiceAdapter) MoveTask(ctx context.Context, in MoveTaskRequest) (DragResult, error) {
	if err := a.ready(); err != nil {
		return DragResult{}, err
	}
	taskID := strings.TrimSpace(in.TaskID)
	columnID := strings.TrimSpace(in.ToColumnID)
	if taskID == "" || columnID == "" {
		return DragResult{}, fmt.Errorf("task_id and to_column_id are required: %w", ErrInvalidRequest)
	}
	red, err := a.service.MoveTask(ctx, taskID, domain.ColumnID(strings.ToLower(columnID)), in.ToIndex)
	return a.dragOutcome("move task", red, err)
}

// CreateTask appends a task to a column.
func (a *AppServiceAdapter) CreateTask(ctx context.Context, in CreateTaskRequest) (TaskView, error) {
	if err := a.ready(); err != nil {
		return TaskView{}, err
	}
	columnID := strings.TrimSpace(in.ColumnID)
	if columnID == "" {
		return TaskView{}, fmt.Errorf("column_id is required: %w", ErrInvalidRequest)
	}
	task, err := a.service.CreateTask(ctx, domain.ColumnID(strings.ToLower(columnID)), in.Title)
	if err != nil {
		return TaskView{}, mapAppError("create task", err)
	}
	return taskView(task), nil
}

// ListTaskMoves returns the move history of one task, newest first.
func (a *AppServiceAdapter) ListTaskMoves(ctx context.Context, taskID string, limit int) ([]MoveHistoryEntry, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return nil, fmt.Errorf("task_id is required: %w", ErrInvalidRequest)
	}
	if limit < 0 {
		return nil, fmt.Errorf("limit must be >= 0: %w", ErrInvalidRequest)
	}
	events, err := a.service.TaskMoves(ctx, taskID, limit)
	if err != nil {
		return nil, mapAppError("list task moves", err)
	}
	out := make([]MoveHistoryEntry, 0, len(events))
	for _, ev := range events {
		out = append(out, MoveHistoryEntry{
			ID:         ev.ID,
			TaskID:     ev.TaskID,
			TaskTitle:  ev.TaskTitle,
			ToColumnID: string(ev.ToColumnID),
			OccurredAt: ev.OccurredAt,
		})
	}
	return out, nil
}

func (a *AppServiceAdapter) ready() error {
	if a == nil || a.service == nil {
		return fmt.Errorf("app service adapter is not configured: %w", ErrUnavailable)
	}
	return nil
}

func (a *AppServiceAdapter) boardView(board domain.Board) BoardView {
	out := BoardView{Columns: make([]ColumnView, 0, board.Len()), TaskCount: board.TaskCount()}
	for _, col := range board.Columns() {
		tasks := col.Tasks()
		view := ColumnView{
			ID:    string(col.ID()),
			Name:  a.columnNames[col.ID()],
			Tasks: make([]TaskView, 0, len(tasks)),
		}
		for _, task := range tasks {
			view.Tasks = append(view.Tasks, taskView(task))
		}
		out.Columns = append(out.Columns, view)
	}
	return out
}

// dragOutcome maps one service reduction and error onto a transport result.
func (a *AppServiceAdapter) dragOutcome(operation string, red app.Reduction, err error) (DragResult, error) {
	switch {
	case err == nil:
		return a.dragResult(red), nil
	case errors.Is(err, app.ErrSaveFailed) && red.Changed():
		out := a.dragResult(red)
		out.Saved = false
		out.SaveError = err.Error()
		return out, nil
	default:
		return DragResult{}, mapAppError(operation, err)
	}
}

func (a *AppServiceAdapter) dragResult(red app.Reduction) DragResult {
	out := DragResult{
		Outcome: string(red.Outcome),
		Changed: red.Changed(),
		Saved:   true,
		Board:   a.boardView(red.Board),
	}
	if red.Reason != nil {
		out.Reason = red.Reason.Error()
	}
	if red.Moved != nil {
		out.Moved = &TaskMoveView{
			TaskID:       red.Moved.Task.ID,
			FromColumnID: string(red.Moved.FromColumnID),
			ToColumnID:   string(red.Moved.ToColumnID),
			Index:        red.Moved.Index,
		}
	}
	return out
}

func taskView(task domain.Task) TaskView {
	return TaskView{
		ID:        task.ID,
		Title:     task.Title,
		Status:    string(task.Status),
		CreatedAt: task.CreatedAt,
	}
}

// mapAppError classifies app and domain failures into transport error categories.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, app.ErrServiceClosed):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrUnavailable, err))
	case errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidTitle),
		errors.Is(err, domain.ErrInvalidColumnID),
		errors.Is(err, domain.ErrInvalidMoveEvent),
		errors.Is(err, domain.ErrDuplicateTask),
		errors.Is(err, domain.ErrDuplicateColumn),
		errors.Is(err, domain.ErrStatusMismatch):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}
