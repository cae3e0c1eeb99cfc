package app

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/hylla/tavla/internal/domain"
)

// NotifierFunc adapts a function to TaskMoveNotifier.
type NotifierFunc func(ctx context.Context, task domain.Task, newColumnID domain.ColumnID) error

// NotifyTaskMoved calls f.
func (f NotifierFunc) NotifyTaskMoved(ctx context.Context, task domain.Task, newColumnID domain.ColumnID) error {
	return f(ctx, task, newColumnID)
}

// LogNotifier records task moves on a logger.
type LogNotifier struct {
	Logger *log.Logger
}

// NotifyTaskMoved logs the move at info level.
func (n LogNotifier) NotifyTaskMoved(_ context.Context, task domain.Task, newColumnID domain.ColumnID) error {
	if n.Logger == nil {
		return nil
	}
	n.Logger.Info("task moved", "task_id", task.ID, "title", task.Title, "column", newColumnID)
	return nil
}

// MultiNotifier fans one notification out to every notifier and joins their errors.
type MultiNotifier []TaskMoveNotifier

// NotifyTaskMoved notifies each non-nil member in order.
func (m MultiNotifier) NotifyTaskMoved(ctx context.Context, task domain.Task, newColumnID domain.ColumnID) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.NotifyTaskMoved(ctx, task, newColumnID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
