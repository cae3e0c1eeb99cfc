package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/hylla/tavla/internal/app"
	"github.com/hylla/tavla/internal/domain"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "tavla.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}

func openMemoryRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}

func buildBoard(t *testing.T, layout map[domain.ColumnID][]string, order ...domain.ColumnID) domain.Board {
	t.Helper()
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	columns := make([]domain.Column, 0, len(order))
	for _, id := range order {
		tasks := make([]domain.Task, 0, len(layout[id]))
		for _, taskID := range layout[id] {
			task, err := domain.NewTask(domain.TaskInput{ID: taskID, Title: "Task " + taskID, Status: id}, now)
			if err != nil {
				t.Fatalf("NewTask() error = %v", err)
			}
			tasks = append(tasks, task)
		}
		col, err := domain.NewColumn(id, tasks...)
		if err != nil {
			t.Fatalf("NewColumn() error = %v", err)
		}
		columns = append(columns, col)
	}
	board, err := domain.NewBoard(columns...)
	if err != nil {
		t.Fatalf("NewBoard() error = %v", err)
	}
	return board
}

func TestRepository_LoadEmptyReturnsNotFound(t *testing.T) {
	repo := openTestRepo(t)
	if _, err := repo.LoadBoard(context.Background()); !errors.Is(err, app.ErrNotFound) {
		t.Fatalf("LoadBoard() error = %v, want ErrNotFound", err)
	}
}

func TestRepository_SaveLoadPreservesOrder(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	board := buildBoard(t, map[domain.ColumnID][]string{
		domain.ColumnTodo:       {"t3", "t1", "t2"},
		domain.ColumnInProgress: nil,
		domain.ColumnDone:       {"t4"},
	}, domain.ColumnDone, domain.ColumnTodo, domain.ColumnInProgress)
	if err := repo.SaveBoard(ctx, board); err != nil {
		t.Fatalf("SaveBoard() error = %v", err)
	}
	loaded, err := repo.LoadBoard(ctx)
	if err != nil {
		t.Fatalf("LoadBoard() error = %v", err)
	}
	if !loaded.Equal(board) {
		t.Fatalf("loaded board differs: %v", loaded.ColumnIDs())
	}

	// A second save replaces rather than merges.
	smaller := buildBoard(t, map[domain.ColumnID][]string{
		domain.ColumnTodo: {"t9"},
	}, domain.ColumnTodo)
	if err := repo.SaveBoard(ctx, smaller); err != nil {
		t.Fatalf("SaveBoard(smaller) error = %v", err)
	}
	loaded, err = repo.LoadBoard(ctx)
	if err != nil {
		t.Fatalf("LoadBoard() error = %v", err)
	}
	if got := loaded.ColumnIDs(); !slices.Equal(got, []domain.ColumnID{domain.ColumnTodo}) || loaded.TaskCount() != 1 {
		t.Fatalf("unexpected board after replace: %v tasks=%d", got, loaded.TaskCount())
	}
}

func TestRepository_TaskMoveLedger(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	base := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	task, err := domain.NewTask(domain.TaskInput{ID: "t1", Title: "Ship it", Status: domain.ColumnTodo}, base)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	for _, to := range []domain.ColumnID{domain.ColumnInProgress, domain.ColumnDone} {
		if err := repo.NotifyTaskMoved(ctx, task.WithStatus(to), to); err != nil {
			t.Fatalf("NotifyTaskMoved() error = %v", err)
		}
	}
	other, _ := domain.NewTask(domain.TaskInput{ID: "t2", Title: "Other", Status: domain.ColumnTodo}, base)
	if err := repo.NotifyTaskMoved(ctx, other, domain.ColumnDone); err != nil {
		t.Fatalf("NotifyTaskMoved(other) error = %v", err)
	}

	moves, err := repo.ListTaskMoves(ctx, "t1", 0)
	if err != nil {
		t.Fatalf("ListTaskMoves() error = %v", err)
	}
	if len(moves) != 2 {
		t.Fatalf("expected 2 moves, got %d", len(moves))
	}
	if moves[0].ToColumnID != domain.ColumnDone || moves[1].ToColumnID != domain.ColumnInProgress {
		t.Fatalf("expected newest first, got %#v", moves)
	}
	if moves[0].TaskTitle != "Ship it" || !moves[0].OccurredAt.Equal(base.Add(2*time.Minute)) {
		t.Fatalf("unexpected ledger row %#v", moves[0])
	}

	limited, err := repo.ListTaskMoves(ctx, "t1", 1)
	if err != nil {
		t.Fatalf("ListTaskMoves(limit) error = %v", err)
	}
	if len(limited) != 1 || limited[0].ToColumnID != domain.ColumnDone {
		t.Fatalf("unexpected limited moves %#v", limited)
	}

	if _, err := repo.ListTaskMoves(ctx, " ", 0); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("ListTaskMoves(blank) error = %v", err)
	}
}

func TestRepository_BacksServiceEndToEnd(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	svc := app.NewService(repo, repo, func() string { return "t1" }, func() time.Time {
		return time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	}, app.ServiceConfig{Autosave: true})
	if _, err := svc.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := svc.CreateTask(ctx, domain.ColumnTodo, "Write tests"); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if _, err := svc.MoveTask(ctx, "t1", domain.ColumnDone, 0); err != nil {
		t.Fatalf("MoveTask() error = %v", err)
	}
	svc.Close()

	loaded, err := repo.LoadBoard(ctx)
	if err != nil {
		t.Fatalf("LoadBoard() error = %v", err)
	}
	task, colIdx, _, ok := loaded.FindTask("t1")
	if !ok || task.Status != domain.ColumnDone {
		t.Fatalf("expected t1 persisted in done, got %#v col=%d ok=%t", task, colIdx, ok)
	}
	moves, err := repo.ListTaskMoves(ctx, "t1", 10)
	if err != nil {
		t.Fatalf("ListTaskMoves() error = %v", err)
	}
	if len(moves) != 1 || moves[0].ToColumnID != domain.ColumnDone {
		t.Fatalf("unexpected moves %#v", moves)
	}
}

func TestRepositoryOpenValidation(t *testing.T) {
	if _, err := Open(" "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestRepository_ConcurrentSaveAndNotifyKeepsEveryWrite(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	board := buildBoard(t, map[domain.ColumnID][]string{
		domain.ColumnTodo: {"t1", "t2"},
		domain.ColumnDone: {"t3"},
	}, domain.ColumnTodo, domain.ColumnDone)
	task, _, _, _ := board.FindTask("t1")

	const saves, notifies = 40, 300
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	record := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}
	for range saves {
		wg.Add(1)
		go func() {
			defer wg.Done()
			record(repo.SaveBoard(ctx, board))
		}()
	}
	for range notifies {
		wg.Add(1)
		go func() {
			defer wg.Done()
			record(repo.NotifyTaskMoved(ctx, task, domain.ColumnDone))
		}()
	}
	wg.Wait()

	if len(errs) != 0 {
		t.Fatalf("expected no write errors, got %d (first: %v)", len(errs), errs[0])
	}
	moves, err := repo.ListTaskMoves(ctx, "t1", notifies*2)
	if err != nil {
		t.Fatalf("ListTaskMoves() error = %v", err)
	}
	if len(moves) != notifies {
		t.Fatalf("expected %d ledger rows, got %d", notifies, len(moves))
	}
	loaded, err := repo.LoadBoard(ctx)
	if err != nil {
		t.Fatalf("LoadBoard() error = %v", err)
	}
	if !loaded.Equal(board) {
		t.Fatalf("loaded board differs: %v", loaded.ColumnIDs())
	}
}

func TestRepository_InMemoryServiceRecordsEveryMove(t *testing.T) {
	ctx := context.Background()
	repo := openMemoryRepo(t)
	svc := app.NewService(repo, repo, func() string { return "t1" }, func() time.Time {
		return time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	}, app.ServiceConfig{Autosave: true}, app.WithMoveLedger(repo))
	if _, err := svc.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := svc.CreateTask(ctx, domain.ColumnTodo, "Bounce"); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	const moves = 200
	for i := range moves {
		to := domain.ColumnDone
		if i%2 == 1 {
			to = domain.ColumnTodo
		}
		if _, err := svc.MoveTask(ctx, "t1", to, 0); err != nil {
			t.Fatalf("MoveTask(%d) error = %v", i, err)
		}
	}
	svc.Close()

	got, err := svc.TaskMoves(ctx, "t1", moves*2)
	if err != nil {
		t.Fatalf("TaskMoves() error = %v", err)
	}
	if len(got) != moves {
		t.Fatalf("expected %d recorded moves, got %d", moves, len(got))
	}
	loaded, err := repo.LoadBoard(ctx)
	if err != nil {
		t.Fatalf("LoadBoard() error = %v", err)
	}
	if task, _, _, ok := loaded.FindTask("t1"); !ok || task.Status != domain.ColumnTodo {
		t.Fatalf("expected t1 persisted back in todo, got %#v ok=%t", task, ok)
	}
}
