package domain

import (
	"errors"
	"testing"
	"time"
)

func mustTask(t *testing.T, id string, status ColumnID) Task {
	t.Helper()
	task, err := NewTask(TaskInput{ID: id, Title: "Task " + id, Status: status}, time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("NewTask(%q) error = %v", id, err)
	}
	return task
}

func TestNewTaskValidation(t *testing.T) {
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.FixedZone("x", 3600))
	task, err := NewTask(TaskInput{ID: " t1 ", Title: "  Write docs ", Status: "TODO"}, now)
	if err != nil {
		t.Fatalf("NewTask() error = %v", err)
	}
	if task.ID != "t1" || task.Title != "Write docs" || task.Status != ColumnTodo {
		t.Fatalf("unexpected normalized task %#v", task)
	}
	if task.CreatedAt.Location() != time.UTC {
		t.Fatalf("expected UTC created_at, got %v", task.CreatedAt.Location())
	}

	cases := []struct {
		name string
		in   TaskInput
		want error
	}{
		{name: "missing id", in: TaskInput{Title: "x", Status: ColumnTodo}, want: ErrInvalidID},
		{name: "missing title", in: TaskInput{ID: "t1", Status: ColumnTodo}, want: ErrInvalidTitle},
		{name: "missing status", in: TaskInput{ID: "t1", Title: "x"}, want: ErrInvalidColumnID},
		{name: "numeric status", in: TaskInput{ID: "t1", Title: "x", Status: "2"}, want: ErrInvalidColumnID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewTask(tc.in, now); !errors.Is(err, tc.want) {
				t.Fatalf("NewTask() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestTaskWithStatusCopies(t *testing.T) {
	task := mustTask(t, "t1", ColumnTodo)
	moved := task.WithStatus(ColumnDone)
	if task.Status != ColumnTodo {
		t.Fatalf("original status changed to %q", task.Status)
	}
	if moved.Status != ColumnDone || moved.ID != task.ID || !moved.CreatedAt.Equal(task.CreatedAt) {
		t.Fatalf("unexpected moved task %#v", moved)
	}
}

func TestNewColumnRejectsInvariantViolations(t *testing.T) {
	t1 := mustTask(t, "t1", ColumnTodo)
	if _, err := NewColumn(ColumnTodo, t1, t1); !errors.Is(err, ErrDuplicateTask) {
		t.Fatalf("expected ErrDuplicateTask, got %v", err)
	}
	if _, err := NewColumn(ColumnDone, t1); !errors.Is(err, ErrStatusMismatch) {
		t.Fatalf("expected ErrStatusMismatch, got %v", err)
	}
	if _, err := NewColumn(""); !errors.Is(err, ErrInvalidColumnID) {
		t.Fatalf("expected ErrInvalidColumnID, got %v", err)
	}
}

func TestColumnTasksIsACopy(t *testing.T) {
	col, err := NewColumn(ColumnTodo, mustTask(t, "t1", ColumnTodo), mustTask(t, "t2", ColumnTodo))
	if err != nil {
		t.Fatalf("NewColumn() error = %v", err)
	}
	tasks := col.Tasks()
	tasks[0].Title = "changed"
	if got, _ := col.TaskAt(0); got.Title == "changed" {
		t.Fatal("Tasks() leaked the column's backing slice")
	}
	if col.IndexOf("t2") != 1 || col.IndexOf("missing") != -1 {
		t.Fatalf("unexpected IndexOf results")
	}
	if _, ok := col.TaskAt(2); ok {
		t.Fatal("TaskAt(2) ok = true, want false")
	}
}

func TestNewBoardInvariants(t *testing.T) {
	todo, _ := NewColumn(ColumnTodo, mustTask(t, "t1", ColumnTodo))
	done, _ := NewColumn(ColumnDone, mustTask(t, "t1", ColumnDone))
	if _, err := NewBoard(todo, done); !errors.Is(err, ErrDuplicateTask) {
		t.Fatalf("expected ErrDuplicateTask across columns, got %v", err)
	}
	if _, err := NewBoard(todo, todo); !errors.Is(err, ErrDuplicateColumn) {
		t.Fatalf("expected ErrDuplicateColumn, got %v", err)
	}

	empty, _ := NewColumn(ColumnDone)
	board, err := NewBoard(todo, empty)
	if err != nil {
		t.Fatalf("NewBoard() error = %v", err)
	}
	if board.Len() != 2 || board.TaskCount() != 1 {
		t.Fatalf("unexpected board shape len=%d tasks=%d", board.Len(), board.TaskCount())
	}
	ids := board.ColumnIDs()
	if len(ids) != 2 || ids[0] != ColumnTodo || ids[1] != ColumnDone {
		t.Fatalf("unexpected column order %v", ids)
	}
	task, colIdx, taskIdx, ok := board.FindTask("t1")
	if !ok || colIdx != 0 || taskIdx != 0 || task.ID != "t1" {
		t.Fatalf("FindTask() = %#v, %d, %d, %t", task, colIdx, taskIdx, ok)
	}
	if _, ok := board.Column(ColumnInProgress); ok {
		t.Fatal("Column(inprogress) ok = true, want false")
	}
	if _, ok := board.ColumnAt(-1); ok {
		t.Fatal("ColumnAt(-1) ok = true, want false")
	}
}

func TestAssembleBoardSharesColumns(t *testing.T) {
	todo, _ := NewColumn(ColumnTodo, mustTask(t, "t1", ColumnTodo))
	done, _ := NewColumn(ColumnDone)
	board, err := AssembleBoard([]*Column{&todo, &done})
	if err != nil {
		t.Fatalf("AssembleBoard() error = %v", err)
	}
	got, _ := board.Column(ColumnDone)
	if got != &done {
		t.Fatal("expected AssembleBoard to keep the given column pointer")
	}
	cols := board.Columns()
	cols[0] = &done
	if first, _ := board.ColumnAt(0); first != &todo {
		t.Fatal("Columns() leaked the board's backing slice")
	}
}

func TestBoardEqual(t *testing.T) {
	build := func(title string) Board {
		task, err := NewTask(TaskInput{ID: "t1", Title: title, Status: ColumnTodo}, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatalf("NewTask() error = %v", err)
		}
		col, _ := NewColumn(ColumnTodo, task)
		board, err := NewBoard(col)
		if err != nil {
			t.Fatalf("NewBoard() error = %v", err)
		}
		return board
	}
	if !build("a").Equal(build("a")) {
		t.Fatal("expected structurally equal boards")
	}
	if build("a").Equal(build("b")) {
		t.Fatal("expected boards with different titles to differ")
	}
	if !(Board{}).Equal(Board{}) {
		t.Fatal("expected empty boards to be equal")
	}
}

func TestParseColumnDroppableID(t *testing.T) {
	if idx, err := ParseColumnDroppableID(" 2 "); err != nil || idx != 2 {
		t.Fatalf("ParseColumnDroppableID(2) = %d, %v", idx, err)
	}
	for _, raw := range []string{"todo", "", "-1", "1.5"} {
		if _, err := ParseColumnDroppableID(raw); !errors.Is(err, ErrInvalidMoveEvent) {
			t.Fatalf("ParseColumnDroppableID(%q) error = %v, want ErrInvalidMoveEvent", raw, err)
		}
	}
	ev := TaskDragEvent("t1", 0, 1, 2, 3)
	if ev.Source.DroppableID != "0" || ev.Destination.DroppableID != "2" || ev.Destination.Index != 3 {
		t.Fatalf("unexpected task drag event %#v", ev)
	}
}
