package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/hylla/tavla/internal/app"
	"github.com/hylla/tavla/internal/domain"
)

// recordingService wraps a real service and records every drag event it sees.
type recordingService struct {
	*app.Service
	events []domain.DragEvent
}

// HandleDragEnd records ev before applying it.
func (r *recordingService) HandleDragEnd(ctx context.Context, ev domain.DragEvent) (app.Reduction, error) {
	r.events = append(r.events, ev)
	return r.Service.HandleDragEnd(ctx, ev)
}

// stubLedger returns fixed move history.
type stubLedger struct {
	moves []domain.TaskMoveEvent
}

// ListTaskMoves returns the configured history.
func (s stubLedger) ListTaskMoves(context.Context, string, int) ([]domain.TaskMoveEvent, error) {
	return s.moves, nil
}

var testNow = time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)

// newTestService builds a loaded store-less service holding todo=[T1,T2], inprogress=[T3], done=[].
func newTestService(t *testing.T, opts ...app.Option) *recordingService {
	t.Helper()
	ids := 0
	svc := app.NewService(nil, nil, func() string {
		ids++
		return fmt.Sprintf("new-%d", ids)
	}, func() time.Time { return testNow }, app.ServiceConfig{}, opts...)
	if _, err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	board, err := domain.NewBoard(
		mustColumn(t, domain.ColumnTodo, "T1", "T2"),
		mustColumn(t, domain.ColumnInProgress, "T3"),
		mustColumn(t, domain.ColumnDone),
	)
	if err != nil {
		t.Fatalf("NewBoard() error = %v", err)
	}
	if err := svc.ReplaceBoard(context.Background(), board); err != nil {
		t.Fatalf("ReplaceBoard() error = %v", err)
	}
	return &recordingService{Service: svc}
}

func mustColumn(t *testing.T, id domain.ColumnID, taskIDs ...string) domain.Column {
	t.Helper()
	tasks := make([]domain.Task, 0, len(taskIDs))
	for _, taskID := range taskIDs {
		task, err := domain.NewTask(domain.TaskInput{ID: taskID, Title: "Task " + taskID, Status: id}, testNow)
		if err != nil {
			t.Fatalf("NewTask() error = %v", err)
		}
		tasks = append(tasks, task)
	}
	col, err := domain.NewColumn(id, tasks...)
	if err != nil {
		t.Fatalf("NewColumn() error = %v", err)
	}
	return col
}

func columnTaskIDs(t *testing.T, board domain.Board, id domain.ColumnID) []string {
	t.Helper()
	col, ok := board.Column(id)
	if !ok {
		t.Fatalf("column %s missing", id)
	}
	out := []string{}
	for _, task := range col.Tasks() {
		out = append(out, task.ID)
	}
	return out
}

func TestLayoutDirection(t *testing.T) {
	cases := []struct {
		width, threshold int
		want             Direction
	}{
		{width: 80, threshold: 100, want: DirectionVertical},
		{width: 100, threshold: 100, want: DirectionVertical},
		{width: 101, threshold: 100, want: DirectionHorizontal},
		{width: 0, threshold: 0, want: DirectionVertical},
		{width: 40, threshold: 0, want: DirectionHorizontal},
	}
	for _, tc := range cases {
		if got := LayoutDirection(tc.width, tc.threshold); got != tc.want {
			t.Fatalf("LayoutDirection(%d, %d) = %s, want %s", tc.width, tc.threshold, got, tc.want)
		}
	}
}

func TestModelLoadAndNavigation(t *testing.T) {
	svc := newTestService(t)
	m := loadReadyModel(t, NewModel(svc))

	if m.board.Len() != 3 || m.board.TaskCount() != 3 || m.status != "ready" {
		t.Fatalf("unexpected loaded model: columns=%d tasks=%d status=%q", m.board.Len(), m.board.TaskCount(), m.status)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyRight})
	if m.selectedColumn != 1 {
		t.Fatalf("expected selectedColumn=1, got %d", m.selectedColumn)
	}
	m = applyMsg(t, m, keyRune('j'))
	if m.selectedTask != 0 {
		t.Fatalf("expected selectedTask to stay 0 in a one-task column, got %d", m.selectedTask)
	}
	m = applyMsg(t, m, keyRune('h'))
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyDown})
	if m.selectedColumn != 0 || m.selectedTask != 1 {
		t.Fatalf("expected focus (0,1), got (%d,%d)", m.selectedColumn, m.selectedTask)
	}
	m = applyMsg(t, m, keyRune('l'))
	m = applyMsg(t, m, keyRune('l'))
	m = applyMsg(t, m, keyRune('l'))
	if m.selectedColumn != 2 || m.selectedTask != 0 {
		t.Fatalf("expected focus clamped to (2,0), got (%d,%d)", m.selectedColumn, m.selectedTask)
	}
}

func TestModelTaskDropAcrossColumns(t *testing.T) {
	svc := newTestService(t)
	m := loadReadyModel(t, NewModel(svc))

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeySpace, Text: " "})
	if m.grab.kind != grabTask || m.grab.taskID != "T1" {
		t.Fatalf("expected T1 held, got %#v", m.grab)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyRight})
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})

	if len(svc.events) != 1 {
		t.Fatalf("expected one drag event, got %d", len(svc.events))
	}
	want := domain.TaskDragEvent("T1", 0, 0, 1, 0)
	got := svc.events[0]
	if got.Kind != want.Kind || got.DraggableID != "T1" || got.Source != want.Source || got.Destination == nil || *got.Destination != *want.Destination {
		t.Fatalf("unexpected drag event %#v", got)
	}
	if ids := columnTaskIDs(t, m.board, domain.ColumnTodo); !slices.Equal(ids, []string{"T2"}) {
		t.Fatalf("todo = %v", ids)
	}
	if ids := columnTaskIDs(t, m.board, domain.ColumnInProgress); !slices.Equal(ids, []string{"T1", "T3"}) {
		t.Fatalf("inprogress = %v", ids)
	}
	if m.grab.active() || m.selectedColumn != 1 || m.selectedTask != 0 || m.status != "task moved" {
		t.Fatalf("unexpected post-drop state grab=%v focus=(%d,%d) status=%q", m.grab.active(), m.selectedColumn, m.selectedTask, m.status)
	}
}

func TestModelTaskReorderWithinColumn(t *testing.T) {
	svc := newTestService(t)
	m := loadReadyModel(t, NewModel(svc))

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeySpace, Text: " "})
	m = applyMsg(t, m, keyRune('j'))
	m = applyMsg(t, m, keyRune('j'))
	if m.grab.toIndex != 1 {
		t.Fatalf("expected same-column marker clamped to 1, got %d", m.grab.toIndex)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})

	if ids := columnTaskIDs(t, m.board, domain.ColumnTodo); !slices.Equal(ids, []string{"T2", "T1"}) {
		t.Fatalf("todo = %v", ids)
	}
	if m.selectedTask != 1 || m.status != "task reordered" {
		t.Fatalf("unexpected focus %d status %q", m.selectedTask, m.status)
	}
}

func TestModelColumnDrop(t *testing.T) {
	svc := newTestService(t)
	m := loadReadyModel(t, NewModel(svc))

	m = applyMsg(t, m, keyRune('C'))
	if m.grab.kind != grabColumn || m.grab.columnID != domain.ColumnTodo {
		t.Fatalf("expected todo column held, got %#v", m.grab)
	}
	m = applyMsg(t, m, keyRune('l'))
	m = applyMsg(t, m, keyRune('l'))
	m = applyMsg(t, m, keyRune('l'))
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})

	want := []domain.ColumnID{domain.ColumnInProgress, domain.ColumnDone, domain.ColumnTodo}
	if got := m.board.ColumnIDs(); !slices.Equal(got, want) {
		t.Fatalf("columns = %v, want %v", got, want)
	}
	if ev := svc.events[0]; ev.Kind != domain.DragKindColumn || ev.Source.Index != 0 || ev.Destination.Index != 2 {
		t.Fatalf("unexpected column event %#v", ev)
	}
	if ids := columnTaskIDs(t, m.board, domain.ColumnTodo); !slices.Equal(ids, []string{"T1", "T2"}) {
		t.Fatalf("column move lost tasks: %v", ids)
	}
	if m.selectedColumn != 2 || m.status != "column moved" {
		t.Fatalf("unexpected focus %d status %q", m.selectedColumn, m.status)
	}
}

func TestModelCancelEmitsDropOutsideTarget(t *testing.T) {
	svc := newTestService(t)
	m := loadReadyModel(t, NewModel(svc))
	before := m.board

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeySpace, Text: " "})
	m = applyMsg(t, m, keyRune('l'))
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})

	if len(svc.events) != 1 || svc.events[0].Destination != nil {
		t.Fatalf("expected one event without destination, got %#v", svc.events)
	}
	if !m.board.Equal(before) {
		t.Fatal("cancelled drag changed the board")
	}
	if m.grab.active() || m.status != "move cancelled" {
		t.Fatalf("unexpected state grab=%v status=%q", m.grab.active(), m.status)
	}
}

func TestGrabMarkerClamps(t *testing.T) {
	svc := newTestService(t)
	board := svc.Board()

	g, ok := pickUpTask(board, 1, 0)
	if !ok {
		t.Fatal("expected T3 to be grabbable")
	}
	g = g.moveMarker(board, 1, 0).moveMarker(board, 0, 1).moveMarker(board, 5, 0)
	if g.toColumn != 2 || g.toIndex != 0 {
		t.Fatalf("expected marker (2,0) on empty done column, got (%d,%d)", g.toColumn, g.toIndex)
	}
	g = g.moveMarker(board, -2, 0).moveMarker(board, 0, 9)
	if g.toColumn != 0 || g.toIndex != 2 {
		t.Fatalf("expected marker appended at (0,2), got (%d,%d)", g.toColumn, g.toIndex)
	}
	if ev := g.dropEvent(); ev.Source.DroppableID != "1" || ev.Destination.DroppableID != "0" || ev.Destination.Index != 2 {
		t.Fatalf("unexpected drop event %#v", ev)
	}
	if ev := g.cancelEvent(); ev.Destination != nil || ev.DraggableID != "T3" {
		t.Fatalf("unexpected cancel event %#v", ev)
	}

	if _, ok := pickUpTask(board, 2, 0); ok {
		t.Fatal("expected empty column to have nothing to grab")
	}
	if _, ok := pickUpColumn(board, 7); ok {
		t.Fatal("expected out-of-range column grab to fail")
	}
}

func TestModelAddTask(t *testing.T) {
	svc := newTestService(t)
	m := loadReadyModel(t, NewModel(svc))
	m = applyMsg(t, m, keyRune('l'))

	m = updateOnly(t, m, keyRune('n'))
	if m.mode != modeAddTask {
		t.Fatalf("expected add-task mode, got %v", m.mode)
	}
	m = updateOnly(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.mode != modeAddTask || m.status != "title required" {
		t.Fatalf("expected blank title rejection, mode=%v status=%q", m.mode, m.status)
	}
	for _, r := range "quick" {
		m = updateOnly(t, m, keyRune(r))
	}
	if m.taskInput.Value() != "quick" {
		t.Fatalf("expected typed title, got %q", m.taskInput.Value())
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})

	if ids := columnTaskIDs(t, m.board, domain.ColumnInProgress); !slices.Equal(ids, []string{"T3", "new-1"}) {
		t.Fatalf("inprogress = %v", ids)
	}
	if m.mode != modeNone || m.selectedColumn != 1 || m.selectedTask != 1 {
		t.Fatalf("unexpected state mode=%v focus=(%d,%d)", m.mode, m.selectedColumn, m.selectedTask)
	}

	m = updateOnly(t, m, keyRune('n'))
	m = updateOnly(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.mode != modeNone || m.board.TaskCount() != 4 {
		t.Fatalf("expected esc to abandon the input, mode=%v tasks=%d", m.mode, m.board.TaskCount())
	}
}

func TestModelTaskInfoAndCopy(t *testing.T) {
	moved := domain.TaskMoveEvent{ID: 1, TaskID: "T1", TaskTitle: "Task T1", ToColumnID: domain.ColumnDone, OccurredAt: testNow}
	svc := newTestService(t, app.WithMoveLedger(stubLedger{moves: []domain.TaskMoveEvent{moved}}))
	var copied []string
	m := loadReadyModel(t, NewModel(svc,
		WithColumnNames(map[domain.ColumnID]string{domain.ColumnDone: "Shipped"}),
		WithClipboard(func(s string) error {
			copied = append(copied, s)
			return nil
		}),
	))

	m = applyMsg(t, m, keyRune('i'))
	if m.mode != modeTaskInfo || m.taskInfoID != "T1" || len(m.taskInfoMoves) != 1 {
		t.Fatalf("unexpected info state mode=%v id=%q moves=%d", m.mode, m.taskInfoID, len(m.taskInfoMoves))
	}
	task, _, _, _ := m.board.FindTask("T1")
	md := taskCardMarkdown(task, m.taskInfoMoves, m.columnName)
	for _, want := range []string{"# Task T1", "`T1`", "todo", "## Moves", "Shipped"} {
		if !strings.Contains(md, want) {
			t.Fatalf("expected task info markdown to contain %q, got %q", want, md)
		}
	}
	if m.View().Content == nil {
		t.Fatal("expected task info view content")
	}

	m = applyMsg(t, m, keyRune('y'))
	if !slices.Equal(copied, []string{"T1"}) || m.status != "copied T1" {
		t.Fatalf("unexpected copy state copied=%v status=%q", copied, m.status)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.mode != modeNone || m.taskInfoID != "" {
		t.Fatalf("expected info closed, mode=%v", m.mode)
	}
}

func TestModelCopyFailureAndEmptyColumn(t *testing.T) {
	svc := newTestService(t)
	m := loadReadyModel(t, NewModel(svc, WithClipboard(func(string) error {
		return errors.New("no clipboard")
	})))

	m = applyMsg(t, m, keyRune('y'))
	if m.status != "copy failed: no clipboard" {
		t.Fatalf("unexpected status %q", m.status)
	}

	m = applyMsg(t, m, keyRune('l'))
	m = applyMsg(t, m, keyRune('l'))
	for _, msg := range []tea.KeyPressMsg{{Code: tea.KeySpace, Text: " "}, keyRune('i'), keyRune('y')} {
		m = applyMsg(t, m, msg)
		if m.grab.active() || m.mode != modeNone {
			t.Fatalf("key %q on an empty column should do nothing", msg.String())
		}
	}
}

func TestModelDropAfterCloseReportsClosed(t *testing.T) {
	svc := newTestService(t)
	m := loadReadyModel(t, NewModel(svc))
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeySpace, Text: " "})
	m = applyMsg(t, m, keyRune('l'))
	svc.Close()

	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.status != "board is closed" {
		t.Fatalf("unexpected status %q", m.status)
	}
	if ids := columnTaskIDs(t, m.board, domain.ColumnTodo); !slices.Equal(ids, []string{"T1", "T2"}) {
		t.Fatalf("closed service changed the board: %v", ids)
	}
}

func TestModelViewLayouts(t *testing.T) {
	svc := newTestService(t)
	m := NewModel(svc, WithVerticalBelowWidth(90), WithColumnNames(map[domain.ColumnID]string{domain.ColumnTodo: "To Do"}))
	if rendered := fmt.Sprint(m.View().Content); !strings.Contains(rendered, "loading") {
		t.Fatalf("expected loading view, got %q", rendered)
	}

	m = applyCmd(t, m, m.Init())
	m = applyMsg(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	wide := ansi.Strip(fmt.Sprint(m.View().Content))
	for _, want := range []string{"tavla", "To Do (2)", "Task T1", "inprogress (1)"} {
		if !strings.Contains(wide, want) {
			t.Fatalf("expected wide view to contain %q", want)
		}
	}

	m = applyMsg(t, m, tea.WindowSizeMsg{Width: 60, Height: 40})
	if LayoutDirection(m.width, m.verticalBelowWidth) != DirectionVertical {
		t.Fatal("expected vertical layout below the breakpoint")
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeySpace, Text: " "})
	m = applyMsg(t, m, keyRune('l'))
	held := ansi.Strip(fmt.Sprint(m.View().Content))
	if !strings.Contains(held, "▸ Task T1") || !strings.Contains(held, "moving task") {
		t.Fatalf("expected drop marker preview in view, got %q", held)
	}
}

func TestModelHelpAndQuit(t *testing.T) {
	m := loadReadyModel(t, NewModel(newTestService(t)))
	m = applyMsg(t, m, keyRune('?'))
	if !m.help.ShowAll || m.status != "help" {
		t.Fatal("expected full help")
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.help.ShowAll {
		t.Fatal("expected esc to close help")
	}
	_, cmd := m.Update(keyRune('q'))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func loadReadyModel(t *testing.T, m Model) Model {
	t.Helper()
	m = applyCmd(t, m, m.Init())
	return applyMsg(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
}

func applyMsg(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, cmd := m.Update(msg)
	out, ok := updated.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", updated)
	}
	return applyCmd(t, out, cmd)
}

// updateOnly applies msg without running the returned command, for text input keys.
func updateOnly(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, _ := m.Update(msg)
	out, ok := updated.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", updated)
	}
	return out
}

func applyCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	out := m
	currentCmd := cmd
	for i := 0; i < 6 && currentCmd != nil; i++ {
		msg := currentCmd()
		updated, nextCmd := out.Update(msg)
		casted, ok := updated.(Model)
		if !ok {
			t.Fatalf("expected Model, got %T", updated)
		}
		out = casted
		currentCmd = nextCmd
	}
	return out
}

func keyRune(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}
