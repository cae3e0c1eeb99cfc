// Package tui provides the interactive terminal board.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/hylla/tavla/internal/app"
	"github.com/hylla/tavla/internal/domain"
)

// taskInfoMoveLimit caps the move history shown in the task info overlay.
const taskInfoMoveLimit = 10

// Service is the board surface the model drives.
type Service interface {
	Board() domain.Board
	HandleDragEnd(context.Context, domain.DragEvent) (app.Reduction, error)
	CreateTask(context.Context, domain.ColumnID, string) (domain.Task, error)
	TaskMoves(context.Context, string, int) ([]domain.TaskMoveEvent, error)
}

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeAddTask
	modeTaskInfo
)

// Model is the bubbletea model for one board.
type Model struct {
	svc    Service
	logger *log.Logger

	ready  bool
	width  int
	height int
	status string

	help help.Model
	keys keyMap

	board          domain.Board
	selectedColumn int
	selectedTask   int

	mode      inputMode
	grab      grab
	taskInput textinput.Model

	taskInfoID    string
	taskInfoMoves []domain.TaskMoveEvent
	detail        *detailRenderer

	columnNames        map[domain.ColumnID]string
	verticalBelowWidth int
	writeClipboard     func(string) error
}

// boardLoadedMsg carries the current board snapshot.
type boardLoadedMsg struct {
	board domain.Board
}

// dragDoneMsg carries the outcome of one dropped or cancelled gesture.
type dragDoneMsg struct {
	grab      grab
	cancelled bool
	reduction app.Reduction
	err       error
}

// taskCreatedMsg carries one created task.
type taskCreatedMsg struct {
	task domain.Task
	err  error
}

// taskMovesMsg carries recorded moves for the task info overlay.
type taskMovesMsg struct {
	taskID string
	moves  []domain.TaskMoveEvent
	err    error
}

// copiedMsg reports a clipboard write.
type copiedMsg struct {
	taskID string
	err    error
}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:                svc,
		logger:             log.New(io.Discard),
		status:             "loading...",
		help:               h,
		keys:               newKeyMap(),
		taskInput:          newModalInput("title: ", "what needs doing?", "", 200),
		detail:             &detailRenderer{},
		columnNames:        map[domain.ColumnID]string{},
		verticalBelowWidth: defaultVerticalBelowWidth,
		writeClipboard:     clipboard.WriteAll,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.loadBoard
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case boardLoadedMsg:
		m.board = msg.board
		m.clampSelection()
		if m.status == "" || m.status == "loading..." {
			m.status = "ready"
		}
		return m, nil

	case dragDoneMsg:
		return m.applyDragDone(msg), nil

	case taskCreatedMsg:
		if msg.err != nil {
			m.status = "create failed: " + msg.err.Error()
			return m, nil
		}
		m.board = m.svc.Board()
		m.focusTask(msg.task.ID)
		m.status = "created " + truncate(msg.task.Title, 40)
		return m, nil

	case taskMovesMsg:
		if msg.taskID != m.taskInfoID {
			return m, nil
		}
		if msg.err != nil {
			m.status = "move history unavailable: " + msg.err.Error()
			return m, nil
		}
		m.taskInfoMoves = msg.moves
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.status = "copy failed: " + msg.err.Error()
			return m, nil
		}
		m.status = "copied " + msg.taskID
		return m, nil

	case tea.KeyPressMsg:
		switch {
		case m.mode == modeAddTask:
			return m.handleAddTaskKey(msg)
		case m.mode == modeTaskInfo:
			return m.handleTaskInfoKey(msg)
		case m.grab.active():
			return m.handleGrabKey(msg)
		default:
			return m.handleNormalModeKey(msg)
		}

	default:
		if m.mode == modeAddTask {
			var cmd tea.Cmd
			m.taskInput, cmd = m.taskInput.Update(msg)
			return m, cmd
		}
		return m, nil
	}
}

// loadBoard reads the current board from the service.
func (m Model) loadBoard() tea.Msg {
	return boardLoadedMsg{board: m.svc.Board()}
}

// handleNormalModeKey handles keys while nothing is held.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		if m.help.ShowAll {
			m.status = "help"
		} else {
			m.status = "ready"
		}
		return m, nil
	case key.Matches(msg, m.keys.cancel):
		if m.help.ShowAll {
			m.help.ShowAll = false
			m.status = "ready"
		}
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadBoard
	case key.Matches(msg, m.keys.moveLeft):
		if m.selectedColumn > 0 {
			m.selectedColumn--
			m.selectedTask = 0
		}
		return m, nil
	case key.Matches(msg, m.keys.moveRight):
		if m.selectedColumn < m.board.Len()-1 {
			m.selectedColumn++
			m.selectedTask = 0
		}
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		if m.selectedTask > 0 {
			m.selectedTask--
		}
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		if m.selectedTask < m.currentColumnLen()-1 {
			m.selectedTask++
		}
		return m, nil
	case key.Matches(msg, m.keys.grabTask):
		g, ok := pickUpTask(m.board, m.selectedColumn, m.selectedTask)
		if !ok {
			m.status = "no task to grab"
			return m, nil
		}
		m.grab = g
		m.status = "moving task: arrows place, enter drops, esc cancels"
		return m, nil
	case key.Matches(msg, m.keys.grabColumn):
		g, ok := pickUpColumn(m.board, m.selectedColumn)
		if !ok {
			m.status = "no column to grab"
			return m, nil
		}
		m.grab = g
		m.status = "moving column: arrows place, enter drops, esc cancels"
		return m, nil
	case key.Matches(msg, m.keys.addTask):
		if m.board.Len() == 0 {
			m.status = "no column to add to"
			return m, nil
		}
		m.mode = modeAddTask
		m.taskInput.SetValue("")
		m.status = "new task in " + m.columnName(m.currentColumnID())
		return m, m.taskInput.Focus()
	case key.Matches(msg, m.keys.taskInfo):
		task, ok := m.selectedTaskValue()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		m.mode = modeTaskInfo
		m.taskInfoID = task.ID
		m.taskInfoMoves = nil
		m.status = "task info"
		return m, m.loadTaskMoves(task.ID)
	case key.Matches(msg, m.keys.copyID):
		task, ok := m.selectedTaskValue()
		if !ok {
			m.status = "no task selected"
			return m, nil
		}
		return m, m.copyTaskID(task.ID)
	default:
		return m, nil
	}
}

// handleGrabKey moves the drop marker, drops, or cancels the held element.
func (m Model) handleGrabKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.moveLeft):
		m.grab = m.grab.moveMarker(m.board, -1, 0)
	case key.Matches(msg, m.keys.moveRight):
		m.grab = m.grab.moveMarker(m.board, 1, 0)
	case key.Matches(msg, m.keys.moveUp):
		m.grab = m.grab.moveMarker(m.board, 0, -1)
	case key.Matches(msg, m.keys.moveDown):
		m.grab = m.grab.moveMarker(m.board, 0, 1)
	case key.Matches(msg, m.keys.drop):
		g := m.grab
		m.grab = grab{}
		m.status = "dropping..."
		return m, m.endDrag(g, g.dropEvent(), false)
	case key.Matches(msg, m.keys.cancel):
		g := m.grab
		m.grab = grab{}
		m.status = "move cancelled"
		return m, m.endDrag(g, g.cancelEvent(), true)
	}
	return m, nil
}

// handleAddTaskKey drives the new-task input.
func (m Model) handleAddTaskKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNone
		m.taskInput.Blur()
		m.status = "ready"
		return m, nil
	case "enter":
		title := strings.TrimSpace(m.taskInput.Value())
		if title == "" {
			m.status = "title required"
			return m, nil
		}
		m.mode = modeNone
		m.taskInput.Blur()
		m.status = "creating..."
		return m, m.createTask(m.currentColumnID(), title)
	}
	var cmd tea.Cmd
	m.taskInput, cmd = m.taskInput.Update(msg)
	return m, cmd
}

// handleTaskInfoKey handles keys while the task info overlay is open.
func (m Model) handleTaskInfoKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	case key.Matches(msg, m.keys.cancel), key.Matches(msg, m.keys.taskInfo), msg.String() == "q":
		m.mode = modeNone
		m.taskInfoID = ""
		m.taskInfoMoves = nil
		m.status = "ready"
		return m, nil
	case key.Matches(msg, m.keys.copyID):
		return m, m.copyTaskID(m.taskInfoID)
	}
	return m, nil
}

// endDrag reports the finished gesture to the service.
func (m Model) endDrag(g grab, ev domain.DragEvent, cancelled bool) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		reduction, err := svc.HandleDragEnd(context.Background(), ev)
		return dragDoneMsg{grab: g, cancelled: cancelled, reduction: reduction, err: err}
	}
}

// applyDragDone folds a gesture outcome back into the view.
func (m Model) applyDragDone(msg dragDoneMsg) Model {
	m.board = m.svc.Board()
	switch {
	case errors.Is(msg.err, app.ErrServiceClosed):
		m.status = "board is closed"
	case msg.err != nil:
		// The service keeps the new board even when saving fails.
		m.status = "save failed: " + msg.err.Error()
	case msg.cancelled:
		m.status = "move cancelled"
	case msg.reduction.Reason != nil:
		m.status = "move ignored: " + msg.reduction.Reason.Error()
	case !msg.reduction.Changed():
		m.status = "nothing moved"
	default:
		m.status = outcomeLabel(msg.reduction.Outcome)
	}
	if msg.reduction.Changed() {
		switch msg.grab.kind {
		case grabTask:
			m.focusTask(msg.grab.taskID)
		case grabColumn:
			m.selectedColumn = m.board.IndexOf(msg.grab.columnID)
			m.selectedTask = 0
		}
	}
	m.clampSelection()
	m.logger.Debug("drag finished", "outcome", msg.reduction.Outcome, "cancelled", msg.cancelled, "reason", msg.reduction.Reason)
	return m
}

// createTask appends a task to the column.
func (m Model) createTask(columnID domain.ColumnID, title string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		task, err := svc.CreateTask(context.Background(), columnID, title)
		return taskCreatedMsg{task: task, err: err}
	}
}

// loadTaskMoves fetches move history for the info overlay.
func (m Model) loadTaskMoves(taskID string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		moves, err := svc.TaskMoves(context.Background(), taskID, taskInfoMoveLimit)
		return taskMovesMsg{taskID: taskID, moves: moves, err: err}
	}
}

// copyTaskID writes one task id to the system clipboard.
func (m Model) copyTaskID(taskID string) tea.Cmd {
	write := m.writeClipboard
	return func() tea.Msg {
		return copiedMsg{taskID: taskID, err: write(taskID)}
	}
}

// currentColumnID returns the focused column id.
func (m Model) currentColumnID() domain.ColumnID {
	col, ok := m.board.ColumnAt(m.selectedColumn)
	if !ok {
		return ""
	}
	return col.ID()
}

// currentColumnLen returns the focused column's task count.
func (m Model) currentColumnLen() int {
	col, ok := m.board.ColumnAt(m.selectedColumn)
	if !ok {
		return 0
	}
	return col.Len()
}

// selectedTaskValue returns the focused task.
func (m Model) selectedTaskValue() (domain.Task, bool) {
	col, ok := m.board.ColumnAt(m.selectedColumn)
	if !ok {
		return domain.Task{}, false
	}
	return col.TaskAt(m.selectedTask)
}

// focusTask moves focus onto taskID when it is on the board.
func (m *Model) focusTask(taskID string) {
	if _, colIdx, taskIdx, ok := m.board.FindTask(taskID); ok {
		m.selectedColumn = colIdx
		m.selectedTask = taskIdx
	}
	m.clampSelection()
}

// clampSelection keeps focus on an existing slot.
func (m *Model) clampSelection() {
	m.selectedColumn = clamp(m.selectedColumn, 0, m.board.Len()-1)
	m.selectedTask = clamp(m.selectedTask, 0, m.currentColumnLen()-1)
}

// columnName returns the display name for a column.
func (m Model) columnName(id domain.ColumnID) string {
	if name := strings.TrimSpace(m.columnNames[id]); name != "" {
		return name
	}
	return string(id)
}

// outcomeLabel renders a reduction outcome for the status line.
func outcomeLabel(outcome app.Outcome) string {
	switch outcome {
	case app.OutcomeColumnMoved:
		return "column moved"
	case app.OutcomeTaskReordered:
		return "task reordered"
	case app.OutcomeTaskMoved:
		return "task moved"
	default:
		return fmt.Sprintf("outcome %s", outcome)
	}
}

// newModalInput constructs modal input.
func newModalInput(prompt, placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = limit
	if value != "" {
		in.SetValue(value)
	}
	return in
}
