package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hylla/tavla/internal/domain"
)

// defaultNotifyTimeout bounds one background move notification.
const defaultNotifyTimeout = 10 * time.Second

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	ColumnIDs     []domain.ColumnID
	Autosave      bool
	NotifyTimeout time.Duration
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Option configures optional service collaborators.
type Option func(*Service)

// WithLogger sets the logger used for ignored events and failed notifications.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMoveLedger sets the source used by TaskMoves.
func WithMoveLedger(ledger TaskMoveLedger) Option {
	return func(s *Service) {
		s.ledger = ledger
	}
}

// Service owns the current board and applies one gesture at a time.
type Service struct {
	store         BoardStore
	notifier      TaskMoveNotifier
	idGen         IDGenerator
	clock         Clock
	columnIDs     []domain.ColumnID
	autosave      bool
	notifyTimeout time.Duration
	logger        *log.Logger
	ledger        TaskMoveLedger

	mu      sync.Mutex
	board   domain.Board
	closed  bool
	pending sync.WaitGroup
}

// NewService constructs a new value for this package. store and notifier may be nil.
func NewService(store BoardStore, notifier TaskMoveNotifier, idGen IDGenerator, clock Clock, cfg ServiceConfig, opts ...Option) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	columnIDs := slices.Clone(cfg.ColumnIDs)
	if len(columnIDs) == 0 {
		columnIDs = domain.DefaultColumnIDs()
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = defaultNotifyTimeout
	}

	s := &Service{
		store:         store,
		notifier:      notifier,
		idGen:         idGen,
		clock:         clock,
		columnIDs:     columnIDs,
		autosave:      cfg.Autosave,
		notifyTimeout: cfg.NotifyTimeout,
		logger:        log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the stored board, seeding empty configured columns when nothing is stored.
// Configured columns missing from the stored board are appended empty.
func (s *Service) Load(ctx context.Context) (domain.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stored domain.Board
	if s.store != nil {
		board, err := s.store.LoadBoard(ctx)
		switch {
		case err == nil:
			stored = board
		case errors.Is(err, ErrNotFound):
			s.logger.Info("no stored board, seeding configured columns", "columns", len(s.columnIDs))
		default:
			return domain.Board{}, fmt.Errorf("load board: %w", err)
		}
	}

	board, added, err := withConfiguredColumns(stored, s.columnIDs)
	if err != nil {
		return domain.Board{}, err
	}
	s.board = board
	if added > 0 && s.store != nil {
		if err := s.store.SaveBoard(ctx, board); err != nil {
			return domain.Board{}, fmt.Errorf("save seeded board: %w", err)
		}
	}
	s.logger.Debug("board loaded", "columns", board.Len(), "tasks", board.TaskCount(), "seeded_columns", added)
	return board, nil
}

// Board returns the current board.
func (s *Service) Board() domain.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board
}

// HandleDragEnd applies one drag-completion event.
//
// Malformed events leave the board unchanged and are only logged. The returned error reports
// a failed autosave; the new board is kept regardless.
func (s *Service) HandleDragEnd(ctx context.Context, ev domain.DragEvent) (Reduction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return noop(s.board, nil), ErrServiceClosed
	}
	return s.applyLocked(ctx, ev)
}

// MoveColumn moves the named column to position toIndex.
func (s *Service) MoveColumn(ctx context.Context, columnID domain.ColumnID, toIndex int) (Reduction, error) {
	return s.applyResolved(ctx, func(board domain.Board) (domain.DragEvent, error) {
		from := board.IndexOf(columnID)
		if from < 0 {
			return domain.DragEvent{}, fmt.Errorf("column %q: %w", columnID, ErrNotFound)
		}
		return domain.ColumnDragEvent(columnID, from, toIndex), nil
	})
}

// MoveTask moves the named task into toColumnID at position toIndex.
func (s *Service) MoveTask(ctx context.Context, taskID string, toColumnID domain.ColumnID, toIndex int) (Reduction, error) {
	return s.applyResolved(ctx, func(board domain.Board) (domain.DragEvent, error) {
		_, fromCol, fromIdx, ok := board.FindTask(taskID)
		if !ok {
			return domain.DragEvent{}, fmt.Errorf("task %q: %w", taskID, ErrNotFound)
		}
		toCol := board.IndexOf(toColumnID)
		if toCol < 0 {
			return domain.DragEvent{}, fmt.Errorf("column %q: %w", toColumnID, ErrNotFound)
		}
		return domain.TaskDragEvent(taskID, fromCol, fromIdx, toCol, toIndex), nil
	})
}

// CreateTask appends a new task to the end of columnID.
func (s *Service) CreateTask(ctx context.Context, columnID domain.ColumnID, title string) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.Task{}, ErrServiceClosed
	}

	colIdx := s.board.IndexOf(columnID)
	if colIdx < 0 {
		return domain.Task{}, fmt.Errorf("column %q: %w", columnID, ErrNotFound)
	}
	task, err := domain.NewTask(domain.TaskInput{
		ID:     s.idGen(),
		Title:  title,
		Status: columnID,
	}, s.clock())
	if err != nil {
		return domain.Task{}, err
	}
	columns := s.board.Columns()
	grown, err := domain.NewColumn(columnID, append(columns[colIdx].Tasks(), task)...)
	if err != nil {
		return domain.Task{}, err
	}
	columns[colIdx] = &grown
	next, err := domain.AssembleBoard(columns)
	if err != nil {
		return domain.Task{}, err
	}
	s.board = next
	s.logger.Debug("task created", "task_id", task.ID, "column", columnID)
	if err := s.saveLocked(ctx, next, s.autosave); err != nil {
		return task, err
	}
	return task, nil
}

// TaskMoves lists recorded moves for a task on the board, newest first.
// Without a configured ledger the history is empty.
func (s *Service) TaskMoves(ctx context.Context, taskID string, limit int) ([]domain.TaskMoveEvent, error) {
	if _, _, _, ok := s.Board().FindTask(taskID); !ok {
		return nil, fmt.Errorf("task %q: %w", taskID, ErrNotFound)
	}
	if s.ledger == nil {
		return []domain.TaskMoveEvent{}, nil
	}
	return s.ledger.ListTaskMoves(ctx, taskID, limit)
}

// ReplaceBoard swaps in a whole board, typically from an import, and persists it.
func (s *Service) ReplaceBoard(ctx context.Context, board domain.Board) error {
	if err := board.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrServiceClosed
	}
	s.board = board
	return s.saveLocked(ctx, board, true)
}

// Close stops accepting gestures and waits for pending move notifications.
func (s *Service) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.pending.Wait()
}

// applyResolved translates an id-addressed request into a positional event and applies it.
// Unlike raw gesture events, a malformed resolved event is reported as an error.
func (s *Service) applyResolved(ctx context.Context, resolve func(domain.Board) (domain.DragEvent, error)) (Reduction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return noop(s.board, nil), ErrServiceClosed
	}
	ev, err := resolve(s.board)
	if err != nil {
		return noop(s.board, nil), err
	}
	red, err := s.applyLocked(ctx, ev)
	if err != nil {
		return red, err
	}
	if red.Reason != nil {
		return red, red.Reason
	}
	return red, nil
}

// applyLocked reduces, swaps state, saves and dispatches. Callers hold s.mu.
func (s *Service) applyLocked(ctx context.Context, ev domain.DragEvent) (Reduction, error) {
	red := Reduce(s.board, ev)
	if red.Reason != nil {
		s.logger.Warn("drag event ignored", "kind", ev.Kind, "draggable_id", ev.DraggableID, "err", red.Reason)
	}
	if !red.Changed() {
		return red, nil
	}

	s.board = red.Board
	s.logger.Debug("board reduced", "outcome", red.Outcome, "kind", ev.Kind, "draggable_id", ev.DraggableID)
	saveErr := s.saveLocked(ctx, red.Board, s.autosave)
	if red.Moved != nil {
		s.dispatchTaskMoved(ctx, *red.Moved)
	}
	return red, saveErr
}

// saveLocked persists board when enabled and a store is configured.
func (s *Service) saveLocked(ctx context.Context, board domain.Board, enabled bool) error {
	if !enabled || s.store == nil {
		return nil
	}
	if err := s.store.SaveBoard(ctx, board); err != nil {
		s.logger.Error("board save failed", "err", err)
		return fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	return nil
}

// dispatchTaskMoved notifies in the background; failures are logged and never surface.
func (s *Service) dispatchTaskMoved(ctx context.Context, move TaskMove) {
	if s.notifier == nil {
		return
	}
	notifyCtx := context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(notifyCtx, s.notifyTimeout)
		defer cancel()
		if err := s.notifier.NotifyTaskMoved(ctx, move.Task, move.ToColumnID); err != nil {
			s.logger.Warn("task move notification failed", "task_id", move.Task.ID, "column", move.ToColumnID, "err", err)
		}
	}()
}

// withConfiguredColumns appends every configured column the board does not hold yet.
func withConfiguredColumns(board domain.Board, columnIDs []domain.ColumnID) (domain.Board, int, error) {
	columns := board.Columns()
	added := 0
	for _, id := range columnIDs {
		if board.IndexOf(id) >= 0 {
			continue
		}
		col, err := domain.NewColumn(id)
		if err != nil {
			return domain.Board{}, 0, fmt.Errorf("configured column %q: %w", id, err)
		}
		columns = append(columns, &col)
		added++
	}
	if added == 0 {
		return board, 0, nil
	}
	next, err := domain.AssembleBoard(columns)
	if err != nil {
		return domain.Board{}, 0, err
	}
	return next, added, nil
}
