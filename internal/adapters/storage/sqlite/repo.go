package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hylla/tavla/internal/app"
	"github.com/hylla/tavla/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// connPragmas applies to every pooled connection. Writers wait out a held lock instead of failing with SQLITE_BUSY.
const connPragmas = "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

// defaultMovesLimit caps ListTaskMoves when the caller passes no limit.
const defaultMovesLimit = 50

// Repository persists the board and the task-move ledger.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (and migrates) the database at path, creating its directory.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path+"?"+connPragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return newRepository(db)
}

// OpenInMemory opens a private in-memory database that lives as long as the repository.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, ":memory:?"+connPragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	return newRepository(db)
}

// newRepository serializes all access through one connection, then migrates.
// Background ledger writes queue behind an open SaveBoard transaction instead of racing it.
func newRepository(db *sql.DB) (*Repository, error) {
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	repo := &Repository{db: db, now: time.Now}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the underlying database.
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS board_columns (
			id TEXT PRIMARY KEY,
			position INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			column_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY(column_id) REFERENCES board_columns(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS task_moves (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			task_id TEXT NOT NULL,
			task_title TEXT NOT NULL,
			to_column_id TEXT NOT NULL,
			occurred_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_column_position ON tasks(column_id, position);`,
		`CREATE INDEX IF NOT EXISTS idx_task_moves_task_occurred ON task_moves(task_id, occurred_at DESC, id DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// LoadBoard reads the stored board. It returns app.ErrNotFound when nothing was saved yet.
func (r *Repository) LoadBoard(ctx context.Context) (domain.Board, error) {
	colRows, err := r.db.QueryContext(ctx, `SELECT id FROM board_columns ORDER BY position ASC`)
	if err != nil {
		return domain.Board{}, err
	}
	var columnIDs []domain.ColumnID
	for colRows.Next() {
		var id string
		if err := colRows.Scan(&id); err != nil {
			_ = colRows.Close()
			return domain.Board{}, err
		}
		columnIDs = append(columnIDs, domain.ColumnID(id))
	}
	if err := colRows.Err(); err != nil {
		_ = colRows.Close()
		return domain.Board{}, err
	}
	if err := colRows.Close(); err != nil {
		return domain.Board{}, err
	}
	if len(columnIDs) == 0 {
		return domain.Board{}, app.ErrNotFound
	}

	taskRows, err := r.db.QueryContext(ctx, `
		SELECT id, column_id, title, created_at
		FROM tasks
		ORDER BY column_id ASC, position ASC
	`)
	if err != nil {
		return domain.Board{}, err
	}
	defer taskRows.Close()

	byColumn := map[domain.ColumnID][]domain.Task{}
	for taskRows.Next() {
		task, err := scanTask(taskRows)
		if err != nil {
			return domain.Board{}, err
		}
		byColumn[task.Status] = append(byColumn[task.Status], task)
	}
	if err := taskRows.Err(); err != nil {
		return domain.Board{}, err
	}

	columns := make([]domain.Column, 0, len(columnIDs))
	for _, id := range columnIDs {
		col, err := domain.NewColumn(id, byColumn[id]...)
		if err != nil {
			return domain.Board{}, fmt.Errorf("decode column %q: %w", id, err)
		}
		columns = append(columns, col)
	}
	board, err := domain.NewBoard(columns...)
	if err != nil {
		return domain.Board{}, fmt.Errorf("decode board: %w", err)
	}
	return board, nil
}

// SaveBoard replaces the stored board with board in one transaction.
func (r *Repository) SaveBoard(ctx context.Context, board domain.Board) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM board_columns`); err != nil {
		return err
	}
	for colPos, col := range board.Columns() {
		if _, err = tx.ExecContext(ctx, `INSERT INTO board_columns(id, position) VALUES(?, ?)`, string(col.ID()), colPos); err != nil {
			return fmt.Errorf("insert column %q: %w", col.ID(), err)
		}
		for taskPos, task := range col.Tasks() {
			if _, err = tx.ExecContext(ctx, `
				INSERT INTO tasks(id, column_id, position, title, created_at)
				VALUES(?, ?, ?, ?, ?)
			`, task.ID, string(col.ID()), taskPos, task.Title, ts(task.CreatedAt)); err != nil {
				return fmt.Errorf("insert task %q: %w", task.ID, err)
			}
		}
	}
	err = tx.Commit()
	return err
}

// NotifyTaskMoved records a cross-column move in the ledger.
func (r *Repository) NotifyTaskMoved(ctx context.Context, task domain.Task, newColumnID domain.ColumnID) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO task_moves(task_id, task_title, to_column_id, occurred_at)
		VALUES(?, ?, ?, ?)
	`, task.ID, task.Title, string(newColumnID), ts(r.now()))
	return err
}

// ListTaskMoves returns the newest ledger rows for taskID first.
func (r *Repository) ListTaskMoves(ctx context.Context, taskID string, limit int) ([]domain.TaskMoveEvent, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return nil, domain.ErrInvalidID
	}
	if limit <= 0 {
		limit = defaultMovesLimit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, task_id, task_title, to_column_id, occurred_at
		FROM task_moves
		WHERE task_id = ?
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?
	`, taskID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.TaskMoveEvent, 0)
	for rows.Next() {
		var (
			event       domain.TaskMoveEvent
			toColumnRaw string
			occurredRaw string
		)
		if err := rows.Scan(&event.ID, &event.TaskID, &event.TaskTitle, &toColumnRaw, &occurredRaw); err != nil {
			return nil, err
		}
		event.ToColumnID = domain.ColumnID(toColumnRaw)
		event.OccurredAt = parseTS(occurredRaw)
		out = append(out, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// scanner is the subset of *sql.Row and *sql.Rows used by scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (domain.Task, error) {
	var (
		id         string
		columnRaw  string
		title      string
		createdRaw string
	)
	if err := s.Scan(&id, &columnRaw, &title, &createdRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Task{}, app.ErrNotFound
		}
		return domain.Task{}, err
	}
	task, err := domain.NewTask(domain.TaskInput{
		ID:     id,
		Title:  title,
		Status: domain.ColumnID(columnRaw),
	}, parseTS(createdRaw))
	if err != nil {
		return domain.Task{}, fmt.Errorf("decode task %q: %w", id, err)
	}
	return task, nil
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}
