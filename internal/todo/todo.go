// Package todo stores the to-do list.
package todo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Priorities accepted for a todo.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

var (
	ErrNotFound        = errors.New("todo: not found")
	ErrEmptyTitle      = errors.New("todo: title is empty")
	ErrInvalidPriority = errors.New("todo: invalid priority")
)

// Todo is one item on the list.
type Todo struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Priority  string     `json:"priority"`
	Done      bool       `json:"done"`
	DueDate   *time.Time `json:"dueDate,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CreateInput carries the fields for a new todo.
type CreateInput struct {
	Title    string     `json:"title"`
	Priority string     `json:"priority"`
	DueDate  *time.Time `json:"dueDate"`
}

// UpdateInput carries partial updates. Nil fields are left unchanged.
type UpdateInput struct {
	Title    *string    `json:"title"`
	Priority *string    `json:"priority"`
	Done     *bool      `json:"done"`
	DueDate  *time.Time `json:"dueDate"`
}

func validPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Store persists todos in PostgreSQL.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a Store. A nil logger falls back to slog.Default().
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// Create inserts a new todo. An empty priority defaults to medium.
func (s *Store) Create(ctx context.Context, in CreateInput) (Todo, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return Todo{}, ErrEmptyTitle
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !validPriority(in.Priority) {
		return Todo{}, fmt.Errorf("%w: %q", ErrInvalidPriority, in.Priority)
	}

	t := Todo{Title: in.Title, Priority: in.Priority, DueDate: in.DueDate}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO todos (title, priority, due_date)
		 VALUES ($1, $2, $3)
		 RETURNING id, done, created_at, updated_at`,
		in.Title, in.Priority, in.DueDate,
	).Scan(&t.ID, &t.Done, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Todo{}, fmt.Errorf("inserting todo: %w", err)
	}

	s.logger.Debug("created todo", "id", t.ID, "priority", t.Priority)
	return t, nil
}

// List returns todos, open items first, then by creation time descending.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Todo, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM todos`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting todos: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, title, priority, done, due_date, created_at, updated_at
		 FROM todos
		 ORDER BY done ASC, created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing todos: %w", err)
	}
	defer rows.Close()

	var todos []Todo
	for rows.Next() {
		var t Todo
		if err := rows.Scan(&t.ID, &t.Title, &t.Priority, &t.Done, &t.DueDate, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning todo: %w", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("reading todos: %w", err)
	}

	return todos, total, nil
}

// Get returns a single todo.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Todo, error) {
	var t Todo
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, priority, done, due_date, created_at, updated_at
		 FROM todos WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.Title, &t.Priority, &t.Done, &t.DueDate, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Todo{}, ErrNotFound
	}
	if err != nil {
		return Todo{}, fmt.Errorf("getting todo: %w", err)
	}
	return t, nil
}

// Update applies the non-nil fields of in and returns the updated row.
func (s *Store) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (Todo, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return Todo{}, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return Todo{}, ErrEmptyTitle
		}
		t.Title = title
	}
	if in.Priority != nil {
		if !validPriority(*in.Priority) {
			return Todo{}, fmt.Errorf("%w: %q", ErrInvalidPriority, *in.Priority)
		}
		t.Priority = *in.Priority
	}
	if in.Done != nil {
		t.Done = *in.Done
	}
	if in.DueDate != nil {
		t.DueDate = in.DueDate
	}

	err = s.pool.QueryRow(ctx,
		`UPDATE todos
		 SET title = $2, priority = $3, done = $4, due_date = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at`,
		id, t.Title, t.Priority, t.Done, t.DueDate,
	).Scan(&t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Todo{}, ErrNotFound
	}
	if err != nil {
		return Todo{}, fmt.Errorf("updating todo: %w", err)
	}

	return t, nil
}

// Delete removes a todo.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountOpen returns the number of not-yet-done todos.
func (s *Store) CountOpen(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM todos WHERE NOT done`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting open todos: %w", err)
	}
	return count, nil
}
