// Package goals stores long-running goals with numeric progress.
package goals

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

// Statuses a goal can be in.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusAbandoned = "abandoned"
)

var (
	ErrNotFound        = errors.New("goals: not found")
	ErrEmptyTitle      = errors.New("goals: title is empty")
	ErrInvalidTarget   = errors.New("goals: target must be positive")
	ErrInvalidProgress = errors.New("goals: progress must not be negative")
	ErrInvalidStatus   = errors.New("goals: invalid status")
)

// Goal tracks progress toward a numeric target.
type Goal struct {
	ID        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	Target    int        `json:"target"`
	Progress  int        `json:"progress"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
}

// CreateInput carries the fields for a new goal.
type CreateInput struct {
	Title    string     `json:"title"`
	Target   int        `json:"target"`
	Deadline *time.Time `json:"deadline"`
}

// UpdateInput carries partial updates. Nil fields are left unchanged.
// A progress update reaching the target moves the goal to completed.
type UpdateInput struct {
	Progress *int    `json:"progress"`
	Status   *string `json:"status"`
}

func validStatus(s string) bool {
	switch s {
	case StatusActive, StatusCompleted, StatusAbandoned:
		return true
	}
	return false
}

// nextStatus resolves the status after applying an update: an explicit
// status wins; otherwise progress reaching the target completes an
// active goal.
func nextStatus(current string, progress, target int, explicit *string) string {
	if explicit != nil {
		return *explicit
	}
	if current == StatusActive && progress >= target {
		return StatusCompleted
	}
	return current
}

// Store persists goals in PostgreSQL.
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

// Create inserts a goal in the active state with zero progress.
func (s *Store) Create(ctx context.Context, in CreateInput) (Goal, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return Goal{}, ErrEmptyTitle
	}
	if in.Target <= 0 {
		return Goal{}, fmt.Errorf("%w: %d", ErrInvalidTarget, in.Target)
	}

	g := Goal{Title: in.Title, Target: in.Target, Deadline: in.Deadline, Status: StatusActive}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO goals (title, target, deadline)
		 VALUES ($1, $2, $3)
		 RETURNING id, progress, created_at`,
		in.Title, in.Target, in.Deadline,
	).Scan(&g.ID, &g.Progress, &g.CreatedAt)
	if err != nil {
		return Goal{}, fmt.Errorf("inserting goal: %w", err)
	}

	s.logger.Debug("created goal", "id", g.ID, "target", g.Target)
	return g, nil
}

// List returns goals, active first, newest first within each status.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Goal, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM goals`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting goals: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, title, target, progress, deadline, status, created_at
		 FROM goals
		 ORDER BY (status = 'active') DESC, created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing goals: %w", err)
	}
	defer rows.Close()

	var goals []Goal
	for rows.Next() {
		var g Goal
		if err := rows.Scan(&g.ID, &g.Title, &g.Target, &g.Progress, &g.Deadline, &g.Status, &g.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning goal: %w", err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("reading goals: %w", err)
	}

	return goals, total, nil
}

// Get returns a single goal.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Goal, error) {
	var g Goal
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, target, progress, deadline, status, created_at
		 FROM goals WHERE id = $1`,
		id,
	).Scan(&g.ID, &g.Title, &g.Target, &g.Progress, &g.Deadline, &g.Status, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Goal{}, ErrNotFound
	}
	if err != nil {
		return Goal{}, fmt.Errorf("getting goal: %w", err)
	}
	return g, nil
}

// Update applies a progress or status change and returns the result.
func (s *Store) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (Goal, error) {
	if in.Progress != nil && *in.Progress < 0 {
		return Goal{}, fmt.Errorf("%w: %d", ErrInvalidProgress, *in.Progress)
	}
	if in.Status != nil && !validStatus(*in.Status) {
		return Goal{}, fmt.Errorf("%w: %q", ErrInvalidStatus, *in.Status)
	}

	g, err := s.Get(ctx, id)
	if err != nil {
		return Goal{}, err
	}

	if in.Progress != nil {
		g.Progress = *in.Progress
	}
	g.Status = nextStatus(g.Status, g.Progress, g.Target, in.Status)

	_, err = s.pool.Exec(ctx,
		`UPDATE goals SET progress = $2, status = $3 WHERE id = $1`,
		id, g.Progress, g.Status,
	)
	if err != nil {
		return Goal{}, fmt.Errorf("updating goal: %w", err)
	}

	return g, nil
}

// Delete removes a goal.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM goals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting goal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountActive returns the number of active goals.
func (s *Store) CountActive(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM goals WHERE status = 'active'`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting active goals: %w", err)
	}
	return count, nil
}
