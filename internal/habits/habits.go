// Package habits tracks recurring habits and their completion streaks.
package habits

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

// Frequencies accepted for a habit.
const (
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"
)

var (
	ErrNotFound         = errors.New("habits: not found")
	ErrEmptyName        = errors.New("habits: name is empty")
	ErrInvalidFrequency = errors.New("habits: invalid frequency")
)

// Habit is a recurring habit with its current streak.
type Habit struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Frequency       string     `json:"frequency"`
	Streak          int        `json:"streak"`
	DoneToday       bool       `json:"doneToday"`
	LastCompletedAt *time.Time `json:"lastCompletedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// CreateInput carries the fields for a new habit.
type CreateInput struct {
	Name      string `json:"name"`
	Frequency string `json:"frequency"`
}

func validFrequency(f string) bool {
	return f == FrequencyDaily || f == FrequencyWeekly
}

// periodIndex maps a time to its habit period: days since the Unix
// epoch for daily habits, ISO weeks for weekly ones.
func periodIndex(frequency string, t time.Time) int {
	days := int(t.Unix() / 86400)
	if frequency == FrequencyWeekly {
		// Unix epoch was a Thursday; shift so weeks begin on Monday.
		return (days + 3) / 7
	}
	return days
}

// nextStreak computes the streak after completing a habit now. A
// completion in the period right after the last one extends the
// streak; a completion in the same period keeps it; anything else
// starts over at 1.
func nextStreak(frequency string, last *time.Time, streak int, now time.Time) int {
	if last == nil {
		return 1
	}
	cur := periodIndex(frequency, now)
	switch periodIndex(frequency, *last) {
	case cur:
		if streak < 1 {
			return 1
		}
		return streak
	case cur - 1:
		return streak + 1
	default:
		return 1
	}
}

// Store persists habits in PostgreSQL.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a Store. A nil logger falls back to slog.Default().
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger, now: time.Now}
}

// Create inserts a habit. An empty frequency defaults to daily.
func (s *Store) Create(ctx context.Context, in CreateInput) (Habit, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return Habit{}, ErrEmptyName
	}
	if in.Frequency == "" {
		in.Frequency = FrequencyDaily
	}
	if !validFrequency(in.Frequency) {
		return Habit{}, fmt.Errorf("%w: %q", ErrInvalidFrequency, in.Frequency)
	}

	h := Habit{Name: in.Name, Frequency: in.Frequency}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO habits (name, frequency)
		 VALUES ($1, $2)
		 RETURNING id, streak, done_today, created_at`,
		in.Name, in.Frequency,
	).Scan(&h.ID, &h.Streak, &h.DoneToday, &h.CreatedAt)
	if err != nil {
		return Habit{}, fmt.Errorf("inserting habit: %w", err)
	}

	s.logger.Debug("created habit", "id", h.ID, "frequency", h.Frequency)
	return h, nil
}

// List returns all habits ordered by creation time.
func (s *Store) List(ctx context.Context) ([]Habit, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, frequency, streak, done_today, last_completed_at, created_at
		 FROM habits
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing habits: %w", err)
	}
	defer rows.Close()

	var habits []Habit
	for rows.Next() {
		var h Habit
		if err := rows.Scan(&h.ID, &h.Name, &h.Frequency, &h.Streak, &h.DoneToday, &h.LastCompletedAt, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning habit: %w", err)
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading habits: %w", err)
	}

	return habits, nil
}

// Get returns a single habit.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Habit, error) {
	var h Habit
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, frequency, streak, done_today, last_completed_at, created_at
		 FROM habits WHERE id = $1`,
		id,
	).Scan(&h.ID, &h.Name, &h.Frequency, &h.Streak, &h.DoneToday, &h.LastCompletedAt, &h.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Habit{}, ErrNotFound
	}
	if err != nil {
		return Habit{}, fmt.Errorf("getting habit: %w", err)
	}
	return h, nil
}

// Complete marks a habit done for the current period and advances its
// streak. Completing an already-done habit is a no-op.
func (s *Store) Complete(ctx context.Context, id uuid.UUID) (Habit, error) {
	h, err := s.Get(ctx, id)
	if err != nil {
		return Habit{}, err
	}
	if h.DoneToday {
		return h, nil
	}

	now := s.now()
	h.Streak = nextStreak(h.Frequency, h.LastCompletedAt, h.Streak, now)
	h.DoneToday = true
	h.LastCompletedAt = &now

	_, err = s.pool.Exec(ctx,
		`UPDATE habits SET streak = $2, done_today = true, last_completed_at = $3 WHERE id = $1`,
		id, h.Streak, now,
	)
	if err != nil {
		return Habit{}, fmt.Errorf("completing habit: %w", err)
	}

	s.logger.Debug("completed habit", "id", id, "streak", h.Streak)
	return h, nil
}

// Delete removes a habit.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM habits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting habit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountDoneToday returns the number of habits completed in the
// current period.
func (s *Store) CountDoneToday(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM habits WHERE done_today`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting completed habits: %w", err)
	}
	return count, nil
}

// Rollover closes out the period that just ended: daily habits that
// were not completed lose their streak, weekly habits lose theirs at
// the start of a new week, and completion flags reset for the new
// period. Called by the scheduler at midnight with the new day's time.
func (s *Store) Rollover(ctx context.Context, now time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE habits SET streak = 0 WHERE frequency = 'daily' AND NOT done_today AND streak > 0`,
	)
	if err != nil {
		return fmt.Errorf("breaking daily streaks: %w", err)
	}
	broken := tag.RowsAffected()

	if _, err := s.pool.Exec(ctx, `UPDATE habits SET done_today = false WHERE frequency = 'daily'`); err != nil {
		return fmt.Errorf("resetting daily habits: %w", err)
	}

	if now.Weekday() == time.Monday {
		tag, err := s.pool.Exec(ctx,
			`UPDATE habits SET streak = 0 WHERE frequency = 'weekly' AND NOT done_today AND streak > 0`,
		)
		if err != nil {
			return fmt.Errorf("breaking weekly streaks: %w", err)
		}
		broken += tag.RowsAffected()

		if _, err := s.pool.Exec(ctx, `UPDATE habits SET done_today = false WHERE frequency = 'weekly'`); err != nil {
			return fmt.Errorf("resetting weekly habits: %w", err)
		}
	}

	s.logger.Info("rolled over habits", "streaks_broken", broken)
	return nil
}
