// Package calendar stores events.
package calendar

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

var (
	ErrNotFound     = errors.New("calendar: event not found")
	ErrEmptyTitle   = errors.New("calendar: title is empty")
	ErrInvalidRange = errors.New("calendar: event ends before it starts")
)

// Event is a calendar entry.
type Event struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Input carries the writable fields of an event.
type Input struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
}

func (in *Input) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return ErrEmptyTitle
	}
	if in.EndsAt.IsZero() {
		in.EndsAt = in.StartsAt
	}
	if in.EndsAt.Before(in.StartsAt) {
		return ErrInvalidRange
	}
	return nil
}

// Store persists events in PostgreSQL.
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

// Create inserts an event. An unset end time defaults to the start time.
func (s *Store) Create(ctx context.Context, in Input) (Event, error) {
	if err := in.validate(); err != nil {
		return Event{}, err
	}

	e := Event{
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		StartsAt:    in.StartsAt,
		EndsAt:      in.EndsAt,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO events (title, description, location, starts_at, ends_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		in.Title, in.Description, in.Location, in.StartsAt, in.EndsAt,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return Event{}, fmt.Errorf("inserting event: %w", err)
	}

	s.logger.Debug("created event", "id", e.ID, "starts_at", e.StartsAt)
	return e, nil
}

// List returns events ordered by start time. Zero from/to values leave
// that side of the window unbounded.
func (s *Store) List(ctx context.Context, from, to time.Time) ([]Event, error) {
	query := `SELECT id, title, description, location, starts_at, ends_at, created_at
	          FROM events WHERE 1=1`
	args := []any{}

	if !from.IsZero() {
		args = append(args, from)
		query += fmt.Sprintf(" AND ends_at >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		query += fmt.Sprintf(" AND starts_at <= $%d", len(args))
	}
	query += " ORDER BY starts_at ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.StartsAt, &e.EndsAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}

	return events, nil
}

// Get returns a single event.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Event, error) {
	var e Event
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, description, location, starts_at, ends_at, created_at
		 FROM events WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.StartsAt, &e.EndsAt, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Event{}, ErrNotFound
	}
	if err != nil {
		return Event{}, fmt.Errorf("getting event: %w", err)
	}
	return e, nil
}

// Update replaces an event's writable fields.
func (s *Store) Update(ctx context.Context, id uuid.UUID, in Input) (Event, error) {
	if err := in.validate(); err != nil {
		return Event{}, err
	}

	e := Event{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		StartsAt:    in.StartsAt,
		EndsAt:      in.EndsAt,
	}
	err := s.pool.QueryRow(ctx,
		`UPDATE events
		 SET title = $2, description = $3, location = $4, starts_at = $5, ends_at = $6
		 WHERE id = $1
		 RETURNING created_at`,
		id, in.Title, in.Description, in.Location, in.StartsAt, in.EndsAt,
	).Scan(&e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Event{}, ErrNotFound
	}
	if err != nil {
		return Event{}, fmt.Errorf("updating event: %w", err)
	}

	return e, nil
}

// Delete removes an event.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountOn returns the number of events overlapping the given calendar day.
func (s *Store) CountOn(ctx context.Context, day time.Time) (int, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM events WHERE starts_at < $2 AND ends_at >= $1`,
		start, end,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return count, nil
}
