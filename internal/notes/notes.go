// Package notes stores free-form notes.
package notes

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
	ErrNotFound   = errors.New("notes: not found")
	ErrEmptyTitle = errors.New("notes: title is empty")
)

// Note is one saved note.
type Note struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Pinned    bool      `json:"pinned"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Input carries the writable fields of a note.
type Input struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Pinned  bool   `json:"pinned"`
}

func (in *Input) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return ErrEmptyTitle
	}
	return nil
}

// Store persists notes in PostgreSQL.
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

// Create inserts a note.
func (s *Store) Create(ctx context.Context, in Input) (Note, error) {
	if err := in.validate(); err != nil {
		return Note{}, err
	}

	n := Note{Title: in.Title, Content: in.Content, Pinned: in.Pinned}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO notes (title, content, pinned)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		in.Title, in.Content, in.Pinned,
	).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return Note{}, fmt.Errorf("inserting note: %w", err)
	}

	s.logger.Debug("created note", "id", n.ID)
	return n, nil
}

// List returns notes, pinned first, newest first within each group.
// A non-empty q filters by case-insensitive substring match on title
// or content.
func (s *Store) List(ctx context.Context, q string, limit, offset int) ([]Note, int, error) {
	q = strings.TrimSpace(q)
	filter := ""
	args := []any{}
	if q != "" {
		args = append(args, "%"+q+"%")
		filter = " WHERE title ILIKE $1 OR content ILIKE $1"
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM notes`+filter, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting notes: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(
		`SELECT id, title, content, pinned, created_at, updated_at
		 FROM notes%s
		 ORDER BY pinned DESC, updated_at DESC
		 LIMIT $%d OFFSET $%d`,
		filter, len(args)-1, len(args),
	)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.Pinned, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("reading notes: %w", err)
	}

	return notes, total, nil
}

// Get returns a single note.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Note, error) {
	var n Note
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, content, pinned, created_at, updated_at
		 FROM notes WHERE id = $1`,
		id,
	).Scan(&n.ID, &n.Title, &n.Content, &n.Pinned, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Note{}, ErrNotFound
	}
	if err != nil {
		return Note{}, fmt.Errorf("getting note: %w", err)
	}
	return n, nil
}

// Update replaces a note's writable fields.
func (s *Store) Update(ctx context.Context, id uuid.UUID, in Input) (Note, error) {
	if err := in.validate(); err != nil {
		return Note{}, err
	}

	n := Note{ID: id, Title: in.Title, Content: in.Content, Pinned: in.Pinned}
	err := s.pool.QueryRow(ctx,
		`UPDATE notes
		 SET title = $2, content = $3, pinned = $4, updated_at = now()
		 WHERE id = $1
		 RETURNING created_at, updated_at`,
		id, in.Title, in.Content, in.Pinned,
	).Scan(&n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Note{}, ErrNotFound
	}
	if err != nil {
		return Note{}, fmt.Errorf("updating note: %w", err)
	}

	return n, nil
}

// Delete removes a note.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of notes.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM notes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting notes: %w", err)
	}
	return count, nil
}
