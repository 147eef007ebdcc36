// Package expenses stores spending records and monthly summaries.
package expenses

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound      = errors.New("expenses: not found")
	ErrInvalidAmount = errors.New("expenses: amount must be positive")
	ErrEmptyCategory = errors.New("expenses: category is empty")
	ErrInvalidMonth  = errors.New("expenses: month must be YYYY-MM")
)

// Expense is one spending record. Amount is in the account currency.
type Expense struct {
	ID        uuid.UUID `json:"id"`
	Amount    float64   `json:"amount"`
	Category  string    `json:"category"`
	Note      string    `json:"note,omitempty"`
	SpentAt   time.Time `json:"spentAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Input carries the writable fields of an expense.
type Input struct {
	Amount   float64   `json:"amount"`
	Category string    `json:"category"`
	Note     string    `json:"note"`
	SpentAt  time.Time `json:"spentAt"`
}

func (in *Input) validate() error {
	if in.Amount <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, in.Amount)
	}
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	if in.Category == "" {
		return ErrEmptyCategory
	}
	if in.SpentAt.IsZero() {
		in.SpentAt = time.Now()
	}
	return nil
}

// CategoryTotal is one row of a monthly summary.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// Summary aggregates a month of spending.
type Summary struct {
	Month      string          `json:"month"`
	Total      float64         `json:"total"`
	Categories []CategoryTotal `json:"categories"`
}

// monthRange parses "YYYY-MM" into the month's start and the start of
// the following month.
func monthRange(month string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}
	return start, start.AddDate(0, 1, 0), nil
}

// Store persists expenses in PostgreSQL.
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

// Create inserts an expense. An unset spend date defaults to now.
func (s *Store) Create(ctx context.Context, in Input) (Expense, error) {
	if err := in.validate(); err != nil {
		return Expense{}, err
	}

	e := Expense{Amount: in.Amount, Category: in.Category, Note: in.Note, SpentAt: in.SpentAt}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO expenses (amount, category, note, spent_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, spent_at, created_at`,
		in.Amount, in.Category, in.Note, in.SpentAt,
	).Scan(&e.ID, &e.SpentAt, &e.CreatedAt)
	if err != nil {
		return Expense{}, fmt.Errorf("inserting expense: %w", err)
	}

	s.logger.Debug("created expense", "id", e.ID, "category", e.Category)
	return e, nil
}

// List returns expenses newest first. A non-empty month ("YYYY-MM")
// restricts results to that month.
func (s *Store) List(ctx context.Context, month string, limit, offset int) ([]Expense, int, error) {
	filter := ""
	args := []any{}
	if month != "" {
		start, end, err := monthRange(month)
		if err != nil {
			return nil, 0, err
		}
		args = append(args, start, end)
		filter = " WHERE spent_at >= $1 AND spent_at < $2"
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM expenses`+filter, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting expenses: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(
		`SELECT id, amount, category, note, spent_at, created_at
		 FROM expenses%s
		 ORDER BY spent_at DESC, created_at DESC
		 LIMIT $%d OFFSET $%d`,
		filter, len(args)-1, len(args),
	)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing expenses: %w", err)
	}
	defer rows.Close()

	var expenses []Expense
	for rows.Next() {
		var e Expense
		if err := rows.Scan(&e.ID, &e.Amount, &e.Category, &e.Note, &e.SpentAt, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("reading expenses: %w", err)
	}

	return expenses, total, nil
}

// Summarize totals a month's spending grouped by category, largest
// category first.
func (s *Store) Summarize(ctx context.Context, month string) (Summary, error) {
	start, end, err := monthRange(month)
	if err != nil {
		return Summary{}, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT category, sum(amount)
		 FROM expenses
		 WHERE spent_at >= $1 AND spent_at < $2
		 GROUP BY category
		 ORDER BY sum(amount) DESC`,
		start, end,
	)
	if err != nil {
		return Summary{}, fmt.Errorf("summarizing expenses: %w", err)
	}
	defer rows.Close()

	sum := Summary{Month: month, Categories: []CategoryTotal{}}
	for rows.Next() {
		var ct CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total); err != nil {
			return Summary{}, fmt.Errorf("scanning summary row: %w", err)
		}
		sum.Categories = append(sum.Categories, ct)
		sum.Total += ct.Total
	}
	if err := rows.Err(); err != nil {
		return Summary{}, fmt.Errorf("reading summary: %w", err)
	}

	return sum, nil
}

// MonthToDate returns total spend for the month containing now.
func (s *Store) MonthToDate(ctx context.Context, now time.Time) (float64, error) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0)

	var total float64
	err := s.pool.QueryRow(ctx,
		`SELECT coalesce(sum(amount), 0) FROM expenses WHERE spent_at >= $1 AND spent_at < $2`,
		start, end,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("totaling month spend: %w", err)
	}
	return total, nil
}

// Delete removes an expense.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
