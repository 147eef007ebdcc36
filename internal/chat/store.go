package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists chat messages in PostgreSQL.
// Store is safe for concurrent use by multiple goroutines.
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

// AddMessage appends a message to the chat stream.
func (s *Store) AddMessage(ctx context.Context, role, content string, sources []Source) (Message, error) {
	if sources == nil {
		sources = []Source{}
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return Message{}, fmt.Errorf("marshaling sources: %w", err)
	}

	msg := Message{Role: role, Content: content, Sources: sources}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO chat_messages (role, content, sources)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		role, content, sourcesJSON,
	).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return Message{}, fmt.Errorf("inserting chat message: %w", err)
	}

	s.logger.Debug("added chat message", "id", msg.ID, "role", role, "content_length", len(content))
	return msg, nil
}

// History returns messages in chronological order with the total count.
func (s *Store) History(ctx context.Context, limit, offset int) ([]Message, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM chat_messages`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting chat messages: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, role, content, sources, created_at
		 FROM chat_messages
		 ORDER BY created_at ASC, id ASC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing chat messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		var sourcesJSON []byte
		if err := rows.Scan(&msg.ID, &msg.Role, &msg.Content, &sourcesJSON, &msg.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning chat message: %w", err)
		}
		if err := json.Unmarshal(sourcesJSON, &msg.Sources); err != nil {
			// A malformed sources column should not hide the message itself.
			s.logger.Warn("failed to parse message sources", "message_id", msg.ID, "error", err)
			msg.Sources = []Source{}
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("reading chat messages: %w", err)
	}

	return messages, total, nil
}

// Clear deletes the entire chat history.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM chat_messages`); err != nil {
		return fmt.Errorf("clearing chat messages: %w", err)
	}

	s.logger.Debug("cleared chat history")
	return nil
}

// Count returns the number of stored messages.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM chat_messages`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chat messages: %w", err)
	}
	return count, nil
}
