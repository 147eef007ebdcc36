// Package knowledge stores documents with their pseudo-embeddings and serves
// top-K cosine-similarity retrieval over them.
//
// Retrieval is an unindexed scan: pgvector's <=> operator computes cosine
// distance against every stored row and the query orders by it. That is the
// same O(n) full scan the dashboard's chat page always performed, just pushed
// into SQL instead of application memory. No ANN index is created on purpose.
package knowledge

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
	"github.com/pgvector/pgvector-go"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrEmptyQuery is returned for empty or whitespace-only search queries.
	ErrEmptyQuery = errors.New("query must not be empty")

	// ErrEmptyContent is returned when adding a document with no content.
	ErrEmptyContent = errors.New("document content must not be empty")
)

// Store manages knowledge documents in PostgreSQL.
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

// Add embeds the document content and inserts the row, returning the stored
// document with its generated ID and timestamp.
func (s *Store) Add(ctx context.Context, doc Document) (Document, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return Document{}, ErrEmptyContent
	}
	if doc.Name == "" {
		doc.Name = "untitled"
	}
	if doc.ContentType == "" {
		doc.ContentType = "text/plain"
	}
	if doc.SizeBytes == 0 {
		doc.SizeBytes = int64(len(doc.Content))
	}

	embedding := pgvector.NewVector(Embed(doc.Content))

	err := s.pool.QueryRow(ctx,
		`INSERT INTO documents (name, content, embedding, object_key, content_type, size_bytes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		doc.Name, doc.Content, embedding, doc.ObjectKey, doc.ContentType, doc.SizeBytes,
	).Scan(&doc.ID, &doc.CreatedAt)
	if err != nil {
		return Document{}, fmt.Errorf("inserting document %q: %w", doc.Name, err)
	}

	s.logger.Debug("added document", "id", doc.ID, "name", doc.Name, "content_length", len(doc.Content))
	return doc, nil
}

// Search returns the documents most similar to the query, ordered by
// descending cosine similarity. The query embedding is computed locally; the
// scan runs in SQL under a timeout so an unbounded corpus cannot block the
// caller indefinitely.
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	cfg := buildSearchConfig(opts)
	queryCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	queryEmbedding := pgvector.NewVector(Embed(query))

	rows, err := s.pool.Query(queryCtx,
		`SELECT id, name, content, object_key, content_type, size_bytes, created_at,
		        1 - (embedding <=> $1) AS similarity
		 FROM documents
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		queryEmbedding, cfg.topK,
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("search query timeout: %w", err)
		}
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(
			&r.Document.ID, &r.Document.Name, &r.Document.Content,
			&r.Document.ObjectKey, &r.Document.ContentType, &r.Document.SizeBytes,
			&r.Document.CreatedAt, &r.Similarity,
		); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading search results: %w", err)
	}

	s.logger.Debug("searched documents", "query_length", len(query), "top_k", cfg.topK, "results", len(results))
	return results, nil
}

// Get retrieves a single document by ID.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Document, error) {
	var doc Document
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, content, object_key, content_type, size_bytes, created_at
		 FROM documents WHERE id = $1`,
		id,
	).Scan(&doc.ID, &doc.Name, &doc.Content, &doc.ObjectKey, &doc.ContentType, &doc.SizeBytes, &doc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("getting document %s: %w", id, err)
	}
	return doc, nil
}

// List returns documents ordered by creation time, newest first, without
// their content (metadata listing for the documents page).
func (s *Store) List(ctx context.Context, limit, offset int) ([]Document, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM documents`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting documents: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, name, object_key, content_type, size_bytes, created_at
		 FROM documents
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.ObjectKey, &doc.ContentType, &doc.SizeBytes, &doc.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning document row: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("reading document rows: %w", err)
	}

	return docs, total, nil
}

// Delete removes a document row. The caller is responsible for removing the
// stored object, if any.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting document %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted document", "id", id)
	return nil
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return count, nil
}

// Reindex recomputes the embedding of every stored document. Used by the
// index command after an embedder change.
func (s *Store) Reindex(ctx context.Context) (int, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, content FROM documents`)
	if err != nil {
		return 0, fmt.Errorf("listing documents for reindex: %w", err)
	}

	type pending struct {
		id      uuid.UUID
		content string
	}
	var all []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.content); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning document for reindex: %w", err)
		}
		all = append(all, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("reading documents for reindex: %w", err)
	}

	start := time.Now()
	for _, p := range all {
		embedding := pgvector.NewVector(Embed(p.content))
		if _, err := s.pool.Exec(ctx,
			`UPDATE documents SET embedding = $1 WHERE id = $2`, embedding, p.id); err != nil {
			return 0, fmt.Errorf("reindexing document %s: %w", p.id, err)
		}
	}

	s.logger.Info("reindexed documents", "count", len(all), "duration", time.Since(start))
	return len(all), nil
}
