package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/perchapp/perch/internal/knowledge"
)

// ErrEmptyMessage is returned when a chat message contains no text.
var ErrEmptyMessage = errors.New("chat: message is empty")

const snippetLength = 160

// Retriever finds the documents most relevant to a query.
type Retriever interface {
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
}

// Generator produces an answer grounded in the given context blocks.
type Generator interface {
	Answer(ctx context.Context, query string, contextBlocks []string) (string, error)
}

// MessageStore persists the conversation.
type MessageStore interface {
	AddMessage(ctx context.Context, role, content string, sources []Source) (Message, error)
	History(ctx context.Context, limit, offset int) ([]Message, int, error)
	Clear(ctx context.Context) error
}

// Service drives the retrieval-augmented chat loop: retrieve relevant
// documents, generate an answer from their content, and persist both
// sides of the exchange.
type Service struct {
	messages    MessageStore
	retriever   Retriever
	generator   Generator
	topK        int
	contextDocs int
	logger      *slog.Logger
}

// NewService creates a chat Service. topK controls how many documents
// are retrieved and reported as sources; contextDocs controls how many
// of those feed the generation prompt.
func NewService(messages MessageStore, retriever Retriever, generator Generator, topK, contextDocs int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		messages:    messages,
		retriever:   retriever,
		generator:   generator,
		topK:        topK,
		contextDocs: contextDocs,
		logger:      logger,
	}
}

// Ask processes one user message end to end and returns the persisted
// assistant reply, sources included. Both turns are saved only after
// generation succeeds, so a failed exchange leaves no half-written
// history behind.
func (s *Service) Ask(ctx context.Context, query string) (Message, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Message{}, ErrEmptyMessage
	}

	results, err := s.retriever.Search(ctx, query, knowledge.WithTopK(s.topK))
	if err != nil && !errors.Is(err, knowledge.ErrEmptyQuery) {
		return Message{}, fmt.Errorf("retrieving context: %w", err)
	}

	var blocks []string
	for i, r := range results {
		if i >= s.contextDocs {
			break
		}
		blocks = append(blocks, r.Document.Content)
	}

	sources := make([]Source, 0, len(results))
	for _, r := range results {
		sources = append(sources, Source{
			DocumentID: r.Document.ID,
			Name:       r.Document.Name,
			Snippet:    snippet(r.Document.Content, snippetLength),
			Similarity: r.Similarity,
		})
	}

	answer, err := s.generator.Answer(ctx, query, blocks)
	if err != nil {
		return Message{}, fmt.Errorf("generating answer: %w", err)
	}

	if _, err := s.messages.AddMessage(ctx, RoleUser, query, nil); err != nil {
		return Message{}, fmt.Errorf("saving user message: %w", err)
	}

	reply, err := s.messages.AddMessage(ctx, RoleAssistant, answer, sources)
	if err != nil {
		return Message{}, fmt.Errorf("saving assistant message: %w", err)
	}

	s.logger.Info("answered chat message",
		"query_length", utf8.RuneCountInString(query),
		"retrieved", len(results),
		"context_blocks", len(blocks))
	return reply, nil
}

// History returns the conversation in chronological order.
func (s *Service) History(ctx context.Context, limit, offset int) ([]Message, int, error) {
	return s.messages.History(ctx, limit, offset)
}

// Clear deletes the conversation.
func (s *Service) Clear(ctx context.Context) error {
	return s.messages.Clear(ctx)
}

// snippet trims text to at most n runes, appending an ellipsis when
// anything was cut.
func snippet(text string, n int) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:n])) + "..."
}
