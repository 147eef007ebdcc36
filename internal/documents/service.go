// Package documents manages the user's knowledge base files: upload,
// URL ingestion, retrieval, and deletion. Extracted text is indexed in
// the knowledge store while original bytes go to object storage when
// one is configured.
package documents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/google/uuid"

	"github.com/perchapp/perch/internal/knowledge"
)

// Validation errors.
var (
	ErrEmptyName   = errors.New("documents: name is empty")
	ErrEmptyFile   = errors.New("documents: file is empty")
	ErrInvalidURL  = errors.New("documents: invalid url")
	ErrEmptyResult = errors.New("documents: page produced no text")
)

const fetchTimeout = 30 * time.Second

// Indexer is the slice of the knowledge store the service needs.
type Indexer interface {
	Add(ctx context.Context, doc knowledge.Document) (knowledge.Document, error)
	Get(ctx context.Context, id uuid.UUID) (knowledge.Document, error)
	List(ctx context.Context, limit, offset int) ([]knowledge.Document, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
}

// ObjectStore holds the original uploaded bytes.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Remove(ctx context.Context, key string) error
}

// Service coordinates text extraction, indexing, and object storage.
// objects may be nil, in which case only extracted text is kept.
type Service struct {
	index   Indexer
	objects ObjectStore
	logger  *slog.Logger
}

// NewService creates a documents Service.
func NewService(index Indexer, objects ObjectStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{index: index, objects: objects, logger: logger}
}

// Upload extracts text from the uploaded file, stores the original
// bytes when an object store is configured, and indexes the document.
func (s *Service) Upload(ctx context.Context, name string, data []byte, contentType string) (knowledge.Document, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return knowledge.Document{}, ErrEmptyName
	}
	if len(data) == 0 {
		return knowledge.Document{}, ErrEmptyFile
	}

	content, err := ExtractText(data, contentType)
	if err != nil {
		return knowledge.Document{}, err
	}
	if content == "" {
		return knowledge.Document{}, knowledge.ErrEmptyContent
	}

	objectKey := ""
	if s.objects != nil {
		objectKey = objectKeyFor(name)
		if err := s.objects.Put(ctx, objectKey, data, contentType); err != nil {
			return knowledge.Document{}, fmt.Errorf("storing original file: %w", err)
		}
	}

	doc, err := s.index.Add(ctx, knowledge.Document{
		Name:        name,
		Content:     content,
		ObjectKey:   objectKey,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
	})
	if err != nil {
		if objectKey != "" {
			if rmErr := s.objects.Remove(ctx, objectKey); rmErr != nil {
				s.logger.Warn("failed to remove orphaned object", "key", objectKey, "error", rmErr)
			}
		}
		return knowledge.Document{}, err
	}

	s.logger.Info("document uploaded", "id", doc.ID, "name", name, "size", len(data))
	return doc, nil
}

// IngestURL fetches a web page, extracts its readable text, and
// indexes it as a document named after the page title.
func (s *Service) IngestURL(ctx context.Context, pageURL string) (knowledge.Document, error) {
	pageURL = strings.TrimSpace(pageURL)
	if !strings.HasPrefix(pageURL, "http://") && !strings.HasPrefix(pageURL, "https://") {
		return knowledge.Document{}, fmt.Errorf("%w: %q", ErrInvalidURL, pageURL)
	}

	article, err := readability.FromURL(pageURL, fetchTimeout)
	if err != nil {
		return knowledge.Document{}, fmt.Errorf("fetching %s: %w", pageURL, err)
	}

	content := strings.TrimSpace(article.TextContent)
	if content == "" {
		return knowledge.Document{}, ErrEmptyResult
	}

	name := strings.TrimSpace(article.Title)
	if name == "" {
		name = pageURL
	}

	doc, err := s.index.Add(ctx, knowledge.Document{
		Name:        name,
		Content:     content,
		ContentType: "text/html",
		SizeBytes:   int64(len(content)),
	})
	if err != nil {
		return knowledge.Document{}, err
	}

	s.logger.Info("web page ingested", "id", doc.ID, "url", pageURL, "title", name)
	return doc, nil
}

// Get returns a single document, content included.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (knowledge.Document, error) {
	return s.index.Get(ctx, id)
}

// List returns document metadata without content, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]knowledge.Document, int, error) {
	return s.index.List(ctx, limit, offset)
}

// Delete removes a document from the index and, when present, its
// original bytes from object storage.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	doc, err := s.index.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.index.Delete(ctx, id); err != nil {
		return err
	}

	if s.objects != nil && doc.ObjectKey != "" {
		if err := s.objects.Remove(ctx, doc.ObjectKey); err != nil {
			s.logger.Warn("failed to remove stored object", "key", doc.ObjectKey, "error", err)
		}
	}

	return nil
}

// Search runs a similarity search over the indexed documents.
func (s *Service) Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error) {
	return s.index.Search(ctx, query, opts...)
}

// objectKeyFor builds a unique storage key that keeps the original
// file extension so content type survives a round trip.
func objectKeyFor(name string) string {
	ext := path.Ext(name)
	return uuid.NewString() + ext
}
