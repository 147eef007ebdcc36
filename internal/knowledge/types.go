package knowledge

import (
	"time"

	"github.com/google/uuid"
)

// Search bounds.
const (
	DefaultTopK = 5
	MaxTopK     = 50
)

// Document is an indexed knowledge document. ObjectKey is the key of the
// original file in the object store, empty for text and URL ingestions.
type Document struct {
	ID          uuid.UUID
	Name        string
	Content     string
	ObjectKey   string
	ContentType string
	SizeBytes   int64
	CreatedAt   time.Time
}

// Result is a single search result with its similarity score.
type Result struct {
	Document   Document
	Similarity float64 // cosine similarity, 1 is best
}

// SearchOption configures search behavior.
type SearchOption func(*searchConfig)

type searchConfig struct {
	topK    int
	timeout time.Duration
}

// WithTopK sets the maximum number of results, clamped to MaxTopK.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		if k > 0 {
			if k > MaxTopK {
				k = MaxTopK
			}
			c.topK = k
		}
	}
}

// WithTimeout overrides the search query timeout. Default is 10s.
func WithTimeout(d time.Duration) SearchOption {
	return func(c *searchConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{
		topK:    DefaultTopK,
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
