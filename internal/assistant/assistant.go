// Package assistant wraps the Gemini API behind a single-turn,
// prompt-template generation call.
//
// When no GEMINI_API_KEY is present the client runs in simulation mode and
// returns a deterministic reply built from the retrieved context. This keeps
// the server and its tests runnable offline, and is the mode integration
// tests rely on.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"google.golang.org/genai"
)

// Config holds generation settings.
type Config struct {
	ModelName   string
	Temperature float32
	MaxTokens   int
}

// Client issues single-turn generation calls.
type Client struct {
	client *genai.Client
	cfg    Config
	logger *slog.Logger
}

// New creates a Client. Reads GEMINI_API_KEY from the environment; an empty
// key yields a simulated client.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		logger.Warn("GEMINI_API_KEY not set, assistant running in simulation mode")
		return &Client{cfg: cfg, logger: logger}, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &Client{client: client, cfg: cfg, logger: logger}, nil
}

// Simulated reports whether the client answers without calling the model API.
func (c *Client) Simulated() bool {
	return c.client == nil
}

// answerTemplate is the fixed prompt template for context-grounded answers.
const answerTemplate = `You are Perch, a personal productivity assistant. Answer the user's question using the provided context from their own documents and notes when it is relevant. If the context does not help, answer from general knowledge and say that the answer does not come from their documents. Keep answers concise.

Context:
%s

Question: %s`

// noContextPlaceholder is substituted when retrieval found nothing.
const noContextPlaceholder = "(no relevant documents found)"

// BuildPrompt renders the prompt template for a query and its context blocks.
func BuildPrompt(query string, contextBlocks []string) string {
	contextText := noContextPlaceholder
	if len(contextBlocks) > 0 {
		var b strings.Builder
		for i, block := range contextBlocks {
			if i > 0 {
				b.WriteString("\n---\n")
			}
			b.WriteString(block)
		}
		contextText = b.String()
	}
	return fmt.Sprintf(answerTemplate, contextText, query)
}

// Answer makes one generation call with the rendered prompt and returns the
// model's text reply.
func (c *Client) Answer(ctx context.Context, query string, contextBlocks []string) (string, error) {
	if c.Simulated() {
		return simulatedAnswer(query, contextBlocks), nil
	}

	prompt := BuildPrompt(query, contextBlocks)

	maxTokens := int32(c.cfg.MaxTokens) // #nosec G115 -- bounded by config validation
	resp, err := c.client.Models.GenerateContent(ctx,
		c.cfg.ModelName,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(c.cfg.Temperature),
			MaxOutputTokens: maxTokens,
		},
	)
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("model returned empty response")
	}

	c.logger.Debug("generated answer", "model", c.cfg.ModelName, "prompt_length", len(prompt), "reply_length", len(text))
	return text, nil
}

// simulatedAnswer builds a deterministic offline reply.
func simulatedAnswer(query string, contextBlocks []string) string {
	if len(contextBlocks) == 0 {
		return fmt.Sprintf("I don't have any documents related to %q yet. Try uploading some notes or files first.", query)
	}

	snippet := contextBlocks[0]
	const maxSnippet = 200
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet] + "…"
	}
	return fmt.Sprintf("Based on your documents, here is what I found about %q: %s", query, snippet)
}
