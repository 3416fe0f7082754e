// Package embedding turns text into fixed-length vectors, best effort. A
// failed or unconfigured embedding call yields nil, never an error: vectors
// improve ranking but are not a hard dependency of ingestion or answering.
package embedding

import (
	"context"
	"strings"

	"github.com/botsmith-dev/botsmith/pkg/adapter"
	"github.com/botsmith-dev/botsmith/pkg/utils/logging"
)

// maxInputChars caps what is submitted to the embedding backend, which has
// its own input-size limit. Longer text is truncated on a rune boundary,
// not rejected.
const maxInputChars = 8000

// Embedder converts text into a vector, or nil when unavailable
type Embedder interface {
	Embed(ctx context.Context, text string) []float32
}

// Client implements Embedder on top of the Gemini embedding API
type Client struct {
	gemini adapter.Gemini
}

// NewClient creates an embedder backed by the given Gemini adapter. A nil
// adapter is allowed and produces an embedder that always returns nil.
func NewClient(gemini adapter.Gemini) *Client {
	return &Client{gemini: gemini}
}

func (c *Client) Embed(ctx context.Context, text string) []float32 {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) > maxInputChars {
		if runes := []rune(text); len(runes) > maxInputChars {
			text = string(runes[:maxInputChars])
		}
	}

	if c.gemini == nil {
		logging.From(ctx).Warn("embedding skipped: no embedding backend configured")
		return nil
	}

	vector, err := c.gemini.Embedding(ctx, text)
	if err != nil {
		logging.From(ctx).Warn("embedding failed, continuing without vector",
			"error", err,
			"text_length", len(text),
		)
		return nil
	}

	return vector
}
