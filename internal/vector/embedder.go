package vector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/ollama/ollama/api"
)

const (
	embedAttempts  = 3
	embedBaseDelay = time.Second
	embedTimeout   = 30 * time.Second

	// Embedding inputs beyond this are truncated; very long reviews add
	// little signal past this point and some models reject them.
	maxEmbedChars = 2048
)

// OllamaEmbedder embeds text through an Ollama server. Transient
// failures are retried with exponential backoff before giving up.
type OllamaEmbedder struct {
	client *api.Client
	model  string
}

// NewOllamaEmbedder creates an embedder against the given Ollama base URL.
func NewOllamaEmbedder(rawURL, model string) (*OllamaEmbedder, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse embedder url: %w", err)
	}
	httpClient := &http.Client{Timeout: embedTimeout}
	return &OllamaEmbedder{
		client: api.NewClient(u, httpClient),
		model:  model,
	}, nil
}

// truncateEmbedInput caps the input at maxEmbedChars bytes, backing up
// to a rune boundary so a multi-byte character is never split.
func truncateEmbedInput(text string) string {
	if len(text) <= maxEmbedChars {
		return text
	}
	cut := maxEmbedChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// Embed returns the embedding vector for the given text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	text = truncateEmbedInput(text)
	req := &api.EmbeddingRequest{Model: e.model, Prompt: text}

	var lastErr error
	for attempt := 0; attempt < embedAttempts; attempt++ {
		if attempt > 0 {
			delay := embedBaseDelay << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err := e.client.Embeddings(ctx, req)
		if err != nil {
			lastErr = err
			continue
		}
		vec := make([]float32, len(resp.Embedding))
		for i, v := range resp.Embedding {
			vec[i] = float32(v)
		}
		return vec, nil
	}
	return nil, fmt.Errorf("embed failed after %d attempts: %w", embedAttempts, lastErr)
}
