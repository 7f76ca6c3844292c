// Package llm is the AI boundary: the only package that calls an
// external model service. Everything else in the repo depends on the
// Generator and Embedder capabilities, never on a concrete provider, so
// tests substitute fakes freely.
package llm

import "context"

// Generator produces a text completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Embedder maps texts to embedding vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Config holds provider configuration.
type Config struct {
	APIKey         string
	ChatModel      string // e.g. "gpt-4o-mini"
	EmbeddingModel string // e.g. "text-embedding-3-small"
	Endpoint       string // API base override (empty = default)
}

// DefaultConfig returns a Config with the models the assistant ships
// with.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:         apiKey,
		ChatModel:      "gpt-4o-mini",
		EmbeddingModel: "text-embedding-3-small",
		Endpoint:       "https://api.openai.com/v1",
	}
}
