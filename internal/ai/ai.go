package ai

import (
	"context"
	"fmt"
)

// Embedder turns texts into fixed-dimension vectors. Implementations must be
// deterministic for identical input and must never return a partial batch.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Responder answers free-form questions.
type Responder interface {
	Respond(ctx context.Context, prompt string) (string, error)
}

// EmbedOne embeds a single text.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors", len(vectors))
	}
	return vectors[0], nil
}
