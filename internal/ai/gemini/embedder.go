package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/hr-assistant/internal/logger"
)

const (
	DefaultEmbeddingModel = "text-embedding-004"
	DefaultDimension      = 768
	defaultBatchSize      = 100
	taskType              = "SEMANTIC_SIMILARITY"
)

type embedModels interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// EmbedderConfig configures the Gemini embedder.
type EmbedderConfig struct {
	Model      string
	Dimension  int
	MaxRetries int
	BatchSize  int
}

// Embedder computes embeddings through the Gemini API.
type Embedder struct {
	models     embedModels
	model      string
	dim        int
	maxRetries int
	batchSize  int
	logger     *zap.Logger
}

// NewEmbedder wraps a genai client.
func NewEmbedder(client *genai.Client, cfg EmbedderConfig, log *zap.Logger) (*Embedder, error) {
	if client == nil || client.Models == nil {
		return nil, errors.New("gemini client is required")
	}
	return newEmbedder(client.Models, cfg, log), nil
}

func newEmbedder(models embedModels, cfg EmbedderConfig, log *zap.Logger) *Embedder {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultEmbeddingModel
	}
	dim := cfg.Dimension
	if dim <= 0 {
		dim = DefaultDimension
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}

	return &Embedder{
		models:     models,
		model:      model,
		dim:        dim,
		maxRetries: cfg.MaxRetries,
		batchSize:  batch,
		logger:     logger.WithFields(log, logger.ProviderFields("gemini", model)...),
	}
}

func (e *Embedder) Dimension() int { return e.dim }

func (e *Embedder) Model() string { return e.model }

// Embed embeds texts in batches. Any failed batch fails the whole call.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		vectors, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (e *Embedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = &genai.Content{Parts: []*genai.Part{{Text: text}}}
	}

	dim := int32(e.dim)
	cfg := &genai.EmbedContentConfig{
		TaskType:             taskType,
		OutputDimensionality: &dim,
	}

	e.logger.Debug("gemini embed content request", zap.Int("texts", len(texts)))

	var resp *genai.EmbedContentResponse
	err := withRetry(ctx, e.logger, e.maxRetries, func() error {
		var callErr error
		resp, callErr = e.models.EmbedContent(ctx, e.model, contents, cfg)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}

	if resp == nil || len(resp.Embeddings) != len(texts) {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		return nil, fmt.Errorf("gemini api returned %d embeddings for %d texts", got, len(texts))
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("gemini api returned empty embedding at %d", i)
		}
		if len(emb.Values) != e.dim {
			return nil, fmt.Errorf("gemini api returned dimension %d, expected %d", len(emb.Values), e.dim)
		}
		vectors[i] = emb.Values
	}

	return vectors, nil
}
