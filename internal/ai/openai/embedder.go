// Package openai implements embeddings with the official OpenAI SDK.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/spigell/hr-assistant/internal/hr"
	"github.com/spigell/hr-assistant/internal/logger"
)

const (
	DefaultModel      = "text-embedding-3-small"
	DefaultDimension  = 1536
	defaultMaxRetries = 3
	requestTimeout    = 30 * time.Second
)

type Config struct {
	APIKey string
	// BaseURL overrides the API endpoint, e.g. for a compatible gateway.
	BaseURL    string
	Model      string
	Dimension  int
	MaxRetries int
}

// Embedder calls the embeddings endpoint. The SDK retries rate limits and
// server errors up to MaxRetries times.
type Embedder struct {
	client sdk.Client
	model  string
	dim    int
	logger *zap.Logger
}

func New(cfg Config, log *zap.Logger) (*Embedder, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	dim := cfg.Dimension
	if dim <= 0 {
		dim = DefaultDimension
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	} else if retries == 0 {
		retries = defaultMaxRetries
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(retries),
		option.WithRequestTimeout(requestTimeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Embedder{
		client: sdk.NewClient(opts...),
		model:  model,
		dim:    dim,
		logger: logger.WithFields(log, logger.ProviderFields("openai", model)...),
	}, nil
}

func (e *Embedder) Dimension() int { return e.dim }

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	e.logger.Debug("openai embeddings request", zap.Int("texts", len(texts)))

	resp, err := e.client.Embeddings.New(ctx, sdk.EmbeddingNewParams{
		Input:          sdk.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:          sdk.EmbeddingModel(e.model),
		Dimensions:     sdk.Int(int64(e.dim)),
		EncodingFormat: sdk.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, classify(err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai api returned %d embeddings for %d texts", len(resp.Data), len(texts))
	}

	data := resp.Data
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	vectors := make([][]float32, len(texts))
	for i, d := range data {
		if len(d.Embedding) != e.dim {
			return nil, fmt.Errorf("openai api returned dimension %d, expected %d", len(d.Embedding), e.dim)
		}
		vec := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float32(v)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// classify marks rate limits, server errors and transport failures as unavailable.
func classify(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		wrapped := fmt.Errorf("embedding api error: %d - %s", apiErr.StatusCode, strings.TrimSpace(apiErr.Message))
		if apiErr.StatusCode >= http.StatusInternalServerError || apiErr.StatusCode == http.StatusTooManyRequests {
			return hr.Unavailable(wrapped)
		}
		return wrapped
	}
	return hr.Unavailable(fmt.Errorf("embeddings request: %w", err))
}
