package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/hr-assistant/internal/logger"
	"github.com/spigell/hr-assistant/internal/utils"
)

const (
	DefaultChatModel    = "gemini-2.5-flash"
	defaultMaxLogLength = 200
	systemInstruction   = "You are an HR assistant for company employees. Answer general HR questions briefly and politely. " +
		"Never invent salary figures, candidate data or employee records; say that such data is available through the assistant's payroll and candidate tools."
)

type contentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ResponderConfig configures the Gemini responder.
type ResponderConfig struct {
	Model        string
	MaxRetries   int
	MaxLogLength int
}

// Responder answers general questions with a Gemini chat model.
type Responder struct {
	models     contentModels
	model      string
	maxRetries int
	maxLogLen  int
	logger     *zap.Logger
}

func NewResponder(client *genai.Client, cfg ResponderConfig, log *zap.Logger) (*Responder, error) {
	if client == nil || client.Models == nil {
		return nil, errors.New("gemini client is required")
	}
	return newResponder(client.Models, cfg, log), nil
}

func newResponder(models contentModels, cfg ResponderConfig, log *zap.Logger) *Responder {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultChatModel
	}
	maxLogLen := cfg.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	return &Responder{
		models:     models,
		model:      model,
		maxRetries: cfg.MaxRetries,
		maxLogLen:  maxLogLen,
		logger:     logger.WithFields(log, logger.ProviderFields("gemini", model)...),
	}
}

// Respond sends prompt to Gemini and returns the joined text parts of the first answer.
func (r *Responder) Respond(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
	}

	r.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, r.maxLogLen)),
	)

	var resp *genai.GenerateContentResponse
	err := withRetry(ctx, r.logger, r.maxRetries, func() error {
		var callErr error
		resp, callErr = r.models.GenerateContent(ctx, r.model, genai.Text(prompt), cfg)
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	output := joinText(resp)
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	r.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(output)),
		zap.String("response_preview", utils.TruncateForLog(output, r.maxLogLen)),
	)

	return output, nil
}

func joinText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
		if builder.Len() > 0 {
			break
		}
	}

	return strings.TrimSpace(builder.String())
}
