package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/hr-assistant/internal/hr"
	"github.com/spigell/hr-assistant/internal/utils"
)

const (
	defaultMaxRetries = 3
	retryBaseDelay    = time.Second
	retryMaxDelay     = 20 * time.Second
	// Quota errors that ask for a longer pause are not retried.
	maxQuotaDelay = 30 * time.Second
)

var wait = utils.WaitFor

var retryAfterPattern = regexp.MustCompile(`(?i)retry (?:after|in) (\d+(?:\.\d+)?)\s*s`)

// NewClient creates a Gemini API client.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return client, nil
}

// withRetry runs op up to attempts times, pausing between temporary failures.
// The final error is marked as a service outage.
func withRetry(ctx context.Context, logger *zap.Logger, attempts int, op func() error) error {
	if attempts <= 0 {
		attempts = defaultMaxRetries
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = op()
		if err == nil {
			return nil
		}

		delay, retry := retryDelay(err, attempt)
		if !retry || attempt == attempts {
			break
		}

		logger.Warn("gemini request failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
		)

		if werr := wait(ctx, delay); werr != nil {
			return werr
		}
	}

	return hr.Unavailable(err)
}

func retryDelay(err error, attempt int) (time.Duration, bool) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}

	backoff := utils.Backoff(retryBaseDelay, retryMaxDelay, attempt)

	switch apiErr.Code {
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return backoff, true
	case http.StatusTooManyRequests:
		if hinted, ok := parseRetryAfter(apiErr.Message); ok {
			if hinted > maxQuotaDelay {
				return 0, false
			}
			return hinted, true
		}
		return backoff, true
	default:
		return 0, false
	}
}

func parseRetryAfter(message string) (time.Duration, bool) {
	m := retryAfterPattern.FindStringSubmatch(message)
	if m == nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}
