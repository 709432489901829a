package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/hr-assistant/internal/hr"
)

type fakeModels struct {
	mu        sync.Mutex
	embeds    []embedReply
	generates []generateReply
	calls     int
	lastEmbed *genai.EmbedContentConfig
	lastGen   *genai.GenerateContentConfig
}

type embedReply struct {
	resp *genai.EmbedContentResponse
	err  error
}

type generateReply struct {
	resp *genai.GenerateContentResponse
	err  error
}

func (f *fakeModels) EmbedContent(_ context.Context, _ string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastEmbed = config
	if len(f.embeds) == 0 {
		return nil, errors.New("unexpected call")
	}
	reply := f.embeds[0]
	f.embeds = f.embeds[1:]
	return reply.resp, reply.err
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, _ []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastGen = config
	if len(f.generates) == 0 {
		return nil, errors.New("unexpected call")
	}
	reply := f.generates[0]
	f.generates = f.generates[1:]
	return reply.resp, reply.err
}

func stubWait(t *testing.T) {
	t.Helper()
	original := wait
	wait = func(context.Context, time.Duration) error { return nil }
	t.Cleanup(func() { wait = original })
}

func embeddings(dim int, n int) *genai.EmbedContentResponse {
	resp := &genai.EmbedContentResponse{}
	for i := 0; i < n; i++ {
		values := make([]float32, dim)
		values[0] = float32(i + 1)
		resp.Embeddings = append(resp.Embeddings, &genai.ContentEmbedding{Values: values})
	}
	return resp
}

func TestEmbedderRetriesOnTemporaryError(t *testing.T) {
	stubWait(t)

	models := &fakeModels{embeds: []embedReply{
		{err: genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"}},
		{resp: embeddings(4, 2)},
	}}
	e := newEmbedder(models, EmbedderConfig{Dimension: 4, MaxRetries: 2}, zap.NewNop())

	vectors, err := e.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(vectors) != 2 || vectors[1][0] != 2 {
		t.Fatalf("unexpected vectors: %v", vectors)
	}
	if models.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", models.calls)
	}
	if models.lastEmbed == nil || models.lastEmbed.OutputDimensionality == nil || *models.lastEmbed.OutputDimensionality != 4 {
		t.Fatalf("expected output dimensionality to be set")
	}
}

func TestEmbedderReportsUnavailableAfterRetries(t *testing.T) {
	stubWait(t)

	tempErr := genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}
	models := &fakeModels{embeds: []embedReply{{err: tempErr}, {err: tempErr}}}
	e := newEmbedder(models, EmbedderConfig{Dimension: 4, MaxRetries: 2}, zap.NewNop())

	_, err := e.Embed(context.Background(), []string{"a"})
	if !errors.Is(err, hr.ErrServiceUnavailable) {
		t.Fatalf("expected service unavailable, got %v", err)
	}
	if models.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", models.calls)
	}
}

func TestEmbedderDoesNotRetryOnLongQuotaDelay(t *testing.T) {
	models := &fakeModels{embeds: []embedReply{{err: genai.APIError{
		Code:    http.StatusTooManyRequests,
		Status:  "RESOURCE_EXHAUSTED",
		Message: "quota exhausted, retry after 60 seconds",
	}}}}
	e := newEmbedder(models, EmbedderConfig{Dimension: 4, MaxRetries: 3}, zap.NewNop())

	if _, err := e.Embed(context.Background(), []string{"a"}); err == nil {
		t.Fatal("expected error when quota delay too long")
	}
	if models.calls != 1 {
		t.Fatalf("expected single call, got %d", models.calls)
	}
}

func TestEmbedderRejectsEmptyVectors(t *testing.T) {
	models := &fakeModels{embeds: []embedReply{{resp: &genai.EmbedContentResponse{
		Embeddings: []*genai.ContentEmbedding{{Values: nil}},
	}}}}
	e := newEmbedder(models, EmbedderConfig{Dimension: 4}, zap.NewNop())

	if _, err := e.Embed(context.Background(), []string{"a"}); err == nil {
		t.Fatal("expected error for empty embedding")
	}
}

func TestEmbedderBatches(t *testing.T) {
	models := &fakeModels{embeds: []embedReply{
		{resp: embeddings(4, 2)},
		{resp: embeddings(4, 1)},
	}}
	e := newEmbedder(models, EmbedderConfig{Dimension: 4, BatchSize: 2}, zap.NewNop())

	vectors, err := e.Embed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vectors))
	}
	if models.calls != 2 {
		t.Fatalf("expected 2 batch calls, got %d", models.calls)
	}
}

func TestResponderJoinsParts(t *testing.T) {
	models := &fakeModels{generates: []generateReply{{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "Leave is "}, {Text: "20 days."}}},
		}},
	}}}}
	r := newResponder(models, ResponderConfig{}, zap.NewNop())

	got, err := r.Respond(context.Background(), "how many leave days?")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "Leave is\n20 days." {
		t.Fatalf("unexpected output: %q", got)
	}
	if models.lastGen == nil || models.lastGen.SystemInstruction == nil {
		t.Fatal("expected system instruction to be set")
	}
}

func TestResponderEmptyResponse(t *testing.T) {
	models := &fakeModels{generates: []generateReply{{resp: &genai.GenerateContentResponse{}}}}
	r := newResponder(models, ResponderConfig{}, zap.NewNop())

	if _, err := r.Respond(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	if d, ok := parseRetryAfter("Please retry in 12.5s."); !ok || d != 12500*time.Millisecond {
		t.Fatalf("unexpected delay %s (%v)", d, ok)
	}
	if _, ok := parseRetryAfter("quota exhausted"); ok {
		t.Fatal("did not expect a delay")
	}
}
