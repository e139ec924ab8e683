package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuchingtsai/bookkeep/internal/model"
)

// stubClient scripts provider responses for pipeline tests.
type stubClient struct {
	generate func(ctx context.Context, prompt string) (json.RawMessage, error)
	calls    int
	mu       sync.Mutex
}

func (s *stubClient) Name() string { return "stub" }

func (s *stubClient) Generate(ctx context.Context, prompt string) (json.RawMessage, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.generate(ctx, prompt)
}

func (s *stubClient) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestClassifier(t *testing.T, client Client) *Classifier {
	t.Helper()
	c, err := NewClassifier(Config{
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		RateLimit:  1000,
	}, slog.Default())
	require.NoError(t, err)
	c.client = client
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func geminiEnvelope(payload string) json.RawMessage {
	text, _ := json.Marshal(payload)
	return json.RawMessage(fmt.Sprintf(
		`{"candidates":[{"content":{"parts":[{"text":%s}]}}]}`, text))
}

func TestClassifySuccess(t *testing.T) {
	client := &stubClient{generate: func(_ context.Context, _ string) (json.RawMessage, error) {
		return geminiEnvelope(`{"type":"income","categoryId":"salary","confidence":95,"description":"薪資 35000元","explanation":"固定薪資收入"}`), nil
	}}

	c := newTestClassifier(t, client)
	result := c.Classify(context.Background(),
		model.ClassificationRequest{Description: "薪資入帳35000元"}, testTaxonomy(t))

	require.NotNil(t, result)
	assert.Equal(t, model.DirectionIncome, result.Type)
	assert.Equal(t, "salary", result.CategoryID)
	assert.Equal(t, []string{"salary"}, result.CategoryIDs)
	assert.Equal(t, 95, result.Confidence)
	assert.False(t, result.Degraded())
	assert.Equal(t, "stub", result.Metadata.Provider)
	assert.NotEmpty(t, result.Metadata.RequestID)
	assert.Equal(t, 1, result.Metadata.Attempts)
}

func TestClassifyCachesByDescription(t *testing.T) {
	client := &stubClient{generate: func(_ context.Context, _ string) (json.RawMessage, error) {
		return geminiEnvelope(`{"type":"expense","categoryIds":["food"],"confidence":90,"description":"午餐 100元"}`), nil
	}}

	c := newTestClassifier(t, client)
	taxonomy := testTaxonomy(t)

	first := c.Classify(context.Background(),
		model.ClassificationRequest{Description: "午餐100元"}, taxonomy)
	second := c.Classify(context.Background(),
		model.ClassificationRequest{Description: "  午餐100元  "}, taxonomy)

	assert.Equal(t, first.CategoryID, second.CategoryID)
	assert.Equal(t, 1, client.callCount())
}

func TestClassifyEmptyDescription(t *testing.T) {
	client := &stubClient{generate: func(_ context.Context, _ string) (json.RawMessage, error) {
		t.Fatal("provider must not be called for empty input")
		return nil, nil
	}}

	c := newTestClassifier(t, client)
	result := c.Classify(context.Background(),
		model.ClassificationRequest{Description: "   "}, testTaxonomy(t))

	require.NotNil(t, result)
	assert.Equal(t, 0, result.Confidence)
	assert.True(t, result.Degraded())
	assert.Equal(t, 0, client.callCount())
}

func TestClassifyNoProviderConfigured(t *testing.T) {
	c := newTestClassifier(t, nil)
	result := c.Classify(context.Background(),
		model.ClassificationRequest{Description: "星巴克咖啡85元"}, testTaxonomy(t))

	require.NotNil(t, result)
	assert.True(t, result.Degraded())
	assert.Equal(t, "food", result.CategoryID)
	assert.Contains(t, result.ErrorMessage, "no LLM provider configured")
}

func TestClassifyTransportErrorRetriesThenFallsBack(t *testing.T) {
	client := &stubClient{generate: func(_ context.Context, _ string) (json.RawMessage, error) {
		return nil, &TransportError{Provider: "stub", StatusCode: 503, Err: fmt.Errorf("service unavailable")}
	}}

	c := newTestClassifier(t, client)
	result := c.Classify(context.Background(),
		model.ClassificationRequest{Description: "星巴克咖啡85元"}, testTaxonomy(t))

	require.NotNil(t, result)
	assert.True(t, result.Degraded())
	assert.Equal(t, "food", result.CategoryID)
	assert.Equal(t, 70, result.Confidence)
	// Retryable failure: both configured attempts are spent.
	assert.Equal(t, 2, client.callCount())
}

func TestClassifyAuthErrorDoesNotRetry(t *testing.T) {
	client := &stubClient{generate: func(_ context.Context, _ string) (json.RawMessage, error) {
		return nil, &TransportError{Provider: "stub", StatusCode: 401, Err: fmt.Errorf("bad key")}
	}}

	c := newTestClassifier(t, client)
	result := c.Classify(context.Background(),
		model.ClassificationRequest{Description: "星巴克咖啡85元"}, testTaxonomy(t))

	require.NotNil(t, result)
	assert.True(t, result.Degraded())
	assert.Equal(t, 1, client.callCount())
}

func TestClassifyMalformedPayloadFallsBackWithoutRetry(t *testing.T) {
	client := &stubClient{generate: func(_ context.Context, _ string) (json.RawMessage, error) {
		return geminiEnvelope("I'm sorry, I cannot classify that."), nil
	}}

	c := newTestClassifier(t, client)
	result := c.Classify(context.Background(),
		model.ClassificationRequest{Description: "uber回家250元"}, testTaxonomy(t))

	require.NotNil(t, result)
	assert.True(t, result.Degraded())
	assert.Equal(t, "transport", result.CategoryID)
	assert.Equal(t, 1, client.callCount())
}

func TestClassifyValidationFailureFallsBack(t *testing.T) {
	client := &stubClient{generate: func(_ context.Context, _ string) (json.RawMessage, error) {
		return geminiEnvelope(`{"type":"transfer","categoryIds":["food"],"confidence":150}`), nil
	}}

	c := newTestClassifier(t, client)
	result := c.Classify(context.Background(),
		model.ClassificationRequest{Description: "星巴克咖啡85元"}, testTaxonomy(t))

	require.NotNil(t, result)
	assert.True(t, result.Degraded())
	assert.Contains(t, result.ErrorMessage, "validation")
	assert.Equal(t, 1, client.callCount())
}

func TestClassifyTruncatesLongDescriptions(t *testing.T) {
	var seenPrompt string
	client := &stubClient{generate: func(_ context.Context, prompt string) (json.RawMessage, error) {
		seenPrompt = prompt
		return geminiEnvelope(`{"type":"expense","categoryIds":["food"],"confidence":90,"description":"長描述"}`), nil
	}}

	c := newTestClassifier(t, client)
	long := ""
	for range 300 {
		long += "吃"
	}
	result := c.Classify(context.Background(),
		model.ClassificationRequest{Description: long}, testTaxonomy(t))

	require.NotNil(t, result)
	assert.False(t, result.Degraded())
	truncated := ""
	for range maxDescriptionLen {
		truncated += "吃"
	}
	assert.Contains(t, seenPrompt, truncated)
	assert.NotContains(t, seenPrompt, truncated+"吃")
}

func TestBatchClassifyPositionalResults(t *testing.T) {
	client := &stubClient{generate: func(_ context.Context, prompt string) (json.RawMessage, error) {
		// Echo a category chosen from the prompt content so result order
		// is observable.
		switch {
		case strings.Contains(prompt, "薪資入帳"):
			return geminiEnvelope(`{"type":"income","categoryIds":["salary"],"confidence":95,"description":"薪資"}`), nil
		default:
			return geminiEnvelope(`{"type":"expense","categoryIds":["food"],"confidence":90,"description":"午餐"}`), nil
		}
	}}

	c := newTestClassifier(t, client)
	reqs := []model.ClassificationRequest{
		{Description: "午餐100元"},
		{Description: "薪資入帳35000元"},
		{Description: "晚餐200元"},
	}

	results := c.BatchClassify(context.Background(), reqs, testTaxonomy(t))

	require.Len(t, results, 3)
	assert.Equal(t, "food", results[0].CategoryID)
	assert.Equal(t, "salary", results[1].CategoryID)
	assert.Equal(t, "food", results[2].CategoryID)
}

func TestBatchClassifySequentialWindow(t *testing.T) {
	client := &stubClient{generate: func(_ context.Context, _ string) (json.RawMessage, error) {
		return geminiEnvelope(`{"type":"expense","categoryIds":["food"],"confidence":90,"description":"午餐"}`), nil
	}}

	c := newTestClassifier(t, client)
	c.batchWindow = 1
	c.batchDelay = time.Millisecond

	results := c.BatchClassify(context.Background(), []model.ClassificationRequest{
		{Description: "午餐100元"},
		{Description: "晚餐200元"},
	}, testTaxonomy(t))

	require.Len(t, results, 2)
	for _, result := range results {
		require.NotNil(t, result)
		assert.Equal(t, "food", result.CategoryID)
	}
}

func TestBatchClassifyCanceledContext(t *testing.T) {
	client := &stubClient{generate: func(ctx context.Context, _ string) (json.RawMessage, error) {
		return nil, &TransportError{Provider: "stub", Err: ctx.Err()}
	}}

	c := newTestClassifier(t, client)
	c.batchWindow = 1
	c.batchDelay = 50 * time.Millisecond
	c.retryOpts.MaxAttempts = 1

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := c.BatchClassify(ctx, []model.ClassificationRequest{
		{Description: "午餐100元"},
		{Description: "晚餐200元"},
		{Description: "宵夜50元"},
	}, testTaxonomy(t))

	require.Len(t, results, 3)
	for _, result := range results {
		require.NotNil(t, result)
		assert.True(t, result.Degraded())
	}
}
