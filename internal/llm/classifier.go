package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yuchingtsai/bookkeep/internal/common"
	"github.com/yuchingtsai/bookkeep/internal/model"
	"github.com/yuchingtsai/bookkeep/internal/service"
)

// maxDescriptionLen caps the normalized description length.
const maxDescriptionLen = 200

// defaultCallTimeout bounds one provider call including retries of nothing
// but that call.
const defaultCallTimeout = 8 * time.Second

// Classifier implements the service.Classifier interface using LLM APIs,
// degrading to the keyword fallback whenever any pipeline stage fails.
type Classifier struct {
	client      Client
	fallback    *FallbackClassifier
	cache       *resultCache
	rateLimiter *rateLimiter
	logger      *slog.Logger
	retryOpts   service.RetryOptions
	timeout     time.Duration
	batchWindow int
	batchDelay  time.Duration
}

// NewClassifier creates a new LLM-based classifier. A missing provider or
// credential is not an error: classification then always takes the
// fallback path.
func NewClassifier(cfg Config, logger *slog.Logger) (*Classifier, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultCallTimeout
	}

	batchWindow := cfg.BatchWindow
	if batchWindow == 0 {
		batchWindow = 5
	}
	batchDelay := cfg.BatchDelay
	if batchDelay == 0 {
		batchDelay = 200 * time.Millisecond
	}

	return &Classifier{
		client:      client,
		fallback:    NewFallbackClassifier(),
		cache:       newResultCache(cfg.CacheTTL),
		rateLimiter: newRateLimiter(cfg.RateLimit),
		logger:      logger,
		retryOpts:   retryOpts,
		timeout:     timeout,
		batchWindow: batchWindow,
		batchDelay:  batchDelay,
	}, nil
}

// SetCorrections installs user-confirmed description overrides consulted
// by the fallback path.
func (c *Classifier) SetCorrections(corrections []model.Correction) {
	c.fallback.SetCorrections(corrections)
}

// Classify runs the full pipeline for one request. It never returns an
// error: failures at any stage degrade to the keyword fallback and are
// recorded in the result's ErrorMessage.
func (c *Classifier) Classify(ctx context.Context, req model.ClassificationRequest, taxonomy *model.Taxonomy) *model.ClassificationResult {
	start := time.Now()
	requestID := uuid.NewString()

	description := req.Normalized()
	if runes := []rune(description); len(runes) > maxDescriptionLen {
		description = string(runes[:maxDescriptionLen])
	}
	req.Description = description

	if description == "" {
		result := c.fallback.EmptyInputResult(taxonomy, "no description provided")
		c.finish(result, requestID, start, 0)
		return result
	}

	if c.client == nil {
		result := c.fallback.Classify(description, taxonomy, "no LLM provider configured")
		c.finish(result, requestID, start, 0)
		return result
	}

	if cached, found := c.cache.get(description); found {
		c.logger.Debug("cache hit for description",
			"request_id", requestID,
			"category", cached.CategoryID)
		return cached
	}

	if err := c.rateLimiter.wait(ctx); err != nil {
		result := c.fallback.Classify(description, taxonomy, fmt.Sprintf("rate limit error: %v", err))
		c.finish(result, requestID, start, 0)
		return result
	}

	prompt := BuildClassificationPrompt(req, taxonomy)

	var validated *model.ClassificationResult
	attempts := 0

	err := common.WithRetry(ctx, func() error {
		attempts++

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		raw, genErr := c.client.Generate(callCtx, prompt)
		if genErr != nil {
			c.logger.Warn("LLM call attempt failed",
				"request_id", requestID,
				"attempt", attempts,
				"error", genErr)
			return &common.RetryableError{Err: genErr, Retryable: isTransient(genErr)}
		}

		parsed, parseErr := ParseEnvelope(raw)
		if parseErr != nil {
			// A syntactically broken reply is a prompt/model problem;
			// repeating the identical call rarely helps.
			return &common.RetryableError{Err: parseErr, Retryable: false}
		}

		result, validateErr := ValidateResult(parsed, taxonomy)
		if validateErr != nil {
			return &common.RetryableError{Err: validateErr, Retryable: false}
		}

		validated = result
		return nil
	}, c.retryOpts)

	if err != nil {
		result := c.fallback.Classify(description, taxonomy, err.Error())
		c.finish(result, requestID, start, attempts)
		return result
	}

	c.finish(validated, requestID, start, attempts)
	c.cache.set(description, validated)

	c.logger.Info("description classified",
		"request_id", requestID,
		"type", validated.Type,
		"category", validated.CategoryID,
		"confidence", validated.Confidence,
		"elapsed", validated.Metadata.ProcessingTime)

	return validated
}

// finish stamps diagnostic metadata onto a result.
func (c *Classifier) finish(result *model.ClassificationResult, requestID string, start time.Time, attempts int) {
	result.Metadata.RequestID = requestID
	result.Metadata.Attempts = attempts
	result.Metadata.ProcessingTime = time.Since(start)
	if c.client != nil {
		result.Metadata.Provider = c.client.Name()
	}
	if result.ErrorMessage != "" {
		result.Metadata.UsedFallback = true
		c.logger.Warn("classification degraded to fallback",
			"request_id", requestID,
			"category", result.CategoryID,
			"reason", result.ErrorMessage)
	}
}

// BatchClassify classifies multiple requests. Results are positional: the
// result at index i always corresponds to reqs[i], regardless of arrival
// order. With a batch window of 1 the calls run strictly sequentially with
// a fixed inter-call delay; otherwise a bounded number run concurrently.
func (c *Classifier) BatchClassify(ctx context.Context, reqs []model.ClassificationRequest, taxonomy *model.Taxonomy) []*model.ClassificationResult {
	results := make([]*model.ClassificationResult, len(reqs))

	if c.batchWindow <= 1 {
		for i, req := range reqs {
			results[i] = c.Classify(ctx, req, taxonomy)
			if i < len(reqs)-1 {
				select {
				case <-ctx.Done():
					for j := i + 1; j < len(reqs); j++ {
						results[j] = c.fallback.Classify(reqs[j].Normalized(), taxonomy, "batch canceled")
					}
					return results
				case <-time.After(c.batchDelay):
				}
			}
		}
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.batchWindow)

	for i, req := range reqs {
		g.Go(func() error {
			results[i] = c.Classify(gctx, req, taxonomy)
			return nil
		})
	}

	// Workers never return errors; Wait only joins them.
	_ = g.Wait()

	return results
}

// Close stops background goroutines and cleans up resources.
func (c *Classifier) Close() error {
	if c.cache != nil {
		c.cache.Close()
	}
	if c.rateLimiter != nil {
		c.rateLimiter.Close()
	}
	return nil
}
