// Package engine orchestrates classification runs over stored transactions.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/yuchingtsai/bookkeep/internal/common"
	"github.com/yuchingtsai/bookkeep/internal/model"
	"github.com/yuchingtsai/bookkeep/internal/service"
)

// Classifier is the subset of the classification pipeline the engine drives.
type Classifier interface {
	BatchClassify(ctx context.Context, reqs []model.ClassificationRequest, taxonomy *model.Taxonomy) []*model.ClassificationResult
	SetCorrections(corrections []model.Correction)
}

// Config holds configuration options for the classification engine.
type Config struct {
	ProgressWriter io.Writer
	BatchSize      int
	ShowProgress   bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:      50,
		ShowProgress:   true,
		ProgressWriter: os.Stderr,
	}
}

// ClassificationEngine walks unclassified transactions and persists results.
type ClassificationEngine struct {
	storage    service.Storage
	classifier Classifier
	config     Config
}

// New creates a classification engine with default configuration.
func New(storage service.Storage, classifier Classifier) *ClassificationEngine {
	return NewWithConfig(storage, classifier, DefaultConfig())
}

// NewWithConfig creates a classification engine with custom configuration.
func NewWithConfig(storage service.Storage, classifier Classifier, config Config) *ClassificationEngine {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	if config.ProgressWriter == nil {
		config.ProgressWriter = os.Stderr
	}
	return &ClassificationEngine{
		storage:    storage,
		classifier: classifier,
		config:     config,
	}
}

// ClassifyTransactions classifies every stored transaction that has no
// classification yet and returns run statistics. A canceled context stops
// the run after the current batch; everything already classified stays saved.
func (e *ClassificationEngine) ClassifyTransactions(ctx context.Context) (service.CompletionStats, error) {
	start := time.Now()
	var stats service.CompletionStats

	taxonomy, err := e.loadTaxonomy(ctx)
	if err != nil {
		return stats, err
	}

	corrections, err := e.storage.GetCorrections(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to load corrections: %w", err)
	}
	e.classifier.SetCorrections(corrections)

	transactions, err := e.storage.GetTransactionsToClassify(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to get transactions: %w", err)
	}

	if len(transactions) == 0 {
		slog.Info("no transactions to classify")
		stats.Duration = time.Since(start)
		return stats, nil
	}

	stats.TotalTransactions = len(transactions)
	slog.Info("starting classification run",
		"transactions", len(transactions),
		"corrections", len(corrections),
		"categories", taxonomy.Len())

	bar := e.newProgressBar(len(transactions))

	for offset := 0; offset < len(transactions); offset += e.config.BatchSize {
		select {
		case <-ctx.Done():
			stats.Duration = time.Since(start)
			return stats, ctx.Err()
		default:
		}

		end := offset + e.config.BatchSize
		if end > len(transactions) {
			end = len(transactions)
		}
		batch := transactions[offset:end]

		reqs := make([]model.ClassificationRequest, len(batch))
		for i, txn := range batch {
			reqs[i] = model.ClassificationRequest{Description: txn.Description}
		}

		results := e.classifier.BatchClassify(ctx, reqs, taxonomy)

		for i, result := range results {
			classification := buildClassification(batch[i], result)
			if err := e.storage.SaveClassification(ctx, &classification); err != nil {
				slog.Error("failed to save classification",
					"transaction_id", batch[i].ID,
					"error", err)
				continue
			}
			if result.Degraded() {
				stats.Fallback++
			} else {
				stats.Classified++
			}
			if bar != nil {
				_ = bar.Add(1)
			}
		}
	}

	stats.Duration = time.Since(start)
	slog.Info("classification run complete",
		"total", stats.TotalTransactions,
		"classified", stats.Classified,
		"fallback", stats.Fallback,
		"duration", stats.Duration.Round(time.Millisecond))

	return stats, nil
}

// ClassifyOne classifies a single stored transaction and persists the result.
func (e *ClassificationEngine) ClassifyOne(ctx context.Context, transactionID string) (*model.Classification, error) {
	taxonomy, err := e.loadTaxonomy(ctx)
	if err != nil {
		return nil, err
	}

	corrections, err := e.storage.GetCorrections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load corrections: %w", err)
	}
	e.classifier.SetCorrections(corrections)

	txn, err := e.storage.GetTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	results := e.classifier.BatchClassify(ctx,
		[]model.ClassificationRequest{{Description: txn.Description}}, taxonomy)
	classification := buildClassification(*txn, results[0])

	if err := e.storage.SaveClassification(ctx, &classification); err != nil {
		return nil, err
	}
	return &classification, nil
}

func (e *ClassificationEngine) loadTaxonomy(ctx context.Context) (*model.Taxonomy, error) {
	categories, err := e.storage.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	taxonomy := model.NewTaxonomy(categories)
	if taxonomy.IsEmpty() {
		return nil, fmt.Errorf("no categories found: %w", common.ErrEmptyTaxonomy)
	}
	return taxonomy, nil
}

func (e *ClassificationEngine) newProgressBar(total int) *progressbar.ProgressBar {
	if !e.config.ShowProgress {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(e.config.ProgressWriter),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Classifying transactions...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(e.config.ProgressWriter)
		}),
	)
}

func buildClassification(txn model.Transaction, result *model.ClassificationResult) model.Classification {
	status := model.StatusClassifiedByAI
	if result.Degraded() {
		status = model.StatusFallback
	}
	return model.Classification{
		Transaction:  txn,
		Result:       *result,
		Status:       status,
		ClassifiedAt: time.Now(),
	}
}
