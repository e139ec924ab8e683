// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/yuchingtsai/bookkeep/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

// Storage defines the contract for the persistence layer.
type Storage interface {
	// Transaction operations
	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	GetTransactionsToClassify(ctx context.Context) ([]model.Transaction, error)
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	GetTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)

	// Classification operations
	SaveClassification(ctx context.Context, classification *model.Classification) error
	GetClassificationsByDateRange(ctx context.Context, start, end time.Time) ([]model.Classification, error)

	// Category operations
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByID(ctx context.Context, id string) (*model.Category, error)
	CreateCategory(ctx context.Context, category model.Category) error
	DeleteCategory(ctx context.Context, id string) error

	// Correction operations
	SaveCorrection(ctx context.Context, correction *model.Correction) error
	GetCorrections(ctx context.Context) ([]model.Correction, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// Classifier produces canonical classification results for descriptions.
// Implementations never return an error for a single classification; failed
// network paths degrade to the keyword fallback instead.
type Classifier interface {
	Classify(ctx context.Context, req model.ClassificationRequest, taxonomy *model.Taxonomy) *model.ClassificationResult
	BatchClassify(ctx context.Context, reqs []model.ClassificationRequest, taxonomy *model.Taxonomy) []*model.ClassificationResult
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DateRange represents a time period with start and end dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// CategorySummary contains aggregated statistics for a category.
type CategorySummary struct {
	Count  int
	Amount float64
}

// CompletionStats shows the results of a classification run.
type CompletionStats struct {
	TotalTransactions int
	Classified        int
	Fallback          int
	Duration          time.Duration
}
