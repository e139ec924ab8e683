package model

import (
	"strings"
	"time"
)

// MaxCategoryIDs caps how many categories a single classification may carry.
// The first entry is the primary category; the rest are auxiliary.
const MaxCategoryIDs = 3

// ClassificationRequest is the input to the classification pipeline.
// Created per call and discarded after use.
type ClassificationRequest struct {
	// Description is the free-text transaction description entered by
	// the user, e.g. "星巴克咖啡85元".
	Description string
	// Hint optionally narrows the candidate categories per direction.
	// When empty, the full taxonomy for each direction is offered.
	Hint []string
}

// Normalized returns the description trimmed of surrounding whitespace.
func (r ClassificationRequest) Normalized() string {
	return strings.TrimSpace(r.Description)
}

// ResultMetadata carries diagnostics about how a classification was produced.
type ResultMetadata struct {
	RequestID      string
	Provider       string
	Attempts       int
	ProcessingTime time.Duration
	UsedFallback   bool
}

// ClassificationResult is the canonical, validated output of the pipeline.
// Immutable after construction. Invariant: CategoryID == CategoryIDs[0],
// and every entry of CategoryIDs exists in the taxonomy under Type.
type ClassificationResult struct {
	Type        Direction
	CategoryID  string
	CategoryIDs []string
	Confidence  int
	// Confidences, when present, parallels CategoryIDs.
	Confidences []int
	Description string
	Explanation string
	// ErrorMessage is set only when the fallback path was used; it records
	// why the network path did not produce this result.
	ErrorMessage string
	Metadata     ResultMetadata
}

// Degraded reports whether this result came from the fallback path.
func (r *ClassificationResult) Degraded() bool {
	return r.ErrorMessage != ""
}

// ClassificationStatus indicates how a stored transaction was categorized.
type ClassificationStatus string

// Classification status constants.
const (
	StatusUnclassified   ClassificationStatus = "UNCLASSIFIED"
	StatusClassifiedByAI ClassificationStatus = "CLASSIFIED_BY_AI"
	StatusFallback       ClassificationStatus = "CLASSIFIED_BY_FALLBACK"
	StatusUserModified   ClassificationStatus = "USER_MODIFIED"
)

// Classification ties a stored transaction to its classification result.
type Classification struct {
	ClassifiedAt time.Time
	Transaction  Transaction
	Result       ClassificationResult
	Status       ClassificationStatus
}

// Correction is a user-confirmed category choice for an exact description.
// Corrections take precedence over the keyword tables in the fallback
// classifier.
type Correction struct {
	CreatedAt   time.Time
	Description string
	CategoryID  string
	Direction   Direction
}
