package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// Transaction represents a single financial transaction from any source.
type Transaction struct {
	Date        time.Time
	ID          string
	Description string
	Note        string
	AccountID   string
	Hash        string
	Type        Direction
	CategoryIDs []string
	Amount      float64
}

// PrimaryCategoryID returns the first category id, or "" when unclassified.
func (t *Transaction) PrimaryCategoryID() string {
	if len(t.CategoryIDs) == 0 {
		return ""
	}
	return t.CategoryIDs[0]
}

// GenerateHash creates a unique hash for duplicate detection.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%.2f:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.Description,
		t.AccountID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
