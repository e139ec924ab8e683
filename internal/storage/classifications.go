package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/yuchingtsai/bookkeep/internal/model"
)

// SaveClassification stores or replaces the classification for a transaction.
func (s *SQLiteStorage) SaveClassification(ctx context.Context, classification *model.Classification) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if classification == nil {
		return fmt.Errorf("classification: %w", ErrNilParameter)
	}
	if err := validateString(classification.Transaction.ID, "transaction id"); err != nil {
		return err
	}

	result := &classification.Result
	ids, err := marshalCategoryIDs(result.CategoryIDs)
	if err != nil {
		return err
	}

	classifiedAt := classification.ClassifiedAt
	if classifiedAt.IsZero() {
		classifiedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO classifications (transaction_id, type, category_id, category_ids,
			confidence, description, explanation, error_message, status, classified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(transaction_id) DO UPDATE SET
			type = excluded.type,
			category_id = excluded.category_id,
			category_ids = excluded.category_ids,
			confidence = excluded.confidence,
			description = excluded.description,
			explanation = excluded.explanation,
			error_message = excluded.error_message,
			status = excluded.status,
			classified_at = excluded.classified_at
	`,
		classification.Transaction.ID, string(result.Type), result.CategoryID, ids,
		result.Confidence, result.Description, result.Explanation,
		result.ErrorMessage, string(classification.Status), classifiedAt)
	if err != nil {
		return fmt.Errorf("failed to save classification for %s: %w", classification.Transaction.ID, err)
	}

	slog.Debug("saved classification",
		"transaction_id", classification.Transaction.ID,
		"category", result.CategoryID,
		"status", classification.Status)
	return nil
}

// GetClassificationsByDateRange returns classified transactions whose date
// falls within [start, end], oldest first.
func (s *SQLiteStorage) GetClassificationsByDateRange(ctx context.Context, start, end time.Time) ([]model.Classification, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.hash, t.date, t.description, t.note, t.account_id, t.type, t.category_ids, t.amount,
			c.type, c.category_id, c.category_ids, c.confidence, c.description,
			c.explanation, c.error_message, c.status, c.classified_at
		FROM classifications c
		JOIN transactions t ON t.id = c.transaction_id
		WHERE t.date >= ? AND t.date <= ?
		ORDER BY t.date
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query classifications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var classifications []model.Classification
	for rows.Next() {
		var cls model.Classification
		txn := &cls.Transaction
		result := &cls.Result

		var note, accountID, txnDirection, txnCategoryIDs sql.NullString
		var resultDirection, categoryID, categoryIDs, explanation, errorMessage, status sql.NullString

		if err := rows.Scan(&txn.ID, &txn.Hash, &txn.Date, &txn.Description,
			&note, &accountID, &txnDirection, &txnCategoryIDs, &txn.Amount,
			&resultDirection, &categoryID, &categoryIDs, &result.Confidence,
			&result.Description, &explanation, &errorMessage, &status,
			&cls.ClassifiedAt); err != nil {
			return nil, fmt.Errorf("failed to scan classification: %w", err)
		}

		txn.Note = note.String
		txn.AccountID = accountID.String
		txn.Type = model.Direction(txnDirection.String)
		if txn.CategoryIDs, err = unmarshalCategoryIDs(txnCategoryIDs); err != nil {
			return nil, err
		}

		result.Type = model.Direction(resultDirection.String)
		result.CategoryID = categoryID.String
		if result.CategoryIDs, err = unmarshalCategoryIDs(categoryIDs); err != nil {
			return nil, err
		}
		result.Explanation = explanation.String
		result.ErrorMessage = errorMessage.String
		cls.Status = model.ClassificationStatus(status.String)

		classifications = append(classifications, cls)
	}

	return classifications, rows.Err()
}
