package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yuchingtsai/bookkeep/internal/common"
	"github.com/yuchingtsai/bookkeep/internal/model"
)

// GetCategories returns all active categories in insertion order.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, name, direction, COALESCE(icon, ''), is_active, created_at
		FROM categories
		WHERE is_active = 1
		ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Direction, &cat.Icon, &cat.IsActive, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// GetCategoryByID returns a category by its id, or common.ErrNotFound.
func (s *SQLiteStorage) GetCategoryByID(ctx context.Context, id string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, name, direction, COALESCE(icon, ''), is_active, created_at
		FROM categories
		WHERE id = ? AND is_active = 1`

	var cat model.Category
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&cat.ID, &cat.Name, &cat.Direction, &cat.Icon, &cat.IsActive, &cat.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}

	return &cat, nil
}

// CreateCategory creates a new category.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, category model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(category.ID, "category.ID"); err != nil {
		return err
	}
	if err := validateString(category.Name, "category.Name"); err != nil {
		return err
	}
	if !category.Direction.Valid() {
		return fmt.Errorf("invalid category direction: %s", category.Direction)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, direction, icon, is_active)
		VALUES (?, ?, ?, ?, 1)
		ON CONFLICT(id) DO NOTHING
	`, category.ID, category.Name, category.Direction, category.Icon)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check insert result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("category %s: %w", category.ID, common.ErrDuplicateEntry)
	}

	slog.Info("created category",
		"id", category.ID,
		"name", category.Name,
		"direction", category.Direction)
	return nil
}

// DeleteCategory deactivates a category. Rows are kept so historical
// classifications still resolve.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE categories SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("category %s: %w", id, common.ErrNotFound)
	}

	return nil
}

// LoadTaxonomy builds a read-only taxonomy snapshot from the active
// categories.
func (s *SQLiteStorage) LoadTaxonomy(ctx context.Context) (*model.Taxonomy, error) {
	categories, err := s.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	return model.NewTaxonomy(categories), nil
}

// SaveCorrection stores a user-confirmed category choice for an exact
// description, replacing any previous choice.
func (s *SQLiteStorage) SaveCorrection(ctx context.Context, correction *model.Correction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if correction == nil {
		return fmt.Errorf("%w: correction", ErrNilParameter)
	}
	if err := validateString(correction.Description, "correction.Description"); err != nil {
		return err
	}
	if err := validateString(correction.CategoryID, "correction.CategoryID"); err != nil {
		return err
	}
	if !correction.Direction.Valid() {
		return fmt.Errorf("invalid correction direction: %s", correction.Direction)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO corrections (description, category_id, direction)
		VALUES (?, ?, ?)
		ON CONFLICT(description) DO UPDATE SET
			category_id = excluded.category_id,
			direction = excluded.direction,
			created_at = CURRENT_TIMESTAMP
	`, correction.Description, correction.CategoryID, correction.Direction)
	if err != nil {
		return fmt.Errorf("failed to save correction: %w", err)
	}

	return nil
}

// GetCorrections returns all stored corrections.
func (s *SQLiteStorage) GetCorrections(ctx context.Context) ([]model.Correction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT description, category_id, direction, created_at
		FROM corrections
		ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to query corrections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var corrections []model.Correction
	for rows.Next() {
		var c model.Correction
		if err := rows.Scan(&c.Description, &c.CategoryID, &c.Direction, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan correction: %w", err)
		}
		corrections = append(corrections, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating corrections: %w", err)
	}

	return corrections, nil
}
