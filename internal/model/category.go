// Package model defines the core domain models used throughout the application.
package model

import "time"

// Direction indicates whether a transaction moves money in or out.
type Direction string

const (
	// DirectionIncome represents money coming in.
	DirectionIncome Direction = "income"
	// DirectionExpense represents money going out.
	DirectionExpense Direction = "expense"
)

// Valid reports whether the direction is one of the two known values.
func (d Direction) Valid() bool {
	return d == DirectionIncome || d == DirectionExpense
}

// Category represents a user-defined transaction category.
type Category struct {
	CreatedAt time.Time
	ID        string
	Name      string
	Icon      string
	Direction Direction
	IsActive  bool
}

// Taxonomy is the caller-supplied closed set of valid categories,
// partitioned by direction. It is treated as a read-only snapshot for the
// duration of a classification call.
type Taxonomy struct {
	byID map[string]Category
	// ordered preserves insertion order so prompt rendering and
	// fallback defaults are deterministic.
	ordered []Category
}

// NewTaxonomy builds a taxonomy from a category list. Later duplicates of
// the same id are ignored.
func NewTaxonomy(categories []Category) *Taxonomy {
	t := &Taxonomy{byID: make(map[string]Category, len(categories))}
	for _, c := range categories {
		if c.ID == "" {
			continue
		}
		if _, exists := t.byID[c.ID]; exists {
			continue
		}
		t.byID[c.ID] = c
		t.ordered = append(t.ordered, c)
	}
	return t
}

// Lookup returns the category for an id.
func (t *Taxonomy) Lookup(id string) (Category, bool) {
	c, ok := t.byID[id]
	return c, ok
}

// Contains reports whether id exists with the given direction.
func (t *Taxonomy) Contains(id string, direction Direction) bool {
	c, ok := t.byID[id]
	return ok && c.Direction == direction
}

// ForDirection returns all categories with the given direction, in
// insertion order.
func (t *Taxonomy) ForDirection(direction Direction) []Category {
	var out []Category
	for _, c := range t.ordered {
		if c.Direction == direction {
			out = append(out, c)
		}
	}
	return out
}

// All returns every category in insertion order.
func (t *Taxonomy) All() []Category {
	out := make([]Category, len(t.ordered))
	copy(out, t.ordered)
	return out
}

// Len returns the number of categories.
func (t *Taxonomy) Len() int {
	return len(t.ordered)
}

// IsEmpty reports whether the taxonomy has no categories.
func (t *Taxonomy) IsEmpty() bool {
	return len(t.ordered) == 0
}
