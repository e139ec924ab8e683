package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectionValid(t *testing.T) {
	assert.True(t, DirectionIncome.Valid())
	assert.True(t, DirectionExpense.Valid())
	assert.False(t, Direction("transfer").Valid())
	assert.False(t, Direction("").Valid())
}

func TestNewTaxonomy(t *testing.T) {
	taxonomy := NewTaxonomy([]Category{
		{ID: "food", Name: "飲食", Direction: DirectionExpense},
		{ID: "", Name: "nameless", Direction: DirectionExpense},
		{ID: "food", Name: "duplicate", Direction: DirectionIncome},
		{ID: "salary", Name: "薪資", Direction: DirectionIncome},
	})

	assert.Equal(t, 2, taxonomy.Len())

	// First occurrence of a duplicated id wins.
	cat, ok := taxonomy.Lookup("food")
	require.True(t, ok)
	assert.Equal(t, "飲食", cat.Name)

	assert.True(t, taxonomy.Contains("food", DirectionExpense))
	assert.False(t, taxonomy.Contains("food", DirectionIncome))
	assert.False(t, taxonomy.Contains("ghost", DirectionExpense))
}

func TestTaxonomyForDirectionPreservesOrder(t *testing.T) {
	taxonomy := NewTaxonomy([]Category{
		{ID: "food", Direction: DirectionExpense},
		{ID: "salary", Direction: DirectionIncome},
		{ID: "transport", Direction: DirectionExpense},
	})

	expenses := taxonomy.ForDirection(DirectionExpense)
	require.Len(t, expenses, 2)
	assert.Equal(t, "food", expenses[0].ID)
	assert.Equal(t, "transport", expenses[1].ID)

	assert.Empty(t, NewTaxonomy(nil).ForDirection(DirectionExpense))
	assert.True(t, NewTaxonomy(nil).IsEmpty())
}
