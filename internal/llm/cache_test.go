package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuchingtsai/bookkeep/internal/model"
)

func TestResultCache(t *testing.T) {
	cache := newResultCache(time.Minute)
	defer cache.Close()

	result := &model.ClassificationResult{
		Type:       model.DirectionExpense,
		CategoryID: "food",
		Confidence: 90,
	}

	_, found := cache.get("午餐100元")
	assert.False(t, found)

	cache.set("午餐100元", result)
	cached, found := cache.get("午餐100元")
	require.True(t, found)
	assert.Equal(t, "food", cached.CategoryID)
	assert.Equal(t, 1, cache.size())

	// Mutating the returned copy must not touch the cached value.
	cached.CategoryID = "transport"
	again, found := cache.get("午餐100元")
	require.True(t, found)
	assert.Equal(t, "food", again.CategoryID)
}

func TestResultCacheExpiry(t *testing.T) {
	cache := newResultCache(10 * time.Millisecond)
	defer cache.Close()

	cache.set("key", &model.ClassificationResult{CategoryID: "food"})
	time.Sleep(20 * time.Millisecond)

	_, found := cache.get("key")
	assert.False(t, found)
}
