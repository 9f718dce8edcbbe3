package cycles

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoval/tradeloop/internal/domain"
)

func TestSaveAndReadBack(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	start := store.CurrentIndex()

	require.NoError(t, store.Save(domain.TradingCycleResult{
		CycleID:   "cycle-1",
		Timestamp: time.Now(),
		Success:   true,
	}))
	require.NoError(t, store.Save(domain.TradingCycleResult{
		CycleID: "cycle-2",
		Skipped: true,
	}))

	records, err := store.ResultsAfter(start)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "cycle-1", records[0].Result.CycleID)
	assert.True(t, records[0].Result.Success)
	assert.Equal(t, "cycle-2", records[1].Result.CycleID)
	assert.True(t, records[1].Result.Skipped)
}

func TestSaveRequiresCycleID(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	err = store.Save(domain.TradingCycleResult{})
	require.Error(t, err)
}

func TestResultsAfterCurrentIndexIsEmpty(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	records, err := store.ResultsAfter(store.CurrentIndex())
	require.NoError(t, err)
	assert.Empty(t, records)
}
