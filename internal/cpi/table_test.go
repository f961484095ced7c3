package cpi

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ertragswert/server/internal/models"
)

func testReadings() []models.CPIPoint {
	return []models.CPIPoint{
		{Year: 2023, Month: 10, IndexValue: 118.5, BaseYear: 2020},
		{Year: 2024, Month: 1, IndexValue: 120.5, BaseYear: 2020},
		{Year: 2024, Month: 6, IndexValue: 122.0, BaseYear: 2020},
	}
}

func TestTable_Resolve(t *testing.T) {
	table := NewTable(testReadings()...)
	ctx := context.Background()

	tests := []struct {
		year, month int
		expected    float64
	}{
		{2023, 10, 118.5},
		{2024, 1, 120.5},
		{2024, 6, 122.0},
	}
	for _, tt := range tests {
		r, err := table.Resolve(ctx, tt.year, tt.month)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, r.IndexValue)
		assert.Equal(t, tt.year, r.Year)
		assert.Equal(t, tt.month, r.Month)
	}
}

func TestTable_ResolveNotFound(t *testing.T) {
	table := NewTable(testReadings()...)

	_, err := table.Resolve(context.Background(), 2025, 12)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "12/2025")
}

func TestTable_Replace(t *testing.T) {
	table := NewTable(testReadings()...)
	assert.Equal(t, 3, table.Len())
	assert.False(t, table.UpdatedAt().IsZero())

	table.Replace([]models.CPIPoint{
		{Year: 2022, Month: 10, IndexValue: 110.0, BaseYear: 2020},
		{Year: 2022, Month: 10, IndexValue: 110.2, BaseYear: 2020},
	})

	assert.Equal(t, 1, table.Len())
	_, ok := table.Get(2024, 1)
	assert.False(t, ok)

	r, ok := table.Get(2022, 10)
	require.True(t, ok)
	assert.Equal(t, 110.2, r.IndexValue)
}

func TestTable_ReadingsSortedAndLatest(t *testing.T) {
	table := NewTable()
	_, ok := table.Latest()
	assert.False(t, ok)

	readings := testReadings()
	table.Replace([]models.CPIPoint{readings[2], readings[0], readings[1]})

	assert.Equal(t, readings, table.Readings())
	latest, ok := table.Latest()
	require.True(t, ok)
	assert.Equal(t, readings[2], latest)
}

func TestTable_ConcurrentAccess(t *testing.T) {
	table := NewTable(testReadings()...)
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			table.Replace(testReadings())
		}()
		go func() {
			defer wg.Done()
			_, err := table.Resolve(context.Background(), 2024, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
