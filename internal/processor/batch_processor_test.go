package processor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ertragswert/server/internal/cpi"
	"ertragswert/server/internal/models"
	"ertragswert/server/internal/valuation"
)

// MockResolver is a mock implementation of the CPIResolver interface
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) ResolveForPurchaseDate(ctx context.Context, purchaseDate models.Date) (models.CPIPoint, error) {
	args := m.Called(ctx, purchaseDate)
	return args.Get(0).(models.CPIPoint), args.Error(1)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

func testInput(rent float64) models.PropertyInput {
	units := 3
	return models.PropertyInput{
		PropertyType:        models.PropertyTypeResidential,
		PurchaseDate:        models.NewDate(2024, time.March, 1),
		MonthlyNetRent:      rent,
		LivingArea:          150,
		ResidentialUnits:    &units,
		LandValuePerSqm:     500,
		PlotArea:            400,
		RemainingUsefulLife: 50,
		PropertyYield:       5,
	}
}

func testService() *cpi.Service {
	table := cpi.NewTable(models.CPIPoint{Year: 2023, Month: 10, IndexValue: 118.5, BaseYear: 2020})
	return cpi.NewService(table, nil, nil, quietLogger())
}

func TestNewBatchProcessor_Defaults(t *testing.T) {
	processor := NewBatchProcessor(valuation.NewEngine(0), testService(), 0, 0, nil)

	assert.Equal(t, DefaultWorkers, processor.workers)
	assert.Equal(t, DefaultMaxBatchSize, processor.MaxSize())
	assert.NotNil(t, processor.logger)
}

func TestBatchProcessor_Process(t *testing.T) {
	engine := valuation.NewEngine(84.5)
	processor := NewBatchProcessor(engine, testService(), 3, 10, quietLogger())
	var ids int64
	processor.SetIDGenerator(func() string {
		return fmt.Sprintf("id-%d", atomic.AddInt64(&ids, 1))
	})

	inputs := []models.PropertyInput{testInput(2000), testInput(2500), testInput(3000), testInput(3500)}
	items, err := processor.Process(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, items, len(inputs))

	reading := models.CPIPoint{Year: 2023, Month: 10, IndexValue: 118.5, BaseYear: 2020}
	seen := make(map[string]bool)
	for i, item := range items {
		assert.Equal(t, i, item.Index)
		assert.Empty(t, item.Error)
		require.NotNil(t, item.Result)

		expected, err := engine.Calculate(inputs[i], reading)
		require.NoError(t, err)
		assert.Equal(t, expected.TheoreticalTotalValue, item.Result.TheoreticalTotalValue)
		assert.NotEmpty(t, item.Result.ID)
		seen[item.Result.ID] = true
	}
	assert.Len(t, seen, len(inputs))
}

func TestBatchProcessor_PartialFailure(t *testing.T) {
	processor := NewBatchProcessor(valuation.NewEngine(84.5), testService(), 2, 10, quietLogger())

	noDate := testInput(2000)
	noDate.PurchaseDate = models.Date{}
	oldPurchase := testInput(2000)
	oldPurchase.PurchaseDate = models.NewDate(2015, time.June, 1)
	badYield := testInput(2000)
	badYield.PropertyYield = 150

	items, err := processor.Process(context.Background(), []models.PropertyInput{testInput(2000), noDate, oldPurchase, badYield})
	require.NoError(t, err)

	assert.NotNil(t, items[0].Result)
	assert.Equal(t, "purchase_date is required", items[1].Error)
	assert.Contains(t, items[2].Error, "CPI: ")
	assert.Contains(t, items[2].Error, "10/2014")
	assert.Contains(t, items[3].Error, "Calculation error")
	for _, item := range items[1:] {
		assert.Nil(t, item.Result)
	}
}

func TestBatchProcessor_SizeLimits(t *testing.T) {
	processor := NewBatchProcessor(valuation.NewEngine(84.5), testService(), 2, 2, quietLogger())

	_, err := processor.Process(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrEmptyBatch))

	_, err = processor.Process(context.Background(), []models.PropertyInput{testInput(1), testInput(2), testInput(3)})
	assert.True(t, errors.Is(err, ErrBatchTooLarge))
}

func TestBatchProcessor_ResolverError(t *testing.T) {
	resolver := &MockResolver{}
	resolver.On("ResolveForPurchaseDate", mock.Anything, mock.Anything).
		Return(models.CPIPoint{}, errors.New("table not loaded")).Twice()

	processor := NewBatchProcessor(valuation.NewEngine(84.5), resolver, 2, 10, quietLogger())
	items, err := processor.Process(context.Background(), []models.PropertyInput{testInput(1000), testInput(2000)})
	require.NoError(t, err)

	for _, item := range items {
		assert.Equal(t, "CPI: table not loaded", item.Error)
	}
	resolver.AssertExpectations(t)
}

func TestBatchProcessor_Cancelled(t *testing.T) {
	processor := NewBatchProcessor(valuation.NewEngine(84.5), testService(), 2, 10, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items, err := processor.Process(ctx, []models.PropertyInput{testInput(1000), testInput(2000), testInput(3000)})
	require.NoError(t, err)
	require.Len(t, items, 3)
	for i, item := range items {
		assert.Equal(t, i, item.Index)
		assert.Equal(t, context.Canceled.Error(), item.Error)
		assert.Nil(t, item.Result)
	}
}
