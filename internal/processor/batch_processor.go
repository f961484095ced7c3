package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"ertragswert/server/internal/models"
)

const (
	DefaultWorkers      = 4
	DefaultMaxBatchSize = 100
)

var (
	ErrEmptyBatch    = errors.New("batch is empty")
	ErrBatchTooLarge = errors.New("batch is too large")
)

// Valuer computes one valuation
type Valuer interface {
	Calculate(input models.PropertyInput, cpi models.CPIPoint) (*models.ValuationResult, error)
}

// CPIResolver returns the reading that applies to a purchase date
type CPIResolver interface {
	ResolveForPurchaseDate(ctx context.Context, purchaseDate models.Date) (models.CPIPoint, error)
}

// BatchItem is the outcome for one property of a batch. Exactly one of
// Result and Error is set.
type BatchItem struct {
	Index  int                     `json:"index"`
	Result *models.ValuationResult `json:"result,omitempty"`
	Error  string                  `json:"error,omitempty"`
}

// BatchProcessor values several properties on a fixed pool of workers
type BatchProcessor struct {
	valuer   Valuer
	resolver CPIResolver
	workers  int
	maxSize  int
	logger   *logrus.Logger
	newID    func() string
}

// NewBatchProcessor creates a processor. Non-positive workers or maxSize
// fall back to the defaults.
func NewBatchProcessor(valuer Valuer, resolver CPIResolver, workers, maxSize int, logger *logrus.Logger) *BatchProcessor {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxBatchSize
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &BatchProcessor{
		valuer:   valuer,
		resolver: resolver,
		workers:  workers,
		maxSize:  maxSize,
		logger:   logger,
		newID:    func() string { return "" },
	}
}

// SetIDGenerator sets the function that stamps each successful result
func (p *BatchProcessor) SetIDGenerator(newID func() string) {
	p.newID = newID
}

// MaxSize returns the largest batch Process accepts
func (p *BatchProcessor) MaxSize() int {
	return p.maxSize
}

// Process values every input and returns one item per input, in input
// order. A failing property does not affect the others. Properties not yet
// started when ctx is cancelled report the context error.
func (p *BatchProcessor) Process(ctx context.Context, inputs []models.PropertyInput) ([]BatchItem, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(inputs) > p.maxSize {
		return nil, fmt.Errorf("%w: %d properties, at most %d allowed", ErrBatchTooLarge, len(inputs), p.maxSize)
	}

	start := time.Now()
	items := make([]BatchItem, len(inputs))
	jobs := make(chan int)

	workers := p.workers
	if workers > len(inputs) {
		workers = len(inputs)
	}

	var waitGroup sync.WaitGroup
	for w := 0; w < workers; w++ {
		waitGroup.Add(1)
		go func() {
			defer waitGroup.Done()
			for i := range jobs {
				items[i] = p.processOne(ctx, i, inputs[i])
			}
		}()
	}

	next := 0
feed:
	for ; next < len(inputs); next++ {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- next:
		}
	}
	close(jobs)
	waitGroup.Wait()

	for i := next; i < len(inputs); i++ {
		items[i] = BatchItem{Index: i, Error: ctx.Err().Error()}
	}

	failed := 0
	for _, item := range items {
		if item.Error != "" {
			failed++
		}
	}
	p.logger.WithFields(logrus.Fields{
		"properties": len(inputs),
		"failed":     failed,
		"workers":    workers,
		"duration":   time.Since(start).String(),
	}).Info("Processed valuation batch")

	return items, nil
}

func (p *BatchProcessor) processOne(ctx context.Context, index int, input models.PropertyInput) BatchItem {
	if err := ctx.Err(); err != nil {
		return BatchItem{Index: index, Error: err.Error()}
	}
	if input.PurchaseDate.IsZero() {
		return BatchItem{Index: index, Error: "purchase_date is required"}
	}

	reading, err := p.resolver.ResolveForPurchaseDate(ctx, input.PurchaseDate)
	if err != nil {
		return BatchItem{Index: index, Error: "CPI: " + err.Error()}
	}

	result, err := p.valuer.Calculate(input, reading)
	if err != nil {
		p.logger.WithError(err).WithField("index", index).Debug("Batch valuation failed")
		return BatchItem{Index: index, Error: "Calculation error: " + err.Error()}
	}
	result.ID = p.newID()

	return BatchItem{Index: index, Result: result}
}
