// Package cpi holds the consumer price index readings used to index
// valuation cost rates, and the rules for picking the reading that applies
// to a purchase.
package cpi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"ertragswert/server/internal/models"
)

var (
	ErrNotFound      = errors.New("cpi reading not found")
	ErrInvalidPeriod = errors.New("invalid cpi period")
)

// Resolver looks up the reading published for a (year, month) period.
// A missing period is reported as an error wrapping ErrNotFound.
type Resolver interface {
	Resolve(ctx context.Context, year, month int) (models.CPIPoint, error)
}

// Table is an in-memory period to reading index. The whole content is
// swapped on Replace, so readers never observe a half refreshed table.
type Table struct {
	mu        sync.RWMutex
	readings  map[models.CPIPeriod]models.CPIPoint
	updatedAt time.Time
}

// NewTable creates a table seeded with the given readings
func NewTable(readings ...models.CPIPoint) *Table {
	t := &Table{readings: make(map[models.CPIPeriod]models.CPIPoint)}
	if len(readings) > 0 {
		t.Replace(readings)
	}
	return t
}

// Replace swaps the table content for the given readings. Later entries
// win when a period appears twice.
func (t *Table) Replace(readings []models.CPIPoint) {
	next := make(map[models.CPIPeriod]models.CPIPoint, len(readings))
	for _, r := range readings {
		next[r.Period()] = r
	}

	t.mu.Lock()
	t.readings = next
	t.updatedAt = time.Now()
	t.mu.Unlock()
}

// Get returns the reading for a period, if present
func (t *Table) Get(year, month int) (models.CPIPoint, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.readings[models.CPIPeriod{Year: year, Month: month}]
	return r, ok
}

// Resolve implements Resolver
func (t *Table) Resolve(_ context.Context, year, month int) (models.CPIPoint, error) {
	r, ok := t.Get(year, month)
	if !ok {
		return models.CPIPoint{}, fmt.Errorf("%w for %s", ErrNotFound, models.CPIPeriod{Year: year, Month: month})
	}
	return r, nil
}

// Len returns the number of periods held
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.readings)
}

// UpdatedAt returns when the content was last replaced
func (t *Table) UpdatedAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.updatedAt
}

// Readings returns all readings ordered by period
func (t *Table) Readings() []models.CPIPoint {
	t.mu.RLock()
	out := make([]models.CPIPoint, 0, len(t.readings))
	for _, r := range t.readings {
		out = append(out, r)
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// Latest returns the most recent reading
func (t *Table) Latest() (models.CPIPoint, bool) {
	readings := t.Readings()
	if len(readings) == 0 {
		return models.CPIPoint{}, false
	}
	return readings[len(readings)-1], true
}
