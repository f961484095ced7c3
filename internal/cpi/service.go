package cpi

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"ertragswert/server/internal/models"
)

// FirstPublishedYear is the first year the valuation method accepts a CPI for
const FirstPublishedYear = 2002

// referenceMonth is the month whose index applies to a purchase (October)
const referenceMonth = 10

// Source produces a fresh set of readings, e.g. by scraping a statistics page
type Source interface {
	Fetch(ctx context.Context) ([]models.CPIPoint, error)
}

// Store persists readings between restarts
type Store interface {
	SaveCPIReadings(readings []models.CPIPoint) error
	GetCPIReadings() ([]models.CPIPoint, error)
}

// Service keeps a Table filled from a Source, backed by a Store
type Service struct {
	table  *Table
	source Source
	store  Store
	logger *logrus.Logger
}

// NewService wires a table to its source and store. Either may be nil.
func NewService(table *Table, source Source, store Store, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if table == nil {
		table = NewTable()
	}

	return &Service{
		table:  table,
		source: source,
		store:  store,
		logger: logger,
	}
}

// Table returns the table the service maintains
func (s *Service) Table() *Table {
	return s.table
}

// LoadStored fills the table from the store
func (s *Service) LoadStored() (int, error) {
	if s.store == nil {
		return 0, nil
	}

	readings, err := s.store.GetCPIReadings()
	if err != nil {
		return 0, fmt.Errorf("failed to load stored cpi readings: %w", err)
	}
	if len(readings) > 0 {
		s.table.Replace(readings)
	}

	s.logger.WithField("readings", len(readings)).Info("Loaded stored CPI readings")
	return len(readings), nil
}

// Refresh fetches new readings, persists them and swaps them into the
// table. When the fetch fails and the table is still empty, stored
// readings are loaded so lookups keep working offline.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	if s.source == nil {
		return s.LoadStored()
	}

	start := time.Now()
	readings, err := s.source.Fetch(ctx)
	if err == nil && len(readings) == 0 {
		err = fmt.Errorf("source returned no readings")
	}
	if err != nil {
		s.logger.WithError(err).Warn("CPI refresh failed")
		if s.table.Len() == 0 {
			if _, loadErr := s.LoadStored(); loadErr != nil {
				s.logger.WithError(loadErr).Error("Failed to fall back to stored CPI readings")
			}
		}
		return 0, fmt.Errorf("failed to refresh cpi readings: %w", err)
	}

	if s.store != nil {
		if err := s.store.SaveCPIReadings(readings); err != nil {
			s.logger.WithError(err).Error("Failed to persist CPI readings")
		}
	}
	s.table.Replace(readings)

	s.logger.WithFields(logrus.Fields{
		"readings": len(readings),
		"duration": time.Since(start).String(),
	}).Info("Refreshed CPI readings")
	return len(readings), nil
}

// Resolve implements Resolver on top of the table
func (s *Service) Resolve(ctx context.Context, year, month int) (models.CPIPoint, error) {
	return s.table.Resolve(ctx, year, month)
}

// ResolveForPurchaseDate returns the reading that applies to a purchase
func (s *Service) ResolveForPurchaseDate(ctx context.Context, purchaseDate models.Date) (models.CPIPoint, error) {
	period := PurchasePeriod(purchaseDate)
	return s.Resolve(ctx, period.Year, period.Month)
}

// PurchasePeriod is October of the year preceding the purchase
func PurchasePeriod(purchaseDate models.Date) models.CPIPeriod {
	return models.CPIPeriod{Year: purchaseDate.Year() - 1, Month: referenceMonth}
}

// ValidatePeriod checks that a queried period can exist: a calendar month
// between FirstPublishedYear and the current year.
func ValidatePeriod(year, month int, now time.Time) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month must be between 1 and 12, got %d", ErrInvalidPeriod, month)
	}
	if year < FirstPublishedYear || year > now.Year() {
		return fmt.Errorf("%w: year must be between %d and %d, got %d", ErrInvalidPeriod, FirstPublishedYear, now.Year(), year)
	}
	return nil
}
