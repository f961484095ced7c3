package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"ertragswert/server/internal/models"
)

// CPIReading is the persisted form of one CPI publication
type CPIReading struct {
	ID         uint      `gorm:"primaryKey"`
	Year       int       `gorm:"not null;uniqueIndex:idx_cpi_period"`
	Month      int       `gorm:"not null;uniqueIndex:idx_cpi_period"`
	IndexValue float64   `gorm:"not null"`
	BaseYear   int       `gorm:"not null"`
	FetchedAt  time.Time `gorm:"not null"`
}

func (CPIReading) TableName() string {
	return "cpi_readings"
}

type Database struct {
	db *gorm.DB
}

// NewDatabase opens (and creates if needed) the sqlite file at dbPath
func NewDatabase(dbPath string) (*Database, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return open(dbPath)
}

// NewTestDB opens a private in-memory database
func NewTestDB() (*Database, error) {
	return open("file::memory:")
}

func open(dsn string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer; an in-memory database only lives on one connection
	sqlDB.SetMaxOpenConns(1)

	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveCPIReadings upserts readings keyed by (year, month)
func (d *Database) SaveCPIReadings(readings []models.CPIPoint) error {
	if len(readings) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([]CPIReading, len(readings))
	for i, r := range readings {
		rows[i] = CPIReading{
			Year:       r.Year,
			Month:      r.Month,
			IndexValue: r.IndexValue,
			BaseYear:   r.BaseYear,
			FetchedAt:  now,
		}
	}

	return d.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "year"}, {Name: "month"}},
			DoUpdates: clause.AssignmentColumns([]string{"index_value", "base_year", "fetched_at"}),
		}).CreateInBatches(rows, 200).Error
		if err != nil {
			return fmt.Errorf("failed to upsert cpi readings: %w", err)
		}
		return nil
	})
}

// GetCPIReadings returns all stored readings ordered by period
func (d *Database) GetCPIReadings() ([]models.CPIPoint, error) {
	var rows []CPIReading
	if err := d.db.Order("year, month").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query cpi readings: %w", err)
	}

	readings := make([]models.CPIPoint, len(rows))
	for i, r := range rows {
		readings[i] = models.CPIPoint{
			Year:       r.Year,
			Month:      r.Month,
			IndexValue: r.IndexValue,
			BaseYear:   r.BaseYear,
		}
	}
	return readings, nil
}

// GetCPIReading returns one stored reading, or nil when the period is unknown
func (d *Database) GetCPIReading(year, month int) (*models.CPIPoint, error) {
	var row CPIReading
	result := d.db.Where("year = ? AND month = ?", year, month).Limit(1).Find(&row)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to query cpi reading: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &models.CPIPoint{
		Year:       row.Year,
		Month:      row.Month,
		IndexValue: row.IndexValue,
		BaseYear:   row.BaseYear,
	}, nil
}
