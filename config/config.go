package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Server struct {
		Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
		Port int    `env:"SERVER_PORT" envDefault:"5250"`

		// Allowed CORS origins. Empty allows all.
		FrontendURLs []string `env:"FRONTEND_URLS" envSeparator:","`

		LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	}

	CPI struct {
		// Index of October 2001 on the current base series
		BaseOct2001 float64 `env:"CPI_BASE_OCT_2001" envDefault:"84.5"`

		// Reference year (index = 100) stamped on scraped readings
		BaseYear int `env:"CPI_BASE_YEAR" envDefault:"2020"`

		SourceURL string `env:"CPI_SOURCE_URL" envDefault:"https://www.rateinflation.com/consumer-price-index/germany-historical-cpi/"`
		DBPath    string `env:"CPI_DB_PATH" envDefault:"database/cpi.db"`

		// Hours between refreshes of the CPI table
		RefreshInterval int `env:"CPI_REFRESH_INTERVAL" envDefault:"24"`

		// Seconds before a CPI download is abandoned
		HTTPTimeout int `env:"CPI_HTTP_TIMEOUT" envDefault:"15"`
	}

	BatchProcessing struct {
		// Maximum number of properties accepted in one batch request
		MaxBatchSize int `env:"BATCH_MAX_SIZE" envDefault:"100"`

		// Number of concurrent valuation workers per batch
		ProcessorCount int `env:"BATCH_PROCESSOR_COUNT" envDefault:"4"`
	}

	LLM struct {
		APIKey      string  `env:"GEMINI_API_KEY"`
		Model       string  `env:"LLM_MODEL" envDefault:"gemini-2.0-flash"`
		Temperature float64 `env:"LLM_TEMPERATURE" envDefault:"0.2"`
	}
}

// LoadConfig reads an optional .env file and then the process environment
func LoadConfig(envFiles ...string) (*Config, error) {
	// A missing .env is not an error
	_ = godotenv.Load(envFiles...)

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT out of range: %d", c.Server.Port)
	}
	if c.CPI.BaseOct2001 <= 0 {
		return fmt.Errorf("CPI_BASE_OCT_2001 must be positive, got %v", c.CPI.BaseOct2001)
	}
	if c.CPI.RefreshInterval <= 0 {
		return fmt.Errorf("CPI_REFRESH_INTERVAL must be positive, got %d", c.CPI.RefreshInterval)
	}
	if c.CPI.HTTPTimeout <= 0 {
		return fmt.Errorf("CPI_HTTP_TIMEOUT must be positive, got %d", c.CPI.HTTPTimeout)
	}
	if c.BatchProcessing.MaxBatchSize <= 0 || c.BatchProcessing.ProcessorCount <= 0 {
		return fmt.Errorf("BATCH_MAX_SIZE and BATCH_PROCESSOR_COUNT must be positive")
	}
	if _, err := logrus.ParseLevel(c.Server.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// Addr is the host:port the HTTP server listens on
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.CPI.RefreshInterval) * time.Hour
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.CPI.HTTPTimeout) * time.Second
}

// Level returns the configured logrus level, defaulting to info
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.Server.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
