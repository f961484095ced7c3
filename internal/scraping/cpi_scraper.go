package scraping

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"ertragswert/server/internal/models"
)

// DefaultCPISourceURL publishes the German CPI as a year x month table
const DefaultCPISourceURL = "https://www.rateinflation.com/consumer-price-index/germany-historical-cpi/"

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var ErrTableNotFound = errors.New("cpi table not found in page")

var monthColumns = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// CPIScraper downloads and parses the historical CPI table
type CPIScraper struct {
	logger   *logrus.Logger
	client   *http.Client
	url      string
	baseYear int
}

// NewCPIScraper creates a scraper for the given page. Readings are stamped
// with baseYear, the year the published series is normalized to.
func NewCPIScraper(url string, baseYear int, timeout time.Duration, logger *logrus.Logger) *CPIScraper {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if url == "" {
		url = DefaultCPISourceURL
	}
	if baseYear <= 0 {
		baseYear = models.DefaultCPIBaseYear
	}

	return &CPIScraper{
		logger:   logger,
		client:   &http.Client{Timeout: timeout},
		url:      url,
		baseYear: baseYear,
	}
}

// Fetch downloads the page and returns every published reading
func (s *CPIScraper) Fetch(ctx context.Context) ([]models.CPIPoint, error) {
	s.logger.WithField("url", s.url).Info("Fetching CPI table")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.WithError(err).WithField("url", s.url).Error("CPI request failed")
		return nil, fmt.Errorf("cpi request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("cpi source returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	readings, err := ParseCPITable(resp.Body, s.baseYear)
	if err != nil {
		s.logger.WithError(err).WithField("url", s.url).Error("Failed to parse CPI table")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"url":      s.url,
		"readings": len(readings),
	}).Info("Successfully parsed CPI table")
	return readings, nil
}

// ParseCPITable reads the first table of an HTML page laid out as one row
// per year with one column per month. Rows whose first cell is not a year
// and empty or non-numeric month cells are skipped.
func ParseCPITable(r io.Reader, baseYear int) ([]models.CPIPoint, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, ErrTableNotFound
	}

	// column index -> month number
	columns := make(map[int]int)
	table.Find("thead th").Each(func(i int, th *goquery.Selection) {
		name := strings.ToLower(strings.TrimSpace(th.Text()))
		if len(name) > 3 {
			name = name[:3]
		}
		if month, ok := monthColumns[name]; ok && i > 0 {
			columns[i] = month
		}
	})
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: no month columns in header", ErrTableNotFound)
	}

	var readings []models.CPIPoint
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() == 0 {
			return
		}

		year, err := strconv.Atoi(strings.TrimSpace(cells.First().Text()))
		if err != nil {
			return
		}

		cells.Each(func(i int, td *goquery.Selection) {
			month, ok := columns[i]
			if !ok {
				return
			}
			value, ok := parseIndexValue(td.Text())
			if !ok {
				return
			}
			readings = append(readings, models.CPIPoint{
				Year:       year,
				Month:      month,
				IndexValue: value,
				BaseYear:   baseYear,
			})
		})
	})

	return readings, nil
}

func parseIndexValue(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	// some renderings use a decimal comma
	if !strings.Contains(text, ".") {
		text = strings.Replace(text, ",", ".", 1)
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", ""), 64)
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}
