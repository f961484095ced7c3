package scraping

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ertragswert/server/internal/models"
)

const cpiPage = `
<html>
  <body>
    <table>
      <thead>
        <tr>
          <th>Year</th><th>Jan</th><th>Feb</th><th>Mar</th><th>Apr</th><th>May</th><th>Jun</th>
          <th>Jul</th><th>Aug</th><th>Sep</th><th>Oct</th><th>Nov</th><th>Dec</th><th>Annual</th>
        </tr>
      </thead>
      <tbody>
        <tr>
          <td>2024</td><td>120.5</td><td>121.0</td><td></td><td></td><td></td><td></td>
          <td></td><td></td><td></td><td></td><td></td><td></td><td></td>
        </tr>
        <tr>
          <td>2023</td><td>115.0</td><td>115.5</td><td>116.0</td><td>116.5</td><td>116.8</td><td>117.0</td>
          <td>117.2</td><td>117.4</td><td>117.8</td><td>118.5</td><td>118.0</td><td>118.2</td><td>117.0</td>
        </tr>
        <tr>
          <td>Source</td><td colspan="13">Destatis</td>
        </tr>
      </tbody>
    </table>
  </body>
</html>`

func TestParseCPITable(t *testing.T) {
	readings, err := ParseCPITable(strings.NewReader(cpiPage), 2020)
	require.NoError(t, err)
	require.Len(t, readings, 14)

	byPeriod := make(map[models.CPIPeriod]models.CPIPoint)
	for _, r := range readings {
		byPeriod[r.Period()] = r
	}

	assert.Equal(t, models.CPIPoint{Year: 2023, Month: 1, IndexValue: 115.0, BaseYear: 2020}, byPeriod[models.CPIPeriod{Year: 2023, Month: 1}])
	assert.Equal(t, 118.5, byPeriod[models.CPIPeriod{Year: 2023, Month: 10}].IndexValue)
	assert.Equal(t, 121.0, byPeriod[models.CPIPeriod{Year: 2024, Month: 2}].IndexValue)
	assert.NotContains(t, byPeriod, models.CPIPeriod{Year: 2024, Month: 3})
}

func TestParseCPITable_NoTable(t *testing.T) {
	_, err := ParseCPITable(strings.NewReader("<html><body><p>No table here</p></body></html>"), 2020)
	assert.True(t, errors.Is(err, ErrTableNotFound))
}

func TestParseCPITable_NoMonthHeader(t *testing.T) {
	page := `<table><thead><tr><th>Year</th><th>Value</th></tr></thead><tbody><tr><td>2024</td><td>1</td></tr></tbody></table>`
	_, err := ParseCPITable(strings.NewReader(page), 2020)
	assert.True(t, errors.Is(err, ErrTableNotFound))
}

func TestParseIndexValue(t *testing.T) {
	tests := []struct {
		in    string
		value float64
		ok    bool
	}{
		{" 118.5 ", 118.5, true},
		{"118,5", 118.5, true},
		{"1,118.5", 1118.5, true},
		{"", 0, false},
		{"n/a", 0, false},
		{"-1", 0, false},
	}
	for _, tt := range tests {
		value, ok := parseIndexValue(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		assert.Equal(t, tt.value, value, "input %q", tt.in)
	}
}

func TestCPIScraper_Fetch(t *testing.T) {
	var userAgentSeen string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgentSeen = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(cpiPage))
	}))
	defer server.Close()

	scraper := NewCPIScraper(server.URL, 0, 5*time.Second, logrus.New())
	readings, err := scraper.Fetch(context.Background())

	require.NoError(t, err)
	assert.Len(t, readings, 14)
	assert.Equal(t, models.DefaultCPIBaseYear, readings[0].BaseYear)
	assert.Contains(t, userAgentSeen, "Mozilla/5.0")
}

func TestCPIScraper_FetchBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer server.Close()

	scraper := NewCPIScraper(server.URL, 2020, 5*time.Second, logrus.New())
	_, err := scraper.Fetch(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}

func TestCPIScraper_FetchCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(cpiPage))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scraper := NewCPIScraper(server.URL, 2020, 5*time.Second, nil)
	_, err := scraper.Fetch(ctx)
	assert.Error(t, err)
}
