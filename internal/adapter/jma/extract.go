package jma

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/couchcryptid/weather-traffic-etl/internal/domain"
	"github.com/couchcryptid/weather-traffic-etl/internal/observability"
)

// ErrTableNotFound marks a page without the expected data table. Callers
// log it and treat the month as empty.
var ErrTableNotFound = errors.New("weather data table not found")

const (
	// tableSelector is the structural marker of the daily data table.
	tableSelector = "table.data2_s"
	// headerRows is the height of the multi-line column header.
	headerRows = 2
	// minCells is the minimum cell count of a plausible data row.
	minCells = 20
)

// dailyColumns maps measurement fields to their cell offsets in the daily
// table. Upstream layout changes are absorbed here, not scattered through
// the extraction code.
var dailyColumns = struct {
	day           int
	avgTemp       int
	maxTemp       int
	minTemp       int
	precipitation int
	maxWindSpeed  int
	sunshineHours int
	avgHumidity   int
}{
	day:           0,
	avgTemp:       6,
	maxTemp:       7,
	minTemp:       8,
	precipitation: 11,
	maxWindSpeed:  15,
	sunshineHours: 18,
	avgHumidity:   20,
}

// Extractor turns one month's listing page into day-level observations.
type Extractor struct {
	stations *StationDirectory
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewExtractor creates a table extractor backed by the given directory.
func NewExtractor(stations *StationDirectory, metrics *observability.Metrics, logger *slog.Logger) *Extractor {
	return &Extractor{stations: stations, metrics: metrics, logger: logger}
}

// ExtractMonth parses the rendered page for one (location, year, month)
// into observations ordered by day ascending. Header, footer, and malformed
// rows are skipped without failing the month; a missing data table yields
// ErrTableNotFound.
func (e *Extractor) ExtractMonth(page []byte, location string, year int, month time.Month) ([]domain.WeatherObservation, error) {
	station, ok := e.stations.Lookup(location)
	if !ok {
		return nil, fmt.Errorf("%q: %w", location, ErrUnknownStation)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	table := doc.Find(tableSelector).First()
	if table.Length() == 0 {
		return nil, ErrTableNotFound
	}

	var observations []domain.WeatherObservation

	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i < headerRows {
			return
		}

		cells := cellTexts(row)
		if len(cells) < minCells {
			e.metrics.RowsSkipped.Inc()
			return
		}

		obs, ok := e.extractRow(cells, station, location, year, month)
		if !ok {
			e.metrics.RowsSkipped.Inc()
			return
		}

		e.metrics.RowsExtracted.Inc()
		observations = append(observations, obs)
	})

	return observations, nil
}

// extractRow reads one data row through the column map. Any structural
// problem (non-digit day, offset past the row's end) rejects just this row.
func (e *Extractor) extractRow(cells []string, station Station, location string, year int, month time.Month) (domain.WeatherObservation, bool) {
	dayText, ok := cellAt(cells, dailyColumns.day)
	if !ok || !allDigits(dayText) {
		return domain.WeatherObservation{}, false
	}
	day, err := strconv.Atoi(dayText)
	if err != nil {
		return domain.WeatherObservation{}, false
	}

	obs := domain.WeatherObservation{
		LocationCode: station.LocationCode(),
		LocationName: location,
		Date:         domain.DateString(year, int(month), day),
	}

	for _, field := range []struct {
		offset int
		dest   **float64
	}{
		{dailyColumns.avgTemp, &obs.AvgTemp},
		{dailyColumns.maxTemp, &obs.MaxTemp},
		{dailyColumns.minTemp, &obs.MinTemp},
		{dailyColumns.precipitation, &obs.Precipitation},
		{dailyColumns.maxWindSpeed, &obs.MaxWindSpeed},
		{dailyColumns.sunshineHours, &obs.SunshineHours},
		{dailyColumns.avgHumidity, &obs.AvgHumidity},
	} {
		text, ok := cellAt(cells, field.offset)
		if !ok {
			return domain.WeatherObservation{}, false
		}
		*field.dest = domain.ParseValue(text)
	}

	return obs, true
}

// cellTexts collects the trimmed text of every td/th cell in a row.
func cellTexts(row *goquery.Selection) []string {
	var texts []string
	row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
		texts = append(texts, strings.TrimSpace(cell.Text()))
	})
	return texts
}

func cellAt(cells []string, i int) (string, bool) {
	if i < 0 || i >= len(cells) {
		return "", false
	}
	return cells[i], true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
