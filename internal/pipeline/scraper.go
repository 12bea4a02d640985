// Package pipeline orchestrates scraping weather observations and applying
// them, together with traffic feeds, to the store.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-traffic-etl/internal/domain"
	"github.com/couchcryptid/weather-traffic-etl/internal/observability"
)

// PageFetcher retrieves one month's raw listing page for a location.
type PageFetcher interface {
	FetchMonth(ctx context.Context, location string, year int, month time.Month) ([]byte, error)
}

// TableExtractor converts a raw listing page into day-level observations.
type TableExtractor interface {
	ExtractMonth(page []byte, location string, year int, month time.Month) ([]domain.WeatherObservation, error)
}

// Scraper walks locations and calendar months, delegating to the fetcher
// and extractor. A failed month is logged and contributes nothing; it never
// stops the rest of the batch. There are no retries; pacing inside the
// fetcher is the only upstream-protection mechanism.
type Scraper struct {
	fetcher   PageFetcher
	extractor TableExtractor
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewScraper creates a scrape orchestrator.
func NewScraper(fetcher PageFetcher, extractor TableExtractor, metrics *observability.Metrics, logger *slog.Logger) *Scraper {
	return &Scraper{
		fetcher:   fetcher,
		extractor: extractor,
		metrics:   metrics,
		logger:    logger,
	}
}

// ScrapeMonth returns the observations for one (location, year, month).
// Any stage failure yields an empty result.
func (s *Scraper) ScrapeMonth(ctx context.Context, location string, year int, month time.Month) []domain.WeatherObservation {
	page, err := s.fetcher.FetchMonth(ctx, location, year, month)
	if err != nil {
		s.logger.Error("month fetch failed",
			"location", location, "year", year, "month", int(month), "error", err)
		s.metrics.MonthsScraped.WithLabelValues("failed").Inc()
		return nil
	}

	records, err := s.extractor.ExtractMonth(page, location, year, month)
	if err != nil {
		s.logger.Warn("month extraction failed",
			"location", location, "year", year, "month", int(month), "error", err)
		s.metrics.MonthsScraped.WithLabelValues("failed").Inc()
		return nil
	}

	result := "ok"
	if len(records) == 0 {
		result = "empty"
	}
	s.metrics.MonthsScraped.WithLabelValues(result).Inc()
	s.logger.Info("month scraped", "location", location, "year", year, "month", int(month), "records", len(records))
	return records
}

// ScrapeRange concatenates ScrapeMonth over every calendar month touching
// [start, end] (both "YYYY-MM-DD", end inclusive). December rolls over to
// January of the next year. Cancelling the context stops the walk between
// months; the current month is never interrupted mid-flight.
func (s *Scraper) ScrapeRange(ctx context.Context, location, start, end string) ([]domain.WeatherObservation, error) {
	startDay, err := time.Parse("2006-01-02", start)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	endDay, err := time.Parse("2006-01-02", end)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", end, err)
	}

	var all []domain.WeatherObservation
	current := time.Date(startDay.Year(), startDay.Month(), 1, 0, 0, 0, 0, time.UTC)

	for !current.After(endDay) {
		if ctx.Err() != nil {
			s.logger.Info("range scrape stopping", "reason", ctx.Err())
			break
		}
		all = append(all, s.ScrapeMonth(ctx, location, current.Year(), current.Month())...)
		current = current.AddDate(0, 1, 0)
	}

	s.logger.Info("range scraped", "location", location, "start", start, "end", end, "records", len(all))
	return all, nil
}

// ScrapeLocations scrapes one month for several locations, keyed by
// location name. Each location fetches independently; one failing leaves
// the others untouched.
func (s *Scraper) ScrapeLocations(ctx context.Context, locations []string, year int, month time.Month) map[string][]domain.WeatherObservation {
	results := make(map[string][]domain.WeatherObservation, len(locations))
	for _, location := range locations {
		results[location] = s.ScrapeMonth(ctx, location, year, month)
	}
	return results
}
