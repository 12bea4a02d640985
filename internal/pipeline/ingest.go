package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/couchcryptid/weather-traffic-etl/internal/domain"
	"github.com/couchcryptid/weather-traffic-etl/internal/observability"
)

// RangeScraper produces a date range's observations for one location.
type RangeScraper interface {
	ScrapeRange(ctx context.Context, location, start, end string) ([]domain.WeatherObservation, error)
}

// ObservationStore applies observation batches idempotently.
type ObservationStore interface {
	UpsertWeather(ctx context.Context, records []domain.WeatherObservation) (int, error)
	UpsertTraffic(ctx context.Context, records []domain.TrafficObservation) (int, error)
}

// Exporter publishes applied observations to an external feed. Export is
// best-effort: a failure is logged, never fatal to the run.
type Exporter interface {
	PublishWeather(ctx context.Context, records []domain.WeatherObservation) error
}

// Summary reports what an ingestion run did.
type Summary struct {
	Scraped int // records produced by scraping
	Applied int // records accepted by the store
}

// Ingestor drives scrape-then-store runs over a set of locations.
type Ingestor struct {
	scraper  RangeScraper
	store    ObservationStore
	exporter Exporter // nil disables export
	metrics  *observability.Metrics
	logger   *slog.Logger
	ready    atomic.Bool
}

// NewIngestor creates an ingestion runner. Pass a nil exporter to disable
// publishing.
func NewIngestor(scraper RangeScraper, store ObservationStore, exporter Exporter, metrics *observability.Metrics, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		scraper:  scraper,
		store:    store,
		exporter: exporter,
		metrics:  metrics,
		logger:   logger,
	}
}

// CheckReadiness returns nil once at least one batch has been applied.
func (ing *Ingestor) CheckReadiness(_ context.Context) error {
	if !ing.ready.Load() {
		return errors.New("no observation batch applied yet")
	}
	return nil
}

// Run scrapes [start, end] for each location in turn and applies the
// results. Scrape failures inside a month are already absorbed below; an
// error here means invalid input dates or a store failure.
func (ing *Ingestor) Run(ctx context.Context, locations []string, start, end string) (Summary, error) {
	ing.metrics.IngestRunning.Set(1)
	defer ing.metrics.IngestRunning.Set(0)

	var summary Summary
	for _, location := range locations {
		if ctx.Err() != nil {
			ing.logger.Info("ingestion stopping", "reason", ctx.Err())
			break
		}

		records, err := ing.scraper.ScrapeRange(ctx, location, start, end)
		if err != nil {
			return summary, err
		}
		summary.Scraped += len(records)

		applied, err := ing.store.UpsertWeather(ctx, records)
		if err != nil {
			return summary, fmt.Errorf("apply weather batch for %s: %w", location, err)
		}
		summary.Applied += applied
		if applied > 0 {
			ing.ready.Store(true)
		}

		if ing.exporter != nil && len(records) > 0 {
			if err := ing.exporter.PublishWeather(ctx, records); err != nil {
				ing.logger.Warn("export failed", "location", location, "error", err)
			}
		}
	}

	ing.logger.Info("ingestion run finished", "scraped", summary.Scraped, "applied", summary.Applied)
	return summary, nil
}

// LoadTrafficFile reads a traffic census CSV and applies its rows. Returns
// the number of records accepted by the store.
func (ing *Ingestor) LoadTrafficFile(ctx context.Context, path string) (int, error) {
	records, err := ReadTrafficCSV(path)
	if err != nil {
		return 0, err
	}

	applied, err := ing.store.UpsertTraffic(ctx, records)
	if err != nil {
		return 0, fmt.Errorf("apply traffic batch: %w", err)
	}
	if applied > 0 {
		ing.ready.Store(true)
	}
	return applied, nil
}
