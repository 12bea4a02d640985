package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// scrape-and-store pipeline.
type Metrics struct {
	// Fetch metrics.
	PagesFetched  *prometheus.CounterVec // labels: outcome={ok,timeout,transport,http_status}
	FetchDuration prometheus.Histogram

	// Extraction metrics.
	RowsExtracted prometheus.Counter
	RowsSkipped   prometheus.Counter

	// Orchestration metrics.
	MonthsScraped *prometheus.CounterVec // labels: result={ok,empty,failed}
	IngestRunning prometheus.Gauge

	// Storage metrics.
	RecordsUpserted *prometheus.CounterVec // labels: table={weather,traffic}
	RecordsSkipped  *prometheus.CounterVec // labels: table={weather,traffic}
}

func newMetrics() *Metrics {
	return &Metrics{
		PagesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "pages_fetched_total",
			Help:      "Month listing pages requested, by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_etl",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of upstream page requests.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		RowsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "rows_extracted_total",
			Help:      "Day rows successfully extracted from listing tables.",
		}),
		RowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "rows_skipped_total",
			Help:      "Malformed or non-data table rows skipped.",
		}),
		MonthsScraped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "months_scraped_total",
			Help:      "Per-month scrape attempts, by result.",
		}, []string{"result"}),
		IngestRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weather_etl",
			Name:      "ingest_running",
			Help:      "1 while an ingestion run is active, 0 otherwise.",
		}),
		RecordsUpserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "records_upserted_total",
			Help:      "Observation records applied to the store, by table.",
		}, []string{"table"}),
		RecordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "records_skipped_total",
			Help:      "Observation records rejected before insert, by table.",
		}, []string{"table"}),
	}
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.PagesFetched,
		m.FetchDuration,
		m.RowsExtracted,
		m.RowsSkipped,
		m.MonthsScraped,
		m.IngestRunning,
		m.RecordsUpserted,
		m.RecordsSkipped,
	)
	return m
}

// NewMetricsForTesting creates Metrics left unregistered, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
