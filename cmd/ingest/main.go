// Command ingest scrapes daily weather observations for the requested
// locations and date range, optionally loads a traffic census CSV, and
// applies everything to the SQLite store. An HTTP sidecar exposes health,
// readiness, metrics, and store stats while the run is in progress.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	httpadapter "github.com/couchcryptid/weather-traffic-etl/internal/adapter/http"
	"github.com/couchcryptid/weather-traffic-etl/internal/adapter/jma"
	kafkaadapter "github.com/couchcryptid/weather-traffic-etl/internal/adapter/kafka"
	"github.com/couchcryptid/weather-traffic-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/weather-traffic-etl/internal/config"
	"github.com/couchcryptid/weather-traffic-etl/internal/observability"
	"github.com/couchcryptid/weather-traffic-etl/internal/pipeline"
)

func main() {
	var (
		locationsFlag = flag.String("locations", "", "comma-separated location names (default: every known station)")
		startFlag     = flag.String("start", "", "start date, YYYY-MM-DD (required)")
		endFlag       = flag.String("end", "", "end date inclusive, YYYY-MM-DD (default: start)")
		trafficFlag   = flag.String("traffic-csv", "", "optional traffic census CSV to load")
	)
	flag.Parse()

	// A missing .env file is fine; real environments set variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if *startFlag == "" {
		logger.Error("missing required -start flag")
		os.Exit(1)
	}
	end := *endFlag
	if end == "" {
		end = *startFlag
	}

	stations, err := loadStations(cfg.StationsFile)
	if err != nil {
		logger.Error("failed to load station directory", "error", err)
		os.Exit(1)
	}

	locations := stations.Names()
	if *locationsFlag != "" {
		locations = splitLocations(*locationsFlag)
	}

	store, err := sqlite.Open(cfg.DBPath, metrics, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	client := jma.NewClient(cfg.JMABaseURL, stations, cfg.ScrapeDelay, cfg.FetchTimeout, clockwork.NewRealClock(), metrics, logger)
	extractor := jma.NewExtractor(stations, metrics, logger)
	scraper := pipeline.NewScraper(client, extractor, metrics, logger)

	var exporter pipeline.Exporter
	var kafkaWriter *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		kafkaWriter = kafkaadapter.NewWriter(cfg, logger)
		exporter = kafkaWriter
		logger.Info("kafka export enabled", "topic", cfg.KafkaTopic)
	}

	ingestor := pipeline.NewIngestor(scraper, store, exporter, metrics, logger)

	srv := httpadapter.NewServer(cfg.HTTPAddr, ingestor, store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	runErr := run(ctx, ingestor, locations, *startFlag, end, *trafficFlag, logger)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaWriter != nil {
		if err := kafkaWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	if runErr != nil {
		logger.Error("ingestion failed", "error", runErr)
		os.Exit(1)
	}
	logger.Info("done")
}

func run(ctx context.Context, ingestor *pipeline.Ingestor, locations []string, start, end, trafficCSV string, logger *slog.Logger) error {
	summary, err := ingestor.Run(ctx, locations, start, end)
	if err != nil {
		return err
	}
	logger.Info("weather ingestion complete", "scraped", summary.Scraped, "applied", summary.Applied)

	if trafficCSV != "" {
		applied, err := ingestor.LoadTrafficFile(ctx, trafficCSV)
		if err != nil {
			return fmt.Errorf("load traffic csv: %w", err)
		}
		logger.Info("traffic load complete", "applied", applied)
	}

	return nil
}

func loadStations(path string) (*jma.StationDirectory, error) {
	if path == "" {
		return jma.DefaultDirectory(), nil
	}
	return jma.LoadDirectory(path)
}

func splitLocations(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
